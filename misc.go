package main

import (
	"context"

	"github.com/pilebones/go-udev/netlink"
	"go.uber.org/zap"

	"github.com/prepressworks/pagegen/pkg/utils/logger"
)

// monitorVolumeArrival nudges the volume poller whenever udev reports a
// freshly added partition, so `run -wait` notices a just-plugged drive
// without sitting out a full poll interval. Network share mounts raise no
// uevent; the regular poll catches those.
func monitorVolumeArrival(ctx context.Context, wake chan<- struct{}) {
	var matcher netlink.Matcher

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		logger.Error("udev err", zap.Any("Unable to connect to Netlink Kobject UEvent socket", err))
		return
	}
	defer conn.Close()

	queue := make(chan netlink.UEvent)
	errs := make(chan error)
	quit := conn.Monitor(queue, errs, matcher)
	defer close(quit)

	for {
		select {
		case <-ctx.Done():
			return
		case uevent := <-queue:
			if uevent.Action == netlink.ADD && uevent.Env["DEVTYPE"] == "partition" {
				select {
				case wake <- struct{}{}:
				default:
				}
			}
		case err := <-errs:
			logger.Error("udev err", zap.Error(err))
		}
	}
}
