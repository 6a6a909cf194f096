package service

import (
	"context"
	json2 "encoding/json"
	"path/filepath"
	"sort"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/maruel/natural"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/prepressworks/pagegen/model"
	"github.com/prepressworks/pagegen/pkg/utils/command"
	"github.com/prepressworks/pagegen/pkg/utils/logger"
	"github.com/prepressworks/pagegen/service/wrapper"
)

type VolumeService interface {
	GetVolumes(isUseCache bool) ([]model.VolumeModel, error)
	ResolveByPrefix(prefix string) (*model.VolumeModel, error)
	WaitForPrefix(ctx context.Context, prefix string, wake <-chan struct{}) (*model.VolumeModel, error)
	Usage(mountPoint string) (*disk.UsageStat, error)
	RemoveVolumeCache()
}

type volumeService struct {
	mountinfo wrapper.MountInfoWrapper
}

var ErrNoMatchingVolume = errors.New("no mounted volume matches the configured prefix")

// filesystems that can never hold the production share
var pseudoFSTypes = mapset.NewSet(
	"proc", "sysfs", "devtmpfs", "devpts", "tmpfs", "cgroup", "cgroup2",
	"securityfs", "pstore", "efivarfs", "bpf", "autofs", "mqueue",
	"hugetlbfs", "debugfs", "tracefs", "fusectl", "configfs", "ramfs",
	"binfmt_misc", "squashfs", "overlay", "nsfs", "rpc_pipefs",
)

func (s *volumeService) RemoveVolumeCache() {
	key := "system_volumes"
	if Cache != nil {
		Cache.Delete(key)
	}
}

// GetVolumes enumerates candidate mounted volumes in a deterministic order:
// natural sort by name, then by mount point. The same environment always
// yields the same first match.
func (s *volumeService) GetVolumes(isUseCache bool) ([]model.VolumeModel, error) {
	key := "system_volumes"

	if Cache != nil && isUseCache {
		if result, ok := Cache.Get(key); ok {
			if res, ok := result.([]model.VolumeModel); ok {
				return res, nil
			}
		}
	}

	mounts, err := s.mountinfo.GetMounts(nil)
	if err != nil {
		return nil, errors.Wrap(err, "error when enumerating mounts")
	}

	labels := lsblkLabels()

	seen := mapset.NewSet[string]()

	volumes := make([]model.VolumeModel, 0, len(mounts))
	for _, m := range mounts {
		if pseudoFSTypes.Contains(m.FSType) {
			continue
		}

		if m.Mountpoint == "/" || m.Mountpoint == "/boot" || strings.HasPrefix(m.Mountpoint, "/boot/") {
			continue
		}

		// bind mounts surface the same mount point more than once
		if !seen.Add(m.Mountpoint) {
			continue
		}

		v := model.VolumeModel{
			Device:     m.Source,
			MountPoint: m.Mountpoint,
			FSType:     m.FSType,
			Label:      labels[m.Source],
		}

		v.Name = v.Label
		if v.Name == "" {
			v.Name = filepath.Base(m.Mountpoint)
		}

		volumes = append(volumes, v)
	}

	sort.Slice(volumes, func(i, j int) bool {
		if volumes[i].Name != volumes[j].Name {
			return natural.Less(volumes[i].Name, volumes[j].Name)
		}
		return natural.Less(volumes[i].MountPoint, volumes[j].MountPoint)
	})

	if Cache != nil && len(volumes) > 0 {
		if err := Cache.Add(key, volumes, time.Second*10); err != nil {
			logger.Error("failed to add cache", zap.Error(err), zap.String("key", key))
		}
	}

	return volumes, nil
}

// ResolveByPrefix returns the first volume whose name starts with prefix.
func (s *volumeService) ResolveByPrefix(prefix string) (*model.VolumeModel, error) {
	volumes, err := s.GetVolumes(true)
	if err != nil {
		return nil, err
	}

	matches := lo.Filter(volumes, func(v model.VolumeModel, _ int) bool {
		return strings.HasPrefix(v.Name, prefix)
	})

	if len(matches) == 0 {
		return nil, ErrNoMatchingVolume
	}

	if len(matches) > 1 {
		logger.Info("multiple volumes match prefix - taking the first",
			zap.String("prefix", prefix), zap.Int("count", len(matches)))
	}

	return &matches[0], nil
}

// WaitForPrefix polls until a matching volume is mounted or ctx expires.
// A receive on wake (e.g. from the udev monitor) cuts the poll interval
// short; a nil wake channel is fine.
func (s *volumeService) WaitForPrefix(ctx context.Context, prefix string, wake <-chan struct{}) (*model.VolumeModel, error) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		s.RemoveVolumeCache()

		v, err := s.ResolveByPrefix(prefix)
		if err == nil {
			return v, nil
		}

		if !errors.Is(err, ErrNoMatchingVolume) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, errors.Wrap(ErrNoMatchingVolume, "gave up waiting for volume")
		case <-ticker.C:
		case <-wake:
		}
	}
}

func (s *volumeService) Usage(mountPoint string) (*disk.UsageStat, error) {
	usage, err := disk.Usage(mountPoint)
	if err != nil {
		return nil, errors.Wrapf(err, "error when reading usage of %s", mountPoint)
	}

	return usage, nil
}

// lsblkLabels maps device paths to filesystem labels. lsblk is absent on
// some hosts; enrichment then degrades to mount point base names.
func lsblkLabels() map[string]string {
	labels := map[string]string{}

	buf := command.ExecLSBLK()
	if buf == nil {
		return labels
	}

	blkList, err := ParseBlockDevices(buf)
	if err != nil {
		logger.Error("failed to parse lsblk output", zap.Error(err))
		return labels
	}

	var walk func(blk model.LSBLKModel)
	walk = func(blk model.LSBLKModel) {
		if blk.Path != "" && blk.Label != "" {
			labels[blk.Path] = blk.Label
		}
		for _, child := range blk.Children {
			walk(child)
		}
	}

	for _, blk := range blkList {
		walk(blk)
	}

	return labels
}

func ParseBlockDevices(buf []byte) ([]model.LSBLKModel, error) {
	var m []model.LSBLKModel

	if err := json2.Unmarshal([]byte(gjson.GetBytes(buf, "blockdevices").String()), &m); err != nil {
		return nil, err
	}

	return m, nil
}

func NewVolumeService(mountinfo wrapper.MountInfoWrapper) VolumeService {
	return &volumeService{mountinfo: mountinfo}
}
