package service

import (
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/prepressworks/pagegen/common"
	"github.com/prepressworks/pagegen/pkg/config"
	"github.com/prepressworks/pagegen/pkg/utils/logger"
	model2 "github.com/prepressworks/pagegen/service/model"
)

type NotifyServer interface {
	SendRunNotify(run *model2.RunLog) error
}

type notifyServer struct {
	client *resty.Client
}

// SendRunNotify posts the run outcome to the configured webhook. A blank
// URL disables notification; delivery problems are logged, never fatal.
func (i *notifyServer) SendRunNotify(run *model2.RunLog) error {
	url := config.NotifyInfo.Url
	if url == "" {
		return nil
	}

	payload, err := jsoniter.Marshal(map[string]interface{}{
		"service": common.ServiceName,
		"version": common.Version,
		"run":     run,
	})
	if err != nil {
		return err
	}

	response, err := i.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(url)
	if err != nil {
		logger.Error("failed to post run notify", zap.Error(err), zap.String("url", url))
		return err
	}

	if response.StatusCode() != http.StatusOK {
		logger.Error("failed to post run notify", zap.String("status", response.Status()), zap.String("url", url))
	}

	return nil
}

func NewNotifyService() NotifyServer {
	return &notifyServer{
		client: resty.New().SetTimeout(5 * time.Second).SetRetryCount(1),
	}
}
