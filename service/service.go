package service

import (
	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"

	"github.com/prepressworks/pagegen/service/wrapper"
)

var Cache *cache.Cache

var MyService Repository

type Repository interface {
	Volume() VolumeService
	Workflow() WorkflowService
	Desktop() DesktopService
	Edition() EditionService
	RunLog() RunLogService
	Notify() NotifyServer
}

func NewService(db *gorm.DB) Repository {
	volume := NewVolumeService(wrapper.NewMountInfo())
	desktop := NewDesktopService()
	runLog := NewRunLogService(db)
	notify := NewNotifyService()

	return &store{
		volume:   volume,
		desktop:  desktop,
		runLog:   runLog,
		notify:   notify,
		edition:  NewEditionService(),
		workflow: NewWorkflowService(volume, desktop, runLog, notify),
	}
}

type store struct {
	volume   VolumeService
	workflow WorkflowService
	desktop  DesktopService
	edition  EditionService
	runLog   RunLogService
	notify   NotifyServer
}

func (c *store) Volume() VolumeService {
	return c.volume
}

func (c *store) Workflow() WorkflowService {
	return c.workflow
}

func (c *store) Desktop() DesktopService {
	return c.desktop
}

func (c *store) Edition() EditionService {
	return c.edition
}

func (c *store) RunLog() RunLogService {
	return c.runLog
}

func (c *store) Notify() NotifyServer {
	return c.notify
}
