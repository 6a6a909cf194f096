package service

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	model2 "github.com/prepressworks/pagegen/service/model"
)

type RunLogService interface {
	Save(run *model2.RunLog) error
	Recent(limit int) ([]model2.RunLog, error)
}

type runLogService struct {
	db *gorm.DB
}

func (r *runLogService) Save(run *model2.RunLog) error {
	if result := r.db.Create(run); result.Error != nil {
		return errors.Wrap(result.Error, "error when saving run log to db")
	}

	return nil
}

func (r *runLogService) Recent(limit int) ([]model2.RunLog, error) {
	var runs []model2.RunLog

	if result := r.db.Order("started_at desc, id desc").Limit(limit).Find(&runs); result.Error != nil {
		return nil, errors.Wrap(result.Error, "error when querying run logs")
	}

	return runs, nil
}

func NewRunLogService(db *gorm.DB) RunLogService {
	return &runLogService{db: db}
}
