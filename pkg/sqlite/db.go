package sqlite

import (
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/prepressworks/pagegen/pkg/utils/file"
	"github.com/prepressworks/pagegen/service/model"
)

var _gdb *gorm.DB

func GetDBByFile(dbFile string) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(dbFile), &gorm.Config{})
	if err != nil {
		panic(err)
	}

	c, _ := db.DB()
	c.SetMaxIdleConns(10)
	c.SetMaxOpenConns(100)
	c.SetConnMaxIdleTime(time.Second * 1000)

	if err := db.AutoMigrate(&model.RunLog{}); err != nil {
		panic(err)
	}

	return db
}

func GetGlobalDB(dbPath string) *gorm.DB {
	if _gdb != nil {
		return _gdb
	}

	if err := file.IsNotExistMkDir(dbPath); err != nil {
		panic(err)
	}

	_gdb = GetDBByFile(filepath.Join(dbPath, "pagegen.db"))

	return _gdb
}
