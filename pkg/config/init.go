package config

import (
	"log"
	"os"
	"path/filepath"

	"github.com/prepressworks/pagegen/model"
	"gopkg.in/ini.v1"
)

// the tool runs as a regular desktop user, so state defaults to the home
// directory rather than /var
var dataRoot = func() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".pagegen")
	}
	return "/var/lib/pagegen"
}()

var (
	CommonInfo = &model.CommonModel{
		RuntimePath: "/var/run/pagegen",
	}

	AppInfo = &model.APPModel{
		DBPath:      dataRoot,
		LogPath:     filepath.Join(dataRoot, "log"),
		LogSaveName: "pagegen",
		LogFileExt:  "log",
	}

	WorkflowInfo = &model.WorkflowModel{
		VolumePrefix:     "Server",
		MastersDir:       "Production Resources/Master pages",
		ScriptPath:       "ms-py-indesign/gen.py",
		MasterFile:       "2018 Master.indd",
		PagesDir:         "Fresh pages",
		Interpreter:      "/usr/local/bin/python3",
		Locale:           "en_GB.utf-8",
		LayoutApp:        "Adobe InDesign CS5.5",
		BestEffortReveal: "True",
		TimeoutSec:       0,
		MinFreeMB:        0,
	}

	EditionInfo = &model.EditionModel{}

	NotifyInfo = &model.NotifyModel{}
)

var (
	Cfg            *ini.File
	ConfigFilePath string
)

func InitSetup(config string) {
	ConfigFilePath = PageGenConfigFilePath
	if len(config) > 0 {
		ConfigFilePath = config
	}

	var err error

	// the tool must keep working with no config file at all - every key has
	// a default above
	Cfg, err = ini.LooseLoad(ConfigFilePath)
	if err != nil {
		panic(err)
	}

	mapTo("common", CommonInfo)
	mapTo("app", AppInfo)
	mapTo("workflow", WorkflowInfo)
	mapTo("edition", EditionInfo)
	mapTo("notify", NotifyInfo)
}

func SaveSetup(config string) {
	reflectFrom("common", CommonInfo)
	reflectFrom("app", AppInfo)
	reflectFrom("workflow", WorkflowInfo)
	reflectFrom("edition", EditionInfo)
	reflectFrom("notify", NotifyInfo)

	configFilePath := PageGenConfigFilePath
	if len(config) > 0 {
		configFilePath = config
	}

	if err := Cfg.SaveTo(configFilePath); err != nil {
		log.Printf("error when saving to %s", configFilePath)
		panic(err)
	}
}

func mapTo(section string, v interface{}) {
	err := Cfg.Section(section).MapTo(v)
	if err != nil {
		log.Fatalf("Cfg.MapTo %s err: %v", section, err)
	}
}

func reflectFrom(section string, v interface{}) {
	err := Cfg.Section(section).ReflectFrom(v)
	if err != nil {
		log.Fatalf("Cfg.ReflectFrom %s err: %v", section, err)
	}
}
