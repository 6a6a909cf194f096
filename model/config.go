package model

type CommonModel struct {
	RuntimePath string
}

type APPModel struct {
	DBPath      string
	LogPath     string
	LogSaveName string
	LogFileExt  string
}

// workflow configuration - path fragments are relative to the resolved volume root
type WorkflowModel struct {
	VolumePrefix     string
	MastersDir       string
	ScriptPath       string
	MasterFile       string
	PagesDir         string
	Interpreter      string
	Locale           string
	LayoutApp        string
	BestEffortReveal string
	TimeoutSec       int
	MinFreeMB        int64
}

type EditionModel struct {
	MastersJSON string
	PagesJSON   string
}

type NotifyModel struct {
	Url string
}
