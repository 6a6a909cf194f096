package model

type RunLog struct {
	ID         uint   `gorm:"column:id;primary_key" json:"id"`
	Volume     string `json:"volume"`
	MountPoint string `json:"mount_point"`
	Command    string `json:"command"`
	ExitCode   int    `json:"exit_code"`
	Success    bool   `json:"success"`
	Error      string `json:"error"`
	StartedAt  int64  `json:"started_at"`
	DurationMS int64  `json:"duration_ms"`
}

func (r *RunLog) TableName() string {
	return "o_run_log"
}
