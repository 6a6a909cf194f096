package model

// VolumeModel is a mounted volume as seen by the resolver. Name is the
// filesystem label when one exists, otherwise the base name of the mount
// point.
type VolumeModel struct {
	Name       string `json:"name"`
	Device     string `json:"device"`
	MountPoint string `json:"mount_point"`
	FSType     string `json:"fs_type"`
	Label      string `json:"label"`
}

// LSBLKModel is the subset of `lsblk -O -J -b` output the resolver needs
// for label enrichment.
type LSBLKModel struct {
	Name       string       `json:"name"`
	Path       string       `json:"path"`
	FsType     string       `json:"fstype"`
	Label      string       `json:"label"`
	MountPoint string       `json:"mountpoint"`
	RM         bool         `json:"rm"`
	RO         bool         `json:"ro"`
	Type       string       `json:"type"`
	Children   []LSBLKModel `json:"children"`
}
