package wrapper

import "github.com/moby/sys/mountinfo"

// MountInfoWrapper exists so the volume resolver can be unit-tested with
// a canned mount table instead of the real /proc/self/mountinfo.
type MountInfoWrapper interface {
	GetMounts(f mountinfo.FilterFunc) ([]*mountinfo.Info, error)
}

type MountInfo struct{}

func NewMountInfo() MountInfoWrapper {
	return &MountInfo{}
}

func (m *MountInfo) GetMounts(f mountinfo.FilterFunc) ([]*mountinfo.Info, error) {
	return mountinfo.GetMounts(f)
}
