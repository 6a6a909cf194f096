package service

import (
	"fmt"
	"runtime"

	"github.com/pkg/errors"
	"github.com/skratchdot/open-golang/open"

	"github.com/prepressworks/pagegen/pkg/utils/command"
	"github.com/prepressworks/pagegen/pkg/utils/file"
)

// DesktopService is the injected desktop automation capability. Both
// operations are pure UI side effects on the operator's session; neither
// verifies the target application beyond what the host tools report.
type DesktopService interface {
	ActivateApp(name string) error
	RevealPath(path string) error
}

type desktopService struct{}

func (s *desktopService) ActivateApp(name string) error {
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf("tell application %q to activate", name)
		if out, err := command.OnlyExec("osascript", "-e", script); err != nil {
			return errors.Wrapf(err, "error when activating %s: %s", name, out)
		}
	default:
		// best match for "bring to foreground" outside macOS
		if out, err := command.OnlyExec("wmctrl", "-a", name); err != nil {
			return errors.Wrapf(err, "error when activating %s: %s", name, out)
		}
	}

	return nil
}

func (s *desktopService) RevealPath(path string) error {
	if !file.Exists(path) {
		return errors.Errorf("cannot reveal %s: no such file or directory", path)
	}

	switch runtime.GOOS {
	case "darwin":
		if out, err := command.OnlyExec("open", "-R", path); err != nil {
			return errors.Wrapf(err, "error when revealing %s: %s", path, out)
		}
	default:
		if err := open.Run(path); err != nil {
			return errors.Wrapf(err, "error when revealing %s", path)
		}
	}

	return nil
}

func NewDesktopService() DesktopService {
	return &desktopService{}
}
