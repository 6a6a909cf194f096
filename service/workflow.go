package service

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/disk"
	"go.uber.org/zap"

	"github.com/prepressworks/pagegen/model"
	"github.com/prepressworks/pagegen/pkg/config"
	"github.com/prepressworks/pagegen/pkg/utils/command"
	"github.com/prepressworks/pagegen/pkg/utils/logger"
	model2 "github.com/prepressworks/pagegen/service/model"
)

// WorkflowCommand is the fully composed generator invocation. Args and Env
// are what actually runs; Display reproduces the historical shell line for
// logs and the run history.
type WorkflowCommand struct {
	Interpreter string
	Args        []string
	Env         []string
	MastersDir  string
	ScriptPath  string
	MasterFile  string
	PagesDir    string
	Display     string
}

type RunOptions struct {
	// Wait > 0 keeps polling up to this long for the volume to be mounted.
	Wait time.Duration
	// Monitor, when set, runs only for the duration of the wait and may
	// send on the channel to cut the poll interval short (udev arrival
	// events). Its context is cancelled when the wait phase ends.
	Monitor func(ctx context.Context, wake chan<- struct{})
}

type WorkflowService interface {
	Compose(serverPath string) WorkflowCommand
	Run(ctx context.Context, opts RunOptions) (*model2.RunLog, error)
}

type workflowService struct {
	volume  VolumeService
	desktop DesktopService
	runLog  RunLogService
	notify  NotifyServer

	execute func(ctx context.Context, extraEnv []string, name string, arg ...string) (int, error)
	usage   func(mountPoint string) (*disk.UsageStat, error)
}

// Compose derives the generator invocation from the resolved volume path.
// Pure string work; it does not check that any of the paths exist.
func (s *workflowService) Compose(serverPath string) WorkflowCommand {
	mastersDir := filepath.Join(serverPath, config.WorkflowInfo.MastersDir)
	scriptPath := filepath.Join(mastersDir, config.WorkflowInfo.ScriptPath)
	masterFile := filepath.Join(mastersDir, config.WorkflowInfo.MasterFile)
	pagesDir := filepath.Join(mastersDir, config.WorkflowInfo.PagesDir) + "/"

	localeEnv := "LC_ALL=" + config.WorkflowInfo.Locale

	return WorkflowCommand{
		Interpreter: config.WorkflowInfo.Interpreter,
		Args: []string{
			scriptPath,
			"--master=" + masterFile,
			"--pages_dir=" + pagesDir,
		},
		Env:        []string{localeEnv},
		MastersDir: mastersDir,
		ScriptPath: scriptPath,
		MasterFile: masterFile,
		PagesDir:   pagesDir,
		Display: localeEnv + " " + config.WorkflowInfo.Interpreter +
			" " + escapeSpaces(scriptPath) +
			" --master=" + escapeSpaces(masterFile) +
			" --pages_dir=" + escapeSpaces(pagesDir),
	}
}

// Run executes the whole workflow in its fixed order: resolve volume,
// activate the layout application, run the generator, record the outcome,
// reveal the output directory. A resolution or activation failure aborts
// before any later step runs.
func (s *workflowService) Run(ctx context.Context, opts RunOptions) (*model2.RunLog, error) {
	prefix := config.WorkflowInfo.VolumePrefix

	var vol *model.VolumeModel
	var err error

	if opts.Wait > 0 {
		waitCtx, cancel := context.WithTimeout(ctx, opts.Wait)
		defer cancel()

		var wake chan struct{}
		if opts.Monitor != nil {
			wake = make(chan struct{}, 1)
			go opts.Monitor(waitCtx, wake)
		}

		vol, err = s.volume.WaitForPrefix(waitCtx, prefix, wake)
	} else {
		vol, err = s.volume.ResolveByPrefix(prefix)
	}

	if err != nil {
		return nil, err
	}

	logger.Info("resolved production volume",
		zap.String("name", vol.Name), zap.String("mount point", vol.MountPoint))

	if min := config.WorkflowInfo.MinFreeMB; min > 0 {
		if usage, err := s.usage(vol.MountPoint); err != nil {
			logger.Error("error when checking free space", zap.Error(err), zap.String("mount point", vol.MountPoint))
		} else if usage.Free < uint64(min)*1024*1024 {
			if !bestEffortReveal() {
				return nil, errors.Errorf("only %d MB free on %s, %d MB required", usage.Free/1024/1024, vol.MountPoint, min)
			}
			logger.Info("volume is low on space",
				zap.Uint64("free bytes", usage.Free), zap.String("mount point", vol.MountPoint))
		}
	}

	cmd := s.Compose(vol.MountPoint)

	if err := s.desktop.ActivateApp(config.WorkflowInfo.LayoutApp); err != nil {
		return nil, err
	}

	execCtx := ctx
	if t := config.WorkflowInfo.TimeoutSec; t > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, time.Duration(t)*time.Second)
		defer cancel()
	}

	logger.Info("running page generation", zap.String("command", cmd.Display))

	started := time.Now()
	exitCode, execErr := s.execute(execCtx, cmd.Env, cmd.Interpreter, cmd.Args...)

	run := &model2.RunLog{
		Volume:     vol.Name,
		MountPoint: vol.MountPoint,
		Command:    cmd.Display,
		ExitCode:   exitCode,
		Success:    execErr == nil,
		StartedAt:  started.Unix(),
		DurationMS: time.Since(started).Milliseconds(),
	}
	if execErr != nil {
		run.Error = execErr.Error()
	}

	if s.runLog != nil {
		if err := s.runLog.Save(run); err != nil {
			logger.Error("error when saving run log", zap.Error(err))
		}
	}

	if s.notify != nil {
		if err := s.notify.SendRunNotify(run); err != nil {
			logger.Error("failed to send notify", zap.Error(err))
		}
	}

	if execErr != nil {
		if !bestEffortReveal() {
			return run, errors.Wrapf(execErr, "page generation exited with status %d", exitCode)
		}
		logger.Error("page generation failed - revealing output anyway",
			zap.Int("exit code", exitCode), zap.Error(execErr))
	}

	if err := s.desktop.RevealPath(cmd.PagesDir); err != nil {
		return run, err
	}

	return run, nil
}

func bestEffortReveal() bool {
	return strings.EqualFold(config.WorkflowInfo.BestEffortReveal, "True")
}

func escapeSpaces(path string) string {
	return strings.ReplaceAll(path, " ", `\ `)
}

func NewWorkflowService(volume VolumeService, desktop DesktopService, runLog RunLogService, notify NotifyServer) WorkflowService {
	return &workflowService{
		volume:  volume,
		desktop: desktop,
		runLog:  runLog,
		notify:  notify,
		execute: command.ExecWorkflow,
		usage:   volume.Usage,
	}
}
