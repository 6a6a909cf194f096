package service

import (
	"context"
	"testing"
	"time"

	"github.com/moby/sys/mountinfo"
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/disk"
	"gotest.tools/v3/assert"

	"github.com/prepressworks/pagegen/pkg/config"
	model2 "github.com/prepressworks/pagegen/service/model"
)

type recordingDesktop struct {
	activated []string
	revealed  []string

	activateErr error
	revealErr   error
}

func (d *recordingDesktop) ActivateApp(name string) error {
	d.activated = append(d.activated, name)
	return d.activateErr
}

func (d *recordingDesktop) RevealPath(path string) error {
	if d.revealErr != nil {
		return d.revealErr
	}
	d.revealed = append(d.revealed, path)
	return nil
}

type recordingRunLog struct {
	saved []*model2.RunLog
}

func (r *recordingRunLog) Save(run *model2.RunLog) error {
	r.saved = append(r.saved, run)
	return nil
}

func (r *recordingRunLog) Recent(limit int) ([]model2.RunLog, error) {
	return nil, nil
}

func serverVolumeMounts() []*mountinfo.Info {
	return []*mountinfo.Info{
		{Mountpoint: "/Volumes/Server1", FSType: "smbfs", Source: "//fileserver/production"},
	}
}

func newTestWorkflow(mounts []*mountinfo.Info, desktop DesktopService, runLog RunLogService) *workflowService {
	volume := NewVolumeService(&mockMountInfo{mounts: mounts})
	return NewWorkflowService(volume, desktop, runLog, nil).(*workflowService)
}

func TestComposeMatchesHistoricalShellCommand(t *testing.T) {
	s := &workflowService{}

	cmd := s.Compose("/Volumes/Server1/")

	assert.Equal(t, cmd.Display, `LC_ALL=en_GB.utf-8 /usr/local/bin/python3 /Volumes/Server1/Production\ Resources/Master\ pages/ms-py-indesign/gen.py --master=/Volumes/Server1/Production\ Resources/Master\ pages/2018\ Master.indd --pages_dir=/Volumes/Server1/Production\ Resources/Master\ pages/Fresh\ pages/`)

	assert.DeepEqual(t, cmd.Args, []string{
		"/Volumes/Server1/Production Resources/Master pages/ms-py-indesign/gen.py",
		"--master=/Volumes/Server1/Production Resources/Master pages/2018 Master.indd",
		"--pages_dir=/Volumes/Server1/Production Resources/Master pages/Fresh pages/",
	})

	assert.DeepEqual(t, cmd.Env, []string{"LC_ALL=en_GB.utf-8"})
	assert.Equal(t, cmd.Interpreter, "/usr/local/bin/python3")
}

func TestRunAbortsBeforeActivationWhenNoVolumeMatches(t *testing.T) {
	desktop := &recordingDesktop{}

	s := newTestWorkflow(nil, desktop, nil)
	s.execute = func(ctx context.Context, extraEnv []string, name string, arg ...string) (int, error) {
		t.Fatal("generator must not run without a resolved volume")
		return 0, nil
	}

	_, err := s.Run(context.Background(), RunOptions{})

	assert.ErrorIs(t, err, ErrNoMatchingVolume)
	assert.Equal(t, len(desktop.activated), 0)
	assert.Equal(t, len(desktop.revealed), 0)
}

func TestRunAbortsBeforeExecutionWhenActivationFails(t *testing.T) {
	desktop := &recordingDesktop{activateErr: errors.New("application not found")}

	executed := false
	s := newTestWorkflow(serverVolumeMounts(), desktop, nil)
	s.execute = func(ctx context.Context, extraEnv []string, name string, arg ...string) (int, error) {
		executed = true
		return 0, nil
	}

	_, err := s.Run(context.Background(), RunOptions{})

	assert.ErrorContains(t, err, "application not found")
	assert.Equal(t, executed, false)
	assert.Equal(t, len(desktop.revealed), 0)
}

func TestRunRevealsDespiteGeneratorFailure(t *testing.T) {
	desktop := &recordingDesktop{}
	runLog := &recordingRunLog{}

	s := newTestWorkflow(serverVolumeMounts(), desktop, runLog)
	s.execute = func(ctx context.Context, extraEnv []string, name string, arg ...string) (int, error) {
		return 3, errors.New("exit status 3")
	}

	run, err := s.Run(context.Background(), RunOptions{})

	assert.NilError(t, err)
	assert.Equal(t, run.Success, false)
	assert.Equal(t, run.ExitCode, 3)

	assert.DeepEqual(t, desktop.activated, []string{"Adobe InDesign CS5.5"})
	assert.Equal(t, len(desktop.revealed), 1)
	assert.Equal(t, desktop.revealed[0], "/Volumes/Server1/Production Resources/Master pages/Fresh pages/")

	assert.Equal(t, len(runLog.saved), 1)
	assert.Equal(t, runLog.saved[0].ExitCode, 3)
	assert.Equal(t, runLog.saved[0].Volume, "Server1")
}

func TestRunStopsBeforeRevealInStrictMode(t *testing.T) {
	previous := config.WorkflowInfo.BestEffortReveal
	config.WorkflowInfo.BestEffortReveal = "False"
	defer func() { config.WorkflowInfo.BestEffortReveal = previous }()

	desktop := &recordingDesktop{}
	runLog := &recordingRunLog{}

	s := newTestWorkflow(serverVolumeMounts(), desktop, runLog)
	s.execute = func(ctx context.Context, extraEnv []string, name string, arg ...string) (int, error) {
		return 1, errors.New("exit status 1")
	}

	run, err := s.Run(context.Background(), RunOptions{})

	assert.ErrorContains(t, err, "exited with status 1")
	assert.Equal(t, run.Success, false)
	assert.Equal(t, len(desktop.revealed), 0)

	// the failed run is still recorded
	assert.Equal(t, len(runLog.saved), 1)
}

func TestRunStopsVolumeMonitorWhenDone(t *testing.T) {
	desktop := &recordingDesktop{}

	s := newTestWorkflow(serverVolumeMounts(), desktop, nil)
	s.execute = func(ctx context.Context, extraEnv []string, name string, arg ...string) (int, error) {
		return 0, nil
	}

	monitorCtx := make(chan context.Context, 1)
	opts := RunOptions{
		Wait: time.Minute,
		Monitor: func(ctx context.Context, wake chan<- struct{}) {
			monitorCtx <- ctx
			<-ctx.Done()
		},
	}

	run, err := s.Run(context.Background(), opts)

	assert.NilError(t, err)
	assert.Equal(t, run.Success, true)

	// the monitor must not outlive the run that started it
	select {
	case ctx := <-monitorCtx:
		select {
		case <-ctx.Done():
		case <-time.After(2 * time.Second):
			t.Fatal("monitor context still live after the run returned")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("monitor never started")
	}
}

func TestRunAbortsOnLowSpaceInStrictMode(t *testing.T) {
	prevMin := config.WorkflowInfo.MinFreeMB
	prevReveal := config.WorkflowInfo.BestEffortReveal
	config.WorkflowInfo.MinFreeMB = 512
	config.WorkflowInfo.BestEffortReveal = "False"
	defer func() {
		config.WorkflowInfo.MinFreeMB = prevMin
		config.WorkflowInfo.BestEffortReveal = prevReveal
	}()

	desktop := &recordingDesktop{}

	s := newTestWorkflow(serverVolumeMounts(), desktop, nil)
	s.usage = func(mountPoint string) (*disk.UsageStat, error) {
		return &disk.UsageStat{Free: 100 * 1024 * 1024}, nil
	}
	s.execute = func(ctx context.Context, extraEnv []string, name string, arg ...string) (int, error) {
		t.Fatal("generator must not run on a volume below the space floor")
		return 0, nil
	}

	_, err := s.Run(context.Background(), RunOptions{})

	assert.ErrorContains(t, err, "MB free")
	assert.Equal(t, len(desktop.activated), 0)
	assert.Equal(t, len(desktop.revealed), 0)
}

func TestRunContinuesOnLowSpaceInBestEffortMode(t *testing.T) {
	prevMin := config.WorkflowInfo.MinFreeMB
	config.WorkflowInfo.MinFreeMB = 512
	defer func() { config.WorkflowInfo.MinFreeMB = prevMin }()

	desktop := &recordingDesktop{}
	runLog := &recordingRunLog{}

	s := newTestWorkflow(serverVolumeMounts(), desktop, runLog)
	s.usage = func(mountPoint string) (*disk.UsageStat, error) {
		return &disk.UsageStat{Free: 100 * 1024 * 1024}, nil
	}
	s.execute = func(ctx context.Context, extraEnv []string, name string, arg ...string) (int, error) {
		return 0, nil
	}

	run, err := s.Run(context.Background(), RunOptions{})

	assert.NilError(t, err)
	assert.Equal(t, run.Success, true)
	assert.Equal(t, len(desktop.revealed), 1)
	assert.Equal(t, len(runLog.saved), 1)
}

func TestRunSurfacesRevealFailure(t *testing.T) {
	desktop := &recordingDesktop{revealErr: errors.New("no such file or directory")}

	s := newTestWorkflow(serverVolumeMounts(), desktop, nil)
	s.execute = func(ctx context.Context, extraEnv []string, name string, arg ...string) (int, error) {
		return 0, nil
	}

	run, err := s.Run(context.Background(), RunOptions{})

	assert.ErrorContains(t, err, "no such file")
	assert.Equal(t, run.Success, true)
}
