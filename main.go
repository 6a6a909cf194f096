package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/prepressworks/pagegen/common"
	"github.com/prepressworks/pagegen/pkg/config"
	"github.com/prepressworks/pagegen/pkg/sqlite"
	"github.com/prepressworks/pagegen/pkg/utils/logger"
	"github.com/prepressworks/pagegen/service"
)

func init() {
	configFlag := flag.String("c", "", "config address")
	dbFlag := flag.String("db", "", "db path")

	versionFlag := flag.Bool("v", false, "version")

	flag.Usage = usage
	flag.Parse()

	if *versionFlag {
		fmt.Printf("v%s\n", common.Version)
		os.Exit(0)
	}

	config.InitSetup(*configFlag)

	logger.LogInit(config.AppInfo.LogPath, config.AppInfo.LogSaveName, config.AppInfo.LogFileExt)

	if len(*dbFlag) == 0 {
		*dbFlag = config.AppInfo.DBPath
	}

	sqliteDB := sqlite.GetGlobalDB(*dbFlag)

	service.MyService = service.NewService(sqliteDB)

	service.Cache = cache.New(5*time.Minute, 10*time.Minute)
}

func main() {
	defer logger.Sync()

	args := flag.Args()

	cmd := "run"
	if len(args) > 0 {
		cmd = args[0]
		args = args[1:]
	}

	var err error

	switch cmd {
	case "run":
		err = cmdRun(args)
	case "volumes":
		err = cmdVolumes()
	case "history":
		err = cmdHistory(args)
	case "edition":
		err = cmdEdition()
	case "template":
		err = cmdTemplate()
	case "schedule":
		err = cmdSchedule(args)
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		logger.Error("command failed", zap.String("command", cmd), zap.Error(err))
		fmt.Fprintln(os.Stderr, "pagegen:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: pagegen [flags] [command]

Commands:
  run        resolve the production volume and run page generation (default)
  volumes    list candidate mounted volumes
  history    show recent workflow runs
  edition    add a custom edition read from stdin to pages.json
  template   print a custom edition template
  schedule   run the workflow on a cron schedule until interrupted

Flags:
`)
	flag.PrintDefaults()
}

func cmdRun(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	wait := fs.Duration("wait", 0, "keep polling this long for the production volume to be mounted")
	fs.Parse(args)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return runWorkflow(ctx, *wait)
}

func runWorkflow(ctx context.Context, wait time.Duration) error {
	opts := service.RunOptions{Wait: wait}

	if wait > 0 {
		// the workflow scopes the monitor to its wait phase, so scheduled
		// sessions don't accumulate netlink sockets across firings
		opts.Monitor = monitorVolumeArrival
	}

	run, err := service.MyService.Workflow().Run(ctx, opts)
	if err != nil {
		return err
	}

	if run.Success {
		fmt.Printf("Page generation finished in %s; output revealed on %s\n",
			(time.Duration(run.DurationMS) * time.Millisecond).Round(time.Millisecond), run.Volume)
	} else {
		fmt.Printf("Page generation exited with status %d (see log); the output directory was still revealed\n", run.ExitCode)
	}

	return nil
}

func cmdVolumes() error {
	volumes, err := service.MyService.Volume().GetVolumes(false)
	if err != nil {
		return err
	}

	if len(volumes) == 0 {
		fmt.Println("no candidate volumes mounted")
		return nil
	}

	for _, v := range volumes {
		marker := " "
		if strings.HasPrefix(v.Name, config.WorkflowInfo.VolumePrefix) {
			marker = "*"
		}
		fmt.Printf("%s %-24s %-10s %s\n", marker, v.Name, v.FSType, v.MountPoint)
	}

	return nil
}

func cmdHistory(args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	n := fs.Int("n", 10, "number of runs to show")
	fs.Parse(args)

	runs, err := service.MyService.RunLog().Recent(*n)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no recorded runs")
		return nil
	}

	for _, r := range runs {
		status := "ok"
		if !r.Success {
			status = fmt.Sprintf("exit %d", r.ExitCode)
		}
		fmt.Printf("%s  %-8s  %-16s  %s\n",
			time.Unix(r.StartedAt, 0).Format("2006-01-02 15:04:05"),
			status, r.Volume,
			(time.Duration(r.DurationMS) * time.Millisecond).Round(time.Millisecond))
	}

	return nil
}

// editionPaths locates masters.json and pages.json - configured paths win,
// otherwise both live in the masters directory on the production volume.
func editionPaths() (string, string, error) {
	mastersJSON := config.EditionInfo.MastersJSON
	pagesJSON := config.EditionInfo.PagesJSON

	if mastersJSON != "" && pagesJSON != "" {
		return mastersJSON, pagesJSON, nil
	}

	vol, err := service.MyService.Volume().ResolveByPrefix(config.WorkflowInfo.VolumePrefix)
	if err != nil {
		return "", "", err
	}

	mastersDir := filepath.Join(vol.MountPoint, config.WorkflowInfo.MastersDir)
	if mastersJSON == "" {
		mastersJSON = filepath.Join(mastersDir, "masters.json")
	}
	if pagesJSON == "" {
		pagesJSON = filepath.Join(mastersDir, "pages.json")
	}

	return mastersJSON, pagesJSON, nil
}

func cmdEdition() error {
	mastersJSON, pagesJSON, err := editionPaths()
	if err != nil {
		return err
	}

	masterNames, err := service.MyService.Edition().MasterNames(mastersJSON)
	if err != nil {
		return err
	}

	text, err := io.ReadAll(os.Stdin)
	if err != nil {
		return err
	}

	edition, rejected, err := service.MyService.Edition().ParseCustomEdition(string(text), masterNames)
	if err != nil {
		return err
	}

	fmt.Printf("# Found title: %s\n", edition.Title)

	if len(edition.Pages) > 0 {
		fmt.Println("\n# These lines were interpreted OK:")
		for _, p := range edition.Pages {
			fmt.Printf("%d %s\n", p.Page, p.Master)
		}
	}

	if len(rejected) > 0 {
		fmt.Println("\n# These lines were rejected:")
		for _, r := range rejected {
			fmt.Println(r.Line)
			fmt.Printf("--> %s\n\n", r.Reason)
		}
		fmt.Println("# No special edition has been added to the generator.")
		fmt.Println("# Please fix the above problems and retry.")
		return nil
	}

	if err := service.MyService.Edition().AddCustomEdition(pagesJSON, edition); err != nil {
		return err
	}

	fmt.Printf("\n# Added %q to page generator Specials section\n", edition.Title)

	return nil
}

func cmdTemplate() error {
	mastersJSON, _, err := editionPaths()
	if err != nil {
		return err
	}

	text, err := service.MyService.Edition().TemplateText(mastersJSON)
	if err != nil {
		return err
	}

	fmt.Print(text)

	return nil
}

func cmdSchedule(args []string) error {
	fs := flag.NewFlagSet("schedule", flag.ExitOnError)
	spec := fs.String("cron", "0 6 * * 1-6", "cron expression for workflow runs")
	wait := fs.Duration("wait", time.Minute, "per-run volume wait")
	fs.Parse(args)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	crontab := cron.New()

	if _, err := crontab.AddFunc(*spec, func() {
		if err := runWorkflow(ctx, *wait); err != nil {
			logger.Error("scheduled run failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	logger.Info("workflow scheduled", zap.String("cron", *spec))
	crontab.Start()

	<-ctx.Done()
	<-crontab.Stop().Done()

	return nil
}
