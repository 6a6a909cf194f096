package command

import (
	"context"
	"os"
	"os/exec"
	"time"
)

// Every helper here takes a structured argv - path arguments with spaces
// must never pass through a shell.

// ExecWorkflow runs name with arg synchronously, inheriting the caller's
// stdin/stdout/stderr, with extraEnv appended to the inherited environment.
// Returns the process exit code; -1 means the process never started.
func ExecWorkflow(ctx context.Context, extraEnv []string, name string, arg ...string) (int, error) {
	cmd := exec.CommandContext(ctx, name, arg...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), extraEnv...)

	if err := cmd.Run(); err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			return exitError.ExitCode(), err
		}
		return -1, err
	}

	return 0, nil
}

func OnlyExec(name string, arg ...string) (string, error) {
	cmd := exec.Command(name, arg...)
	buf, err := cmd.CombinedOutput()
	return string(buf), err
}

// 执行 lsblk 命令
func ExecLSBLK() []byte {
	timeout := 3
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, "lsblk", "-O", "-J", "-b").Output()
	if err != nil {
		return nil
	}
	return output
}
