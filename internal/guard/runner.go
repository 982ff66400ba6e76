package guard

import (
	"bytes"
	"context"
	"os/exec"
)

// CommandRunner executes a verification command and reports its exit code
// with combined output. A non-nil error means the command could not be
// started at all, not that it exited non-zero.
type CommandRunner interface {
	Run(ctx context.Context, command string) (exitCode int, output string, err error)
}

// shellRunner interprets commands through a shell so pipelines and
// redirection work the way callers wrote them.
type shellRunner struct {
	shell string
	dir   string
}

func newShellRunner(shell, dir string) *shellRunner {
	return &shellRunner{shell: shell, dir: dir}
}

func (r *shellRunner) Run(ctx context.Context, command string) (int, string, error) {
	cmd := exec.CommandContext(ctx, r.shell, "-c", command)
	cmd.Dir = r.dir

	var combined bytes.Buffer
	cmd.Stdout = &combined
	cmd.Stderr = &combined

	err := cmd.Run()
	if err == nil {
		return 0, combined.String(), nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode(), combined.String(), nil
	}
	return -1, combined.String(), err
}
