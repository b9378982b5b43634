package common

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// waitDelay bounds how long Run waits for output pipes after the process is killed
const waitDelay = 2 * time.Second

// CmdRunner is interface for executing external commands
type CmdRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
	LookPath(name string) (string, error)
}

// ExitError reports a command that ran and exited non-zero
type ExitError struct {
	Name   string
	Code   int
	Stderr []byte
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Name, e.Code)
}

// realCmdRunner implements CmdRunner using os/exec
type realCmdRunner struct{}

// NewCmdRunner creates a new CmdRunner
func NewCmdRunner() CmdRunner {
	return &realCmdRunner{}
}

// Run executes name and returns its stdout. When ctx ends first the process
// is killed and the context error is returned; a non-zero exit returns
// *ExitError carrying stderr; a missing binary returns an error wrapping
// exec.ErrNotFound.
func (r *realCmdRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = waitDelay

	out, err := cmd.Output()
	if err == nil {
		return out, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return out, fmt.Errorf("%s: %w", name, ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return out, &ExitError{Name: name, Code: exitErr.ExitCode(), Stderr: exitErr.Stderr}
	}

	return out, err
}

// LookPath resolves name against PATH
func (r *realCmdRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}
