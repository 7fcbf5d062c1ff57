package pkgmgr

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
)

// ProcessRunner defines an interface for running the package manager.
// This abstraction allows for dependency injection and easier testing.
type ProcessRunner interface {
	// Run executes argv and returns its stdout, stderr and error. A non-zero
	// exit status is reported as an *exec.ExitError.
	Run(ctx context.Context, argv []string, stdin io.Reader) (stdout, stderr []byte, err error)
}

// RealProcessRunner implements ProcessRunner using os/exec.
type RealProcessRunner struct{}

// NewRealProcessRunner creates a new real process runner.
func NewRealProcessRunner() *RealProcessRunner {
	return &RealProcessRunner{}
}

// Run executes a real external process.
func (r *RealProcessRunner) Run(ctx context.Context, argv []string, stdin io.Reader) ([]byte, []byte, error) {
	if len(argv) == 0 {
		return nil, nil, errors.New("empty command")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = stdin

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// ExitCode maps a Run error to a process exit status: 0 for success, the
// process status for an *exec.ExitError, and -1 when the process never ran.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}

	var coded interface{ ExitCode() int }
	if errors.As(err, &coded) {
		return coded.ExitCode()
	}

	return -1
}
