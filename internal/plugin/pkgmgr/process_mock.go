package pkgmgr

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
)

// ExitStatusError simulates a process that exited with a non-zero status.
type ExitStatusError struct {
	Code int
}

func (e *ExitStatusError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// ExitCode returns the simulated status.
func (e *ExitStatusError) ExitCode() int {
	return e.Code
}

// MockProcessRunner is a mock implementation of ProcessRunner for testing.
type MockProcessRunner struct {
	// RunFunc allows tests to provide custom behavior.
	RunFunc func(ctx context.Context, argv []string, stdin io.Reader) (stdout, stderr []byte, err error)

	mu    sync.Mutex
	calls [][]string
}

// NewMockProcessRunner creates a mock that succeeds with empty output.
func NewMockProcessRunner() *MockProcessRunner {
	return &MockProcessRunner{}
}

// NewSuccessMockProcessRunner creates a mock that returns stdout.
func NewSuccessMockProcessRunner(stdout []byte) *MockProcessRunner {
	return &MockProcessRunner{
		RunFunc: func(context.Context, []string, io.Reader) ([]byte, []byte, error) {
			return stdout, nil, nil
		},
	}
}

// NewExitMockProcessRunner creates a mock whose process exits with code.
func NewExitMockProcessRunner(code int, stderr string) *MockProcessRunner {
	return &MockProcessRunner{
		RunFunc: func(context.Context, []string, io.Reader) ([]byte, []byte, error) {
			return nil, []byte(stderr), &ExitStatusError{Code: code}
		},
	}
}

// Run records argv and executes the mock behavior.
func (m *MockProcessRunner) Run(ctx context.Context, argv []string, stdin io.Reader) ([]byte, []byte, error) {
	m.mu.Lock()
	m.calls = append(m.calls, slices.Clone(argv))
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	if m.RunFunc != nil {
		return m.RunFunc(ctx, argv, stdin)
	}

	return nil, nil, nil
}

// Calls returns every argv passed to Run.
func (m *MockProcessRunner) Calls() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

// CallCount returns how many times Run was called.
func (m *MockProcessRunner) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// LastArgs returns the argv of the most recent call.
func (m *MockProcessRunner) LastArgs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	return slices.Clone(m.calls[len(m.calls)-1])
}
