// Package pkgmgr builds command lines for the Python package manager that
// installs plugins, either "uv pip" or "<python> -m pip".
package pkgmgr

import (
	"fmt"
	"os/exec"
	"slices"
	"strings"
)

const (
	// KindPip runs pip through a Python interpreter.
	KindPip = "pip"

	// KindUV runs the uv front end.
	KindUV = "uv"

	// DefaultPython is the interpreter used when none is configured.
	DefaultPython = "python3"
)

// LookPathFunc matches exec.LookPath.
type LookPathFunc func(file string) (string, error)

// Command is the base invocation of a package manager, e.g. ["uv", "pip"].
type Command struct {
	base []string
}

// New returns a command for the given base argv. It is mostly useful in tests.
func New(base ...string) (*Command, error) {
	if len(base) == 0 {
		return nil, fmt.Errorf("package manager command must not be empty")
	}
	return &Command{base: slices.Clone(base)}, nil
}

// UV returns the "uv pip" command.
func UV() *Command {
	return &Command{base: []string{"uv", "pip"}}
}

// Pip returns the "<python> -m pip" command.
func Pip(python string) *Command {
	if python == "" {
		python = DefaultPython
	}
	return &Command{base: []string{python, "-m", "pip"}}
}

// Detect prefers uv when it is on PATH and falls back to pip.
// A forced kind ("pip" or "uv") skips detection.
func Detect(lookPath LookPathFunc, forced, python string) (*Command, error) {
	switch forced {
	case KindUV:
		return UV(), nil
	case KindPip:
		return Pip(python), nil
	case "":
	default:
		return nil, fmt.Errorf("unknown package manager %q", forced)
	}

	if lookPath == nil {
		lookPath = exec.LookPath
	}
	if _, err := lookPath("uv"); err == nil {
		return UV(), nil
	}
	return Pip(python), nil
}

// Base returns a copy of the base argv.
func (c *Command) Base() []string {
	return slices.Clone(c.base)
}

// IsUV reports whether the command runs uv.
func (c *Command) IsUV() bool {
	return c.base[0] == KindUV
}

// Kind returns KindUV or KindPip.
func (c *Command) Kind() string {
	if c.IsUV() {
		return KindUV
	}
	return KindPip
}

// Args builds the argv for verb. uv takes the interpreter after the verb,
// pip takes it before.
//
//	uv pip install --python /venv/bin/python --user
//	python3 -m pip --python /venv/bin/python install --user
func (c *Command) Args(verb, pythonLocation string, extra ...string) []string {
	args := c.Base()

	switch {
	case pythonLocation == "":
		args = append(args, verb)
	case c.IsUV():
		args = append(args, verb, "--python", pythonLocation)
	default:
		args = append(args, "--python", pythonLocation, verb)
	}

	return append(args, extra...)
}

// String returns the base command joined by spaces.
func (c *Command) String() string {
	return strings.Join(c.base, " ")
}
