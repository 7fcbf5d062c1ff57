package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/term"
)

// terminalConfirmer asks yes/no questions on an interactive terminal.
type terminalConfirmer struct {
	in     io.Reader
	out    io.Writer
	isTTY  func() bool
	logger hclog.Logger
}

func newTerminalConfirmer(in io.Reader, logger hclog.Logger) *terminalConfirmer {
	return &terminalConfirmer{
		in:     in,
		out:    os.Stderr,
		isTTY:  func() bool { return isTerminal(in) },
		logger: logger,
	}
}

// Confirm defaults to no. Without a terminal nothing is asked and the
// answer is no, so scripts must pass --yes.
func (c *terminalConfirmer) Confirm(prompt string) (bool, error) {
	if !c.isTTY() {
		c.logger.Warn("not a terminal, declining prompt (use --yes to skip)", "prompt", prompt)
		return false, nil
	}

	fmt.Fprintf(c.out, "%s [y/N]: ", prompt)
	line, err := bufio.NewReader(c.in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
