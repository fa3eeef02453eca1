package cli

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// TerminalDetector defines the interface for terminal detection
// This allows for mocking in tests and dependency injection
type TerminalDetector interface {
	IsTerminal(fd int) bool
}

// DefaultTerminalDetector is the default implementation using golang.org/x/term
type DefaultTerminalDetector struct{}

// IsTerminal implements TerminalDetector interface
func (d *DefaultTerminalDetector) IsTerminal(fd int) bool {
	isTerminal := term.IsTerminal(fd)

	slog.Debug("terminal detection result",
		"fd", fd,
		"is_terminal", isTerminal)

	return isTerminal
}

// isInteractiveTerminal checks if the given file descriptor is an interactive terminal
func (c *CLI) isInteractiveTerminal(fd int) bool {
	if c.terminalDetector == nil {
		c.terminalDetector = &DefaultTerminalDetector{}
	}

	return c.terminalDetector.IsTerminal(fd)
}

// stopOnEnter returns a context cancelled when the user presses Enter. Input
// that is not an interactive terminal never cancels it.
func (c *CLI) stopOnEnter(ctx context.Context, in io.Reader) (context.Context, context.CancelFunc, bool) {
	ctx, cancel := context.WithCancel(ctx)

	f, ok := in.(*os.File)
	if !ok || !c.isInteractiveTerminal(int(f.Fd())) {
		return ctx, cancel, false
	}

	go func() {
		_, _ = bufio.NewReader(f).ReadString('\n')
		cancel()
	}()
	return ctx, cancel, true
}
