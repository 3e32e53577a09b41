package task

import (
	"io"
	"os/exec"

	"github.com/creack/pty"
)

// Size is the pseudo-terminal size for command tasks.
type Size struct {
	Rows uint16
	Cols uint16
}

// PTY abstracts pseudo-terminal creation so tests can substitute a pipe
// implementation for the real creack/pty one.
type PTY interface {
	// Start launches the command attached to a new pseudo-terminal and
	// returns the controlling end. Closing it detaches the terminal;
	// process cancellation is handled by the command's context.
	Start(cmd *exec.Cmd, size Size) (io.ReadWriteCloser, error)
}

// CreackPTY implements PTY using github.com/creack/pty.
type CreackPTY struct{}

var _ PTY = (*CreackPTY)(nil)

// Start implements PTY.
func (CreackPTY) Start(cmd *exec.Cmd, size Size) (io.ReadWriteCloser, error) {
	return pty.StartWithSize(cmd, &pty.Winsize{Rows: size.Rows, Cols: size.Cols})
}
