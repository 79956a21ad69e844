//go:build unix

package progtest

import (
	"os"
	"testing"

	"github.com/creack/pty"
)

// SetupInteractive returns the two ends of a new pseudo-terminal: the
// terminal, to be passed to a program as stdin and stdout, and the controller,
// used by the test to type input and read output. Both are closed when the
// test finishes.
func SetupInteractive(t *testing.T) (terminal, controller *os.File) {
	controller, terminal, err := pty.Open()
	if err != nil {
		t.Skipf("pty.Open: %v", err)
	}
	t.Cleanup(func() {
		terminal.Close()
		controller.Close()
	})
	return terminal, controller
}
