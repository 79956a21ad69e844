//go:build unix

package shell

import (
	"os"
	"strings"
	"testing"
	"time"

	"src.texgraph.dev/pkg/prog/progtest"
	"src.texgraph.dev/pkg/testutil"
)

func TestInteract_Terminal(t *testing.T) {
	terminal, controller := progtest.SetupInteractive(t)
	done := make(chan struct{})
	go func() {
		s := newSession([3]*os.File{terminal, terminal, terminal}, nil, false)
		interact([3]*os.File{terminal, terminal, terminal}, s)
		close(done)
	}()

	output := make(chan string, 16)
	go func() {
		buf := make([]byte, 1024)
		for {
			n, err := controller.Read(buf)
			if n > 0 {
				output <- string(buf[:n])
			}
			if err != nil {
				close(output)
				return
			}
		}
	}()

	var seen strings.Builder
	waitFor := func(want string) {
		t.Helper()
		deadline := time.After(testutil.Scaled(5 * time.Second))
		for !strings.Contains(seen.String(), want) {
			select {
			case s, ok := <-output:
				if !ok {
					t.Fatalf("terminal closed before %q appeared; got %q", want, seen.String())
				}
				seen.WriteString(s)
			case <-deadline:
				t.Fatalf("timed out waiting for %q; got %q", want, seen.String())
			}
		}
	}

	waitFor(prompt)
	controller.WriteString("a=5\n")
	waitFor("a = 5")
	controller.WriteString("b=2+\n")
	// Errors on a terminal are decorated.
	waitFor("\033[31;1m")
	waitFor("missing operand")
	// Ctrl-D
	controller.WriteString("\x04")

	select {
	case <-done:
	case <-time.After(testutil.Scaled(5 * time.Second)):
		t.Fatal("interact did not return after EOF")
	}
}
