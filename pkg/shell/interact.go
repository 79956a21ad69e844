package shell

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"src.texgraph.dev/pkg/strutil"
	"src.texgraph.dev/pkg/sys"
)

const prompt = "texgraph> "

// Reads lines from stdin and evaluates them until EOF. The prompt is only
// shown when stdin is a terminal.
func interact(fds [3]*os.File, s *session) {
	in := bufio.NewReader(fds[0])
	showPrompt := sys.IsATTY(fds[0].Fd())
	logger.Println("interactive session started, prompt:", showPrompt)
	for {
		if showPrompt {
			fmt.Fprint(fds[1], prompt)
		}
		line, err := in.ReadString('\n')
		if line != "" {
			s.eval(strutil.ChopLineEnding(line))
		}
		if err == io.EOF {
			break
		} else if err != nil {
			fmt.Fprintln(fds[2], "Cannot read input:", err)
			break
		}
	}
	if showPrompt {
		fmt.Fprintln(fds[1])
	}
}
