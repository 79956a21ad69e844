// Texgraph evaluates sheets of LaTeX definitions. It can be used as an
// interactive shell, as a script runner, and as a language server for
// definition sheets.
package main

import (
	"os"

	"src.texgraph.dev/pkg/buildinfo"
	"src.texgraph.dev/pkg/lsp"
	"src.texgraph.dev/pkg/pprof"
	"src.texgraph.dev/pkg/prog"
	"src.texgraph.dev/pkg/shell"
)

func main() {
	os.Exit(prog.Run(
		[3]*os.File{os.Stdin, os.Stdout, os.Stderr}, os.Args,
		prog.Composite(
			&buildinfo.Program{}, &pprof.Program{}, &lsp.Program{}, &shell.Program{})))
}
