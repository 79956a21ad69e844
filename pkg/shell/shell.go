// Package shell is the entry point for the terminal interface of texgraph.
package shell

import (
	"fmt"
	"os"

	"src.texgraph.dev/pkg/logutil"
	"src.texgraph.dev/pkg/prog"
	"src.texgraph.dev/pkg/store"
)

var logger = logutil.GetLogger("[shell] ")

// Program is the shell subprogram. It always runs, so it should be the last
// in a Composite.
type Program struct {
	codeInArg bool
	workbook  string
	db        *string
	json      *bool
}

func (p *Program) RegisterFlags(fs *prog.FlagSet) {
	fs.BoolVar(&p.codeInArg, "c", false, "take arguments as definitions to evaluate")
	fs.StringVar(&p.workbook, "workbook", "", "a workbook file to load before anything else")
	p.db = fs.DB()
	p.json = fs.JSON()
}

func (p *Program) Run(fds [3]*os.File, args []string) error {
	var st store.Store
	if *p.db != "" {
		dbStore, err := store.NewStore(*p.db)
		if err != nil {
			fmt.Fprintln(fds[2], "Warning: cannot open database:", err)
			fmt.Fprintln(fds[2], "History will not be saved.")
		} else {
			defer dbStore.Close()
			st = dbStore
		}
	}

	s := newSession(fds, st, *p.json)
	s.restore()
	if p.workbook != "" {
		errs := s.loadWorkbook(p.workbook)
		for _, err := range errs {
			fmt.Fprintln(fds[2], err)
		}
		if len(errs) > 0 && (p.codeInArg || len(args) > 0) {
			return prog.Exit(2)
		}
	}

	if p.codeInArg {
		return prog.Exit(evalLines(s, args))
	} else if len(args) > 0 {
		return prog.Exit(script(s, fds, args))
	}
	interact(fds, s)
	return nil
}
