// Package prog provides the entry point to texgraph. The subprograms, the
// language server and the shell, are implemented in other packages and
// composed here.
package prog

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"src.texgraph.dev/pkg/logutil"
)

var logger = logutil.GetLogger("[prog] ")

// Program represents a subprogram.
type Program interface {
	// RegisterFlags registers the flags of the subprogram.
	RegisterFlags(fs *FlagSet)
	// Run runs the subprogram. It may return ErrNextProgram or the result of
	// NextProgram to ask Composite to run the next program instead.
	Run(fds [3]*os.File, args []string) error
}

// FlagSet wraps a flag.FlagSet to provide flags shared by several
// subprograms.
type FlagSet struct {
	*flag.FlagSet
	db   *string
	json *bool
}

// DB returns a pointer to the value of the -db flag, registering it on the
// first call.
func (fs *FlagSet) DB() *string {
	if fs.db == nil {
		var db string
		fs.StringVar(&db, "db", "", "path to the history database")
		fs.db = &db
	}
	return fs.db
}

// JSON returns a pointer to the value of the -json flag, registering it on the
// first call.
func (fs *FlagSet) JSON() *bool {
	if fs.json == nil {
		var json bool
		fs.BoolVar(&json, "json", false, "show errors and values in JSON")
		fs.json = &json
	}
	return fs.json
}

type commonFlags struct {
	log  string
	help bool
}

func usage(out io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(out, "Usage: texgraph [flags] [definitions...]")
	fmt.Fprintln(out, "Supported flags:")
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// Run parses command-line flags and runs the first applicable subprogram. It
// returns the exit status of the program.
func Run(fds [3]*os.File, args []string, p Program) int {
	fs := flag.NewFlagSet("texgraph", flag.ContinueOnError)
	// Error and usage will be printed explicitly.
	fs.SetOutput(io.Discard)

	var f commonFlags
	fs.StringVar(&f.log, "log", "", "a file to write debug log to")
	fs.BoolVar(&f.help, "help", false, "show usage help and quit")
	p.RegisterFlags(&FlagSet{FlagSet: fs})

	err := fs.Parse(args[1:])
	if err != nil {
		if err == flag.ErrHelp {
			// (*flag.FlagSet).Parse returns ErrHelp when -h or -help was
			// requested but *not* defined. Since -help is defined, this means
			// that -h has been requested.
			fmt.Fprintln(fds[2], "flag provided but not defined: -h")
		} else {
			fmt.Fprintln(fds[2], err)
		}
		usage(fds[2], fs)
		return 2
	}

	if f.log != "" {
		if err := logutil.SetOutputFile(f.log); err != nil {
			fmt.Fprintln(fds[2], err)
		}
	}
	if f.help {
		usage(fds[1], fs)
		return 0
	}

	logger.Println("running with arguments", fs.Args())
	err = p.Run(fds, fs.Args())
	if err == nil {
		return 0
	}
	if IsNextProgram(err) {
		err = errNoSuitableSubprogram
	}
	if msg := err.Error(); msg != "" {
		fmt.Fprintln(fds[2], msg)
	}
	var badUsage badUsageError
	var exit exitError
	switch {
	case errors.As(err, &badUsage):
		usage(fds[2], fs)
	case errors.As(err, &exit):
		return exit.exit
	}
	return 2
}

// Composite returns a Program made up of several subprograms. It registers
// the flags of all of them, and runs them in turn until one of them returns
// something other than a next-program error. The cleanups carried by those
// errors are run in reverse order before Run returns.
func Composite(programs ...Program) Program {
	return composite(programs)
}

type composite []Program

func (cp composite) RegisterFlags(f *FlagSet) {
	for _, p := range cp {
		p.RegisterFlags(f)
	}
}

func (cp composite) Run(fds [3]*os.File, args []string) error {
	var cleanups []func([3]*os.File)
	defer func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i](fds)
		}
	}()
	for _, p := range cp {
		err := p.Run(fds, args)
		np, ok := err.(*nextProgramError)
		if !ok {
			return err
		}
		cleanups = append(cleanups, np.cleanups...)
	}
	return ErrNextProgram
}

// ErrNextProgram is a special error that may be returned by Program.Run that
// is part of a Composite program, indicating that the next program should be
// tried.
var ErrNextProgram error = &nextProgramError{}

// NextProgram is like ErrNextProgram, but also carries functions to run after
// the program that does run finishes. This is how a subprogram that only
// sets up the environment of other subprograms, like a profiler, is written.
func NextProgram(cleanups ...func([3]*os.File)) error {
	return &nextProgramError{cleanups}
}

// IsNextProgram returns whether err is ErrNextProgram or was returned by
// NextProgram.
func IsNextProgram(err error) bool {
	_, ok := err.(*nextProgramError)
	return ok
}

type nextProgramError struct{ cleanups []func([3]*os.File) }

func (e *nextProgramError) Error() string { return "next program" }

var errNoSuitableSubprogram = errors.New("internal error: no suitable subprogram")

// BadUsage returns a special error that may be returned by Program.Run. It
// causes the main function to print out a message, the usage information and
// exit with 2.
func BadUsage(msg string) error { return badUsageError{msg} }

type badUsageError struct{ msg string }

func (e badUsageError) Error() string { return e.msg }

// Exit returns a special error that may be returned by Program.Run. It causes
// the main function to exit with the given code without printing any error
// messages. Exit(0) returns nil.
func Exit(exit int) error {
	if exit == 0 {
		return nil
	}
	return exitError{exit}
}

type exitError struct{ exit int }

func (e exitError) Error() string { return "" }
