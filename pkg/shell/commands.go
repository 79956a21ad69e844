package shell

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"src.texgraph.dev/pkg/graph"
	"src.texgraph.dev/pkg/parse"
	"src.texgraph.dev/pkg/strutil"
	"src.texgraph.dev/pkg/sys"
	"src.texgraph.dev/pkg/workbook"
)

// Number of entries shown by :history without an argument.
const defaultHistorySize = 20

var errNoStore = errors.New("no history database; start with -db")

type command struct {
	args string
	help string
	fn   func(s *session, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"del":     {"name", "delete a definition", (*session).del},
		"vars":    {"", "list the variables", (*session).vars},
		"eval":    {"name [args...]", "evaluate a variable", (*session).evalVar},
		"tree":    {"latex", "show the statement tree of an expression", (*session).tree},
		"history": {"[n]", "show the last n lines of history", (*session).history},
		"save":    {"file", "save the definitions to a workbook", (*session).save},
		"load":    {"file", "load the definitions of a workbook", (*session).load},
		"help":    {"", "show this help", (*session).help},
	}
}

func (s *session) command(line string) error {
	name, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("unknown command :%s; see :help", name)
	}
	if name == "tree" {
		// The argument is LaTeX and may contain spaces.
		return cmd.fn(s, []string{strings.TrimSpace(rest)})
	}
	return cmd.fn(s, strings.Fields(rest))
}

func wantArgs(args []string, lo, hi int, usage string) error {
	if len(args) < lo || (hi >= 0 && len(args) > hi) {
		return fmt.Errorf("usage: :%s", usage)
	}
	return nil
}

func (s *session) del(args []string) error {
	if err := wantArgs(args, 1, 1, "del name"); err != nil {
		return err
	}
	if err := s.env.DeleteDefinition(args[0]); err != nil {
		return err
	}
	if s.store != nil {
		if err := s.store.DelDef(args[0]); err != nil {
			logger.Println("cannot delete saved definition:", err)
		}
	}
	if v, ok := s.env.Lookup(args[0]); ok {
		fmt.Fprintf(s.out, "%s is now undefined; needed by %s\n",
			args[0], strings.Join(v.Dependents(), ", "))
	}
	return nil
}

func (s *session) vars(args []string) error {
	if err := wantArgs(args, 0, 0, "vars"); err != nil {
		return err
	}
	width := sys.Width(s.out)
	for _, name := range s.env.Names() {
		v, _ := s.env.Lookup(name)
		if s.json {
			s.showVariable(v)
			continue
		}
		line := fmt.Sprintf("%-10s %s", v.Handle().VisType(), summary(v))
		fmt.Fprintln(s.out, strutil.Truncate(line, width))
	}
	return nil
}

func (s *session) evalVar(args []string) error {
	if err := wantArgs(args, 1, -1, "eval name [args...]"); err != nil {
		return err
	}
	v, ok := s.env.Lookup(args[0])
	if !ok {
		return fmt.Errorf("%w: %s", graph.ErrUndefined, args[0])
	}
	nums := make([]float64, len(args)-1)
	for i, arg := range args[1:] {
		f, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return fmt.Errorf("argument %d: %w", i+1, err)
		}
		nums[i] = f
	}
	value, err := v.Handle().Compute(nums...)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, graph.Repr(value))
	return nil
}

func (s *session) tree(args []string) error {
	if args[0] == "" {
		return fmt.Errorf("usage: :tree latex")
	}
	n, err := parse.Parse(parse.Source{Name: "[tree]", Code: args[0]})
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, parse.Pprint(n))
	return nil
}

func (s *session) history(args []string) error {
	if err := wantArgs(args, 0, 1, "history [n]"); err != nil {
		return err
	}
	if s.store == nil {
		return errNoStore
	}
	n := defaultHistorySize
	if len(args) == 1 {
		var err error
		if n, err = strconv.Atoi(args[0]); err != nil || n <= 0 {
			return fmt.Errorf("bad history size %q", args[0])
		}
	}
	// The line of this command is the last one.
	next, err := s.store.NextSeq()
	if err != nil {
		return err
	}
	entries, err := s.store.Entries(max(1, next-1-n), next-1)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		fmt.Fprintf(s.out, "%5d  %s\n", entry.Seq, entry.Text)
	}
	return nil
}

func (s *session) save(args []string) error {
	if err := wantArgs(args, 1, 1, "save file"); err != nil {
		return err
	}
	f, err := os.Create(args[0])
	if err != nil {
		return err
	}
	if err := workbook.Snapshot(s.env, "").Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (s *session) load(args []string) error {
	if err := wantArgs(args, 1, 1, "load file"); err != nil {
		return err
	}
	return errors.Join(s.loadWorkbook(args[0])...)
}

func (s *session) help(args []string) error {
	fmt.Fprintln(s.out, "Enter a definition like a=5 or f(x)=ax^{2}, optionally prefixed")
	fmt.Fprintln(s.out, "with a label like \"h: x+1\". Commands:")
	for _, name := range sortedCommandNames() {
		cmd := commands[name]
		fmt.Fprintf(s.out, "  %-20s %s\n", ":"+strings.TrimSpace(name+" "+cmd.args), cmd.help)
	}
	return nil
}

func sortedCommandNames() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Loads a workbook file and defines its entries. With a store, the resulting
// definitions are saved like those entered on the command line.
func (s *session) loadWorkbook(path string) []error {
	f, err := os.Open(path)
	if err != nil {
		return []error{err}
	}
	defer f.Close()
	wb, err := workbook.Load(f)
	if err != nil {
		return []error{err}
	}
	errs := wb.Apply(s.env)
	if s.store != nil {
		s.saveDefs()
	}
	return errs
}

func (s *session) saveDefs() {
	for _, name := range s.env.Names() {
		v, _ := s.env.Lookup(name)
		if v.Kind == graph.Unresolved {
			continue
		}
		if err := s.store.SaveDef(name, v.Text); err != nil {
			logger.Println("cannot save definition:", err)
		}
	}
}
