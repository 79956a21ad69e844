package shell

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"src.texgraph.dev/pkg/diag"
	"src.texgraph.dev/pkg/graph"
	"src.texgraph.dev/pkg/parse"
	"src.texgraph.dev/pkg/store"
	"src.texgraph.dev/pkg/sys"
)

// A session evaluates lines of input against an environment. A line is
// either a command starting with ':' or a definition with an optional
// "label:" prefix.
type session struct {
	env   *graph.Env
	store store.Store
	out   *os.File
	err   *os.File
	json  bool
	// Whether to decorate errors with colors and source excerpts.
	color bool
	// Number of lines evaluated, used to name sources.
	n int
}

func newSession(fds [3]*os.File, st store.Store, jsonOutput bool) *session {
	return &session{
		env: graph.NewEnv(), store: st, out: fds[1], err: fds[2],
		json: jsonOutput, color: sys.IsATTY(fds[2].Fd())}
}

// Defines the saved definitions of the store.
func (s *session) restore() {
	if s.store == nil {
		return
	}
	defs, err := s.store.Defs()
	if err != nil {
		fmt.Fprintln(s.err, "Warning: cannot restore definitions:", err)
		return
	}
	for _, def := range defs {
		if _, err := s.env.Define(def.Label, def.Text); err != nil {
			logger.Printf("cannot restore %s: %v", def.Label, err)
		}
	}
	logger.Printf("restored %d definitions", len(defs))
}

// Evaluates one line of input. Errors are shown before being returned.
func (s *session) eval(line string) error {
	if strings.TrimSpace(line) == "" {
		return nil
	}
	s.n++
	if s.store != nil {
		if _, err := s.store.AddEntry(line); err != nil {
			logger.Println("cannot add history entry:", err)
		}
	}
	var err error
	var src parse.Source
	if cmd := strings.TrimSpace(line); cmd[0] == ':' {
		src = parse.Source{Name: fmt.Sprintf("[command %d]", s.n), Code: cmd}
		err = s.command(cmd[1:])
	} else {
		label, text, _ := parse.SplitLabel(line)
		src = parse.Source{Name: fmt.Sprintf("[definition %d]", s.n), Code: text}
		err = s.define(strings.TrimSpace(label), text)
	}
	if err != nil {
		s.showError(err, src)
	}
	return err
}

func (s *session) define(label, text string) error {
	label, err := s.env.Define(label, text)
	if err != nil {
		return err
	}
	if s.store != nil {
		if err := s.store.SaveDef(label, text); err != nil {
			logger.Println("cannot save definition:", err)
		}
	}
	v, _ := s.env.Lookup(label)
	s.showVariable(v)
	return nil
}

type variableInJSON struct {
	Label   string   `json:"label"`
	Kind    string   `json:"kind"`
	Params  []string `json:"params,omitempty"`
	Deps    []string `json:"deps,omitempty"`
	Value   string   `json:"value,omitempty"`
	Error   string   `json:"error,omitempty"`
	VisType string   `json:"visType"`
}

func (s *session) showVariable(v *graph.Variable) {
	if s.json {
		vj := variableInJSON{
			Label: v.Name, Kind: v.Kind.String(), Params: v.Params,
			Deps: sortedDeps(v), VisType: v.Handle().VisType().String()}
		if v.Kind == graph.Constant {
			value, err := v.Handle().Compute()
			if err != nil {
				vj.Error = err.Error()
			} else {
				vj.Value = graph.Repr(value)
			}
		}
		fmt.Fprintf(s.out, "%s\n", mustMarshal(vj))
		return
	}
	fmt.Fprintln(s.out, summary(v))
}

// Returns a one-line summary of a variable.
func summary(v *graph.Variable) string {
	switch v.Kind {
	case graph.Unresolved:
		return v.Name + ": undefined"
	case graph.Constant:
		value, err := v.Handle().Compute()
		if err != nil {
			return fmt.Sprintf("%s: %v", v.Name, err)
		}
		return v.Name + " = " + graph.Repr(value)
	}
	var sb strings.Builder
	sb.WriteString(v.Name)
	if v.Parameterized {
		sb.WriteString("(" + strings.Join(v.Params, ",") + ")")
	}
	sb.WriteString(": function")
	if deps := sortedDeps(v); len(deps) > 0 {
		sb.WriteString(" of " + strings.Join(deps, ", "))
	}
	return sb.String()
}

func sortedDeps(v *graph.Variable) []string {
	var deps []string
	for name := range v.Dependencies() {
		deps = append(deps, name)
	}
	sort.Strings(deps)
	return deps
}

// An auxiliary struct for converting errors with diagnostics information to
// JSON.
type errorInJSON struct {
	FileName string `json:"fileName,omitempty"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Message  string `json:"message"`
}

// The tag of errors converted from *graph.ResolutionError for display.
type resolutionErrorTag struct{}

func (resolutionErrorTag) ErrorTag() string { return "resolution error" }

// Converts an error to one with a source excerpt, if it has a range.
func withContext(err error, src parse.Source) error {
	var re *graph.ResolutionError
	if errors.As(err, &re) && re.To > re.From {
		return &diag.Error[resolutionErrorTag]{
			Message: re.Kind.Error() + ": " + re.Detail,
			Context: *diag.NewContext(src.Name, src.Code, re)}
	}
	return err
}

func (s *session) showError(err error, src parse.Source) {
	switch {
	case s.json:
		fmt.Fprintf(s.out, "%s\n", errorsToJSON(withContext(err, src)))
	case s.color:
		diag.ShowError(s.err, withContext(err, src))
	default:
		fmt.Fprintln(s.err, err)
	}
}

// Converts an error to a JSON array of errors.
func errorsToJSON(err error) []byte {
	var converted []errorInJSON
	var parseErr *parse.Error
	var resolutionErr *diag.Error[resolutionErrorTag]
	switch {
	case errors.As(err, &parseErr):
		r := parseErr.Range()
		converted = append(converted,
			errorInJSON{parseErr.Context.Name, r.From, r.To, parseErr.Message})
	case errors.As(err, &resolutionErr):
		r := resolutionErr.Range()
		converted = append(converted,
			errorInJSON{resolutionErr.Context.Name, r.From, r.To, resolutionErr.Message})
	default:
		converted = append(converted, errorInJSON{Message: err.Error()})
	}
	return mustMarshal(converted)
}

func mustMarshal(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte(`[{"message":"Unable to convert to JSON"}]`)
	}
	return data
}
