package lsp

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	lsp "github.com/sourcegraph/go-lsp"
	"src.texgraph.dev/pkg/diag"
	"src.texgraph.dev/pkg/graph"
	"src.texgraph.dev/pkg/parse"
	"src.texgraph.dev/pkg/strutil"
)

// A document holds one definition per line, with an optional "label:"
// prefix. Blank lines and lines starting with % are skipped.
type document struct {
	content string
	env     *graph.Env
	defs    []definition
	diags   []lsp.Diagnostic
}

// A line of the document with a definition.
type definition struct {
	// Byte offsets of the LaTeX text in the document.
	from, to int
	// The label used, empty if the definition failed.
	label string
	err   error
}

func analyze(content string) *document {
	doc := &document{content: content, env: graph.NewEnv(), diags: []lsp.Diagnostic{}}
	lineStart := 0
	for _, line := range strings.SplitAfter(content, "\n") {
		from := lineStart
		lineStart += len(line)
		line = strutil.ChopLineEnding(line)
		if trimmed := strings.TrimSpace(line); trimmed == "" || trimmed[0] == '%' {
			continue
		}
		label, text, offset := parse.SplitLabel(line)
		def := definition{from: from + offset, to: from + len(line)}
		def.label, def.err = doc.env.Define(strings.TrimSpace(label), text)
		if def.err != nil {
			def.label = ""
			doc.diags = append(doc.diags, doc.errorDiagnostic(def, def.err))
		}
		doc.defs = append(doc.defs, def)
	}
	// Evaluation problems are only known after all lines are defined.
	for _, def := range doc.defs {
		if def.label != "" {
			doc.diags = append(doc.diags, doc.evalDiagnostics(def)...)
		}
	}
	return doc
}

func (doc *document) errorDiagnostic(def definition, err error) lsp.Diagnostic {
	r := diag.Ranging{From: 0, To: def.to - def.from}
	source := "resolve"
	var parseErr *parse.Error
	var resolutionErr *graph.ResolutionError
	msg := err.Error()
	if errors.As(err, &parseErr) {
		r, source, msg = parseErr.Range(), "parse", parseErr.Message
	} else if errors.As(err, &resolutionErr) {
		if rr := resolutionErr.Range(); rr.To > rr.From {
			r = rr
		}
	}
	return lsp.Diagnostic{
		Range:    doc.lspRange(def.from+r.From, def.from+r.To),
		Severity: lsp.Error,
		Source:   source,
		Message:  msg,
	}
}

func (doc *document) evalDiagnostics(def definition) []lsp.Diagnostic {
	v, _ := doc.env.Lookup(def.label)
	var diags []lsp.Diagnostic
	for _, dep := range sortedDeps(v) {
		if d, ok := doc.env.Lookup(dep); ok && d.Kind == graph.Unresolved && !parse.IsFreeName(dep) {
			diags = append(diags, lsp.Diagnostic{
				Range:    doc.lspRange(def.from, def.to),
				Severity: lsp.Warning,
				Source:   "resolve",
				Message:  dep + " is not defined",
			})
		}
	}
	if v.Kind == graph.Constant {
		if _, err := v.Handle().Compute(); err != nil {
			diags = append(diags, lsp.Diagnostic{
				Range:    doc.lspRange(def.from, def.to),
				Severity: lsp.Warning,
				Source:   "eval",
				Message:  err.Error(),
			})
		}
	}
	return diags
}

// Returns the definition on the line with the given byte offset.
func (doc *document) definitionAt(idx int) (definition, bool) {
	for _, def := range doc.defs {
		lineStart := strutil.FindLastSOL(doc.content[:def.from])
		if lineStart <= idx && idx <= def.to {
			return def, true
		}
	}
	return definition{}, false
}

func (doc *document) lspRange(from, to int) lsp.Range {
	return lspRangeFromRange(doc.content, diag.Ranging{From: from, To: to})
}

// Describes a variable in Markdown.
func describe(v *graph.Variable) string {
	var sb strings.Builder
	h := v.Handle()
	switch v.Kind {
	case graph.Unresolved:
		fmt.Fprintf(&sb, "`%s` is not defined", v.Name)
		return sb.String()
	case graph.Constant:
		value, err := h.Compute()
		if err != nil {
			fmt.Fprintf(&sb, "`%s`: %v", v.Name, err)
		} else {
			fmt.Fprintf(&sb, "`%s = %s`", v.Name, graph.Repr(value))
		}
	case graph.Function:
		if v.Parameterized {
			fmt.Fprintf(&sb, "`%s(%s)`: function", v.Name, strings.Join(v.Params, ", "))
		} else {
			fmt.Fprintf(&sb, "`%s`: function", v.Name)
		}
		if deps := sortedDeps(v); len(deps) > 0 {
			fmt.Fprintf(&sb, " of %s", strings.Join(deps, ", "))
		}
	}
	if t := h.VisType(); t != graph.VisNone {
		fmt.Fprintf(&sb, "\n\ndrawn as %s", t)
		if h.TimeDependent() {
			sb.WriteString(", animated")
		}
	}
	return sb.String()
}

func sortedDeps(v *graph.Variable) []string {
	deps := make([]string, 0, len(v.Dependencies()))
	for dep := range v.Dependencies() {
		deps = append(deps, dep)
	}
	sort.Strings(deps)
	return deps
}
