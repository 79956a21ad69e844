// Package workbook reads and writes workbooks, YAML files holding an ordered
// list of definitions.
//
// A workbook looks like this:
//
//	title: Projectile
//	definitions:
//	  - latex: g=9.8
//	  - label: h
//	    latex: h(t)=v_0t-\frac{1}{2}gt^{2}
//	  - latex: v_0=20
//	    visible: false
package workbook

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
	"src.texgraph.dev/pkg/graph"
)

// Workbook is the content of a workbook file.
type Workbook struct {
	Title       string  `yaml:"title,omitempty"`
	Definitions []Entry `yaml:"definitions"`
}

// Entry is a definition in a workbook. An empty Label is guessed from the
// statement. Visible defaults to true.
type Entry struct {
	Label   string `yaml:"label,omitempty"`
	Latex   string `yaml:"latex"`
	Visible *bool  `yaml:"visible,omitempty"`
}

// Load reads a workbook.
func Load(r io.Reader) (*Workbook, error) {
	var wb Workbook
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&wb); err != nil {
		if err == io.EOF {
			return &wb, nil
		}
		return nil, fmt.Errorf("read workbook: %w", err)
	}
	for i, entry := range wb.Definitions {
		if entry.Latex == "" {
			return nil, fmt.Errorf("read workbook: definition %d has no latex", i+1)
		}
	}
	return &wb, nil
}

// Apply defines the entries of the workbook in order. A failed entry does not
// stop the rest from being defined; the errors of all failed entries are
// returned.
func (wb *Workbook) Apply(env *graph.Env) []error {
	var errs []error
	for i, entry := range wb.Definitions {
		label, err := env.Define(entry.Label, entry.Latex)
		if err != nil {
			errs = append(errs, fmt.Errorf("definition %d: %w", i+1, err))
			continue
		}
		if entry.Visible != nil {
			v, _ := env.Lookup(label)
			v.Handle().SetVisible(*entry.Visible)
		}
	}
	return errs
}

// Snapshot returns a workbook with the definitions of the environment, sorted
// by label. Unresolved names are skipped.
func Snapshot(env *graph.Env, title string) *Workbook {
	wb := &Workbook{Title: title}
	for _, name := range env.Names() {
		v, _ := env.Lookup(name)
		if v.Kind == graph.Unresolved {
			continue
		}
		entry := Entry{Label: name, Latex: v.Text}
		if !v.Handle().Visible() {
			hidden := false
			entry.Visible = &hidden
		}
		wb.Definitions = append(wb.Definitions, entry)
	}
	return wb
}

// Write writes the workbook in YAML.
func (wb *Workbook) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(wb); err != nil {
		return err
	}
	return enc.Close()
}
