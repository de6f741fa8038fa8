// Package report renders loaded registries for the command line.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/bndr/gotabulate"
	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/olehluchkiv/stepdefs/internal/annotation"
	"github.com/olehluchkiv/stepdefs/internal/registry"
)

// Report is the rendered view of the registries.
type Report struct {
	Contexts        []string            `json:"contexts" yaml:"contexts"`
	Definitions     []annotation.Record `json:"definitions" yaml:"definitions"`
	Transformations []annotation.Record `json:"transformations" yaml:"transformations"`
	Hooks           []annotation.Record `json:"hooks" yaml:"hooks"`
}

// Options controls rendering.
type Options struct {
	Format  string
	NoColor bool // text format only
}

// Formats lists the supported formats; the first is the default.
func Formats() []string {
	return []string{"table", "json", "yaml", "text"}
}

// FromRegistries snapshots the registries in registration order.
func FromRegistries(contexts []string, defs *registry.Definitions, hooks *registry.Hooks) Report {
	return Report{
		Contexts:        nonNil(contexts),
		Definitions:     nonNil(defs.Definitions()),
		Transformations: nonNil(defs.Transformations()),
		Hooks:           nonNil(hooks.All()),
	}
}

// Len is the total number of records.
func (r Report) Len() int {
	return len(r.Definitions) + len(r.Transformations) + len(r.Hooks)
}

// Render writes r to w in the requested format.
func Render(w io.Writer, r Report, opts Options) error {
	switch opts.Format {
	case "", "table":
		return renderTable(w, r)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	case "text":
		return renderText(w, r, opts.NoColor)
	default:
		return fmt.Errorf("unknown format: %s", opts.Format)
	}
}

func renderTable(w io.Writer, r Report) error {
	if r.Len() == 0 {
		_, err := fmt.Fprintln(w, "No annotations found.")
		return err
	}

	var rows [][]string
	for _, group := range [][]annotation.Record{r.Definitions, r.Transformations, r.Hooks} {
		for _, rec := range group {
			rows = append(rows, []string{
				rec.Kind.Title(),
				rec.Capability().String(),
				rec.Callback.String(),
				rec.Argument,
				rec.Description,
			})
		}
	}

	t := gotabulate.Create(rows)
	t.SetHeaders([]string{"Tag", "Capability", "Callback", "Argument", "Description"})
	t.SetAlign("left")
	t.SetEmptyString("-")
	t.SetWrapStrings(true)
	t.SetMaxCellSize(60)
	_, err := fmt.Fprint(w, t.Render("grid"))
	return err
}

func renderText(w io.Writer, r Report, noColor bool) error {
	palette := map[annotation.Capability]*color.Color{
		annotation.Definition:     color.New(color.FgGreen, color.Bold),
		annotation.Transformation: color.New(color.FgCyan, color.Bold),
		annotation.Hook:           color.New(color.FgYellow, color.Bold),
	}
	if noColor {
		for _, c := range palette {
			c.DisableColor()
		}
	} else {
		for _, c := range palette {
			c.EnableColor()
		}
	}

	sections := []struct {
		title string
		recs  []annotation.Record
	}{
		{"definitions", r.Definitions},
		{"transformations", r.Transformations},
		{"hooks", r.Hooks},
	}
	for _, s := range sections {
		if len(s.recs) == 0 {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s (%d)\n", s.title, len(s.recs)); err != nil {
			return err
		}
		for _, rec := range s.recs {
			tag := palette[rec.Capability()].Sprintf("@%-15s", rec.Kind.Title())
			line := fmt.Sprintf("  %s %s", tag, rec.Callback)
			if rec.HasArgument() {
				line += "  " + rec.Argument
			}
			if rec.HasDescription() {
				line += "  # " + rec.Description
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	if r.Len() == 0 {
		_, err := fmt.Fprintln(w, "No annotations found.")
		return err
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
