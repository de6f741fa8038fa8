// Package registry provides in-memory, append-only sinks for loaded
// definitions and hooks.
package registry

import "github.com/olehluchkiv/stepdefs/internal/annotation"

// Definitions stores step definitions and transformations in insertion order.
type Definitions struct {
	definitions     []annotation.Record
	transformations []annotation.Record
}

func NewDefinitions() *Definitions { return &Definitions{} }

func (d *Definitions) AddDefinition(rec annotation.Record) {
	d.definitions = append(d.definitions, rec)
}

func (d *Definitions) AddTransformation(rec annotation.Record) {
	d.transformations = append(d.transformations, rec)
}

// Definitions returns the given/when/then records.
func (d *Definitions) Definitions() []annotation.Record {
	return clone(d.definitions)
}

func (d *Definitions) Transformations() []annotation.Record {
	return clone(d.transformations)
}

func (d *Definitions) Len() int {
	return len(d.definitions) + len(d.transformations)
}

// Hooks stores lifecycle hooks in insertion order.
type Hooks struct {
	hooks []annotation.Record
}

func NewHooks() *Hooks { return &Hooks{} }

func (h *Hooks) AddHook(rec annotation.Record) {
	h.hooks = append(h.hooks, rec)
}

func (h *Hooks) All() []annotation.Record {
	return clone(h.hooks)
}

// ByKind returns the hooks registered for one lifecycle point.
func (h *Hooks) ByKind(kind annotation.Kind) []annotation.Record {
	var out []annotation.Record
	for _, rec := range h.hooks {
		if rec.Kind == kind {
			out = append(out, rec)
		}
	}
	return out
}

func (h *Hooks) Len() int {
	return len(h.hooks)
}

func clone(recs []annotation.Record) []annotation.Record {
	if recs == nil {
		return nil
	}
	out := make([]annotation.Record, len(recs))
	copy(out, recs)
	return out
}
