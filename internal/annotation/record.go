// Package annotation holds the typed records built from doc comment tags.
package annotation

import (
	"errors"
	"fmt"
)

// ErrUnknownTag is returned when a tag outside the vocabulary reaches Build.
// The scanner only emits vocabulary tags, so this indicates a defect.
var ErrUnknownTag = errors.New("unknown annotation tag")

// Callback identifies the method a later executor should invoke.
type Callback struct {
	Type   string `json:"type" yaml:"type"`
	Method string `json:"method" yaml:"method"`
}

func (c Callback) String() string {
	return c.Type + "." + c.Method
}

// Record is one declaration derived from a doc comment tag.
// An empty Argument or Description means the tag carried none.
type Record struct {
	Kind        Kind     `json:"kind" yaml:"kind"`
	Callback    Callback `json:"callback" yaml:"callback"`
	Argument    string   `json:"argument,omitempty" yaml:"argument,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
}

// Capability returns the registry group of the record's kind.
func (r Record) Capability() Capability {
	return r.Kind.Capability()
}

// HasArgument reports whether the tag carried content.
func (r Record) HasArgument() bool {
	return r.Argument != ""
}

// HasDescription reports whether a description line preceded the tag.
func (r Record) HasDescription() bool {
	return r.Description != ""
}

// Build maps tag to its kind and constructs the record. tag is expected in
// lower case as produced by the scanner.
func Build(tag, content string, cb Callback, description string) (Record, error) {
	kind, ok := byTag[tag]
	if !ok {
		return Record{}, fmt.Errorf("%w: %q on %s", ErrUnknownTag, tag, cb)
	}
	return Record{
		Kind:        kind,
		Callback:    cb,
		Argument:    content,
		Description: description,
	}, nil
}
