// Package reflector enumerates the methods of context types and resolves the
// methods they shadow.
package reflector

import (
	"errors"
	"fmt"
)

// ErrUnknownContext is returned when a reflector has no type for a context.
var ErrUnknownContext = errors.New("unknown context")

// Context identifies a named type whose methods carry annotations.
type Context struct {
	PkgPath string
	Name    string
}

func (c Context) String() string {
	if c.PkgPath == "" {
		return c.Name
	}
	return c.PkgPath + "." + c.Name
}

// Method describes one public method of a context.
type Method struct {
	Owner string // declaring type, "pkgpath.Type"
	Name  string
	Doc   string // raw doc comment including delimiters; empty when absent
}

func (m Method) key() string {
	return m.Owner + "." + m.Name
}

func (m Method) String() string {
	return m.key()
}

// Reflector is the introspection capability the loader depends on.
type Reflector interface {
	// Methods returns the public methods of ctx in a stable order.
	Methods(ctx Context) ([]Method, error)
	// Overridden returns the method m directly shadows, if any.
	Overridden(m Method) (Method, bool)
}

// Static is a Reflector over hand-registered descriptors.
type Static struct {
	methods map[Context][]Method
	parents map[string]Method
}

func NewStatic() *Static {
	return &Static{
		methods: make(map[Context][]Method),
		parents: make(map[string]Method),
	}
}

// Define appends methods to ctx in the given order.
func (s *Static) Define(ctx Context, methods ...Method) *Static {
	s.methods[ctx] = append(s.methods[ctx], methods...)
	return s
}

// Override records that child shadows parent.
func (s *Static) Override(child, parent Method) *Static {
	s.parents[child.key()] = parent
	return s
}

func (s *Static) Methods(ctx Context) ([]Method, error) {
	methods, ok := s.methods[ctx]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownContext, ctx)
	}
	out := make([]Method, len(methods))
	copy(out, methods)
	return out, nil
}

func (s *Static) Overridden(m Method) (Method, bool) {
	parent, ok := s.parents[m.key()]
	return parent, ok
}
