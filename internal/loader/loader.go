// Package loader discovers annotations on a context's methods and forwards
// them to the definition and hook registries.
package loader

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/olehluchkiv/stepdefs/internal/annotation"
	"github.com/olehluchkiv/stepdefs/internal/docscan"
	"github.com/olehluchkiv/stepdefs/internal/reflector"
)

// ErrUnsupported is returned by Chain when no loader accepts a context.
var ErrUnsupported = errors.New("no loader supports context")

// DefinitionRegistry receives step definitions and transformations.
type DefinitionRegistry interface {
	AddDefinition(rec annotation.Record)
	AddTransformation(rec annotation.Record)
}

// HookRegistry receives lifecycle hooks.
type HookRegistry interface {
	AddHook(rec annotation.Record)
}

// Loader loads the declarations of a context into registries.
type Loader interface {
	Supports(ctx reflector.Context) bool
	Load(ctx reflector.Context) error
}

// Option configures an Annotated loader.
type Option func(*Annotated)

// WithLogger sets the logger. The default discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Annotated) {
		a.logger = logger.With("component", "loader")
	}
}

// WithSupports replaces the default accept-all predicate.
func WithSupports(fn func(ctx reflector.Context) bool) Option {
	return func(a *Annotated) {
		a.supports = fn
	}
}

// Annotated reads annotations from method doc comments.
type Annotated struct {
	reflector   reflector.Reflector
	definitions DefinitionRegistry
	hooks       HookRegistry
	supports    func(ctx reflector.Context) bool
	logger      *slog.Logger
}

func New(r reflector.Reflector, definitions DefinitionRegistry, hooks HookRegistry, opts ...Option) *Annotated {
	a := &Annotated{
		reflector:   r,
		definitions: definitions,
		hooks:       hooks,
		supports:    func(reflector.Context) bool { return true },
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Annotated) Supports(ctx reflector.Context) bool {
	return a.supports(ctx)
}

// Load collects the annotations of ctx and registers each by capability.
func (a *Annotated) Load(ctx reflector.Context) error {
	records, err := a.Collect(ctx)
	if err != nil {
		return err
	}

	for _, rec := range records {
		switch rec.Capability() {
		case annotation.Definition:
			a.definitions.AddDefinition(rec)
		case annotation.Transformation:
			a.definitions.AddTransformation(rec)
		case annotation.Hook:
			a.hooks.AddHook(rec)
		default:
			return fmt.Errorf("%w: kind %s on %s", annotation.ErrUnknownTag, rec.Kind, rec.Callback)
		}
		a.logger.Debug("registered",
			"context", ctx.String(),
			"kind", rec.Kind.String(),
			"callback", rec.Callback.String(),
			"argument", rec.Argument)
	}

	a.logger.Info("context loaded", "context", ctx.String(), "annotations", len(records))
	return nil
}

// Collect returns the annotations of ctx in registration order without
// registering them: methods in reflector order, and for each method its
// furthest ancestor's annotations first.
func (a *Annotated) Collect(ctx reflector.Context) ([]annotation.Record, error) {
	methods, err := a.reflector.Methods(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing methods of %s: %w", ctx, err)
	}

	var records []annotation.Record
	for _, m := range methods {
		cb := annotation.Callback{Type: ctx.String(), Method: m.Name}
		for _, link := range a.chain(m) {
			for _, occ := range docscan.Scan(link.Doc) {
				rec, err := annotation.Build(occ.Tag, occ.Content, cb, occ.Description)
				if err != nil {
					return nil, fmt.Errorf("reading %s: %w", link, err)
				}
				records = append(records, rec)
			}
		}
	}
	return records, nil
}

// chain returns m and the methods it overrides, root first.
func (a *Annotated) chain(m reflector.Method) []reflector.Method {
	links := []reflector.Method{m}
	seen := map[reflector.Method]bool{m: true}
	for cur := m; ; {
		parent, ok := a.reflector.Overridden(cur)
		if !ok {
			break
		}
		if seen[parent] {
			a.logger.Warn("override cycle", "method", m.String(), "repeated", parent.String())
			break
		}
		seen[parent] = true
		links = append(links, parent)
		cur = parent
	}

	for i, j := 0, len(links)-1; i < j; i, j = i+1, j-1 {
		links[i], links[j] = links[j], links[i]
	}
	return links
}

// Chain selects the first loader that supports a context.
type Chain []Loader

func (c Chain) Supports(ctx reflector.Context) bool {
	for _, l := range c {
		if l.Supports(ctx) {
			return true
		}
	}
	return false
}

func (c Chain) Load(ctx reflector.Context) error {
	for _, l := range c {
		if l.Supports(ctx) {
			return l.Load(ctx)
		}
	}
	return fmt.Errorf("%w: %s", ErrUnsupported, ctx)
}
