package reflector

import (
	"context"
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/types/typeutil"
)

// LoadOptions controls which packages are loaded.
type LoadOptions struct {
	Patterns []string // package patterns, default "./..."
	Tests    bool     // include _test.go files
}

// Packages is a Reflector backed by type-checked Go packages.
type Packages struct {
	pkgs   []*packages.Package
	fset   *token.FileSet
	docs   map[token.Pos]*ast.CommentGroup
	files  *fileDocs
	funcs  map[string]*types.Func
	msets  typeutil.MethodSetCache
	logger *slog.Logger
}

// Load type-checks the packages matching opts under dir.
func Load(ctx context.Context, dir string, opts LoadOptions, logger *slog.Logger) (*Packages, error) {
	logger = logger.With("component", "reflector")

	fset := token.NewFileSet()
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedTypes | packages.NeedSyntax |
			packages.NeedTypesInfo | packages.NeedImports,
		Dir:     dir,
		Context: ctx,
		Fset:    fset,
		Tests:   opts.Tests,
	}

	patterns := opts.Patterns
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("loading packages: %w", err)
	}

	logger.Info("packages loaded", "packages_count", len(pkgs), "dir", dir)

	// Log packages with errors but continue
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			logger.Warn("package load error", "package", pkg.PkgPath, "error", e.Msg)
		}
	}

	return newPackages(pkgs, fset, logger), nil
}

func newPackages(pkgs []*packages.Package, fset *token.FileSet, logger *slog.Logger) *Packages {
	p := &Packages{
		pkgs:   pkgs,
		fset:   fset,
		docs:   make(map[token.Pos]*ast.CommentGroup),
		files:  newFileDocs(logger),
		funcs:  make(map[string]*types.Func),
		logger: logger,
	}
	for _, pkg := range pkgs {
		for _, f := range pkg.Syntax {
			indexMethodDocs(f, func(name *ast.Ident, doc *ast.CommentGroup) {
				p.docs[name.Pos()] = doc
			})
		}
	}
	logger.Debug("doc comments indexed", "methods", len(p.docs))
	return p
}

// Contexts returns the named types of the loaded packages that have exported
// methods, sorted by package path and name. When names are given, only types
// whose name or qualified name matches are returned, exported or not.
func (p *Packages) Contexts(names ...string) []Context {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}

	seen := make(map[Context]bool)
	var out []Context
	for _, pkg := range p.pkgs {
		if pkg.Types == nil {
			continue
		}
		scope := pkg.Types.Scope()
		for _, name := range scope.Names() {
			tn, ok := scope.Lookup(name).(*types.TypeName)
			if !ok || tn.IsAlias() {
				continue
			}
			named, ok := tn.Type().(*types.Named)
			if !ok {
				continue
			}

			c := Context{PkgPath: pkg.PkgPath, Name: tn.Name()}
			if len(want) > 0 {
				if !want[c.Name] && !want[c.String()] {
					continue
				}
			} else if !tn.Exported() {
				continue
			}
			if seen[c] || p.exportedMethods(named) == 0 {
				continue
			}
			seen[c] = true
			out = append(out, c)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].PkgPath != out[j].PkgPath {
			return out[i].PkgPath < out[j].PkgPath
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Methods returns the exported methods of the method set of *T (T for
// interfaces), including promoted ones, ordered by name.
func (p *Packages) Methods(ctx Context) ([]Method, error) {
	named, err := p.lookup(ctx)
	if err != nil {
		return nil, err
	}

	mset := p.methodSet(named)
	var out []Method
	for i := 0; i < mset.Len(); i++ {
		fn, ok := mset.At(i).Obj().(*types.Func)
		if !ok || !fn.Exported() {
			continue
		}
		out = append(out, p.describe(fn))
	}

	p.logger.Debug("methods listed", "context", ctx.String(), "methods", len(out))
	return out, nil
}

// Overridden resolves the method m shadows through the embedded fields of its
// declaring struct. The shallowest promotion wins; among equally deep ones
// the earlier embedded field wins.
func (p *Packages) Overridden(m Method) (Method, bool) {
	fn, ok := p.funcs[m.key()]
	if !ok {
		return Method{}, false
	}
	recv := fn.Type().(*types.Signature).Recv()
	if recv == nil {
		return Method{}, false
	}
	named := receiverNamed(recv.Type())
	if named == nil || types.IsInterface(named) {
		return Method{}, false
	}
	st, ok := named.Underlying().(*types.Struct)
	if !ok {
		return Method{}, false
	}

	var (
		best      *types.Func
		bestDepth int
	)
	for i := 0; i < st.NumFields(); i++ {
		field := st.Field(i)
		if !field.Embedded() {
			continue
		}
		obj, index, _ := types.LookupFieldOrMethod(field.Type(), true, fn.Pkg(), fn.Name())
		cand, ok := obj.(*types.Func)
		if !ok || cand == fn {
			continue
		}
		if best == nil || len(index) < bestDepth {
			best, bestDepth = cand, len(index)
		}
	}
	if best == nil {
		return Method{}, false
	}
	return p.describe(best), true
}

func (p *Packages) lookup(ctx Context) (*types.Named, error) {
	for _, pkg := range p.pkgs {
		if pkg.Types == nil || (ctx.PkgPath != "" && pkg.PkgPath != ctx.PkgPath) {
			continue
		}
		tn, ok := pkg.Types.Scope().Lookup(ctx.Name).(*types.TypeName)
		if !ok {
			continue
		}
		if named, ok := tn.Type().(*types.Named); ok {
			return named, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownContext, ctx)
}

func (p *Packages) methodSet(named *types.Named) *types.MethodSet {
	if types.IsInterface(named) {
		return p.msets.MethodSet(named)
	}
	return p.msets.MethodSet(types.NewPointer(named))
}

func (p *Packages) exportedMethods(named *types.Named) int {
	mset := p.methodSet(named)
	n := 0
	for i := 0; i < mset.Len(); i++ {
		if mset.At(i).Obj().Exported() {
			n++
		}
	}
	return n
}

// describe builds the descriptor for fn and remembers fn for Overridden.
func (p *Packages) describe(fn *types.Func) Method {
	m := Method{
		Owner: ownerOf(fn),
		Name:  fn.Name(),
		Doc:   p.doc(fn),
	}
	p.funcs[m.key()] = fn
	return m
}

func (p *Packages) doc(fn *types.Func) string {
	if cg, ok := p.docs[fn.Pos()]; ok {
		return rawText(cg)
	}
	// Packages loaded from export data carry positions but no syntax.
	if !fn.Pos().IsValid() {
		return ""
	}
	pos := p.fset.Position(fn.Pos())
	if cg := p.files.lookup(pos.Filename, pos.Line, fn.Name()); cg != nil {
		return rawText(cg)
	}
	return ""
}

func ownerOf(fn *types.Func) string {
	recv := fn.Type().(*types.Signature).Recv()
	if recv == nil {
		if fn.Pkg() == nil {
			return ""
		}
		return fn.Pkg().Path()
	}
	if named := receiverNamed(recv.Type()); named != nil {
		obj := named.Origin().Obj()
		if obj.Pkg() == nil {
			return obj.Name()
		}
		return obj.Pkg().Path() + "." + obj.Name()
	}
	return types.TypeString(recv.Type(), nil)
}

func receiverNamed(t types.Type) *types.Named {
	t = types.Unalias(t)
	if ptr, ok := t.(*types.Pointer); ok {
		t = types.Unalias(ptr.Elem())
	}
	named, _ := t.(*types.Named)
	return named
}

// rawText joins the comment lines of cg, delimiters included.
func rawText(cg *ast.CommentGroup) string {
	lines := make([]string, len(cg.List))
	for i, c := range cg.List {
		lines[i] = c.Text
	}
	return strings.Join(lines, "\n")
}

// indexMethodDocs reports the doc comment of every method declaration and
// interface method in f.
func indexMethodDocs(f *ast.File, fn func(name *ast.Ident, doc *ast.CommentGroup)) {
	ast.Inspect(f, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.FuncDecl:
			if n.Recv != nil && n.Doc != nil {
				fn(n.Name, n.Doc)
			}
		case *ast.InterfaceType:
			if n.Methods == nil {
				return true
			}
			for _, field := range n.Methods.List {
				if field.Doc == nil {
					continue
				}
				for _, name := range field.Names {
					fn(name, field.Doc)
				}
			}
		}
		return true
	})
}
