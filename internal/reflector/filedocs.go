package reflector

import (
	"go/ast"
	"go/parser"
	"go/token"
	"log/slog"
)

type docKey struct {
	line int
	name string
}

// fileDocs parses source files on demand to recover method doc comments of
// packages that were type-checked from export data.
type fileDocs struct {
	fset   *token.FileSet
	byFile map[string]map[docKey]*ast.CommentGroup
	logger *slog.Logger
}

func newFileDocs(logger *slog.Logger) *fileDocs {
	return &fileDocs{
		fset:   token.NewFileSet(),
		byFile: make(map[string]map[docKey]*ast.CommentGroup),
		logger: logger,
	}
}

func (d *fileDocs) lookup(filename string, line int, name string) *ast.CommentGroup {
	if filename == "" || line == 0 {
		return nil
	}
	docs, ok := d.byFile[filename]
	if !ok {
		docs = d.parse(filename)
		d.byFile[filename] = docs
	}
	return docs[docKey{line: line, name: name}]
}

func (d *fileDocs) parse(filename string) map[docKey]*ast.CommentGroup {
	docs := make(map[docKey]*ast.CommentGroup)
	f, err := parser.ParseFile(d.fset, filename, nil, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		d.logger.Warn("failed to parse source for doc comments", "file", filename, "error", err)
		return docs
	}
	indexMethodDocs(f, func(ident *ast.Ident, doc *ast.CommentGroup) {
		docs[docKey{line: d.fset.Position(ident.Pos()).Line, name: ident.Name}] = doc
	})
	return docs
}
