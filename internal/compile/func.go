// Package compile lowers Go functions describing hardware behavior into IR
// statements.
//
// A code body is an ordinary Go function whose parameters name generator
// signals. An optional directive in its doc comment makes it sequential:
//
//	//hw:always posedge clk, negedge rst_n
//	func count(clk, rst_n bool, en bool, n uint8) {
//		if !rst_n {
//			n = 0
//		} else if en {
//			n++
//		}
//	}
//
// Parameters only exist for type checking; identifiers resolve by name
// against the generator the body is added to.
package compile

import (
	"errors"
	"fmt"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"strings"

	"hwgen/internal/ir"
)

const directivePrefix = "//hw:always"

// EdgeSpec is one entry of a sensitivity directive.
type EdgeSpec struct {
	Type   ir.EdgeType
	Signal string
}

// Func is a type-checked code body.
type Func struct {
	Name  string
	Decl  *ast.FuncDecl
	Fset  *token.FileSet
	Info  *types.Info
	Edges []EdgeSpec
}

// Sequential reports whether the body carries a sensitivity directive.
func (f *Func) Sequential() bool {
	return len(f.Edges) > 0
}

// NewFunc wraps a declaration that has already been type checked.
func NewFunc(fset *token.FileSet, decl *ast.FuncDecl, info *types.Info) (*Func, error) {
	if decl == nil || decl.Body == nil {
		return nil, fmt.Errorf("compile: function has no body")
	}
	edges, err := ParseDirective(decl.Doc)
	if err != nil {
		return nil, fmt.Errorf("compile: %s: %w", decl.Name.Name, err)
	}
	return &Func{
		Name:  decl.Name.Name,
		Decl:  decl,
		Fset:  fset,
		Info:  info,
		Edges: edges,
	}, nil
}

// ParseFunc parses and type checks src, a complete Go file, and returns the
// top-level function called name.
func ParseFunc(src, name string) (*Func, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, name+".go", src, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("compile: parse: %w", err)
	}
	info := NewInfo()
	var typeErrs []error
	conf := types.Config{
		Importer: importer.Default(),
		Error:    func(err error) { typeErrs = append(typeErrs, err) },
	}
	if _, err := conf.Check(file.Name.Name, fset, []*ast.File{file}, info); err != nil && len(typeErrs) == 0 {
		typeErrs = append(typeErrs, err)
	}
	if len(typeErrs) > 0 {
		return nil, fmt.Errorf("compile: type check: %w", errors.Join(typeErrs...))
	}
	decl := FindFunc(file, name)
	if decl == nil {
		return nil, fmt.Errorf("compile: function %q not found", name)
	}
	return NewFunc(fset, decl, info)
}

// NewInfo returns a types.Info recording everything lowering needs.
func NewInfo() *types.Info {
	return &types.Info{
		Types: make(map[ast.Expr]types.TypeAndValue),
		Defs:  make(map[*ast.Ident]types.Object),
		Uses:  make(map[*ast.Ident]types.Object),
	}
}

// FindFunc returns the top-level function declaration called name.
func FindFunc(file *ast.File, name string) *ast.FuncDecl {
	for _, d := range file.Decls {
		fn, ok := d.(*ast.FuncDecl)
		if ok && fn.Recv == nil && fn.Name.Name == name {
			return fn
		}
	}
	return nil
}

// ParseDirective extracts the sensitivity list from a doc comment. A missing
// directive yields no edges.
func ParseDirective(doc *ast.CommentGroup) ([]EdgeSpec, error) {
	if doc == nil {
		return nil, nil
	}
	for _, c := range doc.List {
		if !strings.HasPrefix(c.Text, directivePrefix) {
			continue
		}
		body := strings.TrimSpace(strings.TrimPrefix(c.Text, directivePrefix))
		if body == "" {
			return nil, fmt.Errorf("empty sensitivity list in %q", c.Text)
		}
		var edges []EdgeSpec
		for _, entry := range strings.Split(body, ",") {
			fields := strings.Fields(entry)
			if len(fields) != 2 {
				return nil, fmt.Errorf("sensitivity entry %q must read \"posedge|negedge signal\"", strings.TrimSpace(entry))
			}
			typ, err := ir.ParseEdgeType(fields[0])
			if err != nil {
				return nil, err
			}
			edges = append(edges, EdgeSpec{Type: typ, Signal: fields[1]})
		}
		return edges, nil
	}
	return nil, nil
}
