package gen

import (
	"fmt"

	"hwgen/internal/compile"
	"hwgen/internal/diag"
	"hwgen/internal/ir"
)

// AddCode compiles a Go code body against g's signals and inserts the result
// as one block: combinational without a sensitivity directive, sequential
// otherwise. A non-empty label marks the block.
func (g *Generator) AddCode(fn *compile.Func, comment, label string) (*CodeBlock, error) {
	if fn == nil {
		return nil, diag.Preconditionf("no code body given to %s", g.scope())
	}
	if label != "" {
		if _, taken := g.marked[label]; taken {
			return nil, &diag.DuplicateNameError{Kind: "label", Name: label, Scope: g.scope()}
		}
	}
	res, err := compile.Lower(fn, g, g.ctx.reporter)
	if err != nil {
		return nil, fmt.Errorf("gen: add code %s to %s: %w", fn.Name, g.ir.Name, err)
	}

	var block *CodeBlock
	if len(res.Edges) == 0 {
		block = g.Combinational()
	} else {
		edges := make([]ir.Edge, 0, len(res.Edges))
		for _, e := range res.Edges {
			sig, ok := g.GetVariable(e.Signal)
			if !ok {
				return nil, &diag.UnknownSignalError{Name: e.Signal, Scope: g.scope()}
			}
			edges = append(edges, ir.Edge{Type: e.Type, Signal: sig})
		}
		if block, err = g.Sequential(edges...); err != nil {
			return nil, err
		}
	}
	for _, s := range res.Stmts {
		if err := block.AddStmt(s); err != nil {
			return nil, err
		}
	}
	if comment != "" {
		block.Comment(comment)
	}
	if label != "" {
		if err := g.MarkStmt(label, block); err != nil {
			return nil, err
		}
	}
	return block, nil
}
