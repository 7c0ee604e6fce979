package gen

import (
	"hwgen/internal/diag"
)

// MarkStmt registers s under label. Labels are unique per generator and are
// never overwritten.
func (g *Generator) MarkStmt(label string, s Statement) error {
	if s == nil {
		return diag.Preconditionf("cannot label a nil statement in %s", g.scope())
	}
	if _, ok := g.marked[label]; ok {
		return &diag.DuplicateNameError{Kind: "label", Name: label, Scope: g.scope()}
	}
	if g.cloned {
		g.marked[label] = s
		g.enqueue(markStmtOp{label: label, s: s})
		return nil
	}
	stmt := s.Stmt()
	if stmt == nil {
		return diag.Preconditionf("statement labelled %q is not materialized", label)
	}
	if err := g.ir.AddNamedBlock(label, stmt); err != nil {
		return err
	}
	g.marked[label] = s
	return nil
}

// GetMarkedStmt returns the handle registered under label.
func (g *Generator) GetMarkedStmt(label string) (Statement, error) {
	s, ok := g.marked[label]
	if !ok {
		return nil, &diag.NotFoundError{Kind: "label", Name: label, Scope: g.scope()}
	}
	return s, nil
}

// MarkedCount returns the number of labelled statements.
func (g *Generator) MarkedCount() int {
	return len(g.marked)
}
