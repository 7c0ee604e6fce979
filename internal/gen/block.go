package gen

import (
	"hwgen/internal/diag"
	"hwgen/internal/ir"
)

// Statement is anything that stands for an IR statement: the IR statements
// themselves and code blocks.
type Statement interface {
	Stmt() ir.Stmt
}

// CodeBlock is a combinational or sequential block of a generator.
type CodeBlock struct {
	gen   *Generator
	kind  ir.Sensitivity
	edges []ir.Edge
	block *ir.Block
}

// Combinational creates a combinational block.
func (g *Generator) Combinational() *CodeBlock {
	b := &CodeBlock{gen: g, kind: ir.Combinational}
	if g.cloned {
		g.enqueue(newBlockOp{b: b})
		return b
	}
	// Combinational blocks have no edges, so materialize cannot fail.
	_ = b.materialize()
	return b
}

// Sequential creates a block triggered by edges. Every edge must be a rising
// or falling edge of a signal of g.
func (g *Generator) Sequential(edges ...ir.Edge) (*CodeBlock, error) {
	for _, e := range edges {
		if e.Type != ir.Posedge && e.Type != ir.Negedge {
			return nil, diag.Preconditionf("invalid edge type %d in sensitivity list of %s", int(e.Type), g.scope())
		}
		if e.Signal == nil {
			return nil, diag.Preconditionf("sensitivity entry without a signal in %s", g.scope())
		}
		if !g.owns(e.Signal) {
			return nil, &diag.UnknownSignalError{Name: e.Signal.Name, Scope: g.scope()}
		}
	}
	b := &CodeBlock{gen: g, kind: ir.Sequential, edges: edges}
	if g.cloned {
		g.enqueue(newBlockOp{b: b})
		return b, nil
	}
	if err := b.materialize(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *CodeBlock) materialize() error {
	g := b.gen
	if b.kind == ir.Sequential {
		b.block = g.ir.Sequential()
	} else {
		b.block = g.ir.Combinational()
	}
	for _, e := range b.edges {
		if err := b.block.AddEdge(e); err != nil {
			return err
		}
	}
	g.trace(b.block)
	return nil
}

// Stmt returns the IR block, or nil while the owning clone is uninitialized.
func (b *CodeBlock) Stmt() ir.Stmt {
	if b.block == nil {
		return nil
	}
	return b.block
}

// Block returns the IR block, or nil while the owning clone is uninitialized.
func (b *CodeBlock) Block() *ir.Block {
	return b.block
}

// Kind returns ir.Combinational or ir.Sequential.
func (b *CodeBlock) Kind() ir.Sensitivity {
	return b.kind
}

// Edges returns the sensitivity list.
func (b *CodeBlock) Edges() []ir.Edge {
	return b.edges
}

// Generator returns the owning generator.
func (b *CodeBlock) Generator() *Generator {
	return b.gen
}

// Len returns the number of statements in the block.
func (b *CodeBlock) Len() int {
	if b.block == nil {
		return 0
	}
	return b.block.Len()
}

// AddStmt appends s to the block.
func (b *CodeBlock) AddStmt(s Statement) error {
	if s == nil {
		return diag.Preconditionf("unable to add a nil statement to a code block")
	}
	if _, nested := s.(*CodeBlock); nested {
		return diag.Preconditionf("cannot add statement block to another statement block")
	}
	if b.gen.cloned {
		b.gen.enqueue(blockAddStmtOp{b: b, s: s})
		return nil
	}
	stmt := s.Stmt()
	if err := b.block.Add(stmt); err != nil {
		return err
	}
	if assign, ok := stmt.(*ir.AssignStmt); ok {
		b.gen.trace(assign)
	}
	return nil
}

// RemoveStmt removes s from the block.
func (b *CodeBlock) RemoveStmt(s Statement) error {
	if s == nil {
		return diag.Preconditionf("unable to remove a nil statement from a code block")
	}
	if b.gen.cloned {
		b.gen.enqueue(blockRemoveStmtOp{b: b, s: s})
		return nil
	}
	return b.block.Remove(s.Stmt())
}

// Assign builds to = from and appends it to the block.
func (b *CodeBlock) Assign(to, from *ir.Var) (*ir.AssignStmt, error) {
	stmt, err := ir.NewAssign(to, from)
	if err != nil {
		return nil, err
	}
	if err := b.AddStmt(stmt); err != nil {
		return nil, err
	}
	return stmt, nil
}

// If appends an if statement on pred and returns it for population.
func (b *CodeBlock) If(pred *ir.Var) (*ir.IfStmt, error) {
	stmt, err := ir.NewIf(pred)
	if err != nil {
		return nil, err
	}
	if err := b.AddStmt(stmt); err != nil {
		return nil, err
	}
	return stmt, nil
}

// Switch appends a switch statement on target and returns it for population.
func (b *CodeBlock) Switch(target *ir.Var) (*ir.SwitchStmt, error) {
	stmt, err := ir.NewSwitch(target)
	if err != nil {
		return nil, err
	}
	if err := b.AddStmt(stmt); err != nil {
		return nil, err
	}
	return stmt, nil
}

// Comment attaches a comment to the block.
func (b *CodeBlock) Comment(text string) {
	if b.gen.cloned {
		b.gen.enqueue(blockCommentOp{b: b, text: text})
		return
	}
	b.block.Comment = text
}
