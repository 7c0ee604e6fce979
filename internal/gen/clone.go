package gen

import (
	"fmt"

	"hwgen/internal/ir"
)

// pendingOp is a mutation recorded on an uninitialized clone.
type pendingOp interface {
	apply(g *Generator) error
	name() string
}

type addPortOp struct{ v *ir.Var }

func (op addPortOp) name() string { return "add port " + op.v.Name }

func (op addPortOp) apply(g *Generator) error {
	g.undeclare(op.v.Name)
	if err := g.ir.AddPort(op.v); err != nil {
		return err
	}
	g.trace(op.v)
	return nil
}

type addVarOp struct{ v *ir.Var }

func (op addVarOp) name() string { return "add var " + op.v.Name }

func (op addVarOp) apply(g *Generator) error {
	g.undeclare(op.v.Name)
	return g.ir.AddVar(op.v)
}

type addParamOp struct{ v *ir.Var }

func (op addParamOp) name() string { return "add param " + op.v.Name }

func (op addParamOp) apply(g *Generator) error {
	g.undeclare(op.v.Name)
	return g.ir.AddParam(op.v)
}

type addStmtOp struct{ s Statement }

func (addStmtOp) name() string { return "add stmt" }

func (op addStmtOp) apply(g *Generator) error { return g.AddStmt(op.s) }

type removeStmtOp struct{ s Statement }

func (removeStmtOp) name() string { return "remove stmt" }

func (op removeStmtOp) apply(g *Generator) error { return g.RemoveStmt(op.s) }

type newBlockOp struct{ b *CodeBlock }

func (op newBlockOp) name() string { return "new " + op.b.kind.String() + " block" }

func (op newBlockOp) apply(g *Generator) error { return op.b.materialize() }

type blockAddStmtOp struct {
	b *CodeBlock
	s Statement
}

func (blockAddStmtOp) name() string { return "block add stmt" }

func (op blockAddStmtOp) apply(*Generator) error { return op.b.AddStmt(op.s) }

type blockRemoveStmtOp struct {
	b *CodeBlock
	s Statement
}

func (blockRemoveStmtOp) name() string { return "block remove stmt" }

func (op blockRemoveStmtOp) apply(*Generator) error { return op.b.RemoveStmt(op.s) }

type blockCommentOp struct {
	b    *CodeBlock
	text string
}

func (blockCommentOp) name() string { return "block comment" }

func (op blockCommentOp) apply(*Generator) error {
	op.b.Comment(op.text)
	return nil
}

type wireOp struct{ to, from *ir.Var }

func (op wireOp) name() string { return "wire " + op.to.String() + " " + op.from.String() }

func (op wireOp) apply(g *Generator) error {
	_, err := g.Wire(op.to, op.from)
	return err
}

type addChildOp struct {
	instance string
	child    *Generator
	comment  string
}

func (op addChildOp) name() string { return "add child " + op.instance }

func (op addChildOp) apply(g *Generator) error {
	return g.AddChildWithComment(op.instance, op.child, op.comment)
}

type removeChildOp struct{ child *Generator }

func (removeChildOp) name() string { return "remove child" }

func (op removeChildOp) apply(g *Generator) error { return g.RemoveChild(op.child) }

type replaceChildOp struct {
	instance string
	child    *Generator
}

func (op replaceChildOp) name() string { return "replace child " + op.instance }

func (op replaceChildOp) apply(g *Generator) error { return g.Replace(op.instance, op.child) }

type markStmtOp struct {
	label string
	s     Statement
}

func (op markStmtOp) name() string { return "mark stmt " + op.label }

func (op markStmtOp) apply(g *Generator) error { return g.ir.AddNamedBlock(op.label, op.s.Stmt()) }

type addFSMOp struct {
	fsm        string
	clk, reset string
}

func (op addFSMOp) name() string { return "add fsm " + op.fsm }

func (op addFSMOp) apply(g *Generator) error {
	_, err := g.AddFSM(op.fsm, op.clk, op.reset)
	return err
}

type fsmStateOp struct{ fsm, state string }

func (op fsmStateOp) name() string { return "add state " + op.state + " to fsm " + op.fsm }

func (op fsmStateOp) apply(g *Generator) error { return g.AddFSMState(op.fsm, op.state) }

func (g *Generator) enqueue(op pendingOp) {
	g.pending = append(g.pending, op)
}

// PendingCount returns the number of mutations waiting for InitializeClone.
func (g *Generator) PendingCount() int {
	return len(g.pending)
}

// InitializeClone turns an uninitialized clone into an active generator by
// replaying every recorded mutation in call order. It is a no-op on active
// generators, so replay happens at most once.
func (g *Generator) InitializeClone() error {
	if !g.cloned {
		return nil
	}
	ops := g.pending
	g.pending = nil
	g.queuedChildren = make(map[string]*Generator)
	g.cloned = false
	g.ir.IsCloned = false
	log.Debugf("initializing clone %s with %d pending operations", g.ir.Name, len(ops))
	for i, op := range ops {
		if err := op.apply(g); err != nil {
			return fmt.Errorf("gen: initialize clone %s: replay %d (%s): %w", g.ir.Name, i, op.name(), err)
		}
	}
	return nil
}
