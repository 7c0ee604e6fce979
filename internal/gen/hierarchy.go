package gen

import (
	"hwgen/internal/diag"
	"hwgen/internal/ir"
)

// AddChild instantiates child under instance.
func (g *Generator) AddChild(instance string, child *Generator) error {
	return g.AddChildWithComment(instance, child, "")
}

// AddChildWithComment instantiates child under instance and attaches a
// comment to the link.
func (g *Generator) AddChildWithComment(instance string, child *Generator, comment string) error {
	if child == nil {
		return diag.Preconditionf("cannot add a nil child to %s", g.scope())
	}
	if child == g {
		return diag.Preconditionf("%s cannot instantiate itself", g.scope())
	}
	if g.cloned {
		if _, ok := g.queuedChildren[instance]; ok {
			return &diag.DuplicateNameError{Kind: "child", Name: instance, Scope: g.scope()}
		}
		g.queuedChildren[instance] = child
		g.enqueue(addChildOp{instance: instance, child: child, comment: comment})
		return nil
	}
	if _, ok := g.children[instance]; ok {
		return &diag.DuplicateNameError{Kind: "child", Name: instance, Scope: g.scope()}
	}
	if err := g.ir.AddChild(instance, child.ir); err != nil {
		return err
	}
	if comment != "" {
		if err := g.ir.SetChildComment(instance, comment); err != nil {
			return err
		}
	}
	g.children[instance] = child
	g.childOrder = append(g.childOrder, instance)
	child.parent = g
	log.Debugf("%s: added child %s (%s)", g.ir.Name, instance, child.ir.Name)
	return nil
}

// RemoveChild detaches child.
func (g *Generator) RemoveChild(child *Generator) error {
	if g.cloned {
		if child == nil {
			return diag.Preconditionf("cannot remove a nil child from %s", g.scope())
		}
		instance, ok := g.queuedInstanceOf(child)
		if !ok {
			return &diag.NotFoundError{Kind: "child", Name: child.InstanceName(), Scope: g.scope()}
		}
		delete(g.queuedChildren, instance)
		g.enqueue(removeChildOp{child: child})
		return nil
	}
	instance, ok := g.instanceOf(child)
	if !ok {
		name := "<nil>"
		if child != nil {
			name = child.InstanceName()
		}
		return &diag.NotFoundError{Kind: "child", Name: name, Scope: g.scope()}
	}
	if err := g.ir.RemoveChild(child.ir); err != nil {
		return err
	}
	delete(g.children, instance)
	g.childOrder = removeName(g.childOrder, instance)
	child.parent = nil
	return nil
}

// Replace swaps the child instantiated under instance for next.
func (g *Generator) Replace(instance string, next *Generator) error {
	if next == nil {
		return diag.Preconditionf("cannot replace %s with a nil generator", instance)
	}
	if g.cloned {
		if _, ok := g.queuedChildren[instance]; !ok {
			return &diag.NotFoundError{Kind: "child", Name: instance, Scope: g.scope()}
		}
		g.queuedChildren[instance] = next
		g.enqueue(replaceChildOp{instance: instance, child: next})
		return nil
	}
	old, ok := g.children[instance]
	if !ok {
		return &diag.NotFoundError{Kind: "child", Name: instance, Scope: g.scope()}
	}
	if err := g.ir.Replace(instance, next.ir); err != nil {
		return err
	}
	g.children[instance] = next
	old.parent = nil
	next.parent = g
	return nil
}

// Child returns the child instantiated under instance.
func (g *Generator) Child(instance string) (*Generator, bool) {
	child, ok := g.children[instance]
	return child, ok
}

// Children returns the children in instantiation order.
func (g *Generator) Children() []*Generator {
	out := make([]*Generator, 0, len(g.childOrder))
	for _, name := range g.childOrder {
		out = append(out, g.children[name])
	}
	return out
}

// Contains reports whether child is instantiated directly in g.
func (g *Generator) Contains(child *Generator) bool {
	_, ok := g.instanceOf(child)
	return ok
}

func (g *Generator) instanceOf(child *Generator) (string, bool) {
	if child == nil {
		return "", false
	}
	for _, name := range g.childOrder {
		if g.children[name] == child {
			return name, true
		}
	}
	return "", false
}

func (g *Generator) queuedInstanceOf(child *Generator) (string, bool) {
	for name, c := range g.queuedChildren {
		if c == child {
			return name, true
		}
	}
	return "", false
}

// SetInstanceName renames g within its parent. The parent's child map and
// the IR link change together; on a sibling collision neither changes.
func (g *Generator) SetInstanceName(name string) error {
	p := g.parent
	if p == nil {
		g.ir.InstanceName = name
		return nil
	}
	old, ok := p.instanceOf(g)
	if !ok {
		return &diag.NotFoundError{Kind: "child", Name: g.ir.InstanceName, Scope: p.scope()}
	}
	if old == name {
		return nil
	}
	if _, taken := p.children[name]; taken {
		return &diag.DuplicateNameError{Kind: "child", Name: name, Scope: p.scope()}
	}
	if err := p.ir.RenameChild(old, name); err != nil {
		return err
	}
	delete(p.children, old)
	p.children[name] = g
	for i, n := range p.childOrder {
		if n == old {
			p.childOrder[i] = name
			break
		}
	}
	return nil
}

// Wire connects to and from. Two ports are connected in the direction their
// declarations imply; anything else becomes a single assignment in whichever
// direction is legal. On an uninitialized clone the connection is made by
// InitializeClone and nil is returned.
func (g *Generator) Wire(to, from *ir.Var) (*ir.AssignStmt, error) {
	if to == nil || from == nil {
		return nil, diag.Preconditionf("wire requires two signals in %s", g.scope())
	}
	if g.cloned {
		g.enqueue(wireOp{to: to, from: from})
		return nil, nil
	}
	if to.IsPort() && from.IsPort() {
		stmt, err := g.ir.WirePorts(to, from)
		if err != nil {
			return nil, err
		}
		g.trace(stmt)
		return stmt, nil
	}
	toIsSink, ok := g.ir.CorrectWireDirection(to, from)
	if !ok {
		return nil, &diag.DirectionError{To: to.QualifiedName(), From: from.QualifiedName()}
	}
	sink, source := to, from
	if !toIsSink {
		sink, source = from, to
	}
	stmt, err := ir.NewAssign(sink, source)
	if err != nil {
		return nil, err
	}
	if err := g.ir.AddStmt(stmt); err != nil {
		return nil, err
	}
	g.trace(stmt)
	return stmt, nil
}

// AddStmt appends a top-level statement.
func (g *Generator) AddStmt(s Statement) error {
	if s == nil {
		return diag.Preconditionf("unable to add a nil statement to %s", g.scope())
	}
	if g.cloned {
		g.enqueue(addStmtOp{s: s})
		return nil
	}
	stmt := s.Stmt()
	if stmt == nil {
		return diag.Preconditionf("statement handle is not materialized in %s", g.scope())
	}
	if err := g.ir.AddStmt(stmt); err != nil {
		return err
	}
	if assign, ok := stmt.(*ir.AssignStmt); ok {
		g.trace(assign)
	}
	return nil
}

// RemoveStmt removes a top-level statement.
func (g *Generator) RemoveStmt(s Statement) error {
	if s == nil {
		return diag.Preconditionf("unable to remove a nil statement from %s", g.scope())
	}
	if g.cloned {
		g.enqueue(removeStmtOp{s: s})
		return nil
	}
	return g.ir.RemoveStmt(s.Stmt())
}

// StmtCount returns the number of top-level statements in the IR.
func (g *Generator) StmtCount() int {
	return g.ir.StmtCount()
}

// StmtAt returns the i-th top-level statement.
func (g *Generator) StmtAt(i int) ir.Stmt {
	return g.ir.StmtAt(i)
}

func removeName(names []string, name string) []string {
	for i, n := range names {
		if n == name {
			return append(names[:i], names[i+1:]...)
		}
	}
	return names
}
