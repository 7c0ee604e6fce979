package ir

import (
	"hwgen/internal/diag"
)

// canSink reports whether v may appear on the left of an assignment made in g.
func (g *Generator) canSink(v *Var) bool {
	switch v.Kind {
	case Base:
		return v.gen == g
	case PortIO:
		switch {
		case v.gen == g:
			return v.Direction == Output || v.Direction == InOut
		case v.gen != nil && v.gen.parent == g:
			return v.Direction == Input || v.Direction == InOut
		}
	}
	return false
}

// canSource reports whether v may be read in g.
func (g *Generator) canSource(v *Var) bool {
	switch v.Kind {
	case ConstValue:
		return true
	case Param:
		return v.gen == g
	case Expression:
		if !g.canSource(v.Left) {
			return false
		}
		return v.Right == nil || g.canSource(v.Right)
	case Base:
		return v.gen == g
	case PortIO:
		switch {
		case v.gen == g:
			return true
		case v.gen != nil && v.gen.parent == g:
			return v.Direction == Output || v.Direction == InOut
		}
	}
	return false
}

// CorrectWireDirection decides how to connect to and from inside g. ok is
// false when neither direction is legal; otherwise toIsSink tells whether the
// assignment reads to = from (true) or from = to (false).
func (g *Generator) CorrectWireDirection(to, from *Var) (toIsSink, ok bool) {
	if to == nil || from == nil {
		return false, false
	}
	if g.canSink(to) && g.canSource(from) {
		return true, true
	}
	if g.canSink(from) && g.canSource(to) {
		return false, true
	}
	return false, false
}

func (g *Generator) portSink(p *Var) bool {
	switch {
	case p.gen == g:
		return p.Direction == Output || p.Direction == InOut
	case p.gen != nil && p.gen.parent == g:
		return p.Direction == Input || p.Direction == InOut
	}
	return false
}

func (g *Generator) portSource(p *Var) bool {
	switch {
	case p.gen == g:
		return p.Direction == Input || p.Direction == InOut
	case p.gen != nil && p.gen.parent == g:
		return p.Direction == Output || p.Direction == InOut
	}
	return false
}

// WirePorts connects two ports visible from g, inferring the direction from
// their declarations, and appends the assignment to g.
func (g *Generator) WirePorts(a, b *Var) (*AssignStmt, error) {
	if a == nil || b == nil || !a.IsPort() || !b.IsPort() {
		return nil, diag.Preconditionf("WirePorts requires two ports")
	}
	var sink, source *Var
	switch {
	case g.portSink(a) && g.portSource(b):
		sink, source = a, b
	case g.portSink(b) && g.portSource(a):
		sink, source = b, a
	default:
		return nil, &diag.DirectionError{To: a.QualifiedName(), From: b.QualifiedName()}
	}
	stmt, err := NewAssign(sink, source)
	if err != nil {
		return nil, err
	}
	g.stmts = append(g.stmts, stmt)
	return stmt, nil
}
