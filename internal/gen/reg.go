package gen

import (
	"fmt"

	"hwgen/internal/diag"
	"hwgen/internal/ir"
)

// regKey identifies the shared block of RegInit and RegEnable by signal
// names, which are unique within a generator.
type regKey struct {
	clock string
	other string
}

// RegNext declares name as a register of source clocked by clock. All
// registers on the same clock share one sequential block. An empty clock
// selects the generator's only clock port.
func (g *Generator) RegNext(name string, source *ir.Var, clock string) (*ir.Var, error) {
	if err := g.checkSource(source); err != nil {
		return nil, err
	}
	clk, err := g.resolvePort(clock, ir.Clock)
	if err != nil {
		return nil, err
	}

	v, err := g.shapedLike(name, source)
	if err != nil {
		return nil, err
	}

	block, ok := g.regNext[clk.Name]
	if !ok {
		if block, err = g.Sequential(ir.PosedgeOf(clk)); err != nil {
			return nil, err
		}
		g.regNext[clk.Name] = block
	}
	if _, err := block.Assign(v, source); err != nil {
		return nil, err
	}
	return v, nil
}

// RegInit declares name as a register of source with an asynchronous reset to
// init. Registers on the same clock and reset share one block and one branch
// on the reset signal. Empty names select the only clock or async reset port.
func (g *Generator) RegInit(name string, source *ir.Var, clock, reset string, init int64) (*ir.Var, error) {
	if err := g.checkSource(source); err != nil {
		return nil, err
	}
	clk, err := g.resolvePort(clock, ir.Clock)
	if err != nil {
		return nil, err
	}
	rst, err := g.resolvePort(reset, ir.AsyncReset)
	if err != nil {
		return nil, err
	}
	initValue, err := ir.Const(init, source.Width(), source.Signed())
	if err != nil {
		return nil, fmt.Errorf("gen: init value of %s: %w", name, err)
	}

	v, err := g.shapedLike(name, source)
	if err != nil {
		return nil, err
	}

	key := regKey{clock: clk.Name, other: rst.Name}
	branch, ok := g.regInit[key]
	if !ok {
		block, err := g.Sequential(ir.PosedgeOf(clk), ir.PosedgeOf(rst))
		if err != nil {
			return nil, err
		}
		if branch, err = block.If(rst); err != nil {
			return nil, err
		}
		g.regInit[key] = branch
	}

	onReset, err := ir.NewAssign(v, initValue)
	if err != nil {
		return nil, err
	}
	onClock, err := ir.NewAssign(v, source)
	if err != nil {
		return nil, err
	}
	if err := branch.AddThen(onReset); err != nil {
		return nil, err
	}
	if err := branch.AddElse(onClock); err != nil {
		return nil, err
	}
	return v, nil
}

// RegEnable declares name as a register of source that only loads while
// enable is high. Registers on the same clock and enable share one block and
// one branch.
func (g *Generator) RegEnable(name string, source *ir.Var, enable, clock string) (*ir.Var, error) {
	if err := g.checkSource(source); err != nil {
		return nil, err
	}
	en, ok := g.GetVariable(enable)
	if !ok {
		return nil, &diag.UnknownSignalError{Name: enable, Scope: g.scope()}
	}
	clk, err := g.resolvePort(clock, ir.Clock)
	if err != nil {
		return nil, err
	}

	v, err := g.shapedLike(name, source)
	if err != nil {
		return nil, err
	}

	key := regKey{clock: clk.Name, other: en.Name}
	branch, ok := g.regEnable[key]
	if !ok {
		block, err := g.Sequential(ir.PosedgeOf(clk))
		if err != nil {
			return nil, err
		}
		if branch, err = block.If(en); err != nil {
			return nil, err
		}
		g.regEnable[key] = branch
	}

	load, err := ir.NewAssign(v, source)
	if err != nil {
		return nil, err
	}
	if err := branch.AddThen(load); err != nil {
		return nil, err
	}
	return v, nil
}

// resolvePort finds the named signal, or the only port of kind t when name
// is empty.
func (g *Generator) resolvePort(name string, t ir.PortType) (*ir.Var, error) {
	if name != "" {
		v, ok := g.GetVariable(name)
		if !ok {
			return nil, &diag.UnknownSignalError{Name: name, Scope: g.scope()}
		}
		return v, nil
	}
	ports := g.portsOfType(t)
	switch len(ports) {
	case 1:
		return ports[0], nil
	case 0:
		return nil, diag.Preconditionf("unable to find any %s port in %s", t, g.scope())
	default:
		return nil, diag.Preconditionf("more than one %s port in %s; name one explicitly", t, g.scope())
	}
}

func (g *Generator) checkSource(source *ir.Var) error {
	if source == nil {
		return diag.Preconditionf("register source is nil in %s", g.scope())
	}
	if source.Kind == ir.Expression {
		if source.Generator() != g.ir {
			return &diag.UnknownSignalError{Name: source.String(), Scope: g.scope()}
		}
		return nil
	}
	if !g.owns(source) {
		return &diag.UnknownSignalError{Name: source.String(), Scope: g.scope()}
	}
	return nil
}

func (g *Generator) shapedLike(name string, source *ir.Var) (*ir.Var, error) {
	return g.CreateVar(name, source.Width(), source.Signed(), source.Size)
}
