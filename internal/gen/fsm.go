package gen

import (
	"hwgen/internal/diag"
	"hwgen/internal/ir"
)

// AddFSM creates a state machine in g. Empty clock or reset names are
// inferred from the generator's only clock or async reset port. On an
// uninitialized clone the machine is created by InitializeClone and nil is
// returned; fetch it with GetFSM afterwards.
func (g *Generator) AddFSM(name, clock, reset string) (*ir.FSM, error) {
	var clk, rst *ir.Var
	if clock != "" {
		v, ok := g.GetVariable(clock)
		if !ok {
			return nil, &diag.UnknownSignalError{Name: clock, Scope: g.scope()}
		}
		clk = v
	}
	if reset != "" {
		v, ok := g.GetVariable(reset)
		if !ok {
			return nil, &diag.UnknownSignalError{Name: reset, Scope: g.scope()}
		}
		rst = v
	}
	if g.cloned {
		g.enqueue(addFSMOp{fsm: name, clk: clock, reset: reset})
		return nil, nil
	}
	return g.ir.FSM(name, clk, rst)
}

// GetFSM returns the state machine called name.
func (g *Generator) GetFSM(name string) (*ir.FSM, bool) {
	f := g.ir.GetFSM(name)
	return f, f != nil
}

// AddFSMState declares a state of the machine called fsm. The first state
// becomes the start state. On an uninitialized clone the state is added by
// InitializeClone.
func (g *Generator) AddFSMState(fsm, state string) error {
	if g.cloned {
		g.enqueue(fsmStateOp{fsm: fsm, state: state})
		return nil
	}
	f := g.ir.GetFSM(fsm)
	if f == nil {
		return &diag.NotFoundError{Kind: "fsm", Name: fsm, Scope: g.scope()}
	}
	return f.AddState(state)
}
