package ir

import (
	"hwgen/internal/diag"
)

// FSM is a named state machine scoped to a generator. State encoding is left
// to the lowering passes.
type FSM struct {
	Name  string
	Clock *Var
	Reset *Var
	Start string

	states []string
	gen    *Generator
}

// Generator returns the owning generator.
func (f *FSM) Generator() *Generator {
	return f.gen
}

// AddState declares a state.
func (f *FSM) AddState(name string) error {
	for _, s := range f.states {
		if s == name {
			return &diag.DuplicateNameError{Kind: "state", Name: name, Scope: "fsm " + f.Name}
		}
	}
	f.states = append(f.states, name)
	if f.Start == "" {
		f.Start = name
	}
	return nil
}

// SetStartState selects the reset state.
func (f *FSM) SetStartState(name string) error {
	for _, s := range f.states {
		if s == name {
			f.Start = name
			return nil
		}
	}
	return &diag.NotFoundError{Kind: "state", Name: name, Scope: "fsm " + f.Name}
}

// States returns the declared states in order.
func (f *FSM) States() []string {
	return f.states
}

// UniquePort returns the only port of kind t or a PreconditionError.
func (g *Generator) UniquePort(t PortType) (*Var, error) {
	ports := g.PortsOfType(t)
	switch len(ports) {
	case 1:
		return ports[0], nil
	case 0:
		return nil, diag.Preconditionf("%s has no %s port", g.scope(), t)
	default:
		return nil, diag.Preconditionf("%s has %d %s ports; name one explicitly", g.scope(), len(ports), t)
	}
}

// FSM creates a state machine in g. A nil clock or reset is inferred from the
// generator's unique clock or async reset port.
func (g *Generator) FSM(name string, clk, rst *Var) (*FSM, error) {
	if _, ok := g.fsms[name]; ok {
		return nil, &diag.DuplicateNameError{Kind: "fsm", Name: name, Scope: g.scope()}
	}
	var err error
	if clk == nil {
		if clk, err = g.UniquePort(Clock); err != nil {
			return nil, err
		}
	}
	if rst == nil {
		if rst, err = g.UniquePort(AsyncReset); err != nil {
			return nil, err
		}
	}
	f := &FSM{Name: name, Clock: clk, Reset: rst, gen: g}
	g.fsms[name] = f
	g.fsmOrder = append(g.fsmOrder, name)
	return f, nil
}

// GetFSM returns the state machine called name or nil.
func (g *Generator) GetFSM(name string) *FSM {
	return g.fsms[name]
}

// FSMs returns the state machines in creation order.
func (g *Generator) FSMs() []*FSM {
	out := make([]*FSM, 0, len(g.fsmOrder))
	for _, name := range g.fsmOrder {
		out = append(out, g.fsms[name])
	}
	return out
}
