package ir

import (
	"hwgen/internal/diag"
)

// Generator is the IR-level module: its ports, variables, parameters,
// top-level statements and child instances.
type Generator struct {
	Name         string
	InstanceName string
	Debug        bool
	External     bool
	Stub         bool

	// IsCloned is set on IR clones; DefInstance points at the definition the
	// clone was taken from.
	IsCloned    bool
	DefInstance *Generator

	Source []SourceLoc

	ctx    *Context
	parent *Generator

	ports      map[string]*Var
	portOrder  []string
	vars       map[string]*Var
	varOrder   []string
	params     map[string]*Var
	paramOrder []string

	stmts []Stmt

	children   map[string]*Generator
	childOrder []string
	comments   map[string]string

	namedBlocks map[string]Stmt
	fsms        map[string]*FSM
	fsmOrder    []string
}

// Context returns the context g was created in.
func (g *Generator) Context() *Context {
	return g.ctx
}

// Parent returns the generator g is instantiated in, if any.
func (g *Generator) Parent() *Generator {
	return g.parent
}

// AddSourceLoc records a debug location.
func (g *Generator) AddSourceLoc(loc SourceLoc) {
	g.Source = append(g.Source, loc)
}

func (g *Generator) scope() string {
	if g.Name == "" {
		return "generator"
	}
	return "generator " + g.Name
}

func (g *Generator) nameTaken(name string) bool {
	_, port := g.ports[name]
	_, v := g.vars[name]
	_, p := g.params[name]
	return port || v || p
}

// NewPort builds a port owned by g without registering it.
func (g *Generator) NewPort(dir PortDirection, name string, width, size int, typ PortType, signed bool) (*Var, error) {
	if name == "" {
		return nil, diag.Preconditionf("port name is empty in %s", g.scope())
	}
	if width <= 0 {
		return nil, diag.Preconditionf("port %s width must be positive, got %d", name, width)
	}
	if size <= 0 {
		size = 1
	}
	switch typ {
	case Clock, AsyncReset, Reset:
		if width != 1 {
			return nil, diag.Preconditionf("%s port %s can only be 1 bit wide, got %d", typ, name, width)
		}
	}
	return &Var{
		Name:      name,
		Type:      SignalType{Width: width, Signed: signed},
		Size:      size,
		Kind:      PortIO,
		Direction: dir,
		PortType:  typ,
		gen:       g,
	}, nil
}

// AddPort registers a port built by NewPort.
func (g *Generator) AddPort(v *Var) error {
	if v == nil || v.Kind != PortIO {
		return diag.Preconditionf("only ports can be added as ports to %s", g.scope())
	}
	if g.nameTaken(v.Name) {
		return &diag.DuplicateNameError{Kind: "port", Name: v.Name, Scope: g.scope()}
	}
	v.gen = g
	g.ports[v.Name] = v
	g.portOrder = append(g.portOrder, v.Name)
	return nil
}

// Port creates and registers a port.
func (g *Generator) Port(dir PortDirection, name string, width, size int, typ PortType, signed bool) (*Var, error) {
	v, err := g.NewPort(dir, name, width, size, typ, signed)
	if err != nil {
		return nil, err
	}
	if err := g.AddPort(v); err != nil {
		return nil, err
	}
	return v, nil
}

// NewVar builds a variable owned by g without registering it.
func (g *Generator) NewVar(name string, width, size int, signed bool) (*Var, error) {
	if name == "" {
		return nil, diag.Preconditionf("variable name is empty in %s", g.scope())
	}
	if width <= 0 {
		return nil, diag.Preconditionf("variable %s width must be positive, got %d", name, width)
	}
	if size <= 0 {
		size = 1
	}
	return &Var{
		Name: name,
		Type: SignalType{Width: width, Signed: signed},
		Size: size,
		Kind: Base,
		gen:  g,
	}, nil
}

// AddVar registers a variable built by NewVar.
func (g *Generator) AddVar(v *Var) error {
	if v == nil || v.Kind != Base {
		return diag.Preconditionf("only plain variables can be added as variables to %s", g.scope())
	}
	if g.nameTaken(v.Name) {
		return &diag.DuplicateNameError{Kind: "variable", Name: v.Name, Scope: g.scope()}
	}
	v.gen = g
	g.vars[v.Name] = v
	g.varOrder = append(g.varOrder, v.Name)
	return nil
}

// Var creates and registers a variable.
func (g *Generator) Var(name string, width, size int, signed bool) (*Var, error) {
	v, err := g.NewVar(name, width, size, signed)
	if err != nil {
		return nil, err
	}
	if err := g.AddVar(v); err != nil {
		return nil, err
	}
	return v, nil
}

// NewParameter builds a parameter owned by g without registering it.
func (g *Generator) NewParameter(name string, width int, signed bool, value int64) (*Var, error) {
	if name == "" {
		return nil, diag.Preconditionf("parameter name is empty in %s", g.scope())
	}
	if width <= 0 {
		return nil, diag.Preconditionf("parameter %s width must be positive, got %d", name, width)
	}
	if !constFits(value, width, signed) {
		return nil, diag.Preconditionf("parameter %s value %d does not fit in %d bits", name, value, width)
	}
	return &Var{
		Name:  name,
		Type:  SignalType{Width: width, Signed: signed},
		Size:  1,
		Kind:  Param,
		Value: value,
		gen:   g,
	}, nil
}

// AddParam registers a parameter built by NewParameter.
func (g *Generator) AddParam(v *Var) error {
	if v == nil || v.Kind != Param {
		return diag.Preconditionf("only parameters can be added as parameters to %s", g.scope())
	}
	if g.nameTaken(v.Name) {
		return &diag.DuplicateNameError{Kind: "parameter", Name: v.Name, Scope: g.scope()}
	}
	v.gen = g
	g.params[v.Name] = v
	g.paramOrder = append(g.paramOrder, v.Name)
	return nil
}

// Parameter creates and registers a parameter.
func (g *Generator) Parameter(name string, width int, signed bool, value int64) (*Var, error) {
	v, err := g.NewParameter(name, width, signed, value)
	if err != nil {
		return nil, err
	}
	if err := g.AddParam(v); err != nil {
		return nil, err
	}
	return v, nil
}

// GetPort returns the port called name or nil.
func (g *Generator) GetPort(name string) *Var {
	return g.ports[name]
}

// GetVar returns the port or variable called name, or nil.
func (g *Generator) GetVar(name string) *Var {
	if v, ok := g.ports[name]; ok {
		return v
	}
	return g.vars[name]
}

// GetParam returns the parameter called name or nil.
func (g *Generator) GetParam(name string) *Var {
	return g.params[name]
}

// HasPort reports whether g has a port called name.
func (g *Generator) HasPort(name string) bool {
	_, ok := g.ports[name]
	return ok
}

// HasVar reports whether g has a port or variable called name.
func (g *Generator) HasVar(name string) bool {
	return g.GetVar(name) != nil
}

// Ports returns the ports in declaration order.
func (g *Generator) Ports() []*Var {
	out := make([]*Var, 0, len(g.portOrder))
	for _, name := range g.portOrder {
		out = append(out, g.ports[name])
	}
	return out
}

// Vars returns the non-port variables in declaration order.
func (g *Generator) Vars() []*Var {
	out := make([]*Var, 0, len(g.varOrder))
	for _, name := range g.varOrder {
		out = append(out, g.vars[name])
	}
	return out
}

// Params returns the parameters in declaration order.
func (g *Generator) Params() []*Var {
	out := make([]*Var, 0, len(g.paramOrder))
	for _, name := range g.paramOrder {
		out = append(out, g.params[name])
	}
	return out
}

// PortsOfType returns the ports of the given kind in declaration order.
func (g *Generator) PortsOfType(t PortType) []*Var {
	var out []*Var
	for _, name := range g.portOrder {
		if p := g.ports[name]; p.PortType == t {
			out = append(out, p)
		}
	}
	return out
}

// AddStmt appends a top-level statement. Scope blocks only live inside
// if/switch statements.
func (g *Generator) AddStmt(s Stmt) error {
	if s == nil {
		return diag.Preconditionf("unable to add a nil statement to %s", g.scope())
	}
	if b, ok := s.(*Block); ok && b.Sensitivity == Scope {
		return diag.Preconditionf("scope blocks cannot be added to the top level of %s", g.scope())
	}
	for _, existing := range g.stmts {
		if existing == s {
			return diag.Preconditionf("statement %s already added to %s", stmtLabel(s), g.scope())
		}
	}
	g.stmts = append(g.stmts, s)
	return nil
}

// RemoveStmt deletes a top-level statement.
func (g *Generator) RemoveStmt(s Stmt) error {
	for i, existing := range g.stmts {
		if existing == s {
			g.stmts = append(g.stmts[:i], g.stmts[i+1:]...)
			return nil
		}
	}
	return &diag.NotFoundError{Kind: "statement", Name: stmtLabel(s), Scope: g.scope()}
}

// Stmts returns the top-level statements in insertion order.
func (g *Generator) Stmts() []Stmt {
	return g.stmts
}

// StmtCount returns the number of top-level statements.
func (g *Generator) StmtCount() int {
	return len(g.stmts)
}

// StmtAt returns the i-th top-level statement.
func (g *Generator) StmtAt(i int) Stmt {
	return g.stmts[i]
}

// Combinational creates a combinational block and appends it to g.
func (g *Generator) Combinational() *Block {
	b := NewBlock(Combinational)
	g.stmts = append(g.stmts, b)
	return b
}

// Sequential creates a sequential block and appends it to g. Edges are
// added by the caller.
func (g *Generator) Sequential() *Block {
	b := NewBlock(Sequential)
	g.stmts = append(g.stmts, b)
	return b
}

// AddNamedBlock registers s under label.
func (g *Generator) AddNamedBlock(label string, s Stmt) error {
	if s == nil {
		return diag.Preconditionf("cannot label a nil statement in %s", g.scope())
	}
	if _, ok := g.namedBlocks[label]; ok {
		return &diag.DuplicateNameError{Kind: "label", Name: label, Scope: g.scope()}
	}
	g.namedBlocks[label] = s
	return nil
}

// NamedBlock returns the statement registered under label.
func (g *Generator) NamedBlock(label string) (Stmt, bool) {
	s, ok := g.namedBlocks[label]
	return s, ok
}

// NamedBlockCount returns the number of labelled statements.
func (g *Generator) NamedBlockCount() int {
	return len(g.namedBlocks)
}

// AddChild instantiates child under name.
func (g *Generator) AddChild(name string, child *Generator) error {
	if child == nil {
		return diag.Preconditionf("cannot add a nil child to %s", g.scope())
	}
	if child == g {
		return diag.Preconditionf("%s cannot instantiate itself", g.scope())
	}
	if _, ok := g.children[name]; ok {
		return &diag.DuplicateNameError{Kind: "child", Name: name, Scope: g.scope()}
	}
	child.parent = g
	child.InstanceName = name
	g.children[name] = child
	g.childOrder = append(g.childOrder, name)
	return nil
}

// SetChildComment attaches a comment to the child link called name.
func (g *Generator) SetChildComment(name, comment string) error {
	if _, ok := g.children[name]; !ok {
		return &diag.NotFoundError{Kind: "child", Name: name, Scope: g.scope()}
	}
	g.comments[name] = comment
	return nil
}

// ChildComment returns the comment on the child link called name.
func (g *Generator) ChildComment(name string) string {
	return g.comments[name]
}

// RemoveChild detaches child.
func (g *Generator) RemoveChild(child *Generator) error {
	for i, name := range g.childOrder {
		if g.children[name] == child {
			delete(g.children, name)
			delete(g.comments, name)
			g.childOrder = append(g.childOrder[:i], g.childOrder[i+1:]...)
			child.parent = nil
			return nil
		}
	}
	label := "<nil>"
	if child != nil {
		label = child.InstanceName
	}
	return &diag.NotFoundError{Kind: "child", Name: label, Scope: g.scope()}
}

// Replace swaps the child called name for next, keeping its position.
func (g *Generator) Replace(name string, next *Generator) error {
	old, ok := g.children[name]
	if !ok {
		return &diag.NotFoundError{Kind: "child", Name: name, Scope: g.scope()}
	}
	if next == nil {
		return diag.Preconditionf("cannot replace %s with a nil generator", name)
	}
	old.parent = nil
	next.parent = g
	next.InstanceName = name
	g.children[name] = next
	return nil
}

// RenameChild re-keys the child called from to to. Nothing changes on error.
func (g *Generator) RenameChild(from, to string) error {
	child, ok := g.children[from]
	if !ok {
		return &diag.NotFoundError{Kind: "child", Name: from, Scope: g.scope()}
	}
	if from == to {
		return nil
	}
	if _, taken := g.children[to]; taken {
		return &diag.DuplicateNameError{Kind: "child", Name: to, Scope: g.scope()}
	}
	delete(g.children, from)
	g.children[to] = child
	for i, name := range g.childOrder {
		if name == from {
			g.childOrder[i] = to
			break
		}
	}
	if comment, ok := g.comments[from]; ok {
		delete(g.comments, from)
		g.comments[to] = comment
	}
	child.InstanceName = to
	return nil
}

// Child returns the child called name or nil.
func (g *Generator) Child(name string) *Generator {
	return g.children[name]
}

// Children returns the children in instantiation order.
func (g *Generator) Children() []*Generator {
	out := make([]*Generator, 0, len(g.childOrder))
	for _, name := range g.childOrder {
		out = append(out, g.children[name])
	}
	return out
}

// HasChild reports whether a child is instantiated under name.
func (g *Generator) HasChild(name string) bool {
	_, ok := g.children[name]
	return ok
}

// Clone returns a new generator sharing g's definition. Ports are copied so
// the clone can be wired before it is populated.
func (g *Generator) Clone() *Generator {
	c := g.ctx.EmptyGenerator()
	c.Name = g.Name
	c.InstanceName = g.Name
	c.Debug = g.Debug
	c.External = g.External
	c.Stub = g.Stub
	c.IsCloned = true
	c.DefInstance = g
	for _, p := range g.Ports() {
		cp := *p
		cp.Source = nil
		cp.gen = c
		c.ports[cp.Name] = &cp
		c.portOrder = append(c.portOrder, cp.Name)
	}
	g.ctx.Add(c)
	return c
}
