package ir

import (
	"fmt"
	"sort"
)

// Context owns every generator created during a build session. It is the
// process-wide IR store shared by all generators built against it.
type Context struct {
	generators map[string][]*Generator
}

// NewContext returns an empty context.
func NewContext() *Context {
	return &Context{generators: make(map[string][]*Generator)}
}

// Generator creates a generator named name and registers it with the context.
func (c *Context) Generator(name string) *Generator {
	g := c.EmptyGenerator()
	g.Name = name
	g.InstanceName = name
	c.Add(g)
	return g
}

// EmptyGenerator creates an unnamed generator that is not registered. It is
// used as the placeholder handle of clones.
func (c *Context) EmptyGenerator() *Generator {
	return &Generator{
		ctx:         c,
		ports:       make(map[string]*Var),
		vars:        make(map[string]*Var),
		params:      make(map[string]*Var),
		children:    make(map[string]*Generator),
		comments:    make(map[string]string),
		namedBlocks: make(map[string]Stmt),
		fsms:        make(map[string]*FSM),
	}
}

// Add registers g under its current name.
func (c *Context) Add(g *Generator) {
	if g == nil {
		return
	}
	for _, existing := range c.generators[g.Name] {
		if existing == g {
			return
		}
	}
	g.ctx = c
	c.generators[g.Name] = append(c.generators[g.Name], g)
}

// Rename changes g's name and moves its registration.
func (c *Context) Rename(g *Generator, name string) {
	gens := c.generators[g.Name]
	for i, existing := range gens {
		if existing == g {
			gens = append(gens[:i], gens[i+1:]...)
			break
		}
	}
	if len(gens) == 0 {
		delete(c.generators, g.Name)
	} else {
		c.generators[g.Name] = gens
	}
	g.Name = name
	c.generators[name] = append(c.generators[name], g)
}

// Generators returns every registered generator called name.
func (c *Context) Generators(name string) []*Generator {
	return c.generators[name]
}

// Names returns the sorted names of all registered generators.
func (c *Context) Names() []string {
	names := make([]string, 0, len(c.generators))
	for name := range c.generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered generators.
func (c *Context) Len() int {
	n := 0
	for _, gens := range c.generators {
		n += len(gens)
	}
	return n
}

// Clear drops every registered generator.
func (c *Context) Clear() {
	c.generators = make(map[string][]*Generator)
}

// PortDirection enumerates supported port directions.
type PortDirection int

const (
	Input PortDirection = iota
	Output
	InOut
)

func (d PortDirection) String() string {
	switch d {
	case Input:
		return "in"
	case Output:
		return "out"
	case InOut:
		return "inout"
	default:
		return "?"
	}
}

// PortType classifies what a port carries.
type PortType int

const (
	Data PortType = iota
	Clock
	AsyncReset
	ClockEnable
	Reset
)

func (t PortType) String() string {
	switch t {
	case Data:
		return "data"
	case Clock:
		return "clock"
	case AsyncReset:
		return "async_reset"
	case ClockEnable:
		return "clock_en"
	case Reset:
		return "reset"
	default:
		return "?"
	}
}

// ParsePortType maps a textual port kind to a PortType.
func ParsePortType(s string) (PortType, error) {
	switch s {
	case "", "data":
		return Data, nil
	case "clock", "clk":
		return Clock, nil
	case "async_reset", "areset":
		return AsyncReset, nil
	case "clock_en", "clock_enable":
		return ClockEnable, nil
	case "reset":
		return Reset, nil
	default:
		return Data, fmt.Errorf("unknown port type %q", s)
	}
}

// ParsePortDirection maps a textual direction to a PortDirection.
func ParsePortDirection(s string) (PortDirection, error) {
	switch s {
	case "in", "input":
		return Input, nil
	case "out", "output":
		return Output, nil
	case "inout":
		return InOut, nil
	default:
		return Input, fmt.Errorf("unknown port direction %q", s)
	}
}

// SignalType records width/sign metadata for a signal.
type SignalType struct {
	Width  int
	Signed bool
}

// Equal reports whether two types have the same width and signedness.
func (t SignalType) Equal(other SignalType) bool {
	return t.Width == other.Width && t.Signed == other.Signed
}

// Description renders the type as e.g. "8b unsigned".
func (t SignalType) Description() string {
	if t.Signed {
		return fmt.Sprintf("%db signed", t.Width)
	}
	return fmt.Sprintf("%db unsigned", t.Width)
}

// VarKind distinguishes the different kinds of IR values.
type VarKind int

const (
	Base VarKind = iota
	PortIO
	Param
	ConstValue
	Expression
)

func (k VarKind) String() string {
	switch k {
	case Base:
		return "var"
	case PortIO:
		return "port"
	case Param:
		return "param"
	case ConstValue:
		return "const"
	case Expression:
		return "expr"
	default:
		return "?"
	}
}

// SourceLoc is a host-language location attached to IR nodes in debug mode.
type SourceLoc struct {
	File string
	Line int
}

func (l SourceLoc) String() string {
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Var is a named or computed IR value: variables, ports, parameters,
// constants and expressions all share this representation.
type Var struct {
	Name string
	Type SignalType
	Size int
	Kind VarKind

	// Port metadata.
	Direction PortDirection
	PortType  PortType

	// Value holds the value of constants and parameters.
	Value int64

	// Expression operands. Right is nil for unary operators.
	Op    Op
	Left  *Var
	Right *Var

	Source []SourceLoc

	gen *Generator
}

// Generator returns the generator that owns v, or nil for constants.
func (v *Var) Generator() *Generator {
	return v.gen
}

// Width is shorthand for v.Type.Width.
func (v *Var) Width() int {
	return v.Type.Width
}

// Signed is shorthand for v.Type.Signed.
func (v *Var) Signed() bool {
	return v.Type.Signed
}

// IsPort reports whether v is a port.
func (v *Var) IsPort() bool {
	return v.Kind == PortIO
}

// AddSourceLoc records a debug location.
func (v *Var) AddSourceLoc(loc SourceLoc) {
	v.Source = append(v.Source, loc)
}

// Assign builds the statement v = value.
func (v *Var) Assign(value *Var) (*AssignStmt, error) {
	return NewAssign(v, value)
}

func (v *Var) String() string {
	if v == nil {
		return "<nil>"
	}
	switch v.Kind {
	case ConstValue:
		if v.Type.Signed {
			return fmt.Sprintf("%d'sd%d", v.Type.Width, v.Value)
		}
		return fmt.Sprintf("%d'd%d", v.Type.Width, v.Value)
	case Expression:
		if v.Right == nil {
			return fmt.Sprintf("%s(%s)", v.Op.Symbol(), v.Left)
		}
		return fmt.Sprintf("(%s %s %s)", v.Left, v.Op.Symbol(), v.Right)
	}
	return v.Name
}

// QualifiedName prefixes the name with the owning instance, e.g. "u0.a".
func (v *Var) QualifiedName() string {
	if v == nil || v.gen == nil || v.Kind == ConstValue || v.Kind == Expression {
		return v.String()
	}
	owner := v.gen.InstanceName
	if owner == "" {
		owner = v.gen.Name
	}
	if owner == "" {
		return v.Name
	}
	return owner + "." + v.Name
}
