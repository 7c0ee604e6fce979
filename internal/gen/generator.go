package gen

import (
	"path/filepath"
	"runtime"
	"strings"

	"hwgen/internal/diag"
	"hwgen/internal/ir"
)

// Generator is a module definition or instance in the hierarchy.
//
// A generator is either active, in which case every mutation is applied to
// its IR right away, or an uninitialized clone, in which case mutations are
// validated, recorded and replayed by InitializeClone.
type Generator struct {
	ctx    *Context
	ir     *ir.Generator
	def    *Generator
	parent *Generator

	debug  bool
	cloned bool

	children   map[string]*Generator
	childOrder []string

	// Primitives declared on an uninitialized clone. They are visible through
	// the lookup methods before they reach the IR.
	declared      map[string]*ir.Var
	declaredOrder []string
	pending       []pendingOp

	// Children queued on an uninitialized clone, by instance name.
	queuedChildren map[string]*Generator

	marked    map[string]Statement
	regNext   map[string]*CodeBlock
	regInit   map[regKey]*ir.IfStmt
	regEnable map[regKey]*ir.IfStmt
}

// NewGenerator creates an active generator called name. debug records the
// call site of every primitive; global debug mode forces it on.
func NewGenerator(ctx *Context, name string, debug bool) *Generator {
	g := newGenerator(ctx, ctx.ir.Generator(name))
	g.debug = debug || ctx.debug
	g.ir.Debug = g.debug
	if g.debug {
		g.trace(g.ir)
	}
	return g
}

func newGenerator(ctx *Context, irg *ir.Generator) *Generator {
	return &Generator{
		ctx:            ctx,
		ir:             irg,
		children:       make(map[string]*Generator),
		declared:       make(map[string]*ir.Var),
		queuedChildren: make(map[string]*Generator),
		marked:         make(map[string]Statement),
		regNext:        make(map[string]*CodeBlock),
		regInit:        make(map[regKey]*ir.IfStmt),
		regEnable:      make(map[regKey]*ir.IfStmt),
	}
}

// newClone returns an uninitialized clone of def backed by an empty IR
// generator that references def's IR.
func newClone(ctx *Context, def *Generator) *Generator {
	irg := ctx.ir.EmptyGenerator()
	irg.Name = def.ir.Name
	irg.InstanceName = def.ir.Name
	irg.IsCloned = true
	irg.DefInstance = def.ir
	ctx.ir.Add(irg)
	g := newGenerator(ctx, irg)
	g.def = def
	g.cloned = true
	return g
}

// cloneOf returns a clone whose IR copies def's ports.
func cloneOf(ctx *Context, def *Generator) *Generator {
	g := newGenerator(ctx, def.ir.Clone())
	g.def = def
	g.cloned = true
	return g
}

// IR returns the backing IR generator.
func (g *Generator) IR() *ir.Generator {
	return g.ir
}

// Context returns the build session g belongs to.
func (g *Generator) Context() *Context {
	return g.ctx
}

// Name returns the definition name.
func (g *Generator) Name() string {
	return g.ir.Name
}

// SetName renames the definition.
func (g *Generator) SetName(name string) {
	g.ctx.ir.Rename(g.ir, name)
}

// InstanceName returns the name g is instantiated under.
func (g *Generator) InstanceName() string {
	return g.ir.InstanceName
}

// Debug reports whether call sites are recorded.
func (g *Generator) Debug() bool {
	return g.debug
}

// IsCloned reports whether g is a clone that has not been initialized.
func (g *Generator) IsCloned() bool {
	return g.cloned
}

// Definition returns the definition a clone was taken from, or g itself.
func (g *Generator) Definition() *Generator {
	if g.def != nil {
		return g.def
	}
	return g
}

// Parent returns the generator g is instantiated in.
func (g *Generator) Parent() *Generator {
	return g.parent
}

// SetStub marks g as a stub: ports only, no body.
func (g *Generator) SetStub(stub bool) {
	g.ir.Stub = stub
}

// Stub reports whether g is a stub.
func (g *Generator) Stub() bool {
	return g.ir.Stub
}

// SetExternal marks g as defined outside the object model.
func (g *Generator) SetExternal(external bool) {
	g.ir.External = external
}

// External reports whether g is external.
func (g *Generator) External() bool {
	return g.ir.External
}

// CreatePort declares a port.
func (g *Generator) CreatePort(dir ir.PortDirection, name string, width int, kind ir.PortType, signed bool, size int) (*ir.Var, error) {
	if !g.cloned {
		v, err := g.ir.Port(dir, name, width, size, kind, signed)
		if err != nil {
			return nil, err
		}
		g.trace(v)
		return v, nil
	}
	if g.nameTaken(name) {
		return nil, &diag.DuplicateNameError{Kind: "port", Name: name, Scope: g.scope()}
	}
	v, err := g.ir.NewPort(dir, name, width, size, kind, signed)
	if err != nil {
		return nil, err
	}
	g.declare(v)
	g.enqueue(addPortOp{v: v})
	return v, nil
}

// Input declares an unsigned data input.
func (g *Generator) Input(name string, width int) (*ir.Var, error) {
	return g.CreatePort(ir.Input, name, width, ir.Data, false, 1)
}

// Output declares an unsigned data output.
func (g *Generator) Output(name string, width int) (*ir.Var, error) {
	return g.CreatePort(ir.Output, name, width, ir.Data, false, 1)
}

// Clock declares a clock input.
func (g *Generator) Clock(name string) (*ir.Var, error) {
	return g.CreatePort(ir.Input, name, 1, ir.Clock, false, 1)
}

// Reset declares an asynchronous reset input.
func (g *Generator) Reset(name string) (*ir.Var, error) {
	return g.CreatePort(ir.Input, name, 1, ir.AsyncReset, false, 1)
}

// CreateVar declares an internal variable.
func (g *Generator) CreateVar(name string, width int, signed bool, size int) (*ir.Var, error) {
	if !g.cloned {
		v, err := g.ir.Var(name, width, size, signed)
		if err != nil {
			return nil, err
		}
		g.trace(v)
		return v, nil
	}
	if g.nameTaken(name) {
		return nil, &diag.DuplicateNameError{Kind: "variable", Name: name, Scope: g.scope()}
	}
	v, err := g.ir.NewVar(name, width, size, signed)
	if err != nil {
		return nil, err
	}
	g.declare(v)
	g.enqueue(addVarOp{v: v})
	return v, nil
}

// CreateParameter declares a parameter with a default value.
func (g *Generator) CreateParameter(name string, width int, signed bool, value int64) (*ir.Var, error) {
	if !g.cloned {
		v, err := g.ir.Parameter(name, width, signed, value)
		if err != nil {
			return nil, err
		}
		g.trace(v)
		return v, nil
	}
	if g.nameTaken(name) {
		return nil, &diag.DuplicateNameError{Kind: "parameter", Name: name, Scope: g.scope()}
	}
	v, err := g.ir.NewParameter(name, width, signed, value)
	if err != nil {
		return nil, err
	}
	g.declare(v)
	g.enqueue(addParamOp{v: v})
	return v, nil
}

// GetPort looks up a port by name.
func (g *Generator) GetPort(name string) (*ir.Var, bool) {
	if v := g.ir.GetPort(name); v != nil {
		return v, true
	}
	if v, ok := g.declared[name]; ok && v.Kind == ir.PortIO {
		return v, true
	}
	return nil, false
}

// GetVariable looks up a port or variable by name.
func (g *Generator) GetVariable(name string) (*ir.Var, bool) {
	if v := g.ir.GetVar(name); v != nil {
		return v, true
	}
	if v, ok := g.declared[name]; ok && (v.Kind == ir.PortIO || v.Kind == ir.Base) {
		return v, true
	}
	return nil, false
}

// GetParameter looks up a parameter by name.
func (g *Generator) GetParameter(name string) (*ir.Var, bool) {
	if v := g.ir.GetParam(name); v != nil {
		return v, true
	}
	if v, ok := g.declared[name]; ok && v.Kind == ir.Param {
		return v, true
	}
	return nil, false
}

// Lookup finds a port, variable or parameter by name.
func (g *Generator) Lookup(name string) (*ir.Var, bool) {
	if v, ok := g.GetVariable(name); ok {
		return v, true
	}
	return g.GetParameter(name)
}

// Ports returns every port, including those declared on an uninitialized
// clone, in declaration order.
func (g *Generator) Ports() []*ir.Var {
	ports := g.ir.Ports()
	for _, name := range g.declaredOrder {
		if v := g.declared[name]; v.Kind == ir.PortIO {
			ports = append(ports, v)
		}
	}
	return ports
}

func (g *Generator) portsOfType(t ir.PortType) []*ir.Var {
	var out []*ir.Var
	for _, p := range g.Ports() {
		if p.PortType == t {
			out = append(out, p)
		}
	}
	return out
}

// owns reports whether v is a named signal of g.
func (g *Generator) owns(v *ir.Var) bool {
	if v == nil || v.Name == "" {
		return false
	}
	found, ok := g.Lookup(v.Name)
	return ok && found == v
}

func (g *Generator) nameTaken(name string) bool {
	if _, ok := g.declared[name]; ok {
		return true
	}
	return g.ir.GetVar(name) != nil || g.ir.GetParam(name) != nil
}

func (g *Generator) declare(v *ir.Var) {
	g.declared[v.Name] = v
	g.declaredOrder = append(g.declaredOrder, v.Name)
}

func (g *Generator) undeclare(name string) {
	delete(g.declared, name)
	for i, n := range g.declaredOrder {
		if n == name {
			g.declaredOrder = append(g.declaredOrder[:i], g.declaredOrder[i+1:]...)
			return
		}
	}
}

func (g *Generator) scope() string {
	return "generator " + g.ir.Name
}

type sourceTracked interface {
	AddSourceLoc(ir.SourceLoc)
}

var packageDir = func() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Dir(file)
}()

// trace attaches the first call site outside this package to n.
func (g *Generator) trace(n sourceTracked) {
	if !g.debug || n == nil {
		return
	}
	pcs := make([]uintptr, 16)
	frames := runtime.CallersFrames(pcs[:runtime.Callers(2, pcs)])
	for {
		frame, more := frames.Next()
		inPackage := filepath.Dir(frame.File) == packageDir && !strings.HasSuffix(frame.File, "_test.go")
		if !inPackage {
			n.AddSourceLoc(ir.SourceLoc{File: frame.File, Line: frame.Line})
			return
		}
		if !more {
			return
		}
	}
}
