// Package design turns a TOML design description into a generator
// hierarchy. Every generator kind of the description becomes a cached
// definition keyed by its parameter values, so repeated instances with equal
// parameters share one definition and are instantiated as clones.
package design

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tliron/commonlog"

	"hwgen/internal/compile"
	"hwgen/internal/config"
	"hwgen/internal/diag"
	"hwgen/internal/frontend"
	"hwgen/internal/gen"
	"hwgen/internal/ir"
)

var log = commonlog.GetLogger("hwgen.design")

const defaultParamWidth = 32

// Bodies resolves code bodies by function name.
type Bodies interface {
	Lookup(name string) (*compile.Func, bool)
}

// Elaborator builds the generators of one design description.
type Elaborator struct {
	ctx    *gen.Context
	design *config.Design
	bodies Bodies

	kinds map[string]*gen.Definition[gen.Params]
	stack []string
}

// New returns an elaborator for design. bodies may be nil when the design
// inserts no code.
func New(ctx *gen.Context, design *config.Design, bodies Bodies) *Elaborator {
	e := &Elaborator{
		ctx:    ctx,
		design: design,
		bodies: bodies,
		kinds:  make(map[string]*gen.Definition[gen.Params]),
	}
	for _, g := range design.Generators {
		decl := g
		e.kinds[g.Name] = gen.Define(g.Name, func(out *gen.Generator, p gen.Params) error {
			return e.build(out, decl, p)
		})
	}
	return e
}

// Load configures ctx from design, loads its code bodies and elaborates it.
func Load(ctx *gen.Context, design *config.Design, reporter *diag.Reporter) (*gen.Generator, error) {
	ctx.SetGlobalDebug(design.Debug)
	ctx.SetReporter(reporter)
	var bodies Bodies
	if len(design.Bodies) > 0 {
		sources := make([]string, 0, len(design.Bodies))
		for _, b := range design.Bodies {
			sources = append(sources, design.Path(b))
		}
		loaded, err := frontend.LoadBodies(frontend.LoadConfig{Sources: sources}, reporter)
		if err != nil {
			return nil, err
		}
		bodies = loaded
	}
	return New(ctx, design, bodies).Elaborate()
}

// Elaborate builds the top generator and everything below it. Unless the
// design asks for lazy clones, every clone in the hierarchy is initialized
// before Elaborate returns.
func (e *Elaborator) Elaborate() (*gen.Generator, error) {
	top, err := e.instantiate(e.design.Top, nil)
	if err != nil {
		return nil, err
	}
	if e.design.LazyClones {
		return top, nil
	}
	if err := initialize(top); err != nil {
		return nil, err
	}
	return top, nil
}

// initialize replays clones top-down; a parent's replay adds the children
// that are visited next.
func initialize(g *gen.Generator) error {
	if err := g.InitializeClone(); err != nil {
		return err
	}
	for _, c := range g.Children() {
		if err := initialize(c); err != nil {
			return err
		}
	}
	return nil
}

// instantiate creates one instance of the generator kind or external module
// called name with overrides applied to its defaults.
func (e *Elaborator) instantiate(name string, overrides map[string]interface{}) (*gen.Generator, error) {
	if ext, ok := e.design.External(name); ok {
		if len(overrides) > 0 {
			return nil, diag.Preconditionf("external module %s takes no parameters", name)
		}
		return e.importExternal(ext)
	}
	decl, ok := e.design.Generator(name)
	if !ok {
		return nil, &diag.NotFoundError{Kind: "generator", Name: name, Scope: "design"}
	}
	params, err := merge(decl, overrides)
	if err != nil {
		return nil, err
	}
	kind := e.kinds[name]
	if e.design.LazyClones {
		return kind.Clone(e.ctx, params)
	}
	return kind.Create(e.ctx, params)
}

func (e *Elaborator) importExternal(ext *config.External) (*gen.Generator, error) {
	kinds := make(map[string]ir.PortType, len(ext.PortTypes))
	for port, text := range ext.PortTypes {
		t, err := ir.ParsePortType(text)
		if err != nil {
			return nil, err
		}
		kinds[port] = t
	}
	libs := make([]string, 0, len(ext.Libs))
	for _, l := range ext.Libs {
		libs = append(libs, e.design.Path(l))
	}
	return gen.FromVerilog(e.ctx, ext.Name, e.design.Path(ext.File), libs, kinds)
}

func merge(decl *config.Generator, overrides map[string]interface{}) (gen.Params, error) {
	params := make(gen.Params, len(decl.Defaults))
	for k, v := range decl.Defaults {
		params[k] = v
	}
	for k, v := range overrides {
		if _, ok := decl.Defaults[k]; !ok {
			return nil, &diag.NotFoundError{Kind: "parameter", Name: k, Scope: "generator " + decl.Name}
		}
		params[k] = v
	}
	return params, nil
}

func (e *Elaborator) build(g *gen.Generator, decl *config.Generator, p gen.Params) error {
	for i, name := range e.stack {
		if name == decl.Name {
			cycle := append(append([]string{}, e.stack[i:]...), decl.Name)
			return diag.Preconditionf("recursive instantiation %s", strings.Join(cycle, " -> "))
		}
	}
	e.stack = append(e.stack, decl.Name)
	defer func() { e.stack = e.stack[:len(e.stack)-1] }()

	log.Debugf("building %s with %s", decl.Name, describe(p))
	g.SetStub(decl.Stub)
	if err := e.declare(g, decl, p); err != nil {
		return err
	}
	if decl.Stub {
		return nil
	}

	children := make(map[string]*gen.Generator, len(decl.Children))
	for _, c := range decl.Children {
		child, err := e.instantiate(c.Generator, c.Params)
		if err != nil {
			return fmt.Errorf("child %s: %w", c.Instance, err)
		}
		if err := g.AddChildWithComment(c.Instance, child, c.Comment); err != nil {
			return err
		}
		children[c.Instance] = child
	}
	// Registers first so wires may read them.
	for _, r := range decl.Regs {
		if err := addReg(g, r); err != nil {
			return fmt.Errorf("reg %s: %w", r.Name, err)
		}
	}
	for _, w := range decl.Wires {
		to, err := endpoint(g, children, w.To)
		if err != nil {
			return err
		}
		from, err := endpoint(g, children, w.From)
		if err != nil {
			return err
		}
		if _, err := g.Wire(to, from); err != nil {
			return err
		}
	}
	for _, c := range decl.Code {
		if err := e.addCode(g, c); err != nil {
			return err
		}
	}
	for _, f := range decl.FSMs {
		if _, err := g.AddFSM(f.Name, f.Clock, f.Reset); err != nil {
			return err
		}
		for _, s := range f.States {
			if err := g.AddFSMState(f.Name, s); err != nil {
				return err
			}
		}
	}
	return nil
}

// declare creates the parameters, ports and variables of decl.
func (e *Elaborator) declare(g *gen.Generator, decl *config.Generator, p gen.Params) error {
	for _, param := range decl.Parameters {
		value := param.Value
		if param.ValueParam != "" {
			v, err := intParam(p, param.ValueParam)
			if err != nil {
				return err
			}
			value = v
		}
		width := param.Width
		if width == 0 {
			width = defaultParamWidth
		}
		if _, err := g.CreateParameter(param.Name, width, param.Signed, value); err != nil {
			return err
		}
	}
	for _, port := range decl.Ports {
		dir, err := ir.ParsePortDirection(port.Direction)
		if err != nil {
			return err
		}
		kind, err := ir.ParsePortType(port.Type)
		if err != nil {
			return err
		}
		width, err := widthOf(p, port.Width, port.WidthParam)
		if err != nil {
			return fmt.Errorf("port %s: %w", port.Name, err)
		}
		if _, err := g.CreatePort(dir, port.Name, width, kind, port.Signed, port.Size); err != nil {
			return err
		}
	}
	for _, v := range decl.Vars {
		width, err := widthOf(p, v.Width, v.WidthParam)
		if err != nil {
			return fmt.Errorf("var %s: %w", v.Name, err)
		}
		if _, err := g.CreateVar(v.Name, width, v.Signed, v.Size); err != nil {
			return err
		}
	}
	return nil
}

func (e *Elaborator) addCode(g *gen.Generator, c *config.Code) error {
	if e.bodies == nil {
		return diag.Preconditionf("code body %s requested but no bodies were loaded", c.Func)
	}
	fn, ok := e.bodies.Lookup(c.Func)
	if !ok {
		return &diag.NotFoundError{Kind: "code body", Name: c.Func, Scope: "generator " + g.Name()}
	}
	_, err := g.AddCode(fn, c.Comment, c.Label)
	return err
}

func addReg(g *gen.Generator, r *config.Reg) error {
	source, ok := g.Lookup(r.Source)
	if !ok {
		return &diag.UnknownSignalError{Name: r.Source, Scope: "generator " + g.Name()}
	}
	var err error
	switch r.Kind {
	case config.RegNext:
		_, err = g.RegNext(r.Name, source, r.Clock)
	case config.RegInit:
		_, err = g.RegInit(r.Name, source, r.Clock, r.Reset, r.Init)
	case config.RegEnable:
		_, err = g.RegEnable(r.Name, source, r.Enable, r.Clock)
	default:
		err = diag.Preconditionf("unknown register kind %q", r.Kind)
	}
	return err
}

// endpoint resolves "name" against g and "instance.name" against the ports
// of a child.
func endpoint(g *gen.Generator, children map[string]*gen.Generator, ref string) (*ir.Var, error) {
	instance, port, ok := strings.Cut(ref, ".")
	if !ok {
		v, found := g.Lookup(ref)
		if !found {
			return nil, &diag.UnknownSignalError{Name: ref, Scope: "generator " + g.Name()}
		}
		return v, nil
	}
	child, found := children[instance]
	if !found {
		return nil, &diag.NotFoundError{Kind: "child", Name: instance, Scope: "generator " + g.Name()}
	}
	v, found := child.GetPort(port)
	if !found {
		return nil, &diag.NotFoundError{Kind: "port", Name: port, Scope: "instance " + instance}
	}
	return v, nil
}

func widthOf(p gen.Params, width int, param string) (int, error) {
	if param == "" {
		if width == 0 {
			return 1, nil
		}
		return width, nil
	}
	v, err := intParam(p, param)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

func intParam(p gen.Params, name string) (int64, error) {
	raw, ok := p[name]
	if !ok {
		return 0, &diag.NotFoundError{Kind: "parameter", Name: name, Scope: "parameters"}
	}
	switch v := raw.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	default:
		return 0, diag.Preconditionf("parameter %s must be an integer, got %T", name, raw)
	}
}

func describe(p gen.Params) string {
	if len(p) == 0 {
		return "no parameters"
	}
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, p[k]))
	}
	return strings.Join(parts, " ")
}
