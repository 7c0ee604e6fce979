// Package config loads TOML design descriptions.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml"

	"hwgen/internal/ir"
)

// Design is the root of a design description.
type Design struct {
	Top   string `toml:"top"`
	Debug bool   `toml:"debug"`
	// LazyClones keeps repeated instances as port-only clones of their
	// definition instead of replaying the build on each of them.
	LazyClones bool     `toml:"lazy_clones"`
	Bodies     []string `toml:"bodies"`

	Externals  []*External  `toml:"external"`
	Generators []*Generator `toml:"generator"`

	// Dir is the directory relative paths are resolved against.
	Dir string `toml:"-"`
}

// External imports a Verilog module as an external generator.
type External struct {
	Name      string            `toml:"name"`
	File      string            `toml:"file"`
	Libs      []string          `toml:"libs"`
	PortTypes map[string]string `toml:"port_types"`
}

// Generator describes one generator kind. Widths and values may refer to
// entries of Defaults, which instances override through Child.Params.
type Generator struct {
	Name       string                 `toml:"name"`
	Stub       bool                   `toml:"stub"`
	Defaults   map[string]interface{} `toml:"defaults"`
	Parameters []*Parameter           `toml:"parameter"`
	Ports      []*Port                `toml:"port"`
	Vars       []*Var                 `toml:"var"`
	Children   []*Child               `toml:"child"`
	Wires      []*Wire                `toml:"wire"`
	Regs       []*Reg                 `toml:"reg"`
	Code       []*Code                `toml:"code"`
	FSMs       []*FSM                 `toml:"fsm"`
}

// Parameter is a generator parameter.
type Parameter struct {
	Name       string `toml:"name"`
	Width      int    `toml:"width"`
	Signed     bool   `toml:"signed"`
	Value      int64  `toml:"value"`
	ValueParam string `toml:"value_param"`
}

// Port is a generator port. Direction is in, out or inout; Type is one of
// data, clock, async_reset, clock_en or reset.
type Port struct {
	Name       string `toml:"name"`
	Direction  string `toml:"direction"`
	Type       string `toml:"type"`
	Width      int    `toml:"width"`
	WidthParam string `toml:"width_param"`
	Signed     bool   `toml:"signed"`
	Size       int    `toml:"size"`
}

// Var is an internal variable.
type Var struct {
	Name       string `toml:"name"`
	Width      int    `toml:"width"`
	WidthParam string `toml:"width_param"`
	Signed     bool   `toml:"signed"`
	Size       int    `toml:"size"`
}

// Child instantiates another generator kind or an external module.
type Child struct {
	Instance  string                 `toml:"instance"`
	Generator string                 `toml:"generator"`
	Comment   string                 `toml:"comment"`
	Params    map[string]interface{} `toml:"params"`
}

// Wire connects two signals. Endpoints are "name" for a signal of the
// generator itself or "instance.name" for a port of a child.
type Wire struct {
	To   string `toml:"to"`
	From string `toml:"from"`
}

// Reg declares a register through one of the register helpers.
type Reg struct {
	Kind   string `toml:"kind"`
	Name   string `toml:"name"`
	Source string `toml:"source"`
	Clock  string `toml:"clock"`
	Reset  string `toml:"reset"`
	Enable string `toml:"enable"`
	Init   int64  `toml:"init"`
}

// Code inserts a Go code body.
type Code struct {
	Func    string `toml:"func"`
	Label   string `toml:"label"`
	Comment string `toml:"comment"`
}

// FSM declares a state machine. The first state is the start state.
type FSM struct {
	Name   string   `toml:"name"`
	Clock  string   `toml:"clock"`
	Reset  string   `toml:"reset"`
	States []string `toml:"states"`
}

// Reg kinds.
const (
	RegNext   = "next"
	RegInit   = "init"
	RegEnable = "enable"
)

// Load reads and validates the description at path.
func Load(path string) (*Design, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	d.Dir = filepath.Dir(path)
	return d, nil
}

// Parse decodes and validates a description held in memory.
func Parse(data []byte) (*Design, error) {
	d := &Design{}
	if err := toml.Unmarshal(data, d); err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Path resolves p against the directory of the description.
func (d *Design) Path(p string) string {
	if p == "" || filepath.IsAbs(p) || d.Dir == "" {
		return p
	}
	return filepath.Join(d.Dir, p)
}

// Generator returns the generator kind called name.
func (d *Design) Generator(name string) (*Generator, bool) {
	for _, g := range d.Generators {
		if g.Name == name {
			return g, true
		}
	}
	return nil, false
}

// External returns the external module called name.
func (d *Design) External(name string) (*External, bool) {
	for _, e := range d.Externals {
		if e.Name == name {
			return e, true
		}
	}
	return nil, false
}

// Validate checks names, references and enumerated fields.
func (d *Design) Validate() error {
	if d.Top == "" {
		return fmt.Errorf("top is not set")
	}
	names := make(map[string]bool)
	for _, e := range d.Externals {
		if e.Name == "" || e.File == "" {
			return fmt.Errorf("external modules need a name and a file")
		}
		if names[e.Name] {
			return fmt.Errorf("%s is declared more than once", e.Name)
		}
		names[e.Name] = true
		for port, kind := range e.PortTypes {
			if _, err := ir.ParsePortType(kind); err != nil {
				return fmt.Errorf("external %s port %s: %w", e.Name, port, err)
			}
		}
	}
	for _, g := range d.Generators {
		if g.Name == "" {
			return fmt.Errorf("generator without a name")
		}
		if names[g.Name] {
			return fmt.Errorf("%s is declared more than once", g.Name)
		}
		names[g.Name] = true
	}
	if !names[d.Top] {
		return fmt.Errorf("top %s is not declared", d.Top)
	}
	for _, g := range d.Generators {
		if err := g.validate(names); err != nil {
			return fmt.Errorf("generator %s: %w", g.Name, err)
		}
	}
	return nil
}

func (g *Generator) validate(names map[string]bool) error {
	for _, p := range g.Ports {
		if _, err := ir.ParsePortDirection(p.Direction); err != nil {
			return fmt.Errorf("port %s: %w", p.Name, err)
		}
		if _, err := ir.ParsePortType(p.Type); err != nil {
			return fmt.Errorf("port %s: %w", p.Name, err)
		}
		if err := g.checkWidth(p.Name, p.Width, p.WidthParam); err != nil {
			return err
		}
	}
	for _, v := range g.Vars {
		if err := g.checkWidth(v.Name, v.Width, v.WidthParam); err != nil {
			return err
		}
	}
	for _, p := range g.Parameters {
		if p.ValueParam != "" {
			if _, ok := g.Defaults[p.ValueParam]; !ok {
				return fmt.Errorf("parameter %s: no default for %s", p.Name, p.ValueParam)
			}
		}
	}
	for _, c := range g.Children {
		if c.Instance == "" {
			return fmt.Errorf("child of kind %s has no instance name", c.Generator)
		}
		if !names[c.Generator] {
			return fmt.Errorf("child %s: unknown generator %s", c.Instance, c.Generator)
		}
	}
	for _, r := range g.Regs {
		switch r.Kind {
		case RegNext, RegInit:
		case RegEnable:
			if r.Enable == "" {
				return fmt.Errorf("reg %s: enable registers need an enable signal", r.Name)
			}
		default:
			return fmt.Errorf("reg %s: unknown kind %q", r.Name, r.Kind)
		}
	}
	for _, w := range g.Wires {
		if w.To == "" || w.From == "" {
			return fmt.Errorf("wire needs both ends")
		}
	}
	return nil
}

func (g *Generator) checkWidth(name string, width int, param string) error {
	if param == "" {
		return nil
	}
	if width != 0 {
		return fmt.Errorf("%s sets both width and width_param", name)
	}
	if _, ok := g.Defaults[param]; !ok {
		return fmt.Errorf("%s: no default for %s", name, param)
	}
	return nil
}
