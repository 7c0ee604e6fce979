package gen

import (
	"fmt"

	"hwgen/internal/diag"
	"hwgen/internal/ir"
	"hwgen/internal/verilog"
)

// FromVerilog builds an external generator for module top. src is searched
// first, then every file in libs. portTypes overrides the kind of the named
// ports; all other ports are data ports.
func FromVerilog(ctx *Context, top, src string, libs []string, portTypes map[string]ir.PortType) (*Generator, error) {
	files := append([]string{src}, libs...)
	var found *verilog.Module
	for _, file := range files {
		modules, err := verilog.ParseFile(file)
		if err != nil {
			return nil, fmt.Errorf("gen: import %s: %w", file, err)
		}
		for _, m := range modules {
			if m.Name == top {
				found = m
				break
			}
		}
		if found != nil {
			break
		}
	}
	if found == nil {
		return nil, &diag.NotFoundError{Kind: "module", Name: top, Scope: src}
	}

	for name := range portTypes {
		if !hasPort(found, name) {
			return nil, &diag.NotFoundError{Kind: "port", Name: name, Scope: "module " + top}
		}
	}

	g := NewGenerator(ctx, top, false)
	g.SetExternal(true)
	g.ir.AddSourceLoc(ir.SourceLoc{File: found.File, Line: found.Line})
	for _, p := range found.Params {
		if _, err := g.CreateParameter(p.Name, p.Width, p.Signed, p.Value); err != nil {
			return nil, err
		}
	}
	for _, p := range found.Ports {
		kind := portTypes[p.Name]
		if _, err := g.CreatePort(p.Direction, p.Name, p.Width, kind, p.Signed, p.Size); err != nil {
			return nil, err
		}
	}
	log.Debugf("imported %s from %s with %d ports", top, found.File, len(found.Ports))
	return g, nil
}

func hasPort(m *verilog.Module, name string) bool {
	for _, p := range m.Ports {
		if p.Name == name {
			return true
		}
	}
	return false
}
