// Package passes runs structural checks and fixups over a generator
// hierarchy before it is handed to a backend.
package passes

import (
	"fmt"

	"github.com/tliron/commonlog"

	"hwgen/internal/diag"
	"hwgen/internal/ir"
)

var log = commonlog.GetLogger("hwgen.passes")

// Pass transforms or checks the hierarchy rooted at top.
type Pass interface {
	Name() string
	Run(top *ir.Generator) error
}

// Manager runs passes in the order they were added.
type Manager struct {
	passes []Pass
}

// NewManager returns an empty manager.
func NewManager() *Manager {
	return &Manager{}
}

// Add appends p.
func (m *Manager) Add(p Pass) {
	m.passes = append(m.passes, p)
}

// Names returns the pass names in run order.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.passes))
	for _, p := range m.passes {
		names = append(names, p.Name())
	}
	return names
}

// Run executes every pass over top and stops at the first failure.
func (m *Manager) Run(top *ir.Generator) error {
	if top == nil {
		return fmt.Errorf("passes: no top generator")
	}
	for _, p := range m.passes {
		log.Debugf("running %s on %s", p.Name(), top.Name)
		if err := p.Run(top); err != nil {
			return fmt.Errorf("passes: %s: %w", p.Name(), err)
		}
	}
	return nil
}

// Default returns the standard pipeline. Stubs are tied off and assignment
// types fixed first so the checks that follow see the final statements.
func Default(reporter *diag.Reporter) *Manager {
	m := NewManager()
	m.Add(NewZeroOutStubs())
	m.Add(NewFixAssignmentType())
	m.Add(NewCheckMixedAssignment(reporter))
	m.Add(NewCheckSensitivity(reporter))
	m.Add(NewCheckClones(reporter))
	return m
}

// Walk calls fn on top and every generator instantiated below it, parents
// before children, each generator once.
func Walk(top *ir.Generator, fn func(g *ir.Generator) error) error {
	seen := make(map[*ir.Generator]bool)
	var visit func(g *ir.Generator) error
	visit = func(g *ir.Generator) error {
		if g == nil || seen[g] {
			return nil
		}
		seen[g] = true
		if err := fn(g); err != nil {
			return err
		}
		for _, child := range g.Children() {
			if err := visit(child); err != nil {
				return err
			}
		}
		return nil
	}
	return visit(top)
}

// walkStmts calls fn on every statement of g together with the sensitivity
// of the top-level block it sits in.
func walkStmts(g *ir.Generator, fn func(s ir.Stmt, kind ir.Sensitivity)) {
	var visit func(s ir.Stmt, kind ir.Sensitivity)
	visit = func(s ir.Stmt, kind ir.Sensitivity) {
		fn(s, kind)
		switch st := s.(type) {
		case *ir.Block:
			for _, inner := range st.Stmts() {
				visit(inner, kind)
			}
		case *ir.IfStmt:
			for _, inner := range st.Then.Stmts() {
				visit(inner, kind)
			}
			for _, inner := range st.Else.Stmts() {
				visit(inner, kind)
			}
		case *ir.SwitchStmt:
			for _, c := range st.Cases {
				for _, inner := range c.Body.Stmts() {
					visit(inner, kind)
				}
			}
		}
	}
	for _, s := range g.Stmts() {
		kind := ir.Combinational
		if b, ok := s.(*ir.Block); ok {
			kind = b.Sensitivity
		}
		visit(s, kind)
	}
}

type reporting struct {
	reporter *diag.Reporter
	errors   int
}

func (r *reporting) errorf(format string, args ...any) {
	r.errors++
	if r.reporter != nil {
		r.reporter.Errorf(format, args...)
	}
}

func (r *reporting) result(name string) error {
	n := r.errors
	r.errors = 0
	if n > 0 {
		return fmt.Errorf("%s reported %d error(s)", name, n)
	}
	return nil
}
