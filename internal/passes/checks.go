package passes

import (
	"hwgen/internal/diag"
	"hwgen/internal/ir"
)

// FixAssignmentType gives every assignment without an explicit type the one
// its context implies: blocking at the top level and in combinational
// blocks, non-blocking in sequential blocks.
type FixAssignmentType struct{}

func NewFixAssignmentType() *FixAssignmentType {
	return &FixAssignmentType{}
}

func (*FixAssignmentType) Name() string { return "fix-assignment-type" }

func (*FixAssignmentType) Run(top *ir.Generator) error {
	return Walk(top, func(g *ir.Generator) error {
		walkStmts(g, func(s ir.Stmt, kind ir.Sensitivity) {
			assign, ok := s.(*ir.AssignStmt)
			if !ok || assign.Type != ir.Undefined {
				return
			}
			if kind == ir.Sequential {
				assign.Type = ir.NonBlocking
			} else {
				assign.Type = ir.Blocking
			}
		})
		return nil
	})
}

// CheckMixedAssignment rejects variables driven by both blocking and
// non-blocking assignments.
type CheckMixedAssignment struct {
	reporting
}

func NewCheckMixedAssignment(reporter *diag.Reporter) *CheckMixedAssignment {
	return &CheckMixedAssignment{reporting{reporter: reporter}}
}

func (*CheckMixedAssignment) Name() string { return "check-mixed-assignment" }

func (c *CheckMixedAssignment) Run(top *ir.Generator) error {
	err := Walk(top, func(g *ir.Generator) error {
		seen := make(map[*ir.Var]ir.AssignType)
		var order []*ir.Var
		mixed := make(map[*ir.Var]bool)
		walkStmts(g, func(s ir.Stmt, _ ir.Sensitivity) {
			assign, ok := s.(*ir.AssignStmt)
			if !ok || assign.Type == ir.Undefined {
				return
			}
			prev, ok := seen[assign.Left]
			if !ok {
				seen[assign.Left] = assign.Type
				order = append(order, assign.Left)
				return
			}
			if prev != assign.Type {
				mixed[assign.Left] = true
			}
		})
		for _, v := range order {
			if mixed[v] {
				c.errorf("%s: %s is driven by both blocking and non-blocking assignments", g.Name, v.Name)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return c.result(c.Name())
}

// CheckSensitivity verifies that sequential blocks are triggered by at least
// one edge of a 1-bit signal and that combinational blocks carry no edges.
type CheckSensitivity struct {
	reporting
}

func NewCheckSensitivity(reporter *diag.Reporter) *CheckSensitivity {
	return &CheckSensitivity{reporting{reporter: reporter}}
}

func (*CheckSensitivity) Name() string { return "check-sensitivity" }

func (c *CheckSensitivity) Run(top *ir.Generator) error {
	err := Walk(top, func(g *ir.Generator) error {
		for i, s := range g.Stmts() {
			b, ok := s.(*ir.Block)
			if !ok {
				continue
			}
			switch b.Sensitivity {
			case ir.Sequential:
				if len(b.Edges) == 0 {
					c.errorf("%s: sequential block %d has an empty sensitivity list", g.Name, i)
				}
				for _, e := range b.Edges {
					if e.Signal.Width() != 1 {
						c.errorf("%s: sequential block %d is triggered by %s, which is %d bits wide",
							g.Name, i, e.Signal.Name, e.Signal.Width())
					}
				}
			case ir.Combinational:
				if len(b.Edges) > 0 {
					c.errorf("%s: combinational block %d has a sensitivity list", g.Name, i)
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return c.result(c.Name())
}

// CheckClones verifies every reachable clone against its definition. A clone
// must name a definition that is not itself a clone, and its ports must be
// those of the definition. A clone made by a cache hit that was never
// initialized has no ports and fails this check.
type CheckClones struct {
	reporting
}

func NewCheckClones(reporter *diag.Reporter) *CheckClones {
	return &CheckClones{reporting{reporter: reporter}}
}

func (*CheckClones) Name() string { return "check-clones" }

func (c *CheckClones) Run(top *ir.Generator) error {
	err := Walk(top, func(g *ir.Generator) error {
		if !g.IsCloned {
			return nil
		}
		def := g.DefInstance
		switch {
		case def == nil:
			c.errorf("%s: clone %s has no definition", g.Name, g.InstanceName)
			return nil
		case def.IsCloned:
			c.errorf("%s: clone %s refers to another clone", g.Name, g.InstanceName)
			return nil
		}
		ports, want := g.Ports(), def.Ports()
		if len(ports) == 0 && len(want) > 0 {
			c.errorf("%s: clone %s was never initialized", g.Name, g.InstanceName)
			return nil
		}
		if len(ports) != len(want) {
			c.errorf("%s: clone %s has %d ports, its definition has %d", g.Name, g.InstanceName, len(ports), len(want))
			return nil
		}
		for i, p := range ports {
			d := want[i]
			if p.Name != d.Name || p.Direction != d.Direction || !p.Type.Equal(d.Type) || p.PortType != d.PortType {
				c.errorf("%s: port %s of clone %s does not match its definition", g.Name, p.Name, g.InstanceName)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return c.result(c.Name())
}
