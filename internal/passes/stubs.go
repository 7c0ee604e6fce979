package passes

import (
	"fmt"

	"hwgen/internal/ir"
)

// ZeroOutStubs drives every undriven output of a stub generator with zero so
// that stubs elaborate into legal modules. Clones and external generators are
// left alone; a clone is zeroed through its definition.
type ZeroOutStubs struct{}

func NewZeroOutStubs() *ZeroOutStubs {
	return &ZeroOutStubs{}
}

func (*ZeroOutStubs) Name() string { return "zero-out-stubs" }

func (*ZeroOutStubs) Run(top *ir.Generator) error {
	return Walk(top, func(g *ir.Generator) error {
		if !g.Stub || g.IsCloned || g.External {
			return nil
		}
		driven := make(map[*ir.Var]bool)
		walkStmts(g, func(s ir.Stmt, _ ir.Sensitivity) {
			if assign, ok := s.(*ir.AssignStmt); ok {
				driven[assign.Left] = true
			}
		})
		for _, port := range g.Ports() {
			if port.Direction != ir.Output || driven[port] {
				continue
			}
			zero, err := ir.Const(0, port.Width(), port.Signed())
			if err != nil {
				return err
			}
			stmt, err := ir.NewAssign(port, zero)
			if err != nil {
				return fmt.Errorf("%s: zero %s: %w", g.Name, port.Name, err)
			}
			if err := g.AddStmt(stmt); err != nil {
				return err
			}
			log.Debugf("%s: tied stub output %s to zero", g.Name, port.Name)
		}
		return nil
	})
}
