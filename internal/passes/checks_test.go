package passes

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"hwgen/internal/diag"
	"hwgen/internal/ir"
)

func newGenerator(t *testing.T, ctx *ir.Context, name string) *ir.Generator {
	t.Helper()
	g := ctx.Generator(name)
	if _, err := g.Port(ir.Input, "clk", 1, 1, ir.Clock, false); err != nil {
		t.Fatalf("clk: %v", err)
	}
	if _, err := g.Port(ir.Input, "d", 8, 1, ir.Data, false); err != nil {
		t.Fatalf("d: %v", err)
	}
	if _, err := g.Var("q", 8, 1, false); err != nil {
		t.Fatalf("q: %v", err)
	}
	return g
}

func mustAssign(t *testing.T, left, right *ir.Var) *ir.AssignStmt {
	t.Helper()
	stmt, err := ir.NewAssign(left, right)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	return stmt
}

func TestFixAssignmentType(t *testing.T) {
	ctx := ir.NewContext()
	g := newGenerator(t, ctx, "top")
	clk, d, q := g.GetVar("clk"), g.GetVar("d"), g.GetVar("q")

	seq := g.Sequential()
	if err := seq.AddEdge(ir.PosedgeOf(clk)); err != nil {
		t.Fatalf("edge: %v", err)
	}
	branch, err := ir.NewIf(clk)
	if err != nil {
		t.Fatalf("if: %v", err)
	}
	inner := mustAssign(t, q, d)
	if err := branch.AddThen(inner); err != nil {
		t.Fatalf("then: %v", err)
	}
	if err := seq.Add(branch); err != nil {
		t.Fatalf("add: %v", err)
	}
	comb := g.Combinational()
	tmp, err := g.Var("tmp", 8, 1, false)
	if err != nil {
		t.Fatalf("tmp: %v", err)
	}
	blocking := mustAssign(t, tmp, d)
	if err := comb.Add(blocking); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := NewFixAssignmentType().Run(g); err != nil {
		t.Fatalf("fix: %v", err)
	}
	if inner.Type != ir.NonBlocking {
		t.Fatalf("assignment nested in a sequential block should be non-blocking")
	}
	if blocking.Type != ir.Blocking {
		t.Fatalf("combinational assignment should be blocking")
	}
}

func TestCheckMixedAssignment(t *testing.T) {
	ctx := ir.NewContext()
	g := newGenerator(t, ctx, "top")
	clk, d, q := g.GetVar("clk"), g.GetVar("d"), g.GetVar("q")

	seq := g.Sequential()
	if err := seq.AddEdge(ir.PosedgeOf(clk)); err != nil {
		t.Fatalf("edge: %v", err)
	}
	if err := seq.Add(mustAssign(t, q, d)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := g.Combinational().Add(mustAssign(t, q, d)); err != nil {
		t.Fatalf("add: %v", err)
	}

	var buf bytes.Buffer
	reporter := diag.NewReporter(&buf, "text")
	m := NewManager()
	m.Add(NewFixAssignmentType())
	m.Add(NewCheckMixedAssignment(reporter))
	if err := m.Run(g); err == nil {
		t.Fatalf("expected mixed assignment to fail")
	}
	if !strings.Contains(buf.String(), "q is driven by both blocking and non-blocking assignments") {
		t.Fatalf("unexpected diagnostics %q", buf.String())
	}
}

func TestCheckSensitivity(t *testing.T) {
	ctx := ir.NewContext()
	g := newGenerator(t, ctx, "top")
	g.Sequential()
	wide := g.Sequential()
	if err := wide.AddEdge(ir.PosedgeOf(g.GetVar("d"))); err != nil {
		t.Fatalf("edge: %v", err)
	}

	reporter := diag.NewReporter(nil, "json")
	if err := NewCheckSensitivity(reporter).Run(g); err == nil {
		t.Fatalf("expected sensitivity errors")
	}
	var got []string
	for _, d := range reporter.Diagnostics() {
		got = append(got, d.Message)
	}
	want := []string{
		"top: sequential block 0 has an empty sensitivity list",
		"top: sequential block 1 is triggered by d, which is 8 bits wide",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("diagnostics mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckClones(t *testing.T) {
	ctx := ir.NewContext()
	top := ctx.Generator("top")
	def := newGenerator(t, ctx, "leaf")
	copied := def.Clone()
	empty := ctx.EmptyGenerator()
	empty.Name = "leaf"
	empty.IsCloned = true
	empty.DefInstance = def

	for name, child := range map[string]*ir.Generator{"u0": def, "u1": copied} {
		if err := top.AddChild(name, child); err != nil {
			t.Fatalf("add %s: %v", name, err)
		}
	}
	if err := NewCheckClones(nil).Run(top); err != nil {
		t.Fatalf("port-copying clones are valid: %v", err)
	}

	if err := top.AddChild("u2", empty); err != nil {
		t.Fatalf("add: %v", err)
	}
	reporter := diag.NewReporter(nil, "text")
	if err := NewCheckClones(reporter).Run(top); err == nil {
		t.Fatalf("expected an uninitialized clone to be flagged")
	}
	if msg := reporter.Diagnostics()[0].Message; msg != "leaf: clone u2 was never initialized" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestDefaultPipeline(t *testing.T) {
	want := []string{"zero-out-stubs", "fix-assignment-type", "check-mixed-assignment", "check-sensitivity", "check-clones"}
	if diff := cmp.Diff(want, Default(nil).Names()); diff != "" {
		t.Fatalf("pipeline mismatch (-want +got):\n%s", diff)
	}
	ctx := ir.NewContext()
	g := newGenerator(t, ctx, "top")
	seq := g.Sequential()
	if err := seq.AddEdge(ir.PosedgeOf(g.GetVar("clk"))); err != nil {
		t.Fatalf("edge: %v", err)
	}
	if err := seq.Add(mustAssign(t, g.GetVar("q"), g.GetVar("d"))); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := Default(diag.NewReporter(nil, "text")).Run(g); err != nil {
		t.Fatalf("clean design should pass: %v", err)
	}
}
