package ir

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDumpGenerator(t *testing.T) {
	g := newGenerator(t, "adder")
	clk := mustPort(t, g, Input, "clk", 1, Clock)
	a := mustPort(t, g, Input, "a", 8, Data)
	out := mustPort(t, g, Output, "out", 8, Data)
	acc, err := g.Var("acc", 8, 1, false)
	if err != nil {
		t.Fatalf("var: %v", err)
	}
	if _, err := g.Parameter("WIDTH", 32, false, 8); err != nil {
		t.Fatalf("param: %v", err)
	}

	seq := g.Sequential()
	if err := seq.AddEdge(PosedgeOf(clk)); err != nil {
		t.Fatalf("edge: %v", err)
	}
	sum, err := Binary(Add, acc, a)
	if err != nil {
		t.Fatalf("binary: %v", err)
	}
	update, err := NewAssign(acc, sum)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	update.Type = NonBlocking
	if err := seq.Add(update); err != nil {
		t.Fatalf("add: %v", err)
	}
	drive, err := out.Assign(acc)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := g.AddStmt(drive); err != nil {
		t.Fatalf("add stmt: %v", err)
	}
	if err := g.AddNamedBlock("accumulate", seq); err != nil {
		t.Fatalf("label: %v", err)
	}

	var buf bytes.Buffer
	Dump(g, &buf)

	want := `generator adder
  ports:
    in  clk 1u clock
    in  a 8u
    out out 8u
  vars:
    acc      8u
  params:
    WIDTH    32u = 8
  stmts:
    sequential @(posedge clk) [accumulate]
      acc <= (acc + a)
    out = acc

`
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Fatalf("dump mismatch (-want +got):\n%s", diff)
	}
}
