package passes

import (
	"testing"

	"hwgen/internal/ir"
)

func TestZeroOutStubs(t *testing.T) {
	ctx := ir.NewContext()
	top := ctx.Generator("top")
	stub := ctx.Generator("blackbox")
	stub.Stub = true
	if _, err := stub.Port(ir.Input, "in", 4, 1, ir.Data, false); err != nil {
		t.Fatalf("in: %v", err)
	}
	out, err := stub.Port(ir.Output, "out", 4, 1, ir.Data, true)
	if err != nil {
		t.Fatalf("out: %v", err)
	}
	driven, err := stub.Port(ir.Output, "ready", 1, 1, ir.Data, false)
	if err != nil {
		t.Fatalf("ready: %v", err)
	}
	one, err := ir.Const(1, 1, false)
	if err != nil {
		t.Fatalf("const: %v", err)
	}
	if err := stub.AddStmt(mustAssign(t, driven, one)); err != nil {
		t.Fatalf("drive ready: %v", err)
	}
	if err := top.AddChild("u0", stub); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := NewZeroOutStubs().Run(top); err != nil {
		t.Fatalf("zero out: %v", err)
	}
	if stub.StmtCount() != 2 {
		t.Fatalf("expected one new statement, got %d statements", stub.StmtCount())
	}
	assign, ok := stub.StmtAt(1).(*ir.AssignStmt)
	if !ok || assign.Left != out || assign.Right.Kind != ir.ConstValue || assign.Right.Value != 0 {
		t.Fatalf("out should be tied to zero, got %#v", stub.StmtAt(1))
	}
	if !assign.Right.Signed() {
		t.Fatalf("the zero constant must match the port's signedness")
	}
	if top.StmtCount() != 0 {
		t.Fatalf("non-stub generators must not change")
	}
}
