package verilog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"hwgen/internal/ir"
)

const fifoSource = `// simple fifo
` + "`timescale 1ns/1ps" + `
module fifo #(
    parameter WIDTH = 8,
    parameter DEPTH = WIDTH * 2 + 1,
    parameter integer OFFSET = -3
) (
    input  wire              clk,
    input  wire              rst_n,
    input  wire [WIDTH-1:0]  data_in,
    output reg  signed [7:0] data_out, level,
    input  wire [3:0]        mem [0:DEPTH-1]
);
  always @(posedge clk) begin
    data_out <= data_in;
  end
endmodule

module blank;
endmodule
`

func TestParseModules(t *testing.T) {
	modules, err := Parse("fifo.v", fifoSource)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(modules) != 2 {
		t.Fatalf("expected 2 modules, got %d", len(modules))
	}

	fifo := modules[0]
	wantPorts := []Port{
		{Name: "clk", Direction: ir.Input, Width: 1, Size: 1},
		{Name: "rst_n", Direction: ir.Input, Width: 1, Size: 1},
		{Name: "data_in", Direction: ir.Input, Width: 8, Size: 1},
		{Name: "data_out", Direction: ir.Output, Width: 8, Size: 1, Signed: true},
		{Name: "level", Direction: ir.Output, Width: 8, Size: 1, Signed: true},
		{Name: "mem", Direction: ir.Input, Width: 4, Size: 17},
	}
	if diff := cmp.Diff(wantPorts, fifo.Ports); diff != "" {
		t.Fatalf("ports mismatch (-want +got):\n%s", diff)
	}
	wantParams := []Param{
		{Name: "WIDTH", Width: 32, Value: 8},
		{Name: "DEPTH", Width: 32, Value: 17},
		{Name: "OFFSET", Width: 32, Signed: true, Value: -3},
	}
	if diff := cmp.Diff(wantParams, fifo.Params); diff != "" {
		t.Fatalf("params mismatch (-want +got):\n%s", diff)
	}
	if fifo.File != "fifo.v" || fifo.Line != 3 {
		t.Fatalf("unexpected location %s:%d", fifo.File, fifo.Line)
	}

	if modules[1].Name != "blank" || len(modules[1].Ports) != 0 {
		t.Fatalf("blank module should have no ports: %+v", modules[1])
	}
}

func TestParseRejectsNonANSIPorts(t *testing.T) {
	src := "module old(a, b);\n  input a;\n  output b;\nendmodule\n"
	if _, err := Parse("old.v", src); err == nil {
		t.Fatalf("expected non-ANSI port list to be rejected")
	}
}

func TestParseUnknownParameter(t *testing.T) {
	src := "module m(input [N-1:0] a);\nendmodule\n"
	if _, err := Parse("m.v", src); err == nil {
		t.Fatalf("expected unknown parameter error")
	}
}

func TestParseNumber(t *testing.T) {
	cases := map[string]int64{
		"42":       42,
		"1_000":    1000,
		"8'hff":    255,
		"4'b1010":  10,
		"'o17":     15,
		"16'sd300": 300,
	}
	for lit, want := range cases {
		got, err := parseNumber(lit)
		if err != nil {
			t.Fatalf("%s: %v", lit, err)
		}
		if got != want {
			t.Fatalf("%s: got %d want %d", lit, got, want)
		}
	}
	if _, err := parseNumber("4'bx01z"); err == nil {
		t.Fatalf("expected unknown bits to be rejected")
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adder.sv")
	src := "module adder #(parameter W = 4) (input logic [W-1:0] a, b, output logic [W:0] sum);\nendmodule\n"
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	modules, err := ParseFile(path)
	if err != nil {
		t.Fatalf("parse file: %v", err)
	}
	got := modules[0].Ports
	if len(got) != 3 || got[1].Name != "b" || got[1].Width != 4 || got[2].Width != 5 {
		t.Fatalf("unexpected ports %+v", got)
	}
}
