package gen

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hwgen/internal/diag"
	"hwgen/internal/ir"
)

const ramSource = `module ram #(parameter ADDR = 4, parameter DATA = 16) (
  input  wire              clk,
  input  wire              rst_n,
  input  wire [ADDR-1:0]   addr,
  input  wire [DATA-1:0]   wdata,
  output wire [DATA-1:0]   rdata
);
endmodule
`

const libSource = `module fifo (input clk, output [7:0] q);
endmodule
`

func writeVerilog(t *testing.T, name, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestFromVerilog(t *testing.T) {
	ctx := NewContext()
	src := writeVerilog(t, "ram.v", ramSource)
	lib := writeVerilog(t, "fifo.v", libSource)

	g, err := FromVerilog(ctx, "ram", src, []string{lib}, map[string]ir.PortType{
		"clk":   ir.Clock,
		"rst_n": ir.AsyncReset,
	})
	require.NoError(t, err)
	assert.True(t, g.External())
	assert.Equal(t, "ram", g.Name())
	require.Len(t, g.Ports(), 5)

	clk, ok := g.GetPort("clk")
	require.True(t, ok)
	assert.Equal(t, ir.Clock, clk.PortType)
	addr, _ := g.GetPort("addr")
	assert.Equal(t, 4, addr.Width())
	assert.Equal(t, ir.Data, addr.PortType)
	rdata, _ := g.GetPort("rdata")
	assert.Equal(t, ir.Output, rdata.Direction)
	assert.Equal(t, 16, rdata.Width())

	data, ok := g.GetParameter("DATA")
	require.True(t, ok)
	assert.Equal(t, int64(16), data.Value)

	fifo, err := FromVerilog(ctx, "fifo", src, []string{lib}, nil)
	require.NoError(t, err)
	q, _ := fifo.GetPort("q")
	assert.Equal(t, 8, q.Width())
}

func TestFromVerilogErrors(t *testing.T) {
	ctx := NewContext()
	src := writeVerilog(t, "ram.v", ramSource)

	var missing *diag.NotFoundError
	_, err := FromVerilog(ctx, "rom", src, nil, nil)
	require.True(t, errors.As(err, &missing), "got %v", err)
	assert.Equal(t, "rom", missing.Name)

	_, err = FromVerilog(ctx, "ram", src, nil, map[string]ir.PortType{"nope": ir.Clock})
	assert.True(t, errors.As(err, &missing), "got %v", err)

	var pre *diag.PreconditionError
	_, err = FromVerilog(ctx, "ram", src, nil, map[string]ir.PortType{"addr": ir.Clock})
	assert.True(t, errors.As(err, &pre), "a 4-bit port cannot be a clock, got %v", err)
}
