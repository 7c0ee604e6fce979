package gen

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hwgen/internal/diag"
)

func TestMarkStmt(t *testing.T) {
	g := NewGenerator(NewContext(), "mod", false)
	a := mustInput(t, g, "a", 8)
	out := mustOutput(t, g, "out", 8)
	stmt, err := g.Wire(out, a)
	require.NoError(t, err)
	comb := g.Combinational()

	require.NoError(t, g.MarkStmt("drive", stmt))
	require.NoError(t, g.MarkStmt("logic", comb))
	assert.Equal(t, 2, g.MarkedCount())

	got, err := g.GetMarkedStmt("drive")
	require.NoError(t, err)
	assert.Same(t, stmt, got)

	var dup *diag.DuplicateNameError
	require.True(t, errors.As(g.MarkStmt("drive", comb), &dup))
	assert.Equal(t, "label", dup.Kind)
	got, _ = g.GetMarkedStmt("drive")
	assert.Same(t, stmt, got, "labels are never overwritten")

	var missing *diag.NotFoundError
	_, err = g.GetMarkedStmt("nothing")
	assert.True(t, errors.As(err, &missing))

	named, ok := g.IR().NamedBlock("logic")
	require.True(t, ok)
	assert.Same(t, comb.Block(), named)
}

func TestAddFSM(t *testing.T) {
	g := NewGenerator(NewContext(), "mod", false)
	_, err := g.Clock("clk")
	require.NoError(t, err)
	_, err = g.Reset("rst")
	require.NoError(t, err)
	slow, err := g.Clock("slow")
	require.NoError(t, err)

	var pre *diag.PreconditionError
	_, err = g.AddFSM("auto", "", "")
	assert.True(t, errors.As(err, &pre), "two clocks cannot be inferred, got %v", err)

	fsm, err := g.AddFSM("ctrl", "slow", "rst")
	require.NoError(t, err)
	assert.Same(t, slow, fsm.Clock)
	require.NoError(t, fsm.AddState("idle"))
	require.NoError(t, fsm.AddState("run"))
	assert.Equal(t, "idle", fsm.Start)

	var dup *diag.DuplicateNameError
	_, err = g.AddFSM("ctrl", "clk", "rst")
	assert.True(t, errors.As(err, &dup), "got %v", err)

	var unknown *diag.UnknownSignalError
	_, err = g.AddFSM("other", "fast", "")
	assert.True(t, errors.As(err, &unknown), "got %v", err)

	found, ok := g.GetFSM("ctrl")
	require.True(t, ok)
	assert.Same(t, fsm, found)
}

func TestFSMStatesOnClone(t *testing.T) {
	ctx := NewContext()
	c := newClone(ctx, NewGenerator(ctx, "mod", false))
	_, err := c.Clock("clk")
	require.NoError(t, err)
	_, err = c.Reset("rst")
	require.NoError(t, err)

	fsm, err := c.AddFSM("ctrl", "", "")
	require.NoError(t, err)
	assert.Nil(t, fsm)
	require.NoError(t, c.AddFSMState("ctrl", "idle"))
	require.NoError(t, c.AddFSMState("ctrl", "busy"))

	require.NoError(t, c.InitializeClone())
	fsm, ok := c.GetFSM("ctrl")
	require.True(t, ok)
	assert.Equal(t, []string{"idle", "busy"}, fsm.States())
	assert.Equal(t, "idle", fsm.Start)

	var missing *diag.NotFoundError
	assert.True(t, errors.As(c.AddFSMState("other", "x"), &missing))
}
