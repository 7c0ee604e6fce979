package gen

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hwgen/internal/diag"
	"hwgen/internal/ir"
)

type counterConfig struct {
	Width int
	Init  int64
}

var counter = Define("counter", func(g *Generator, cfg counterConfig) error {
	if _, err := g.Clock("clk"); err != nil {
		return err
	}
	if _, err := g.Reset("rst"); err != nil {
		return err
	}
	in, err := g.Input("in", cfg.Width)
	if err != nil {
		return err
	}
	out, err := g.Output("out", cfg.Width)
	if err != nil {
		return err
	}
	q, err := g.RegInit("q", in, "", "", cfg.Init)
	if err != nil {
		return err
	}
	if _, err := g.Wire(out, q); err != nil {
		return err
	}

	mirror, err := g.CreateVar("mirror", cfg.Width, false, 1)
	if err != nil {
		return err
	}
	comb := g.Combinational()
	if _, err := comb.Assign(mirror, in); err != nil {
		return err
	}
	comb.Comment("mirror the input")
	if err := g.MarkStmt("mirror", comb); err != nil {
		return err
	}
	_, err = g.AddFSM("ctrl", "", "")
	return err
})

func dump(g *Generator) string {
	var buf bytes.Buffer
	ir.Dump(g.IR(), &buf)
	return buf.String()
}

func TestCloneQueuesEveryMutation(t *testing.T) {
	ctx := NewContext()
	def, err := counter.Create(ctx, counterConfig{Width: 4, Init: 3})
	require.NoError(t, err)
	c, err := counter.Create(ctx, counterConfig{Width: 4, Init: 3})
	require.NoError(t, err)
	require.True(t, c.IsCloned())

	assert.Zero(t, c.StmtCount())
	assert.Empty(t, c.IR().Ports())
	assert.Nil(t, c.IR().GetFSM("ctrl"))

	marked, err := c.GetMarkedStmt("mirror")
	require.NoError(t, err, "labels are recorded while cloned")
	assert.Nil(t, marked.Stmt(), "the block exists only after replay")

	q, ok := c.GetVariable("q")
	require.True(t, ok)
	assert.Equal(t, 4, q.Width())

	require.NoError(t, c.InitializeClone())

	block, ok := marked.(*CodeBlock)
	require.True(t, ok)
	require.NotNil(t, block.Stmt())
	named, ok := c.IR().NamedBlock("mirror")
	require.True(t, ok)
	assert.Same(t, block.Block(), named)
	assert.Equal(t, "mirror the input", block.Block().Comment)
	assert.NotNil(t, c.IR().GetFSM("ctrl"))

	if diff := cmp.Diff(dump(def), dump(c)); diff != "" {
		t.Fatalf("replayed clone differs from its definition (-want +got):\n%s", diff)
	}
}

func TestCloneChildrenAreAddedOnReplay(t *testing.T) {
	ctx := NewContext()
	top := Define("top", func(g *Generator, n int) error {
		for i := 0; i < n; i++ {
			child, err := adder.Create(g.Context(), adderConfig{Width: 8})
			if err != nil {
				return err
			}
			if err := g.AddChild(string(rune('a'+i)), child); err != nil {
				return err
			}
		}
		return nil
	})

	first, err := top.Create(ctx, 2)
	require.NoError(t, err)
	require.Len(t, first.Children(), 2)
	second, _ := first.Child("b")
	assert.True(t, second.IsCloned(), "the second adder is a clone of the first")
	require.NoError(t, second.InitializeClone())

	again, err := top.Create(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, again.Children())
	assert.Equal(t, 2, again.PendingCount())

	require.NoError(t, again.InitializeClone())
	require.Len(t, again.Children(), 2)
	a, _ := again.Child("a")
	assert.Same(t, again, a.Parent())
	assert.Equal(t, "a", a.InstanceName())
}

func TestCloneRejectsDuplicateChildAtCallTime(t *testing.T) {
	ctx := NewContext()
	c := newClone(ctx, NewGenerator(ctx, "top", false))
	left := NewGenerator(ctx, "leaf", false)
	right := NewGenerator(ctx, "leaf", false)

	require.NoError(t, c.AddChild("u", left))
	var dup *diag.DuplicateNameError
	require.True(t, errors.As(c.AddChild("u", right), &dup))
	assert.Equal(t, "u", dup.Name)
	assert.Equal(t, 1, c.PendingCount(), "the rejected child is not queued")

	var missing *diag.NotFoundError
	assert.True(t, errors.As(c.Replace("v", right), &missing))
	assert.True(t, errors.As(c.RemoveChild(right), &missing))

	require.NoError(t, c.RemoveChild(left))
	require.NoError(t, c.AddChild("u", right), "a removed name can be reused")

	require.NoError(t, c.InitializeClone())
	got, ok := c.Child("u")
	require.True(t, ok)
	assert.Same(t, right, got)
	assert.Nil(t, left.Parent())
}

func TestInitializeCloneOnActiveGeneratorIsNoop(t *testing.T) {
	g := NewGenerator(NewContext(), "mod", false)
	mustInput(t, g, "a", 1)
	require.NoError(t, g.InitializeClone())
	assert.False(t, g.IsCloned())
	assert.Len(t, g.Ports(), 1)
}

func TestReplayFailureIsReported(t *testing.T) {
	ctx := NewContext()
	def := NewGenerator(ctx, "mod", false)
	c := newClone(ctx, def)
	a := mustInput(t, c, "a", 4)
	b := mustInput(t, c, "b", 4)
	stmt, err := c.Wire(a, b)
	require.NoError(t, err, "wiring is checked on replay")
	assert.Nil(t, stmt)

	err = c.InitializeClone()
	var dirErr *diag.DirectionError
	require.True(t, errors.As(err, &dirErr), "got %v", err)
	assert.Contains(t, err.Error(), "replay 2")
}
