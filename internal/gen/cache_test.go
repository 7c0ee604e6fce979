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

type adderConfig struct {
	Width int
}

var adder = Define("adder", func(g *Generator, cfg adderConfig) error {
	a, err := g.Input("a", cfg.Width)
	if err != nil {
		return err
	}
	b, err := g.Input("b", cfg.Width)
	if err != nil {
		return err
	}
	out, err := g.Output("out", cfg.Width)
	if err != nil {
		return err
	}
	sum, err := ir.Binary(ir.Add, a, b)
	if err != nil {
		return err
	}
	_, err = g.Wire(out, sum)
	return err
})

var mux = Define("mux", func(g *Generator, p Params) error {
	width, _ := p["width"].(int)
	if width == 0 {
		width = 1
	}
	_, err := g.Input("sel", width)
	return err
})

func TestCreateCachesDefinitions(t *testing.T) {
	ctx := NewContext()
	first, err := adder.Create(ctx, adderConfig{Width: 8})
	require.NoError(t, err)
	assert.False(t, first.IsCloned())
	assert.Equal(t, 1, first.StmtCount())

	second, err := adder.Create(ctx, adderConfig{Width: 8})
	require.NoError(t, err)
	assert.True(t, second.IsCloned())
	assert.Same(t, first, second.Definition())
	assert.Same(t, first.IR(), second.IR().DefInstance)
	assert.Equal(t, 1, ctx.CacheSize("adder"))

	wide, err := adder.Create(ctx, adderConfig{Width: 16})
	require.NoError(t, err)
	assert.False(t, wide.IsCloned())
	assert.Equal(t, 2, ctx.CacheSize("adder"))
	assert.Equal(t, []string{"adder"}, ctx.Kinds())
}

func TestParamsIgnoreKeyOrder(t *testing.T) {
	ctx := NewContext()
	first, err := mux.Create(ctx, Params{"width": 4, "inputs": 2, "name": "m"})
	require.NoError(t, err)
	second, err := mux.Create(ctx, Params{"name": "m", "inputs": 2, "width": 4})
	require.NoError(t, err)
	assert.False(t, first.IsCloned())
	assert.True(t, second.IsCloned())
	assert.Equal(t, 1, ctx.CacheSize("mux"))
}

func TestEqualEncodingsWithDifferentTypesStayApart(t *testing.T) {
	ctx := NewContext()
	_, err := mux.Create(ctx, Params{"width": 4})
	require.NoError(t, err)
	other, err := mux.Create(ctx, Params{"width": int64(4)})
	require.NoError(t, err)
	assert.False(t, other.IsCloned(), "an int64 config is not equal to an int config")
	assert.Equal(t, 2, ctx.CacheSize("mux"))
}

func TestUnhashableConfig(t *testing.T) {
	ctx := NewContext()
	var pre *diag.PreconditionError
	_, err := mux.Create(ctx, Params{"callback": func() {}})
	assert.True(t, errors.As(err, &pre), "got %v", err)
	_, err = mux.Clone(ctx, Params{"events": make(chan int)})
	assert.True(t, errors.As(err, &pre), "got %v", err)
	assert.Zero(t, ctx.CacheSize("mux"))
}

func TestGlobalDebugBypassesCache(t *testing.T) {
	ctx := NewContext()
	ctx.SetGlobalDebug(true)
	first, err := adder.Create(ctx, adderConfig{Width: 8})
	require.NoError(t, err)
	second, err := adder.Create(ctx, adderConfig{Width: 8})
	require.NoError(t, err)

	assert.False(t, second.IsCloned())
	assert.NotSame(t, first.IR(), second.IR())
	assert.True(t, second.Debug())
	assert.Zero(t, ctx.CacheSize("adder"))
	a, _ := second.GetPort("a")
	assert.NotEmpty(t, a.Source)
}

func TestResetClearsCachesAndIR(t *testing.T) {
	ctx := NewContext()
	_, err := adder.Create(ctx, adderConfig{Width: 8})
	require.NoError(t, err)
	require.NotZero(t, ctx.IR().Len())

	ctx.Reset()
	assert.Zero(t, ctx.CacheSize("adder"))
	assert.Zero(t, ctx.IR().Len())

	again, err := adder.Create(ctx, adderConfig{Width: 8})
	require.NoError(t, err)
	assert.False(t, again.IsCloned(), "a reset context must rebuild definitions")
}

func TestCloneCopiesPorts(t *testing.T) {
	ctx := NewContext()
	def, err := adder.Clone(ctx, adderConfig{Width: 8})
	require.NoError(t, err)
	require.False(t, def.IsCloned())

	c, err := adder.Clone(ctx, adderConfig{Width: 8})
	require.NoError(t, err)
	assert.True(t, c.IsCloned())
	assert.Zero(t, c.PendingCount(), "Clone does not run the build function")
	assert.Zero(t, c.StmtCount())

	port, ok := c.GetPort("out")
	require.True(t, ok)
	assert.Equal(t, 8, port.Width())
	assert.Same(t, c.IR(), port.Generator())
	defPort, _ := def.GetPort("out")
	assert.NotSame(t, defPort, port)
}

func TestCreateHitReplaysBuild(t *testing.T) {
	ctx := NewContext()
	def, err := adder.Create(ctx, adderConfig{Width: 8})
	require.NoError(t, err)
	c, err := adder.Create(ctx, adderConfig{Width: 8})
	require.NoError(t, err)

	assert.Equal(t, 4, c.PendingCount())
	assert.Zero(t, c.StmtCount())
	_, ok := c.GetPort("a")
	assert.True(t, ok, "ports of a clone are visible before initialization")
	assert.Nil(t, c.IR().GetPort("a"))

	require.NoError(t, c.InitializeClone())
	assert.False(t, c.IsCloned())
	assert.Zero(t, c.PendingCount())
	assert.Equal(t, 1, c.StmtCount())
	assert.NotNil(t, c.IR().GetPort("a"))

	var want, got bytes.Buffer
	ir.Dump(def.IR(), &want)
	ir.Dump(c.IR(), &got)
	if diff := cmp.Diff(want.String(), got.String()); diff != "" {
		t.Fatalf("replayed clone differs from its definition (-want +got):\n%s", diff)
	}

	require.NoError(t, c.InitializeClone())
	assert.Equal(t, 1, c.StmtCount(), "replay happens once")
}

func TestKindsWithSameNameKeepSeparateCaches(t *testing.T) {
	withInput := Define("mod", func(g *Generator, width int) error {
		_, err := g.Input("a", width)
		return err
	})
	withOutput := Define("mod", func(g *Generator, width int) error {
		_, err := g.Output("z", width)
		return err
	})
	ctx := NewContext()
	first, err := withInput.Create(ctx, 4)
	require.NoError(t, err)
	second, err := withOutput.Create(ctx, 4)
	require.NoError(t, err)

	assert.False(t, second.IsCloned(), "a different kind must not reuse the definition")
	assert.Same(t, second, second.Definition())
	_, ok := second.GetPort("a")
	assert.False(t, ok)
	_, ok = second.GetPort("z")
	assert.True(t, ok)
	assert.NotSame(t, first.IR(), second.IR())

	assert.Equal(t, 2, ctx.CacheSize("mod"))
	assert.Equal(t, []string{"mod"}, ctx.Kinds())
}

func TestCacheKeyIsStructural(t *testing.T) {
	type config struct {
		Width int
		Tags  map[string]int
	}
	a, err := cacheKey(config{Width: 8, Tags: map[string]int{"x": 1, "y": 2}})
	require.NoError(t, err)
	b, err := cacheKey(config{Width: 8, Tags: map[string]int{"y": 2, "x": 1}})
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := cacheKey(config{Width: 16, Tags: map[string]int{"x": 1, "y": 2}})
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestCacheBucketSeparatesCollisions(t *testing.T) {
	cache := &kindCache{kind: "mux", buckets: make(map[uint64][]cacheEntry)}
	narrow := NewGenerator(NewContext(), "mux", false)
	wide := NewGenerator(NewContext(), "mux", false)
	cache.store(7, Params{"width": 4}, narrow)
	cache.store(7, Params{"width": 8}, wide)

	assert.Same(t, narrow, cache.lookup(7, Params{"width": 4}))
	assert.Same(t, wide, cache.lookup(7, Params{"width": 8}))
	assert.Nil(t, cache.lookup(7, Params{"width": 16}))
	assert.Equal(t, 2, cache.len())
}
