package gen

import (
	"fmt"
	"reflect"

	"github.com/google/go-cmp/cmp"
	"github.com/mitchellh/hashstructure/v2"

	"hwgen/internal/diag"
)

// Params is a keyword-style configuration. Key order never affects caching.
type Params map[string]any

// Definition is a generator kind whose instances are memoized by their
// configuration value.
type Definition[C any] struct {
	kind  string
	build func(g *Generator, cfg C) error
}

// Define declares a generator kind. build populates a generator for cfg; it
// runs once per distinct configuration, and again on every clone where all
// of its mutations are queued. Every Definition owns its cache, so two kinds
// declared under the same name never share definitions.
func Define[C any](kind string, build func(g *Generator, cfg C) error) *Definition[C] {
	return &Definition[C]{kind: kind, build: build}
}

// Kind returns the kind name, which is also the default generator name.
func (d *Definition[C]) Kind() string {
	return d.kind
}

// Create returns a fresh generator for the first request of cfg and a clone
// of that definition for every equal request after it. Clones must be
// initialized with InitializeClone before they are lowered.
func (d *Definition[C]) Create(ctx *Context, cfg C) (*Generator, error) {
	if ctx.debug {
		return d.fresh(ctx, cfg)
	}
	cache := ctx.cache(d, d.kind)
	key, err := cacheKey(cfg)
	if err != nil {
		return nil, err
	}
	if def := cache.lookup(key, cfg); def != nil {
		log.Debugf("cache hit for %s (%016x)", d.kind, key)
		g := newClone(ctx, def)
		if err := d.build(g, cfg); err != nil {
			return nil, fmt.Errorf("gen: build clone of %s: %w", d.kind, err)
		}
		return g, nil
	}
	log.Debugf("cache miss for %s (%016x)", d.kind, key)
	g, err := d.fresh(ctx, cfg)
	if err != nil {
		return nil, err
	}
	cache.store(key, cfg, g)
	return g, nil
}

// Clone is like Create except that a cache hit does not run build: the new
// generator gets an IR clone of the definition carrying a copy of its ports.
func (d *Definition[C]) Clone(ctx *Context, cfg C) (*Generator, error) {
	if ctx.debug {
		return d.fresh(ctx, cfg)
	}
	cache := ctx.cache(d, d.kind)
	key, err := cacheKey(cfg)
	if err != nil {
		return nil, err
	}
	if def := cache.lookup(key, cfg); def != nil {
		log.Debugf("clone of %s (%016x)", d.kind, key)
		return cloneOf(ctx, def), nil
	}
	g, err := d.fresh(ctx, cfg)
	if err != nil {
		return nil, err
	}
	cache.store(key, cfg, g)
	return g, nil
}

func (d *Definition[C]) fresh(ctx *Context, cfg C) (*Generator, error) {
	g := NewGenerator(ctx, d.kind, false)
	if err := d.build(g, cfg); err != nil {
		return nil, fmt.Errorf("gen: build %s: %w", d.kind, err)
	}
	return g, nil
}

// cacheKey hashes cfg structurally. Map entries are combined independently
// of their order; functions and channels cannot be hashed.
func cacheKey(cfg any) (uint64, error) {
	key, err := hashstructure.Hash(cfg, hashstructure.FormatV2, nil)
	if err != nil {
		return 0, diag.Preconditionf("configuration %T cannot be used as a cache key: %v", cfg, err)
	}
	return key, nil
}

var exportAll = cmp.Exporter(func(reflect.Type) bool { return true })

type cacheEntry struct {
	cfg any
	def *Generator
}

type kindCache struct {
	kind    string
	buckets map[uint64][]cacheEntry
}

// lookup returns the definition stored for a configuration equal to cfg.
// Entries sharing a hash but holding unequal configurations stay apart.
func (c *kindCache) lookup(key uint64, cfg any) *Generator {
	for _, entry := range c.buckets[key] {
		if cmp.Equal(entry.cfg, cfg, exportAll) {
			return entry.def
		}
	}
	return nil
}

func (c *kindCache) store(key uint64, cfg any, def *Generator) {
	c.buckets[key] = append(c.buckets[key], cacheEntry{cfg: cfg, def: def})
}

func (c *kindCache) len() int {
	n := 0
	for _, entries := range c.buckets {
		n += len(entries)
	}
	return n
}
