// Package gen builds hardware module hierarchies on top of the IR store:
// generator instances, cached definitions and their clones, code blocks,
// register helpers and labelled statements.
package gen

import (
	"io"
	"sort"

	"github.com/tliron/commonlog"

	"hwgen/internal/diag"
	"hwgen/internal/ir"
)

var log = commonlog.GetLogger("hwgen.gen")

// Context is the build-session state: the IR context every generator is
// created in and one definition cache per Definition. It is not safe for
// concurrent use.
type Context struct {
	ir       *ir.Context
	caches   map[any]*kindCache
	debug    bool
	reporter *diag.Reporter
}

// NewContext returns an empty build session.
func NewContext() *Context {
	return &Context{
		ir:       ir.NewContext(),
		caches:   make(map[any]*kindCache),
		reporter: diag.NewReporter(io.Discard, "text"),
	}
}

var defaultContext = NewContext()

// Default returns the process-wide context used by the CLI.
func Default() *Context {
	return defaultContext
}

// IR returns the underlying IR context.
func (c *Context) IR() *ir.Context {
	return c.ir
}

// SetGlobalDebug toggles debug mode for every generator created afterwards.
// While enabled the definition cache is bypassed.
func (c *Context) SetGlobalDebug(debug bool) {
	c.debug = debug
}

// GlobalDebug reports whether debug mode is on.
func (c *Context) GlobalDebug() bool {
	return c.debug
}

// SetReporter installs the reporter used for statement compiler diagnostics.
func (c *Context) SetReporter(r *diag.Reporter) {
	if r == nil {
		r = diag.NewReporter(io.Discard, "text")
	}
	c.reporter = r
}

// Reporter returns the diagnostic reporter.
func (c *Context) Reporter() *diag.Reporter {
	return c.reporter
}

// Reset clears every definition cache and the IR context together.
func (c *Context) Reset() {
	c.caches = make(map[any]*kindCache)
	c.ir.Clear()
	log.Debug("context reset")
}

// CacheSize returns the number of cached definitions of every kind named
// kind.
func (c *Context) CacheSize(kind string) int {
	n := 0
	for _, cache := range c.caches {
		if cache.kind == kind {
			n += cache.len()
		}
	}
	return n
}

// Kinds returns the sorted names of kinds with a cache.
func (c *Context) Kinds() []string {
	seen := make(map[string]bool, len(c.caches))
	kinds := make([]string, 0, len(c.caches))
	for _, cache := range c.caches {
		if !seen[cache.kind] {
			seen[cache.kind] = true
			kinds = append(kinds, cache.kind)
		}
	}
	sort.Strings(kinds)
	return kinds
}

// cache returns the cache owned by def, a *Definition.
func (c *Context) cache(def any, kind string) *kindCache {
	cache, ok := c.caches[def]
	if !ok {
		cache = &kindCache{kind: kind, buckets: make(map[uint64][]cacheEntry)}
		c.caches[def] = cache
	}
	return cache
}
