package composition

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/strata/internal/logging"
	"github.com/aretw0/strata/pkg/domain"
	"github.com/aretw0/strata/pkg/layer"
	"github.com/aretw0/strata/pkg/registry"
)

// DefaultMaxDepth caps the number of chained arcs followed from a prim.
const DefaultMaxDepth = 64

type cachedIndex struct {
	index *domain.PrimIndex
	stale bool
}

type cachedValue struct {
	res   Resolution
	found bool
}

// Composer composes the prims of one root layer.
type Composer struct {
	stageID  string
	root     *layer.Layer
	reg      *registry.Registry
	maxDepth int
	logger   *slog.Logger
	hooks    domain.LifecycleHooks

	mu      sync.Mutex
	layers  map[string]*layer.Layer // root plus every layer opened by arcs
	opened  []string                // identifiers holding a registry reference
	indexes map[domain.Path]*cachedIndex
	values  map[domain.Path]map[string]cachedValue
	deps    *depTable
	memo    *memoTable
	stats   buildStats
	closed  bool
}

// Option configures a Composer.
type Option func(*Composer)

// WithMaxDepth caps reference chains. Values below one are ignored.
func WithMaxDepth(depth int) Option {
	return func(c *Composer) {
		if depth > 0 {
			c.maxDepth = depth
		}
	}
}

// WithLogger configures a logger for the Composer.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Composer) {
		c.logger = logger
	}
}

// WithHooks registers lifecycle callbacks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Composer) {
		c.hooks = hooks
	}
}

// WithStageID names the stage in logs and hook events.
func WithStageID(id string) Option {
	return func(c *Composer) {
		c.stageID = id
	}
}

// New creates a composer for root. The caller keeps ownership of root's
// registry reference; layers opened through arcs are released by Close.
func New(root *layer.Layer, reg *registry.Registry, opts ...Option) *Composer {
	c := &Composer{
		stageID:  root.Identifier(),
		root:     root,
		reg:      reg,
		maxDepth: DefaultMaxDepth,
		logger:   logging.NewNop(),
		layers:   map[string]*layer.Layer{root.Identifier(): root},
		indexes:  make(map[domain.Path]*cachedIndex),
		values:   make(map[domain.Path]map[string]cachedValue),
		deps:     newDepTable(),
		memo:     newMemoTable(),
	}
	for _, opt := range opts {
		opt(c)
	}
	reg.Watch(root.Identifier(), c)
	return c
}

// Root returns the root layer.
func (c *Composer) Root() *layer.Layer {
	return c.root
}

// Index returns the prim index at path, rebuilding it if a change
// invalidated it. The caller must hold the registry View lock.
func (c *Composer) Index(ctx context.Context, path domain.Path) *domain.PrimIndex {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index(ctx, path)
}

func (c *Composer) index(ctx context.Context, path domain.Path) *domain.PrimIndex {
	if cached, ok := c.indexes[path]; ok && !cached.stale {
		c.stats.cacheHits++
		c.emitIndexBuilt(ctx, path, cached.index, 0, true)
		return cached.index
	}

	start := time.Now()
	idx, deps := c.BuildIndex(ctx, path)
	elapsed := time.Since(start)

	c.deps.record(path, deps)
	c.indexes[path] = &cachedIndex{index: idx}
	delete(c.values, path)
	c.stats.builds++
	c.stats.lastBuild = elapsed

	for _, cerr := range idx.Errors {
		c.logger.Debug("Composition error",
			"stage", c.stageID,
			"path", path,
			"kind", cerr.Kind,
			"err", cerr,
		)
		if c.hooks.OnCompositionError != nil {
			c.hooks.OnCompositionError(ctx, cerr)
		}
	}
	c.emitIndexBuilt(ctx, path, idx, elapsed, false)
	return idx
}

func (c *Composer) emitIndexBuilt(ctx context.Context, path domain.Path, idx *domain.PrimIndex, d time.Duration, hit bool) {
	if c.hooks.OnIndexBuilt == nil {
		return
	}
	c.hooks.OnIndexBuilt(ctx, &domain.IndexEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), StageID: c.stageID},
		Path:      path,
		Entries:   len(idx.Entries),
		Errors:    len(idx.Errors),
		Duration:  d,
		CacheHit:  hit,
	})
}

// Peek returns the cached index without rebuilding. fresh is false when a
// change invalidated it; its arcs are then reported unresolved.
func (c *Composer) Peek(path domain.Path) (idx *domain.PrimIndex, fresh bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cached, ok := c.indexes[path]
	if !ok {
		return nil, false
	}
	return cached.index, !cached.stale
}

// Value resolves attr on the prim at path.
func (c *Composer) Value(ctx context.Context, path domain.Path, attr string) (Resolution, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.index(ctx, path)
	if vals, ok := c.values[path]; ok {
		if v, ok := vals[attr]; ok {
			return v.res, v.found
		}
	}

	res, found := ResolveValue(idx, attr, c.layerFor)
	vals, ok := c.values[path]
	if !ok {
		vals = make(map[string]cachedValue)
		c.values[path] = vals
	}
	vals[attr] = cachedValue{res: res, found: found}
	return res, found
}

// Attributes lists the attribute names authored anywhere in the prim's index.
func (c *Composer) Attributes(ctx context.Context, path domain.Path) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return AttributeNames(c.index(ctx, path), c.layerFor)
}

// Children lists the composed children of path: every child with a spec
// under any contributing site, strongest site first.
func (c *Composer) Children(ctx context.Context, path domain.Path) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var sites []domain.Site
	if path.IsRoot() {
		sites = []domain.Site{{LayerID: c.root.Identifier(), Path: path}}
	} else {
		sites = c.index(ctx, path).Sites()
	}

	var out []string
	seen := make(map[string]bool)
	for _, s := range sites {
		l, ok := c.layerFor(s.LayerID)
		if !ok {
			continue
		}
		for _, name := range l.ChildNames(s.Path) {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}

// CachedPaths lists composed prims with a cached index, stale or not.
func (c *Composer) CachedPaths() []domain.Path {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Path, 0, len(c.indexes))
	for p := range c.indexes {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// Dependents returns the composed prims whose index consulted site.
func (c *Composer) Dependents(site domain.Site) []domain.Path {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deps.consumersOfSite(site)
}

// Layers lists the identifiers of every layer the composer holds.
func (c *Composer) Layers() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.layers))
	for id := range c.layers {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Stats reports build counters.
func (c *Composer) Stats() (builds, cacheHits, memoHits int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats.builds, c.stats.cacheHits, c.stats.memoHits
}

// Close stops change processing and releases every layer opened by arcs.
func (c *Composer) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	opened := c.opened
	c.opened = nil
	clear(c.indexes)
	clear(c.values)
	c.memo.reset()
	c.mu.Unlock()

	c.reg.Unwatch(c)
	for _, id := range opened {
		c.reg.Release(id)
	}
}
