package strata

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"

	"github.com/aretw0/strata/internal/logging"
	"github.com/aretw0/strata/pkg/adapters/file"
	"github.com/aretw0/strata/pkg/domain"
	"github.com/aretw0/strata/pkg/format"
	"github.com/aretw0/strata/pkg/observability"
	"github.com/aretw0/strata/pkg/ports"
	"github.com/aretw0/strata/pkg/registry"
	"github.com/aretw0/strata/pkg/stage"
)

// Engine is the high-level entry point for the Strata library.
// It owns a layer registry and a cache of open stages keyed by the
// identifier of their root layer.
type Engine struct {
	registry *registry.Registry
	source   ports.LayerSource
	store    ports.AssetStore
	backends *format.Backends
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	maxDepth int
	Name     string

	mu     sync.Mutex
	stages map[string]*stage.Stage
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithSource injects a custom LayerSource, bypassing the default file store.
func WithSource(source ports.LayerSource) Option {
	return func(e *Engine) {
		e.source = source
	}
}

// WithAssetStore reads layer files from store instead of the filesystem.
// Ignored when WithSource is given.
func WithAssetStore(store ports.AssetStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithBackends replaces the default JSON/YAML/TOML backend set.
func WithBackends(backends *format.Backends) Option {
	return func(e *Engine) {
		e.backends = backends
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks on every stage.
// Repeated calls chain the hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = observability.Chain(e.hooks, hooks)
	}
}

// WithMetrics feeds composition activity into m.
func WithMetrics(m *observability.Metrics) Option {
	return WithLifecycleHooks(m.Hooks())
}

// WithMaxDepth caps reference chains on every stage.
func WithMaxDepth(depth int) Option {
	return func(e *Engine) {
		e.maxDepth = depth
	}
}

// New initializes a new Strata Engine.
// By default, layers are read from files under dir and decoded by extension.
// If WithSource or WithAssetStore is provided, dir only names the engine.
func New(dir string, opts ...Option) (*Engine, error) {
	eng := &Engine{stages: make(map[string]*stage.Stage)}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.source == nil && eng.store == nil {
		if dir == "" {
			return nil, fmt.Errorf("dir is required when no custom source or store is provided")
		}
		absPath, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}
		eng.store = file.New(absPath)
		dir = absPath
	}
	if eng.source == nil {
		if eng.backends == nil {
			eng.backends = format.Default()
		}
		eng.source = format.NewStoreSource(eng.store, eng.backends)
	}
	if dir != "" {
		eng.Name = filepath.Base(dir)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("engine", eng.Name)
	}

	eng.registry = registry.New(
		registry.WithSource(eng.source),
		registry.WithLogger(eng.logger),
	)
	return eng, nil
}

// Registry returns the layer registry shared by every stage of the engine.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// Source returns the layer source the registry loads from.
func (e *Engine) Source() ports.LayerSource {
	return e.source
}

func (e *Engine) stageOptions() []stage.Option {
	opts := []stage.Option{
		stage.WithLogger(e.logger),
		stage.WithHooks(e.hooks),
	}
	if e.maxDepth > 0 {
		opts = append(opts, stage.WithMaxDepth(e.maxDepth))
	}
	return opts
}

// OpenStage returns the cached stage rooted at identifier, opening it on
// first use.
func (e *Engine) OpenStage(ctx context.Context, identifier string) (*stage.Stage, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if st, ok := e.stages[identifier]; ok {
		return st, nil
	}
	st, err := stage.Open(ctx, e.registry, identifier, e.stageOptions()...)
	if err != nil {
		return nil, err
	}
	e.stages[identifier] = st
	e.logger.Debug("Stage opened", "layer", identifier)
	return st, nil
}

// CreateStageInMemory creates a stage over a new anonymous root layer and
// caches it under the generated identifier.
func (e *Engine) CreateStageInMemory(tag string) (*stage.Stage, error) {
	st, err := stage.CreateInMemory(e.registry, tag, e.stageOptions()...)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.stages[st.ID()] = st
	e.mu.Unlock()
	return st, nil
}

// CloseStage closes and forgets the stage rooted at identifier.
// It reports whether such a stage was open.
func (e *Engine) CloseStage(identifier string) bool {
	e.mu.Lock()
	st, ok := e.stages[identifier]
	delete(e.stages, identifier)
	e.mu.Unlock()
	if ok {
		st.Close()
	}
	return ok
}

// Stages lists the root identifiers of the cached stages, sorted.
func (e *Engine) Stages() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]string, 0, len(e.stages))
	for id := range e.stages {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Layers lists the identifiers of every loaded layer.
func (e *Engine) Layers() []string {
	return e.registry.Identifiers()
}

// Save writes a loaded layer back through the source.
func (e *Engine) Save(ctx context.Context, identifier string) error {
	return e.registry.Save(ctx, identifier)
}

// NodeExists implements ports.CompositionService.
func (e *Engine) NodeExists(ctx context.Context, rootLayer string, path domain.Path) (bool, error) {
	st, err := e.OpenStage(ctx, rootLayer)
	if err != nil {
		return false, err
	}
	return st.NodeExists(ctx, path), nil
}

// AttributeValue implements ports.CompositionService.
func (e *Engine) AttributeValue(ctx context.Context, rootLayer string, path domain.Path, attr string) (domain.Value, bool, error) {
	st, err := e.OpenStage(ctx, rootLayer)
	if err != nil {
		return domain.Value{}, false, err
	}
	v, ok := st.GetAttributeValue(ctx, path, attr)
	return v, ok, nil
}

// Inspect implements ports.CompositionService.
func (e *Engine) Inspect(ctx context.Context, rootLayer string, path domain.Path) (*domain.PrimIndex, error) {
	st, err := e.OpenStage(ctx, rootLayer)
	if err != nil {
		return nil, err
	}
	return st.Index(ctx, path)
}

// Watch applies external changes reported by the source and forwards the
// changed identifiers. Loaded layers are reloaded in place; identifiers
// nobody holds are announced so stages that could not open them retry.
// Returns error if the source does not support watching.
func (e *Engine) Watch(ctx context.Context) (<-chan string, error) {
	w, ok := e.source.(ports.Watchable)
	if !ok {
		return nil, fmt.Errorf("source %T does not support watching", e.source)
	}
	changes, err := w.Watch(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan string)
	go func() {
		defer close(out)
		for id := range changes {
			e.apply(ctx, id)
			select {
			case out <- id:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (e *Engine) apply(ctx context.Context, identifier string) {
	if _, held := e.registry.Get(identifier); !held {
		e.registry.Announce(identifier)
		return
	}
	if err := e.registry.Reload(ctx, identifier); err != nil {
		e.logger.Warn("Failed to reload changed layer", "layer", identifier, "err", err)
	}
}

// Close closes every cached stage and the registry.
func (e *Engine) Close() error {
	e.mu.Lock()
	stages := e.stages
	e.stages = make(map[string]*stage.Stage)
	e.mu.Unlock()

	for _, st := range stages {
		st.Close()
	}
	return e.registry.Close()
}

var _ ports.CompositionService = (*Engine)(nil)
