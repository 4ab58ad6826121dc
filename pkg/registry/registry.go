package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/aretw0/strata/internal/logging"
	"github.com/aretw0/strata/pkg/domain"
	"github.com/aretw0/strata/pkg/layer"
	"github.com/aretw0/strata/pkg/ports"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Listener receives the change events of the layers it watches.
// LayerChanged runs synchronously while the registry edit lock is held, so
// it must not call back into edits, reads that take View, or Watch.
type Listener interface {
	LayerChanged(events []domain.ChangeEvent)
}

// layerEntry holds a loaded layer and its reference count.
type layerEntry struct {
	layer *layer.Layer
	refs  int
}

// Registry maps identifiers to shared layers.
// It uses Reference Counting to evict layers nobody holds.
type Registry struct {
	// editMu serializes layer edits (and their change processing) against
	// composed reads on every stage.
	editMu sync.RWMutex

	mu        sync.Mutex                       // Global lock for the maps
	entries   map[string]*layerEntry           // Loaded layers
	listeners map[string]map[Listener]struct{} // Watchers per identifier, loaded or not
	closed    bool

	source ports.LayerSource
	group  singleflight.Group
	logger *slog.Logger
}

// Option configures the Registry.
type Option func(*Registry)

// WithSource sets where unknown identifiers are loaded from.
func WithSource(source ports.LayerSource) Option {
	return func(r *Registry) {
		r.source = source
	}
}

// WithLogger configures a logger for the Registry.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		entries:   make(map[string]*layerEntry),
		listeners: make(map[string]map[Listener]struct{}),
		logger:    logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Source returns the configured layer source, or nil.
func (r *Registry) Source() ports.LayerSource {
	return r.source
}

// Open returns the layer for identifier, loading it from the source when it
// is not held yet, and increments its reference count. Concurrent opens of
// one identifier share a single load. Each successful Open must be paired
// with a Release.
//
// Open never takes the edit lock, so composition may call it mid-read.
func (r *Registry) Open(ctx context.Context, identifier string) (*layer.Layer, error) {
	if l, err := r.acquire(identifier); l != nil || err != nil {
		return l, err
	}
	if r.source == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrLayerNotFound, identifier)
	}

	v, err, shared := r.group.Do(identifier, func() (any, error) {
		loaded, err := r.source.Open(ctx, identifier)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		defer r.mu.Unlock()
		if r.closed {
			return nil, domain.ErrRegistryClosed
		}
		if e, ok := r.entries[identifier]; ok {
			// Registered explicitly while we were loading.
			return e.layer, nil
		}
		loaded.SetCoordinator(r)
		r.entries[identifier] = &layerEntry{layer: loaded}
		r.logger.Debug("Layer loaded", "layer", identifier, "prims", len(loaded.Paths()))
		return loaded, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open layer %s: %w", identifier, err)
	}
	if shared {
		r.logger.Debug("Layer load deduplicated", "layer", identifier)
	}

	l := v.(*layer.Layer)
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[identifier]
	if !ok || e.layer != l {
		return nil, fmt.Errorf("%w: %s was released while loading", domain.ErrLayerNotFound, identifier)
	}
	e.refs++
	return l, nil
}

// acquire increments the reference count of a held layer.
// It returns (nil, nil) when the identifier is not held.
func (r *Registry) acquire(identifier string) (*layer.Layer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, domain.ErrRegistryClosed
	}
	e, ok := r.entries[identifier]
	if !ok {
		return nil, nil
	}
	e.refs++
	return e.layer, nil
}

// Release decrements the reference count and evicts the layer when it
// reaches zero. Unsaved edits on an evicted layer are lost.
func (r *Registry) Release(identifier string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[identifier]
	if !ok {
		return // Should not happen if paired correctly
	}

	e.refs--
	if e.refs <= 0 {
		delete(r.entries, identifier)
		e.layer.SetCoordinator(nil)
		r.logger.Debug("Layer evicted", "layer", identifier)
	}
}

// Register adds a layer built in memory, with a reference count of one
// owned by the caller. Stages waiting on the identifier are notified.
func (r *Registry) Register(l *layer.Layer) error {
	r.editMu.Lock()
	defer r.editMu.Unlock()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return domain.ErrRegistryClosed
	}
	if _, exists := r.entries[l.Identifier()]; exists {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrLayerExists, l.Identifier())
	}
	r.entries[l.Identifier()] = &layerEntry{layer: l, refs: 1}
	r.mu.Unlock()

	l.SetCoordinator(r)
	r.dispatch(l.Identifier(), []domain.ChangeEvent{{
		Kind:    domain.ChangeLayerRegistered,
		LayerID: l.Identifier(),
		Version: l.Version(),
	}})
	return nil
}

// CreateAnonymous registers a new empty layer with a synthetic identifier
// of the form anon:<uuid>:<tag>. The caller owns one reference.
func (r *Registry) CreateAnonymous(tag string) (*layer.Layer, error) {
	id := fmt.Sprintf("anon:%s:%s", uuid.NewString(), tag)
	l := layer.New(id, layer.Anonymous())
	if err := r.Register(l); err != nil {
		return nil, err
	}
	return l, nil
}

// Get returns a held layer without touching its reference count.
func (r *Registry) Get(identifier string) (*layer.Layer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[identifier]
	if !ok {
		return nil, false
	}
	return e.layer, true
}

// RefCount returns the number of outstanding references to identifier.
func (r *Registry) RefCount(identifier string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[identifier]; ok {
		return e.refs
	}
	return 0
}

// Identifiers lists the held layers, sorted.
func (r *Registry) Identifiers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Reload re-reads a held layer from the source and swaps its contents in
// place. Only the differences reach listeners.
func (r *Registry) Reload(ctx context.Context, identifier string) error {
	l, ok := r.Get(identifier)
	if !ok {
		return fmt.Errorf("%w: %s is not loaded", domain.ErrLayerNotFound, identifier)
	}
	if l.IsAnonymous() || r.source == nil {
		return fmt.Errorf("layer %s has no source to reload from", identifier)
	}

	fresh, err := r.source.Open(ctx, identifier)
	if err != nil {
		return fmt.Errorf("failed to reload layer %s: %w", identifier, err)
	}
	defaultTarget, prims := fresh.Snapshot()
	if err := l.ReplaceContents(defaultTarget, prims); err != nil {
		return err
	}
	r.logger.Info("Layer reloaded", "layer", identifier, "version", l.Version())
	return nil
}

// Save writes a held layer back through the source.
func (r *Registry) Save(ctx context.Context, identifier string) error {
	l, ok := r.Get(identifier)
	if !ok {
		return fmt.Errorf("%w: %s is not loaded", domain.ErrLayerNotFound, identifier)
	}
	saver, ok := r.source.(ports.LayerSaver)
	if !ok || l.IsAnonymous() {
		return fmt.Errorf("layer %s cannot be saved: no writable source", identifier)
	}
	if err := saver.Save(ctx, l); err != nil {
		return fmt.Errorf("failed to save layer %s: %w", identifier, err)
	}
	return nil
}

// Close drops every layer. Further opens fail with domain.ErrRegistryClosed.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	for id, e := range r.entries {
		e.layer.SetCoordinator(nil)
		delete(r.entries, id)
	}
	clear(r.listeners)
	return nil
}

// IsNotFound reports whether err means the identifier could not be opened.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrLayerNotFound)
}
