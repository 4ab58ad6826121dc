package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/strata/pkg/domain"
	"github.com/aretw0/strata/pkg/layer"
)

type snapshot struct {
	defaultTarget string
	prims         map[domain.Path]*domain.PrimSpec
}

// Source implements ports.LayerSource from layers built in code.
// Each Open returns a fresh copy of the contents captured when the layer
// was added, so a reload discards unsaved edits.
type Source struct {
	mu     sync.RWMutex
	layers map[string]snapshot
}

// NewSource creates a source holding copies of the given layers.
func NewSource(layers ...*layer.Layer) *Source {
	s := &Source{layers: make(map[string]snapshot)}
	for _, l := range layers {
		s.Put(l)
	}
	return s
}

// Put captures the current contents of l under its identifier.
func (s *Source) Put(l *layer.Layer) {
	defaultTarget, prims := l.Snapshot()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layers[l.Identifier()] = snapshot{defaultTarget: defaultTarget, prims: prims}
}

// Open implements ports.LayerSource.
func (s *Source) Open(ctx context.Context, identifier string) (*layer.Layer, error) {
	s.mu.RLock()
	snap, ok := s.layers[identifier]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrLayerNotFound, identifier)
	}

	specs := make([]*domain.PrimSpec, 0, len(snap.prims))
	for _, spec := range snap.prims {
		specs = append(specs, spec)
	}
	return layer.New(identifier, layer.WithDefaultTarget(snap.defaultTarget), layer.WithPrims(specs...)), nil
}

// Save implements ports.LayerSaver.
func (s *Source) Save(ctx context.Context, l *layer.Layer) error {
	s.Put(l)
	return nil
}
