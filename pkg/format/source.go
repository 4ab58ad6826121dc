package format

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/strata/pkg/domain"
	"github.com/aretw0/strata/pkg/layer"
	"github.com/aretw0/strata/pkg/ports"
)

// StoreSource opens layers by reading bytes from an AssetStore and decoding
// them with the backend matching the identifier extension.
type StoreSource struct {
	store    ports.AssetStore
	backends *Backends
}

// NewStoreSource creates a layer source. A nil backends set uses Default().
func NewStoreSource(store ports.AssetStore, backends *Backends) *StoreSource {
	if backends == nil {
		backends = Default()
	}
	return &StoreSource{store: store, backends: backends}
}

// Open implements ports.LayerSource.
func (s *StoreSource) Open(ctx context.Context, identifier string) (*layer.Layer, error) {
	if !s.backends.Supports(identifier) {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrLayerNotFound, identifier, domain.ErrUnknownFormat)
	}
	data, err := s.store.Read(ctx, identifier)
	if err != nil {
		if errors.Is(err, domain.ErrAssetNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrLayerNotFound, identifier)
		}
		return nil, fmt.Errorf("failed to read %s: %w", identifier, err)
	}
	return s.backends.Parse(identifier, data)
}

// Save implements ports.LayerSaver.
func (s *StoreSource) Save(ctx context.Context, l *layer.Layer) error {
	data, err := s.backends.Serialize(l)
	if err != nil {
		return err
	}
	if err := s.store.Write(ctx, l.Identifier(), data); err != nil {
		return fmt.Errorf("failed to write %s: %w", l.Identifier(), err)
	}
	return nil
}

// Watch forwards change notifications when the store supports them.
func (s *StoreSource) Watch(ctx context.Context) (<-chan string, error) {
	w, ok := s.store.(ports.Watchable)
	if !ok {
		return nil, fmt.Errorf("store %T does not support watching", s.store)
	}
	return w.Watch(ctx)
}

// Store returns the underlying asset store.
func (s *StoreSource) Store() ports.AssetStore {
	return s.store
}

// Backends returns the backend set.
func (s *StoreSource) Backends() *Backends {
	return s.backends
}
