package format

import (
	"fmt"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/aretw0/strata/pkg/domain"
	"github.com/aretw0/strata/pkg/layer"
	"github.com/aretw0/strata/pkg/ports"
)

// Backends selects a format backend by identifier extension.
type Backends struct {
	mu    sync.RWMutex
	byExt map[string]ports.FormatBackend
}

// NewBackends creates a set holding the given backends.
// Later backends win when extensions overlap.
func NewBackends(backends ...ports.FormatBackend) *Backends {
	b := &Backends{byExt: make(map[string]ports.FormatBackend)}
	for _, backend := range backends {
		b.Register(backend)
	}
	return b
}

// Default returns the JSON, YAML and TOML backends.
func Default() *Backends {
	return NewBackends(NewJSON(), NewYAML(), NewTOML())
}

// Register adds a backend for each of its extensions.
func (b *Backends) Register(backend ports.FormatBackend) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ext := range backend.Extensions() {
		b.byExt[strings.ToLower(ext)] = backend
	}
}

// For returns the backend handling identifier.
func (b *Backends) For(identifier string) (ports.FormatBackend, error) {
	ext := strings.ToLower(path.Ext(identifier))
	b.mu.RLock()
	backend, ok := b.byExt[ext]
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownFormat, identifier)
	}
	return backend, nil
}

// Supports reports whether some backend handles identifier.
func (b *Backends) Supports(identifier string) bool {
	_, err := b.For(identifier)
	return err == nil
}

// Extensions lists every registered extension, sorted.
func (b *Backends) Extensions() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, 0, len(b.byExt))
	for ext := range b.byExt {
		out = append(out, ext)
	}
	slices.Sort(out)
	return out
}

// Parse decodes data with the backend selected by identifier.
func (b *Backends) Parse(identifier string, data []byte) (*layer.Layer, error) {
	backend, err := b.For(identifier)
	if err != nil {
		return nil, err
	}
	return backend.Parse(identifier, data)
}

// Serialize encodes l with the backend selected by its identifier.
func (b *Backends) Serialize(l *layer.Layer) ([]byte, error) {
	backend, err := b.For(l.Identifier())
	if err != nil {
		return nil, err
	}
	return backend.Serialize(l)
}
