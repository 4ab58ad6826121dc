package layer

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/aretw0/strata/pkg/domain"
)

// Coordinator brackets layer mutations.
// BeginEdit is called before the layer lock is taken; EndEdit is always
// called afterwards, with the events produced (possibly none).
type Coordinator interface {
	BeginEdit()
	EndEdit(l *Layer, events []domain.ChangeEvent)
}

// Layer is a hierarchical document of prim specs.
type Layer struct {
	mu            sync.RWMutex
	identifier    string
	anonymous     bool
	defaultTarget string
	prims         map[domain.Path]*domain.PrimSpec
	version       uint64
	coord         Coordinator
}

// Option configures a Layer.
type Option func(*Layer)

// Anonymous marks the layer as having a synthetic identifier.
func Anonymous() Option {
	return func(l *Layer) {
		l.anonymous = true
	}
}

// WithDefaultTarget sets the initial default target name, unvalidated.
// Format backends use it to preserve whatever the document says.
func WithDefaultTarget(name string) Option {
	return func(l *Layer) {
		l.defaultTarget = strings.TrimPrefix(name, "/")
	}
}

// WithPrims seeds the layer with specs. The specs are copied.
func WithPrims(specs ...*domain.PrimSpec) Option {
	return func(l *Layer) {
		for _, spec := range specs {
			l.prims[spec.Path] = spec.Clone()
		}
	}
}

// New creates an empty layer.
func New(identifier string, opts ...Option) *Layer {
	l := &Layer{
		identifier: identifier,
		prims:      make(map[domain.Path]*domain.PrimSpec),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Identifier returns the layer identifier.
func (l *Layer) Identifier() string {
	return l.identifier
}

// IsAnonymous reports whether the identifier is synthetic.
func (l *Layer) IsAnonymous() bool {
	return l.anonymous
}

// Version returns the mutation counter.
func (l *Layer) Version() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.version
}

// DefaultTarget returns the authored default target name ("" when unset).
func (l *Layer) DefaultTarget() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.defaultTarget
}

// Prim returns a copy of the spec at path.
func (l *Layer) Prim(path domain.Path) (*domain.PrimSpec, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	spec, ok := l.prims[path]
	if !ok {
		return nil, false
	}
	return spec.Clone(), true
}

// HasPrim reports whether a spec exists at path.
func (l *Layer) HasPrim(path domain.Path) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.prims[path]
	return ok
}

// References returns a copy of the explicit reference list at path.
func (l *Layer) References(path domain.Path) []domain.Reference {
	l.mu.RLock()
	defer l.mu.RUnlock()
	spec, ok := l.prims[path]
	if !ok || len(spec.References) == 0 {
		return nil
	}
	out := make([]domain.Reference, len(spec.References))
	for i, ref := range spec.References {
		out[i] = ref.Clone()
	}
	return out
}

// AttributeValue returns the authored default of an attribute.
func (l *Layer) AttributeValue(path domain.Path, name string) (domain.Value, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	spec, ok := l.prims[path]
	if !ok {
		return domain.Value{}, false
	}
	attr, ok := spec.Attributes[name]
	if !ok || !attr.HasDefault() {
		return domain.Value{}, false
	}
	return *attr.Default, true
}

// Paths returns every spec path, sorted.
func (l *Layer) Paths() []domain.Path {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.Path, 0, len(l.prims))
	for p := range l.prims {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// ChildNames returns the names of the direct children of parent that have
// specs in this layer, sorted.
func (l *Layer) ChildNames(parent domain.Path) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []string
	for p := range l.prims {
		if p.Parent() == parent {
			out = append(out, p.Name())
		}
	}
	slices.Sort(out)
	return out
}

// Snapshot returns deep copies of all specs and the default target.
func (l *Layer) Snapshot() (string, map[domain.Path]*domain.PrimSpec) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.defaultTarget, l.cloneSpecs()
}

func (l *Layer) cloneSpecs() map[domain.Path]*domain.PrimSpec {
	out := make(map[domain.Path]*domain.PrimSpec, len(l.prims))
	for p, spec := range l.prims {
		out[p] = spec.Clone()
	}
	return out
}

// SetCoordinator installs the edit coordinator. Pass nil to detach.
func (l *Layer) SetCoordinator(c Coordinator) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.coord = c
}

func (l *Layer) coordinator() Coordinator {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.coord
}

// edit runs fn under the write lock. Events returned by fn are stamped with
// the new version and handed to the coordinator.
func (l *Layer) edit(fn func() ([]domain.ChangeEvent, error)) error {
	c := l.coordinator()
	if c != nil {
		c.BeginEdit()
	}

	l.mu.Lock()
	events, err := fn()
	if err != nil {
		events = nil
	}
	if len(events) > 0 {
		l.version++
		for i := range events {
			events[i].LayerID = l.identifier
			events[i].Version = l.version
		}
	}
	l.mu.Unlock()

	if c != nil {
		c.EndEdit(l, events)
	}
	return err
}

// ensurePrim creates the spec at path and any missing ancestors as "over"
// specs. Caller holds the write lock.
func (l *Layer) ensurePrim(path domain.Path, specifier domain.Specifier) (*domain.PrimSpec, []domain.ChangeEvent) {
	var events []domain.ChangeEvent
	ancestors := path.Ancestors()
	for i := len(ancestors) - 1; i >= 0; i-- {
		anc := ancestors[i]
		if _, ok := l.prims[anc]; !ok {
			l.prims[anc] = domain.NewPrimSpec(anc, domain.SpecifierOver)
			events = append(events, domain.ChangeEvent{Kind: domain.ChangePrimAdded, Path: anc})
		}
	}
	spec, ok := l.prims[path]
	if !ok {
		spec = domain.NewPrimSpec(path, specifier)
		l.prims[path] = spec
		events = append(events, domain.ChangeEvent{Kind: domain.ChangePrimAdded, Path: path})
	}
	return spec, events
}

func validatePrimPath(path domain.Path) error {
	if _, err := domain.ParsePath(string(path)); err != nil {
		return err
	}
	if path.IsRoot() {
		return fmt.Errorf("%w: cannot author the pseudo-root", domain.ErrInvalidPath)
	}
	return nil
}
