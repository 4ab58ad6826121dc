package stage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/strata/internal/composition"
	"github.com/aretw0/strata/internal/logging"
	"github.com/aretw0/strata/pkg/domain"
	"github.com/aretw0/strata/pkg/layer"
	"github.com/aretw0/strata/pkg/registry"
)

// Resolution is the strongest authored opinion for an attribute together
// with where it came from and the time transform accumulated to reach it.
type Resolution = composition.Resolution

// maxTraversal bounds namespace walks over composed prims.
const maxTraversal = 4096

// Stage composes the prims of one root layer.
type Stage struct {
	reg    *registry.Registry
	root   *layer.Layer
	comp   *composition.Composer
	logger *slog.Logger

	closeOnce sync.Once
}

type config struct {
	maxDepth int
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
}

// Option configures a Stage.
type Option func(*config)

// WithMaxDepth caps reference chains (default 64).
func WithMaxDepth(depth int) Option {
	return func(c *config) {
		c.maxDepth = depth
	}
}

// WithLogger configures a logger for the Stage.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithHooks registers composition lifecycle callbacks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(c *config) {
		c.hooks = hooks
	}
}

// Open creates a stage rooted at identifier, loading it through reg.
// The stage holds a reference on the root layer until Close.
func Open(ctx context.Context, reg *registry.Registry, identifier string, opts ...Option) (*Stage, error) {
	root, err := reg.Open(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("failed to open stage: %w", err)
	}
	return newStage(reg, root, opts...), nil
}

// CreateInMemory creates a stage rooted at a new anonymous layer.
func CreateInMemory(reg *registry.Registry, tag string, opts ...Option) (*Stage, error) {
	root, err := reg.CreateAnonymous(tag)
	if err != nil {
		return nil, fmt.Errorf("failed to create stage: %w", err)
	}
	return newStage(reg, root, opts...), nil
}

func newStage(reg *registry.Registry, root *layer.Layer, opts ...Option) *Stage {
	cfg := &config{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(cfg)
	}
	comp := composition.New(root, reg,
		composition.WithStageID(root.Identifier()),
		composition.WithMaxDepth(cfg.maxDepth),
		composition.WithLogger(cfg.logger),
		composition.WithHooks(cfg.hooks),
	)
	cfg.logger.Debug("Stage opened", "layer", root.Identifier())
	return &Stage{reg: reg, root: root, comp: comp, logger: cfg.logger}
}

// ID returns the root layer identifier.
func (s *Stage) ID() string {
	return s.root.Identifier()
}

// RootLayer returns the layer edits are authored into.
func (s *Stage) RootLayer() *layer.Layer {
	return s.root
}

// Registry returns the registry the stage reads layers from.
func (s *Stage) Registry() *registry.Registry {
	return s.reg
}

// Close releases the root layer and every layer opened by arcs.
func (s *Stage) Close() {
	s.closeOnce.Do(func() {
		s.comp.Close()
		s.reg.Release(s.root.Identifier())
		s.logger.Debug("Stage closed", "layer", s.root.Identifier())
	})
}

// --- Queries ---

// NodeExists reports whether anything contributes to the prim at path.
// The pseudo-root always exists; malformed paths never do.
func (s *Stage) NodeExists(ctx context.Context, path domain.Path) bool {
	if !isQueryable(path) {
		return false
	}
	if path.IsRoot() {
		return true
	}
	exists := false
	s.reg.View(func() {
		exists = !s.comp.Index(ctx, path).IsEmpty()
	})
	return exists
}

// GetAttributeValue returns the strongest authored value of attr, or false
// when no contributing site authors one.
func (s *Stage) GetAttributeValue(ctx context.Context, path domain.Path, attr string) (domain.Value, bool) {
	res, ok := s.Resolve(ctx, path, attr)
	return res.Value, ok
}

// Resolve is GetAttributeValue with provenance.
func (s *Stage) Resolve(ctx context.Context, path domain.Path, attr string) (Resolution, bool) {
	if !isQueryable(path) || path.IsRoot() {
		return Resolution{}, false
	}
	var (
		res Resolution
		ok  bool
	)
	s.reg.View(func() {
		res, ok = s.comp.Value(ctx, path, attr)
	})
	return res, ok
}

// Index returns the prim index at path with its arcs and diagnostics.
func (s *Stage) Index(ctx context.Context, path domain.Path) (*domain.PrimIndex, error) {
	if _, err := domain.ParsePath(string(path)); err != nil {
		return nil, err
	}
	var idx *domain.PrimIndex
	s.reg.View(func() {
		idx = s.comp.Index(ctx, path)
	})
	return idx, nil
}

// Attributes lists the attribute names authored on any contributing site.
func (s *Stage) Attributes(ctx context.Context, path domain.Path) []string {
	if !isQueryable(path) || path.IsRoot() {
		return nil
	}
	var names []string
	s.reg.View(func() {
		names = s.comp.Attributes(ctx, path)
	})
	return names
}

// Children lists the names of the composed children of path.
func (s *Stage) Children(ctx context.Context, path domain.Path) []string {
	if !isQueryable(path) {
		return nil
	}
	var names []string
	s.reg.View(func() {
		names = s.comp.Children(ctx, path)
	})
	return names
}

// Traverse lists every composed prim below the pseudo-root, depth first in
// child order.
func (s *Stage) Traverse(ctx context.Context) []domain.Path {
	var out []domain.Path
	s.reg.View(func() {
		stack := []domain.Path{domain.AbsoluteRoot}
		for len(stack) > 0 && len(out) < maxTraversal {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !p.IsRoot() {
				out = append(out, p)
			}
			children := s.comp.Children(ctx, p)
			for i := len(children) - 1; i >= 0; i-- {
				stack = append(stack, p.AppendChild(children[i]))
			}
		}
	})
	return out
}

// Diagnostics composes every prim and returns the errors collected.
func (s *Stage) Diagnostics(ctx context.Context) []*domain.CompositionError {
	var out []*domain.CompositionError
	for _, p := range s.Traverse(ctx) {
		idx, err := s.Index(ctx, p)
		if err != nil {
			continue
		}
		out = append(out, idx.Errors...)
	}
	return out
}

// Layers lists the identifiers of the layers the stage currently uses.
func (s *Stage) Layers() []string {
	return s.comp.Layers()
}

// --- Edits ---

// DefinePrim authors a "def" spec at path in the root layer.
func (s *Stage) DefinePrim(path domain.Path, typeName string) (*Prim, error) {
	if err := s.root.CreatePrim(path, domain.SpecifierDef, typeName); err != nil {
		return nil, err
	}
	return s.GetPrim(path), nil
}

// OverridePrim authors an "over" spec at path in the root layer.
func (s *Stage) OverridePrim(path domain.Path) (*Prim, error) {
	if err := s.root.CreatePrim(path, domain.SpecifierOver, ""); err != nil {
		return nil, err
	}
	return s.GetPrim(path), nil
}

// RemovePrim deletes the root layer's spec at path and below. Opinions from
// other layers are untouched, so the prim may still exist.
func (s *Stage) RemovePrim(path domain.Path) error {
	return s.root.RemovePrim(path)
}

// SetDefaultTarget sets the root layer's default target.
func (s *Stage) SetDefaultTarget(name string) error {
	return s.root.SetDefaultTarget(name)
}

// ClearDefaultTarget clears the root layer's default target.
func (s *Stage) ClearDefaultTarget() error {
	return s.root.ClearDefaultTarget()
}

// GetPrim returns a handle to path. The handle is valid whether or not the
// prim exists.
func (s *Stage) GetPrim(path domain.Path) *Prim {
	return &Prim{stage: s, path: path}
}

func isQueryable(path domain.Path) bool {
	_, err := domain.ParsePath(string(path))
	return err == nil
}
