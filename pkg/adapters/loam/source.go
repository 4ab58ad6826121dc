package loam

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/aretw0/loam"
	"github.com/aretw0/strata/internal/compiler"
	"github.com/aretw0/strata/internal/dto"
	"github.com/aretw0/strata/pkg/domain"
	"github.com/aretw0/strata/pkg/layer"
)

// Source adapts a Loam repository to ports.LayerSource. Each layer is one
// document whose frontmatter is the layer document (default_target, prims);
// the body is free-form notes and is ignored by composition.
type Source struct {
	Repo   *loam.TypedRepository[dto.LayerDocument]
	parser *compiler.Parser
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[dto.LayerDocument]) *Source {
	return &Source{
		Repo:   repo,
		parser: compiler.NewParser(),
	}
}

// Init opens (or creates) a Loam repository at dir and wraps it.
// Strict mode keeps numeric values as json.Number so integers survive.
func Init(dir string, opts ...loam.Option) (*Source, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	opts = append([]loam.Option{loam.WithStrict(true), loam.WithVersioning(false)}, opts...)
	repo, err := loam.Init(absPath, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[dto.LayerDocument](repo)), nil
}

// Open implements ports.LayerSource.
func (s *Source) Open(ctx context.Context, identifier string) (*layer.Layer, error) {
	doc, err := s.Repo.Get(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrLayerNotFound, identifier, err)
	}
	l, err := s.parser.Build(identifier, &doc.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to build layer %s: %w", identifier, err)
	}
	return l, nil
}

// Save implements ports.LayerSaver.
func (s *Source) Save(ctx context.Context, l *layer.Layer) error {
	doc, err := s.parser.Flatten(l)
	if err != nil {
		return err
	}
	err = s.Repo.Save(ctx, &loam.DocumentModel[dto.LayerDocument]{
		ID:   l.Identifier(),
		Data: *doc,
	})
	if err != nil {
		return fmt.Errorf("loam save failed for %s: %w", l.Identifier(), err)
	}
	return nil
}

// List returns the identifiers of every document in the repository.
func (s *Source) List(ctx context.Context) ([]string, error) {
	docs, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, filepath.ToSlash(doc.ID))
	}
	return ids, nil
}

// Watch implements ports.Watchable.
func (s *Source) Watch(ctx context.Context) (<-chan string, error) {
	events, err := s.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				// Loam debounces on its own.
				select {
				case ch <- evt.ID:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}
