package ports

import (
	"context"

	"github.com/aretw0/strata/pkg/domain"
)

// CompositionService is the read side of the engine, addressed by root layer
// identifier. This is the interface used by adapters (e.g., HTTP, MCP).
type CompositionService interface {
	// NodeExists reports whether anything contributes to the prim at path.
	NodeExists(ctx context.Context, rootLayer string, path domain.Path) (bool, error)

	// AttributeValue returns the strongest authored value, or false when absent.
	AttributeValue(ctx context.Context, rootLayer string, path domain.Path, attr string) (domain.Value, bool, error)

	// Inspect returns the prim index with its arcs and diagnostics.
	Inspect(ctx context.Context, rootLayer string, path domain.Path) (*domain.PrimIndex, error)
}
