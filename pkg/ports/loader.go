package ports

import (
	"context"

	"github.com/aretw0/strata/pkg/layer"
)

// LayerSource defines how the registry retrieves layers it does not hold yet.
type LayerSource interface {
	// Open loads the layer named by identifier.
	// Returns an error wrapping domain.ErrLayerNotFound if nothing exists there.
	Open(ctx context.Context, identifier string) (*layer.Layer, error)
}

// LayerSaver is implemented by sources that can write layers back.
type LayerSaver interface {
	Save(ctx context.Context, l *layer.Layer) error
}

// Watchable defines an interface for sources that can notify about backend changes.
// This is typically used for hot-reload of layers edited outside the process.
type Watchable interface {
	// Watch returns a channel that receives the identifier of each changed layer.
	// The channel is closed when ctx is done.
	Watch(ctx context.Context) (<-chan string, error)
}
