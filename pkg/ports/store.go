package ports

import "context"

// AssetStore defines raw storage for layer documents.
// Identifiers are opaque keys; their extension selects the format backend.
type AssetStore interface {
	// Read returns the stored bytes.
	// Returns domain.ErrAssetNotFound if the identifier does not exist.
	Read(ctx context.Context, identifier string) ([]byte, error)

	// Write stores data under identifier, replacing any previous content.
	Write(ctx context.Context, identifier string, data []byte) error

	// Delete removes identifier. Deleting a missing identifier is not an error.
	Delete(ctx context.Context, identifier string) error

	// List returns every stored identifier.
	List(ctx context.Context) ([]string, error)
}
