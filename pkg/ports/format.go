package ports

import "github.com/aretw0/strata/pkg/layer"

// FormatBackend converts between stored bytes and layers.
type FormatBackend interface {
	// Extensions lists the identifier suffixes handled (e.g., ".json").
	Extensions() []string

	// Parse decodes data into a new layer named identifier.
	Parse(identifier string, data []byte) (*layer.Layer, error)

	// Serialize encodes the layer's current contents.
	Serialize(l *layer.Layer) ([]byte, error)
}
