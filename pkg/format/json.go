package format

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/aretw0/strata/internal/compiler"
	"github.com/aretw0/strata/pkg/layer"
)

// JSON reads and writes layers as JSON documents.
type JSON struct {
	parser *compiler.Parser
}

// NewJSON creates the JSON backend.
func NewJSON() *JSON {
	return &JSON{parser: compiler.NewParser(compiler.WithStrict(true))}
}

func (b *JSON) Extensions() []string { return []string{".json"} }

// Parse decodes numbers as json.Number so ints survive until their declared
// type coerces them.
func (b *JSON) Parse(identifier string, data []byte) (*layer.Layer, error) {
	raw := map[string]any{}
	if len(bytes.TrimSpace(data)) > 0 {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", identifier, err)
		}
	}
	return b.parser.Decode(identifier, raw)
}

func (b *JSON) Serialize(l *layer.Layer) ([]byte, error) {
	doc, err := b.parser.Flatten(l)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize %s: %w", l.Identifier(), err)
	}
	return append(data, '\n'), nil
}
