package format

import (
	"bytes"
	"fmt"

	"github.com/aretw0/strata/internal/compiler"
	"github.com/aretw0/strata/pkg/layer"
	"gopkg.in/yaml.v3"
)

// YAML reads and writes layers as YAML documents.
type YAML struct {
	parser *compiler.Parser
}

// NewYAML creates the YAML backend.
func NewYAML() *YAML {
	return &YAML{parser: compiler.NewParser(compiler.WithStrict(true))}
}

func (b *YAML) Extensions() []string { return []string{".yaml", ".yml"} }

func (b *YAML) Parse(identifier string, data []byte) (*layer.Layer, error) {
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", identifier, err)
	}
	return b.parser.Decode(identifier, raw)
}

func (b *YAML) Serialize(l *layer.Layer) ([]byte, error) {
	doc, err := b.parser.Flatten(l)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to serialize %s: %w", l.Identifier(), err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
