package format

import (
	"bytes"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/aretw0/strata/internal/compiler"
	"github.com/aretw0/strata/pkg/layer"
)

// TOML reads and writes layers as TOML documents. Prim paths become quoted
// table keys, e.g. [prims."/target1"].
type TOML struct {
	parser *compiler.Parser
}

// NewTOML creates the TOML backend.
func NewTOML() *TOML {
	return &TOML{parser: compiler.NewParser(compiler.WithStrict(true))}
}

func (b *TOML) Extensions() []string { return []string{".toml"} }

func (b *TOML) Parse(identifier string, data []byte) (*layer.Layer, error) {
	raw := map[string]any{}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", identifier, err)
	}
	return b.parser.Decode(identifier, raw)
}

func (b *TOML) Serialize(l *layer.Layer) ([]byte, error) {
	doc, err := b.parser.Flatten(l)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to serialize %s: %w", l.Identifier(), err)
	}
	return buf.Bytes(), nil
}
