package dto

// LayerDocument is the serialized shape of a layer shared by every format
// backend. It uses "mapstructure" tags so generic decoder output (JSON, YAML,
// TOML or Loam frontmatter) can be mapped onto it in one pass.
type LayerDocument struct {
	DefaultTarget string                  `json:"default_target,omitempty" yaml:"default_target,omitempty" toml:"default_target,omitempty" mapstructure:"default_target"`
	Prims         map[string]PrimDocument `json:"prims,omitempty" yaml:"prims,omitempty" toml:"prims,omitempty" mapstructure:"prims"`
}

// PrimDocument is one prim spec, keyed by its absolute path in LayerDocument.Prims.
type PrimDocument struct {
	Specifier  string                       `json:"specifier,omitempty" yaml:"specifier,omitempty" toml:"specifier,omitempty" mapstructure:"specifier"`
	Type       string                       `json:"type,omitempty" yaml:"type,omitempty" toml:"type,omitempty" mapstructure:"type"`
	References []ReferenceDocument          `json:"references,omitempty" yaml:"references,omitempty" toml:"references,omitempty" mapstructure:"references"`
	Attributes map[string]AttributeDocument `json:"attributes,omitempty" yaml:"attributes,omitempty" toml:"attributes,omitempty" mapstructure:"attributes"`
}

// ReferenceDocument is one reference arc. An empty identifier targets the
// owning layer; an empty target path falls back to the default target.
type ReferenceDocument struct {
	Identifier    string             `json:"identifier,omitempty" yaml:"identifier,omitempty" toml:"identifier,omitempty" mapstructure:"identifier"`
	TargetPath    string             `json:"target_path,omitempty" yaml:"target_path,omitempty" toml:"target_path,omitempty" mapstructure:"target_path"`
	TimeTransform *TransformDocument `json:"time_transform,omitempty" yaml:"time_transform,omitempty" toml:"time_transform,omitempty" mapstructure:"time_transform"`
}

// TransformDocument is a time transform. A missing scale means 1.
type TransformDocument struct {
	Scale  *float64 `json:"scale,omitempty" yaml:"scale,omitempty" toml:"scale,omitempty" mapstructure:"scale"`
	Offset float64  `json:"offset" yaml:"offset" toml:"offset" mapstructure:"offset"`
}

// AttributeDocument declares an attribute type and its optional default.
// Default holds the raw decoded value until the declared type coerces it.
type AttributeDocument struct {
	Type    string `json:"type" yaml:"type" toml:"type" mapstructure:"type"`
	Default any    `json:"default,omitempty" yaml:"default,omitempty" toml:"default,omitempty" mapstructure:"default"`
}
