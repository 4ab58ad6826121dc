package domain

import "slices"

// Specifier describes how a prim spec contributes to the composed prim.
// Composition treats it as opaque.
type Specifier string

const (
	SpecifierDef   Specifier = "def"
	SpecifierOver  Specifier = "over"
	SpecifierClass Specifier = "class"
)

// IsValid reports whether s is a known specifier.
func (s Specifier) IsValid() bool {
	switch s {
	case SpecifierDef, SpecifierOver, SpecifierClass:
		return true
	}
	return false
}

// AttributeSpec is an attribute authored on a prim spec.
type AttributeSpec struct {
	Name     string `json:"name"`
	TypeName string `json:"type"`
	// Default is the authored default value, nil when the attribute is
	// declared without a value.
	Default *Value `json:"-"`
}

// HasDefault reports whether a value was authored.
func (a AttributeSpec) HasDefault() bool {
	return a.Default != nil && a.Default.IsValid()
}

// PrimSpec holds the opinions one layer expresses about one prim.
type PrimSpec struct {
	Path       Path                     `json:"path"`
	Specifier  Specifier                `json:"specifier"`
	TypeName   string                   `json:"type_name,omitempty"`
	References []Reference              `json:"references,omitempty"`
	Attributes map[string]AttributeSpec `json:"attributes,omitempty"`
}

// NewPrimSpec creates an empty spec at path.
func NewPrimSpec(path Path, specifier Specifier) *PrimSpec {
	return &PrimSpec{
		Path:       path,
		Specifier:  specifier,
		Attributes: make(map[string]AttributeSpec),
	}
}

// Attribute looks up an authored attribute.
func (p *PrimSpec) Attribute(name string) (AttributeSpec, bool) {
	attr, ok := p.Attributes[name]
	return attr, ok
}

// AttributeNames returns the authored attribute names, sorted.
func (p *PrimSpec) AttributeNames() []string {
	names := make([]string, 0, len(p.Attributes))
	for name := range p.Attributes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Clone returns a deep copy so callers can never alias layer storage.
func (p *PrimSpec) Clone() *PrimSpec {
	if p == nil {
		return nil
	}
	out := &PrimSpec{
		Path:       p.Path,
		Specifier:  p.Specifier,
		TypeName:   p.TypeName,
		Attributes: make(map[string]AttributeSpec, len(p.Attributes)),
	}
	if len(p.References) > 0 {
		out.References = make([]Reference, len(p.References))
		for i, ref := range p.References {
			out.References[i] = ref.Clone()
		}
	}
	for name, attr := range p.Attributes {
		if attr.Default != nil {
			v := *attr.Default
			attr.Default = &v
		}
		out.Attributes[name] = attr
	}
	return out
}
