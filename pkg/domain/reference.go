package domain

import (
	"fmt"
	"strings"
)

// TimeTransform maps time in a referenced layer into the referencing
// namespace: t' = t*Scale + Offset.
type TimeTransform struct {
	Scale  float64 `json:"scale" yaml:"scale" mapstructure:"scale"`
	Offset float64 `json:"offset" yaml:"offset" mapstructure:"offset"`
}

// IdentityTransform leaves time untouched.
var IdentityTransform = TimeTransform{Scale: 1}

// IsIdentity reports whether t has no effect.
func (t TimeTransform) IsIdentity() bool {
	return t == IdentityTransform
}

// Apply maps a time value through t.
func (t TimeTransform) Apply(time float64) float64 {
	return time*t.Scale + t.Offset
}

// Compose returns the transform equivalent to applying inner first and
// then t. Used to accumulate transforms along chained arcs.
func (t TimeTransform) Compose(inner TimeTransform) TimeTransform {
	return TimeTransform{
		Scale:  t.Scale * inner.Scale,
		Offset: t.Scale*inner.Offset + t.Offset,
	}
}

func (t TimeTransform) String() string {
	return fmt.Sprintf("(scale=%g, offset=%g)", t.Scale, t.Offset)
}

// Reference is an arc authored on a prim.
//
// An empty Identifier makes the reference internal: the target is looked up
// in the layer that owns the reference. An empty TargetPath means the target
// layer's default target is used. A nil Transform means identity.
type Reference struct {
	Identifier string         `json:"identifier,omitempty"`
	TargetPath Path           `json:"target_path,omitempty"`
	Transform  *TimeTransform `json:"time_transform,omitempty"`
}

// ReferenceOption configures a Reference built with NewReference.
type ReferenceOption func(*Reference)

// WithTargetPath sets an explicit target path.
func WithTargetPath(p Path) ReferenceOption {
	return func(r *Reference) {
		r.TargetPath = p
	}
}

// WithTimeTransform attaches a time transform.
func WithTimeTransform(scale, offset float64) ReferenceOption {
	return func(r *Reference) {
		r.Transform = &TimeTransform{Scale: scale, Offset: offset}
	}
}

// NewReference builds a Reference to identifier.
func NewReference(identifier string, opts ...ReferenceOption) Reference {
	ref := Reference{Identifier: identifier}
	for _, opt := range opts {
		opt(&ref)
	}
	return ref
}

// IsInternal reports whether the reference targets its owning layer.
func (r Reference) IsInternal() bool {
	return r.Identifier == ""
}

// HasTargetPath reports whether an explicit target path was authored.
func (r Reference) HasTargetPath() bool {
	return !r.TargetPath.IsEmpty()
}

// EffectiveTransform returns the authored transform or identity.
func (r Reference) EffectiveTransform() TimeTransform {
	if r.Transform == nil {
		return IdentityTransform
	}
	return *r.Transform
}

// Equal compares all three fields structurally. An absent transform equals
// the identity.
func (r Reference) Equal(other Reference) bool {
	return r.Identifier == other.Identifier &&
		r.TargetPath == other.TargetPath &&
		r.EffectiveTransform() == other.EffectiveTransform()
}

// Clone returns a deep copy.
func (r Reference) Clone() Reference {
	if r.Transform != nil {
		t := *r.Transform
		r.Transform = &t
	}
	return r
}

// Validate rejects structurally invalid references.
// The target path, when present, must be an absolute prim path.
func (r Reference) Validate() error {
	if r.Identifier != strings.TrimSpace(r.Identifier) {
		return fmt.Errorf("%w: %q has surrounding whitespace", ErrInvalidIdentifier, r.Identifier)
	}
	if r.HasTargetPath() {
		p, err := ParsePath(string(r.TargetPath))
		if err != nil {
			return err
		}
		if p.IsRoot() {
			return fmt.Errorf("%w: reference cannot target the absolute root", ErrInvalidPath)
		}
	}
	if r.Transform != nil && r.Transform.Scale == 0 {
		return fmt.Errorf("%w: time transform scale must be non-zero", ErrInvalidValue)
	}
	return nil
}

func (r Reference) String() string {
	var sb strings.Builder
	sb.WriteString("@")
	sb.WriteString(r.Identifier)
	sb.WriteString("@")
	if r.HasTargetPath() {
		sb.WriteString("<")
		sb.WriteString(string(r.TargetPath))
		sb.WriteString(">")
	}
	if r.Transform != nil && !r.Transform.IsIdentity() {
		sb.WriteString(r.Transform.String())
	}
	return sb.String()
}
