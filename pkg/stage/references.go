package stage

import (
	"github.com/aretw0/strata/pkg/domain"
	"github.com/aretw0/strata/pkg/layer"
)

// References edits the explicit reference list of one prim spec.
// Every edit is processed by all stages sharing the layer before it returns.
type References struct {
	layer *layer.Layer
	path  domain.Path
}

// AppendReference adds a reference to identifier. The target path and time
// transform are optional:
//
//	refs.AppendReference("b.json", domain.WithTargetPath("/trg"), domain.WithTimeTransform(1, 24))
//
// Without a target path the target layer's default target is used.
func (r *References) AppendReference(identifier string, opts ...domain.ReferenceOption) error {
	return r.layer.AppendReference(r.path, domain.NewReference(identifier, opts...))
}

// AppendInternalReference adds a reference into the same layer. It is
// AppendReference("", WithTargetPath(targetPath), opts...).
func (r *References) AppendInternalReference(targetPath domain.Path, opts ...domain.ReferenceOption) error {
	opts = append([]domain.ReferenceOption{domain.WithTargetPath(targetPath)}, opts...)
	return r.AppendReference("", opts...)
}

// Append adds an already built reference.
func (r *References) Append(ref domain.Reference) error {
	return r.layer.AppendReference(r.path, ref)
}

// RemoveReference removes the first item structurally equal to ref.
func (r *References) RemoveReference(ref domain.Reference) (bool, error) {
	return r.layer.RemoveReference(r.path, ref)
}

// ClearReferences empties the explicit list.
func (r *References) ClearReferences() error {
	return r.layer.ClearReferences(r.path)
}

// SetReferences replaces the explicit list.
func (r *References) SetReferences(refs []domain.Reference) error {
	return r.layer.SetReferences(r.path, refs)
}

// Items returns a copy of the explicit list.
func (r *References) Items() []domain.Reference {
	return r.layer.References(r.path)
}
