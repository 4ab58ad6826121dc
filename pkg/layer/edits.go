package layer

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/strata/pkg/domain"
	"github.com/aretw0/strata/pkg/schema"
)

// CreatePrim authors a spec at path, creating missing ancestors as "over"
// specs. An existing spec keeps its contents; its specifier and type name are
// updated when given.
func (l *Layer) CreatePrim(path domain.Path, specifier domain.Specifier, typeName string) error {
	if err := validatePrimPath(path); err != nil {
		return err
	}
	if !specifier.IsValid() {
		return fmt.Errorf("%w: unknown specifier %q", domain.ErrInvalidValue, specifier)
	}
	return l.edit(func() ([]domain.ChangeEvent, error) {
		spec, events := l.ensurePrim(path, specifier)
		spec.Specifier = specifier
		if typeName != "" {
			spec.TypeName = typeName
		}
		return events, nil
	})
}

// RemovePrim deletes the spec at path and every descendant spec.
func (l *Layer) RemovePrim(path domain.Path) error {
	if err := validatePrimPath(path); err != nil {
		return err
	}
	return l.edit(func() ([]domain.ChangeEvent, error) {
		if _, ok := l.prims[path]; !ok {
			return nil, fmt.Errorf("%w: %s in %s", domain.ErrPrimNotFound, path, l.identifier)
		}
		var removed []domain.Path
		for p := range l.prims {
			if p.HasPrefix(path) {
				removed = append(removed, p)
			}
		}
		slices.Sort(removed)
		events := make([]domain.ChangeEvent, 0, len(removed))
		for _, p := range removed {
			delete(l.prims, p)
			events = append(events, domain.ChangeEvent{Kind: domain.ChangePrimRemoved, Path: p})
		}
		return events, nil
	})
}

// SetAttribute authors a value on the prim at path, creating an "over" spec
// when needed. An empty typeName keeps the declared type, or derives it from
// the value for new attributes.
func (l *Layer) SetAttribute(path domain.Path, name, typeName string, value domain.Value) error {
	if err := validatePrimPath(path); err != nil {
		return err
	}
	if !domain.IsValidIdentifier(name) {
		return fmt.Errorf("%w: attribute name %q", domain.ErrInvalidIdentifier, name)
	}
	if !value.IsValid() {
		return fmt.Errorf("%w: attribute %s has no value", domain.ErrInvalidValue, name)
	}
	return l.edit(func() ([]domain.ChangeEvent, error) {
		declared := typeName
		if spec, ok := l.prims[path]; ok && declared == "" {
			if existing, ok := spec.Attributes[name]; ok {
				declared = existing.TypeName
			}
		}
		if declared == "" {
			declared = schema.TypeNameOf(value)
		}
		if err := schema.CheckValue(declared, value); err != nil {
			return nil, fmt.Errorf("attribute %s.%s: %w", path, name, err)
		}

		spec, events := l.ensurePrim(path, domain.SpecifierOver)
		v := value
		spec.Attributes[name] = domain.AttributeSpec{Name: name, TypeName: declared, Default: &v}
		return append(events, domain.ChangeEvent{Kind: domain.ChangeAttribute, Path: path, Attribute: name}), nil
	})
}

// ClearAttribute removes an authored attribute. Missing attributes are a no-op.
func (l *Layer) ClearAttribute(path domain.Path, name string) error {
	if err := validatePrimPath(path); err != nil {
		return err
	}
	return l.edit(func() ([]domain.ChangeEvent, error) {
		spec, ok := l.prims[path]
		if !ok {
			return nil, nil
		}
		if _, ok := spec.Attributes[name]; !ok {
			return nil, nil
		}
		delete(spec.Attributes, name)
		return []domain.ChangeEvent{{Kind: domain.ChangeAttribute, Path: path, Attribute: name}}, nil
	})
}

// AppendReference adds ref to the end of the explicit reference list at path.
func (l *Layer) AppendReference(path domain.Path, ref domain.Reference) error {
	if err := validatePrimPath(path); err != nil {
		return err
	}
	if err := ref.Validate(); err != nil {
		return err
	}
	return l.edit(func() ([]domain.ChangeEvent, error) {
		spec, events := l.ensurePrim(path, domain.SpecifierOver)
		spec.References = append(spec.References, ref.Clone())
		return append(events, domain.ChangeEvent{Kind: domain.ChangeReferences, Path: path}), nil
	})
}

// RemoveReference removes the first item structurally equal to ref.
// It reports whether an item was removed.
func (l *Layer) RemoveReference(path domain.Path, ref domain.Reference) (bool, error) {
	if err := validatePrimPath(path); err != nil {
		return false, err
	}
	removed := false
	err := l.edit(func() ([]domain.ChangeEvent, error) {
		spec, ok := l.prims[path]
		if !ok {
			return nil, nil
		}
		i := slices.IndexFunc(spec.References, ref.Equal)
		if i < 0 {
			return nil, nil
		}
		spec.References = slices.Delete(spec.References, i, i+1)
		removed = true
		return []domain.ChangeEvent{{Kind: domain.ChangeReferences, Path: path}}, nil
	})
	return removed, err
}

// ClearReferences empties the explicit reference list at path.
func (l *Layer) ClearReferences(path domain.Path) error {
	if err := validatePrimPath(path); err != nil {
		return err
	}
	return l.edit(func() ([]domain.ChangeEvent, error) {
		spec, ok := l.prims[path]
		if !ok || len(spec.References) == 0 {
			return nil, nil
		}
		spec.References = nil
		return []domain.ChangeEvent{{Kind: domain.ChangeReferences, Path: path}}, nil
	})
}

// SetReferences replaces the explicit reference list at path.
func (l *Layer) SetReferences(path domain.Path, refs []domain.Reference) error {
	if err := validatePrimPath(path); err != nil {
		return err
	}
	for i, ref := range refs {
		if err := ref.Validate(); err != nil {
			return fmt.Errorf("reference %d: %w", i, err)
		}
	}
	return l.edit(func() ([]domain.ChangeEvent, error) {
		spec, events := l.ensurePrim(path, domain.SpecifierOver)
		var next []domain.Reference
		for _, ref := range refs {
			next = append(next, ref.Clone())
		}
		if slices.EqualFunc(spec.References, next, domain.Reference.Equal) {
			return events, nil
		}
		spec.References = next
		return append(events, domain.ChangeEvent{Kind: domain.ChangeReferences, Path: path}), nil
	})
}

// SetDefaultTarget designates a root prim as the layer's default target.
// Both "name" and "/name" are accepted. The prim need not exist yet.
func (l *Layer) SetDefaultTarget(name string) error {
	name = strings.TrimPrefix(name, "/")
	if !domain.IsValidIdentifier(name) {
		return fmt.Errorf("%w: default target %q", domain.ErrInvalidIdentifier, name)
	}
	return l.setDefaultTarget(name)
}

// ClearDefaultTarget removes the default target designation.
func (l *Layer) ClearDefaultTarget() error {
	return l.setDefaultTarget("")
}

func (l *Layer) setDefaultTarget(name string) error {
	return l.edit(func() ([]domain.ChangeEvent, error) {
		if l.defaultTarget == name {
			return nil, nil
		}
		l.defaultTarget = name
		return []domain.ChangeEvent{{Kind: domain.ChangeDefaultTarget}}, nil
	})
}

// ReplaceContents swaps in freshly loaded contents, emitting one event per
// spec difference followed by a layer-wide reload event.
func (l *Layer) ReplaceContents(defaultTarget string, prims map[domain.Path]*domain.PrimSpec) error {
	defaultTarget = strings.TrimPrefix(defaultTarget, "/")
	next := make(map[domain.Path]*domain.PrimSpec, len(prims))
	for p, spec := range prims {
		next[p] = spec.Clone()
	}
	return l.edit(func() ([]domain.ChangeEvent, error) {
		events := domain.DiffSpecs(l.identifier, l.prims, next)
		if l.defaultTarget != defaultTarget {
			events = append(events, domain.ChangeEvent{Kind: domain.ChangeDefaultTarget})
		}
		l.prims = next
		l.defaultTarget = defaultTarget
		return append(events, domain.ChangeEvent{Kind: domain.ChangeLayerReloaded}), nil
	})
}
