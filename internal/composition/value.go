package composition

import (
	"github.com/aretw0/strata/pkg/domain"
	"github.com/aretw0/strata/pkg/layer"
)

// Resolution is the strongest authored opinion for an attribute.
type Resolution struct {
	Value    domain.Value
	TypeName string
	// Site is where the winning opinion was authored.
	Site domain.Site
	// Transform maps times in the winning site's layer into the composed
	// prim's time: composedTime = Transform.Apply(localTime).
	Transform domain.TimeTransform
}

// LayerLookup finds a held layer by identifier.
type LayerLookup func(identifier string) (*layer.Layer, bool)

// ResolveValue walks idx in strength order and returns the first authored
// value for attr. A prim can exist while every attribute is absent.
func ResolveValue(idx *domain.PrimIndex, attr string, lookup LayerLookup) (Resolution, bool) {
	if idx == nil {
		return Resolution{}, false
	}
	for _, e := range idx.Entries {
		l, ok := lookup(e.LayerID)
		if !ok {
			continue
		}
		spec, ok := l.Prim(e.Path)
		if !ok {
			continue
		}
		a, ok := spec.Attribute(attr)
		if !ok || !a.HasDefault() {
			continue
		}
		return Resolution{
			Value:     *a.Default,
			TypeName:  a.TypeName,
			Site:      e.Site,
			Transform: e.Transform,
		}, true
	}
	return Resolution{}, false
}

// AttributeNames lists every attribute authored on any contributing site,
// in strength order of first appearance.
func AttributeNames(idx *domain.PrimIndex, lookup LayerLookup) []string {
	if idx == nil {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	for _, e := range idx.Entries {
		l, ok := lookup(e.LayerID)
		if !ok {
			continue
		}
		spec, ok := l.Prim(e.Path)
		if !ok {
			continue
		}
		for _, name := range spec.AttributeNames() {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}
