package domain

import (
	"slices"
)

// DiffSpecs calculates the change events that turn oldSpecs into newSpecs.
// It is used when a layer's contents are replaced wholesale (e.g. on reload)
// so that change processing stays targeted instead of invalidating every
// dependent of the layer. Events are returned sorted by path for determinism.
func DiffSpecs(layerID string, oldSpecs, newSpecs map[Path]*PrimSpec) []ChangeEvent {
	var events []ChangeEvent

	// 1. Removed prims
	for path := range oldSpecs {
		if _, exists := newSpecs[path]; !exists {
			events = append(events, ChangeEvent{Kind: ChangePrimRemoved, LayerID: layerID, Path: path})
		}
	}

	// 2. Added or modified prims
	for path, newSpec := range newSpecs {
		oldSpec, exists := oldSpecs[path]
		if !exists {
			events = append(events, ChangeEvent{Kind: ChangePrimAdded, LayerID: layerID, Path: path})
			continue
		}
		if !referencesEqual(oldSpec.References, newSpec.References) {
			events = append(events, ChangeEvent{Kind: ChangeReferences, LayerID: layerID, Path: path})
		}
		events = append(events, diffAttributes(layerID, path, oldSpec, newSpec)...)
	}

	slices.SortFunc(events, func(a, b ChangeEvent) int {
		if a.Path != b.Path {
			if a.Path < b.Path {
				return -1
			}
			return 1
		}
		if a.Kind != b.Kind {
			if a.Kind < b.Kind {
				return -1
			}
			return 1
		}
		if a.Attribute < b.Attribute {
			return -1
		}
		if a.Attribute > b.Attribute {
			return 1
		}
		return 0
	})
	return events
}

func diffAttributes(layerID string, path Path, oldSpec, newSpec *PrimSpec) []ChangeEvent {
	var events []ChangeEvent
	emit := func(name string) {
		events = append(events, ChangeEvent{Kind: ChangeAttribute, LayerID: layerID, Path: path, Attribute: name})
	}

	// Check for Added or Modified
	for name, newAttr := range newSpec.Attributes {
		oldAttr, exists := oldSpec.Attributes[name]
		if !exists || !attributesEqual(oldAttr, newAttr) {
			emit(name)
		}
	}

	// Check for Deletions
	for name := range oldSpec.Attributes {
		if _, exists := newSpec.Attributes[name]; !exists {
			emit(name)
		}
	}
	return events
}

func attributesEqual(a, b AttributeSpec) bool {
	if a.Name != b.Name || a.TypeName != b.TypeName {
		return false
	}
	if a.HasDefault() != b.HasDefault() {
		return false
	}
	return !a.HasDefault() || a.Default.Equal(*b.Default)
}

func referencesEqual(a, b []Reference) bool {
	return slices.EqualFunc(a, b, Reference.Equal)
}
