package domain

import (
	"context"
	"time"
)

// ChangeKind defines the category of a layer mutation.
type ChangeKind string

const (
	ChangePrimAdded       ChangeKind = "prim_added"
	ChangePrimRemoved     ChangeKind = "prim_removed"
	ChangeAttribute       ChangeKind = "attribute"
	ChangeReferences      ChangeKind = "references"
	ChangeDefaultTarget   ChangeKind = "default_target"
	ChangeLayerRegistered ChangeKind = "layer_registered"
	ChangeLayerReloaded   ChangeKind = "layer_reloaded"
)

// AffectsIndex reports whether a change of this kind can alter the set of
// sites contributing to a composed prim. Attribute edits only alter values.
func (k ChangeKind) AffectsIndex() bool {
	return k != ChangeAttribute
}

// ChangeEvent describes one mutation applied to a layer.
type ChangeEvent struct {
	Kind    ChangeKind `json:"kind"`
	LayerID string     `json:"layer"`
	// Path is the prim spec that changed. Empty for layer-wide changes
	// (default target, registration, reload).
	Path      Path   `json:"path,omitempty"`
	Attribute string `json:"attribute,omitempty"`
	// Version is the layer mutation counter after the edit.
	Version uint64 `json:"version"`
}

// Site returns the prim site touched by the event.
func (e ChangeEvent) Site() Site {
	return Site{LayerID: e.LayerID, Path: e.Path}
}

// EventBase contains common fields for all hook events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	StageID   string    `json:"stage_id"`
}

// IndexEvent is emitted after a prim index is built.
type IndexEvent struct {
	EventBase
	Path     Path          `json:"path"`
	Entries  int           `json:"entries"`
	Errors   int           `json:"errors"`
	Duration time.Duration `json:"duration"`
	CacheHit bool          `json:"cache_hit"`
}

// InvalidationEvent is emitted when change processing drops cached results.
type InvalidationEvent struct {
	EventBase
	Change      ChangeEvent `json:"change"`
	Invalidated []Path      `json:"invalidated"`
}

// LifecycleHooks defines callbacks for composition observability.
type LifecycleHooks struct {
	OnIndexBuilt       func(context.Context, *IndexEvent)
	OnInvalidate       func(context.Context, *InvalidationEvent)
	OnCompositionError func(context.Context, *CompositionError)
}
