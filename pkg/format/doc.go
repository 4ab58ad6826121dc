// Package format provides the format backends that turn stored bytes into
// layers and back: JSON (.json), YAML (.yaml, .yml) and TOML (.toml).
//
// Backends are selected by the extension of the layer identifier through a
// Backends set. StoreSource combines an AssetStore with a Backends set into a
// LayerSource the registry can open layers from.
package format
