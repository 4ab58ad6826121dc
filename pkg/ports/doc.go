/*
Package ports defines the driven ports (interfaces) for the Strata engine.

These interfaces decouple composition from external implementations, allowing
layers to be read from memory, the filesystem, Redis or a Loam repository and
decoded by pluggable format backends.

# Key Interfaces

  - AssetStore: raw byte storage addressed by layer identifier.
  - FormatBackend: turns bytes into a layer and back, selected by extension.
  - LayerSource: opens a layer by identifier (e.g., store + backend, or Loam).
  - Watchable: notifies about identifiers changed outside the process.
  - CompositionService: the read side consumed by the HTTP and MCP adapters.
*/
package ports
