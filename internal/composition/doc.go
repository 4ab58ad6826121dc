// Package composition builds prim indices by following reference arcs
// between layers, resolves attribute values against them and keeps both
// up to date as layers change.
//
// A Composer serves one stage. It must only be read while the registry's
// View lock is held; edits reach it through registry.Listener while the edit
// lock is held, so a reader never observes a half-invalidated cache.
package composition
