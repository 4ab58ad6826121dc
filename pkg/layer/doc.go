// Package layer holds the in-memory document that composition reads from.
//
// A Layer maps prim paths to prim specs, carries an optional default target
// and a monotonic version counter bumped by every mutation. Layers are shared
// by every stage that opened them; a registry installs itself as the layer's
// Coordinator so each edit is serialized against stage reads and its change
// events reach all dependents before the mutating call returns.
package layer
