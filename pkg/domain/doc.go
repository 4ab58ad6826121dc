/*
Package domain contains the core data model of the Strata composition engine.

It defines the authored entities that live inside a layer (prim specs,
attribute specs, references) and the derived entities produced by composition
(prim indices, arcs, composition errors). This package is kept pure and free of
I/O, locking and persistence concerns, following Hexagonal Architecture
principles.

# Key Entities

  - Path: an absolute, validated prim path such as "/world/chair".
  - Reference: an arc authored on a prim, pointing at a (layer, path) target.
  - TimeTransform: a scale/offset pair carried across reference arcs.
  - Value: a closed tagged value (double, int, bool, string, token, asset, path).
  - PrimSpec: the opinions a single layer holds about one prim.
  - PrimIndex: the strength-ordered list of sites contributing to a composed prim.
  - ChangeEvent: a description of one mutation, consumed by change processing.
*/
package domain
