/*
Package strata composes layered scene descriptions into a single namespace of prims.

A layer is a document of prim specs. A prim may carry reference arcs that pull in
the contents of another prim, either in another layer (external) or in its own
layer (internal). A reference with no target path points at the target layer's
default target. The composed view of a root layer is a stage: each prim on it is
backed by a strength-ordered list of contributing sites, and an attribute resolves
to the strongest authored value among them.

# Concept

Layers live in a shared registry. Stages read them through the registry and keep
their composed results until a layer changes; edits, reloads and newly available
layers notify the stages that depended on them, which recompose on the next read.

# Key Features

  - Reference arcs with default-target fallback, identical for internal and external references.
  - Non-fatal diagnostics: missing layers, missing defaults and cycles never break the stage.
  - Change-driven recomposition: only the prims that depended on a change are rebuilt.
  - Pluggable storage: files (with fsnotify watching), Redis, Loam repositories or memory.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/strata"
	)

	func main() {
		// Layers are read from ./scene and decoded by extension (.json, .yaml, .toml)
		eng, err := strata.New("./scene")
		if err != nil {
			log.Fatal(err)
		}
		defer eng.Close()

		ctx := context.Background()
		st, err := eng.OpenStage(ctx, "shot.yaml")
		if err != nil {
			log.Fatal(err)
		}

		if v, ok := st.GetAttributeValue(ctx, "/world/chair", "height"); ok {
			fmt.Println("height:", v)
		}
		for _, diag := range st.Diagnostics(ctx) {
			log.Println("composition:", diag)
		}
	}
*/
package strata
