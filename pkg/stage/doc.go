// Package stage is the consumer-facing view of a composed scene.
//
// A Stage is rooted at one layer held by a registry. Queries compose prims
// lazily by following reference arcs into other layers; edits made through
// the stage (or directly on any shared layer) are processed before the
// editing call returns, so the next query always sees the new state.
//
//	st, err := stage.Open(ctx, reg, "shot.json")
//	if err != nil {
//		return err
//	}
//	defer st.Close()
//
//	refs := st.GetPrim("/chair").References()
//	_ = refs.AppendReference("chair.yaml", domain.WithTargetPath("/model"))
//	v, ok := st.GetAttributeValue(ctx, "/chair", "height")
package stage
