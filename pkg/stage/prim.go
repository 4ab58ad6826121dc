package stage

import (
	"context"

	"github.com/aretw0/strata/pkg/domain"
)

// Prim is a handle to a composed prim. Edits are authored into the stage's
// root layer.
type Prim struct {
	stage *Stage
	path  domain.Path
}

// Path returns the prim path.
func (p *Prim) Path() domain.Path {
	return p.path
}

// Exists reports whether anything contributes to the prim.
func (p *Prim) Exists(ctx context.Context) bool {
	return p.stage.NodeExists(ctx, p.path)
}

// References returns the editor for the prim's explicit reference list.
func (p *Prim) References() *References {
	return &References{layer: p.stage.root, path: p.path}
}

// GetAttribute resolves attr.
func (p *Prim) GetAttribute(ctx context.Context, attr string) (domain.Value, bool) {
	return p.stage.GetAttributeValue(ctx, p.path, attr)
}

// SetAttribute authors attr in the root layer. An empty typeName derives it
// from the value.
func (p *Prim) SetAttribute(attr, typeName string, v domain.Value) error {
	return p.stage.root.SetAttribute(p.path, attr, typeName, v)
}

// ClearAttribute removes the root layer's opinion for attr.
func (p *Prim) ClearAttribute(attr string) error {
	return p.stage.root.ClearAttribute(p.path, attr)
}

// Children lists the composed child names.
func (p *Prim) Children(ctx context.Context) []string {
	return p.stage.Children(ctx, p.path)
}
