package composition

import (
	"context"
	"fmt"

	"github.com/aretw0/strata/pkg/domain"
	"github.com/aretw0/strata/pkg/layer"
	"github.com/aretw0/strata/pkg/registry"
)

// arcError is a resolution failure before a composition site is known.
type arcError struct {
	kind   domain.ErrorKind
	detail string
}

// resolveArc turns a reference authored in owner into a target layer and path.
// Everything consulted is recorded into deps.
func (c *Composer) resolveArc(ctx context.Context, ref domain.Reference, owner *layer.Layer, deps *depSet) (*layer.Layer, domain.Path, *arcError) {
	target := owner
	if !ref.IsInternal() {
		l, err := c.openLayer(ctx, ref.Identifier)
		if err != nil {
			deps.missing[ref.Identifier] = struct{}{}
			return nil, "", &arcError{kind: domain.ErrorLayerNotFound, detail: err.Error()}
		}
		target = l
	}
	deps.versions[target.Identifier()] = target.Version()

	if ref.HasTargetPath() {
		return target, ref.TargetPath, nil
	}

	deps.defaults[target.Identifier()] = struct{}{}
	if candidate, ok := defaultCandidate(target); ok {
		deps.sites[domain.Site{LayerID: target.Identifier(), Path: candidate}] = struct{}{}
	}
	path, ok := GetDefault(target)
	if !ok {
		detail := "layer has no default target"
		if name := target.DefaultTarget(); name != "" {
			detail = fmt.Sprintf("default target %q does not name a root prim of %s", name, target.Identifier())
		}
		return nil, "", &arcError{kind: domain.ErrorNoDefaultTarget, detail: detail}
	}
	return target, path, nil
}

// openLayer returns a layer this composer already holds or opens it through
// the registry. The composer keeps one reference per opened layer.
func (c *Composer) openLayer(ctx context.Context, identifier string) (*layer.Layer, error) {
	if l, ok := c.layers[identifier]; ok {
		return l, nil
	}
	c.reg.Watch(identifier, c)

	l, err := c.reg.Open(ctx, identifier)
	if err != nil {
		if !registry.IsNotFound(err) {
			c.logger.Warn("Failed to open referenced layer", "identifier", identifier, "err", err)
		}
		return nil, err
	}
	c.layers[identifier] = l
	c.opened = append(c.opened, identifier)
	return l, nil
}

// layerFor returns a layer the composer holds.
func (c *Composer) layerFor(identifier string) (*layer.Layer, bool) {
	l, ok := c.layers[identifier]
	return l, ok
}
