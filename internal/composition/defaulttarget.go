package composition

import (
	"github.com/aretw0/strata/pkg/domain"
	"github.com/aretw0/strata/pkg/layer"
)

// GetDefault maps the layer's default target name to a root prim path.
// It reports false when the name is unset, malformed, or names a prim that
// has no spec in the layer.
func GetDefault(l *layer.Layer) (domain.Path, bool) {
	path, ok := defaultCandidate(l)
	if !ok || !l.HasPrim(path) {
		return "", false
	}
	return path, true
}

// defaultCandidate returns the path the default target designates, whether
// or not a spec exists there.
func defaultCandidate(l *layer.Layer) (domain.Path, bool) {
	name := l.DefaultTarget()
	if name == "" || !domain.IsValidIdentifier(name) {
		return "", false
	}
	return domain.RootPrimPath(name), true
}
