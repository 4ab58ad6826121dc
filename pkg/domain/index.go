package domain

import "fmt"

// Site addresses a prim spec location: a path inside a specific layer.
type Site struct {
	LayerID string `json:"layer"`
	Path    Path   `json:"path"`
}

func (s Site) String() string {
	return fmt.Sprintf("@%s@<%s>", s.LayerID, s.Path)
}

// ArcStatus is the resolution state of one reference arc.
type ArcStatus string

const (
	ArcUnresolved ArcStatus = "unresolved"
	ArcResolved   ArcStatus = "resolved"
	ArcErrored    ArcStatus = "errored"
)

// Arc records how one authored reference was resolved during a build.
type Arc struct {
	Source    Site          `json:"source"`
	Reference Reference     `json:"reference"`
	Status    ArcStatus     `json:"status"`
	Target    Site          `json:"target,omitempty"`
	Transform TimeTransform `json:"time_transform"`
	// Ancestral is set when the arc was authored on an ancestor of the
	// composed prim and mapped down to it.
	Ancestral bool   `json:"ancestral,omitempty"`
	Error     string `json:"error,omitempty"`
	// Depth is the number of arcs between the composed prim and Source.
	Depth int `json:"depth"`
}

// IndexEntry is one contributing site of a composed prim.
type IndexEntry struct {
	Site
	// Transform is the accumulated time transform from the composed
	// prim's namespace down to this site.
	Transform TimeTransform `json:"time_transform"`
	// Via is the arc that introduced the entry; nil for the local entry.
	Via *Arc `json:"via,omitempty"`
}

// IsLocal reports whether the entry is the composed prim's own root-layer spec.
func (e IndexEntry) IsLocal() bool {
	return e.Via == nil
}

// PrimIndex is the strength-ordered list of sites contributing to one
// composed prim, strongest first. It is rebuilt on change, never mutated.
type PrimIndex struct {
	Root    Site                `json:"root"`
	Entries []IndexEntry        `json:"entries"`
	Arcs    []Arc               `json:"arcs"`
	Errors  []*CompositionError `json:"-"`
}

// IsEmpty reports whether nothing contributes to the prim, i.e. the prim
// does not exist.
func (idx *PrimIndex) IsEmpty() bool {
	return idx == nil || len(idx.Entries) == 0
}

// HasLocalEntry reports whether the root layer has a spec for the prim.
func (idx *PrimIndex) HasLocalEntry() bool {
	return !idx.IsEmpty() && idx.Entries[0].IsLocal()
}

// Sites returns the entry sites in strength order.
func (idx *PrimIndex) Sites() []Site {
	if idx == nil {
		return nil
	}
	out := make([]Site, len(idx.Entries))
	for i, e := range idx.Entries {
		out[i] = e.Site
	}
	return out
}

// ErrorsOfKind filters collected diagnostics.
func (idx *PrimIndex) ErrorsOfKind(kind ErrorKind) []*CompositionError {
	if idx == nil {
		return nil
	}
	var out []*CompositionError
	for _, err := range idx.Errors {
		if err.Kind == kind {
			out = append(out, err)
		}
	}
	return out
}
