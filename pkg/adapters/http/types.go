package http

import (
	"github.com/aretw0/strata/pkg/domain"
)

// PrimResponse is the body of GET /stages/{layer}/prims/*.
type PrimResponse struct {
	Layer  string             `json:"layer"`
	Path   domain.Path        `json:"path"`
	Exists bool               `json:"exists"`
	Index  *domain.PrimIndex  `json:"index,omitempty"`
	Errors []CompositionIssue `json:"errors"`
}

// CompositionIssue is the wire form of a composition diagnostic.
type CompositionIssue struct {
	Kind      domain.ErrorKind `json:"kind"`
	Site      domain.Site      `json:"site"`
	Reference domain.Reference `json:"reference"`
	Message   string           `json:"message"`
}

// AttributeResponse is the body of GET /stages/{layer}/attr/{attr}/prims/*.
type AttributeResponse struct {
	Layer     string      `json:"layer"`
	Path      domain.Path `json:"path"`
	Attribute string      `json:"attribute"`
	Found     bool        `json:"found"`
	Type      string      `json:"type,omitempty"`
	Value     any         `json:"value,omitempty"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Error string `json:"error"`
}

func issuesOf(idx *domain.PrimIndex) []CompositionIssue {
	out := make([]CompositionIssue, 0, len(idx.Errors))
	for _, cerr := range idx.Errors {
		out = append(out, CompositionIssue{
			Kind:      cerr.Kind,
			Site:      cerr.Site,
			Reference: cerr.Reference,
			Message:   cerr.Error(),
		})
	}
	return out
}
