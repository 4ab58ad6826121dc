package validator

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/strata/pkg/domain"
	"github.com/aretw0/strata/pkg/stage"
)

// Report is the outcome of composing every prim of a stage.
type Report struct {
	Layer  string
	Prims  []domain.Path
	Issues []*domain.CompositionError
	Layers []string
}

// OK reports whether composition produced no diagnostics.
func (r *Report) OK() bool {
	return len(r.Issues) == 0
}

// Err summarizes the issues as one error, or nil.
func (r *Report) Err() error {
	if r.OK() {
		return nil
	}
	lines := make([]string, 0, len(r.Issues))
	for _, issue := range r.Issues {
		lines = append(lines, issue.Error())
	}
	return fmt.Errorf("found %d errors in %s:\n- %s", len(lines), r.Layer, strings.Join(lines, "\n- "))
}

// ValidateStage composes every prim reachable from the pseudo-root and
// collects the composition errors, each reported once.
func ValidateStage(ctx context.Context, st *stage.Stage) *Report {
	report := &Report{Layer: st.ID()}
	seen := make(map[string]bool)

	for _, p := range st.Traverse(ctx) {
		report.Prims = append(report.Prims, p)
		idx, err := st.Index(ctx, p)
		if err != nil {
			continue
		}
		for _, cerr := range idx.Errors {
			key := cerr.Error()
			if seen[key] {
				continue
			}
			seen[key] = true
			report.Issues = append(report.Issues, cerr)
		}
	}
	report.Layers = st.Layers()
	return report
}
