package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/strata/pkg/domain"
)

// IndexMarkdown describes a prim index as markdown: contributing sites in
// strength order, arcs with their status, and diagnostics.
func IndexMarkdown(idx *domain.PrimIndex) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# `%s` in `%s`\n\n", idx.Root.Path, idx.Root.LayerID)

	if idx.IsEmpty() {
		sb.WriteString("_No layer contributes to this prim._\n\n")
	} else {
		sb.WriteString("## Sites (strongest first)\n\n")
		sb.WriteString("| # | Layer | Path | Time transform |\n|---|---|---|---|\n")
		for i, e := range idx.Entries {
			fmt.Fprintf(&sb, "| %d | `%s` | `%s` | %s |\n", i, e.LayerID, e.Path, e.Transform)
		}
		sb.WriteString("\n")
	}

	if len(idx.Arcs) > 0 {
		sb.WriteString("## Arcs\n\n")
		sb.WriteString("| Source | Reference | Status | Target |\n|---|---|---|---|\n")
		for _, arc := range idx.Arcs {
			target := "-"
			if arc.Status == domain.ArcResolved {
				target = fmt.Sprintf("`%s`", arc.Target)
			}
			status := string(arc.Status)
			if arc.Ancestral {
				status += " (ancestral)"
			}
			fmt.Fprintf(&sb, "| `%s` | `%s` | %s | %s |\n", arc.Source, arc.Reference, status, target)
		}
		sb.WriteString("\n")
	}

	if len(idx.Errors) > 0 {
		sb.WriteString("## Diagnostics\n\n")
		for _, cerr := range idx.Errors {
			fmt.Fprintf(&sb, "- **%s** %s\n", cerr.Kind, cerr.Error())
		}
	}
	return sb.String()
}
