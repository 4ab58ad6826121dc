package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/strata/pkg/domain"
)

// GenerateMermaid produces a Mermaid flowchart of a prim index.
// It applies semantic styling:
// - Composed prim: ((Circle))
// - Contributing site: [Rectangle]
// - Missing target: [/Parallelogram/]
// Resolved arcs are solid, ancestral arcs dotted and failed arcs marked as errors.
func GenerateMermaid(idx *domain.PrimIndex) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")
	if idx == nil {
		return sb.String()
	}

	declared := make(map[string]bool)
	declare := func(site domain.Site, opener, closer string) string {
		id := sanitizeMermaidID(site.String())
		if declared[id] {
			return id
		}
		declared[id] = true
		fmt.Fprintf(&sb, "    %s%s\"%s<br/>%s\"%s\n", id, opener, escapeLabel(site.LayerID), site.Path, closer)
		return id
	}

	declare(idx.Root, "((", "))")
	for _, e := range idx.Entries {
		declare(e.Site, "[", "]")
	}

	var failed []string
	for _, arc := range idx.Arcs {
		from := declare(arc.Source, "[", "]")
		label := escapeLabel(arc.Reference.String())

		switch arc.Status {
		case domain.ArcResolved:
			to := declare(arc.Target, "[", "]")
			arrow := fmt.Sprintf("-- \"%s\" -->", label)
			if arc.Ancestral {
				arrow = fmt.Sprintf("-. \"%s\" .->", label)
			}
			fmt.Fprintf(&sb, "    %s %s %s\n", from, arrow, to)
		default:
			target := arc.Target
			if target.LayerID == "" {
				target = domain.Site{LayerID: arc.Reference.Identifier, Path: arc.Reference.TargetPath}
			}
			to := declare(target, "[/", "/]")
			failed = append(failed, to)
			fmt.Fprintf(&sb, "    %s -. \"%s\" .-x %s\n", from, label, to)
		}
	}

	if len(failed) > 0 || len(idx.Errors) > 0 {
		sb.WriteString("\n    %% Diagnostics\n")
		sb.WriteString("    classDef errored fill:#ffebee,stroke:#c62828,stroke-width:2px,color:#000;\n")
		seen := make(map[string]bool)
		for _, id := range failed {
			if !seen[id] {
				seen[id] = true
				fmt.Fprintf(&sb, "    class %s errored;\n", id)
			}
		}
		for _, cerr := range idx.Errors {
			fmt.Fprintf(&sb, "    %%%% %s\n", escapeLabel(cerr.Error()))
		}
	}

	return sb.String()
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	var sb strings.Builder
	sb.WriteString("s_")
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}
