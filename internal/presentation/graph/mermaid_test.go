package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/strata/internal/presentation/graph"
	"github.com/aretw0/strata/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestGenerateMermaid(t *testing.T) {
	root := domain.Site{LayerID: "shot.yaml", Path: "/world/chair"}
	asset := domain.Site{LayerID: "asset.json", Path: "/chair"}
	lamp := domain.NewReference("lamp.json")

	tests := []struct {
		name        string
		idx         *domain.PrimIndex
		contains    []string
		notContains []string
	}{
		{
			name:     "Nil index",
			idx:      nil,
			contains: []string{"graph LR"},
		},
		{
			name: "Resolved arc",
			idx: &domain.PrimIndex{
				Root: root,
				Entries: []domain.IndexEntry{
					{Site: root, Transform: domain.IdentityTransform},
					{Site: asset, Transform: domain.IdentityTransform},
				},
				Arcs: []domain.Arc{{
					Source:    root,
					Reference: domain.NewReference("asset.json"),
					Status:    domain.ArcResolved,
					Target:    asset,
				}},
			},
			contains: []string{
				`(("shot.yaml<br/>/world/chair"))`,
				`["asset.json<br/>/chair"]`,
				`-- "@asset.json@" -->`,
			},
			notContains: []string{"classDef errored"},
		},
		{
			name: "Ancestral arc is dotted",
			idx: &domain.PrimIndex{
				Root: root,
				Arcs: []domain.Arc{{
					Source:    domain.Site{LayerID: "shot.yaml", Path: "/world"},
					Reference: domain.NewReference("set.json"),
					Status:    domain.ArcResolved,
					Target:    domain.Site{LayerID: "set.json", Path: "/set/chair"},
					Ancestral: true,
				}},
			},
			contains: []string{`-. "@set.json@" .->`},
		},
		{
			name: "Failed arc",
			idx: &domain.PrimIndex{
				Root:    root,
				Entries: []domain.IndexEntry{{Site: root, Transform: domain.IdentityTransform}},
				Arcs: []domain.Arc{{
					Source:    root,
					Reference: lamp,
					Status:    domain.ArcErrored,
					Error:     "layer not found",
				}},
				Errors: []*domain.CompositionError{{Kind: domain.ErrorLayerNotFound, Site: root, Reference: lamp}},
			},
			contains: []string{
				`[/"lamp.json<br/>"/]`,
				`.-x`,
				"classDef errored",
				"%% LayerNotFound",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(tt.idx)
			for _, want := range tt.contains {
				assert.True(t, strings.Contains(got, want), "expected %q in:\n%s", want, got)
			}
			for _, unwanted := range tt.notContains {
				assert.False(t, strings.Contains(got, unwanted), "unexpected %q in:\n%s", unwanted, got)
			}
		})
	}
}

func TestGenerateMermaid_DeclaresSitesOnce(t *testing.T) {
	root := domain.Site{LayerID: "a.json", Path: "/a"}
	idx := &domain.PrimIndex{
		Root:    root,
		Entries: []domain.IndexEntry{{Site: root}},
		Arcs: []domain.Arc{
			{Source: root, Reference: domain.NewReference(""), Status: domain.ArcResolved, Target: domain.Site{LayerID: "a.json", Path: "/b"}},
			{Source: root, Reference: domain.NewReference("", domain.WithTargetPath("/b")), Status: domain.ArcResolved, Target: domain.Site{LayerID: "a.json", Path: "/b"}},
		},
	}
	got := graph.GenerateMermaid(idx)
	assert.Equal(t, 1, strings.Count(got, `["a.json<br/>/b"]`))
}
