package compiler

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/strata/pkg/domain"
	"github.com/aretw0/strata/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	raw := map[string]any{
		"default_target": "target1",
		"prims": map[string]any{
			"/target1": map[string]any{
				"type": "Xform",
				"attributes": map[string]any{
					"attr": map[string]any{"type": "double", "default": json.Number("1.234")},
					"decl": map[string]any{"type": "token"},
				},
			},
			"/src": map[string]any{
				"specifier": "over",
				"references": []any{
					map[string]any{"identifier": "b.json", "target_path": "/t", "time_transform": map[string]any{"offset": 2}},
					map[string]any{"target_path": "/target1"},
				},
			},
		},
	}

	l, err := NewParser(WithStrict(true)).Decode("a.json", raw)
	require.NoError(t, err)

	assert.Equal(t, "target1", l.DefaultTarget())
	assert.Equal(t, []domain.Path{"/src", "/target1"}, l.Paths())

	v, ok := l.AttributeValue("/target1", "attr")
	require.True(t, ok)
	assert.True(t, v.Equal(domain.Double(1.234)))

	_, ok = l.AttributeValue("/target1", "decl")
	assert.False(t, ok, "declared attributes without defaults have no value")

	refs := l.References("/src")
	require.Len(t, refs, 2)
	assert.True(t, refs[0].Equal(domain.NewReference("b.json", domain.WithTargetPath("/t"), domain.WithTimeTransform(1, 2))))
	assert.True(t, refs[1].Equal(domain.NewReference("", domain.WithTargetPath("/target1"))))

	src, _ := l.Prim("/src")
	assert.Equal(t, domain.SpecifierOver, src.Specifier)
	tgt, _ := l.Prim("/target1")
	assert.Equal(t, domain.SpecifierDef, tgt.Specifier)
}

func TestDecode_StrictRejectsUnknownKeys(t *testing.T) {
	raw := map[string]any{"prims": map[string]any{}, "extra": true}

	_, err := NewParser(WithStrict(true)).Decode("a.json", raw)
	assert.Error(t, err)

	_, err = NewParser().Decode("a.json", raw)
	assert.NoError(t, err)
}

func TestDecode_AggregatesErrors(t *testing.T) {
	raw := map[string]any{
		"prims": map[string]any{
			"relative": map[string]any{},
			"/a": map[string]any{
				"specifier": "maybe",
				"references": []any{
					map[string]any{"target_path": "nope"},
				},
				"attributes": map[string]any{
					"x": map[string]any{"type": "double", "default": "text"},
				},
			},
		},
	}

	_, err := NewParser().Decode("bad.json", raw)
	require.Error(t, err)
	assert.Len(t, schema.ValidationErrors(err), 4)
}

func TestFlattenRoundTrip(t *testing.T) {
	raw := map[string]any{
		"default_target": "root",
		"prims": map[string]any{
			"/root": map[string]any{
				"attributes": map[string]any{
					"n": map[string]any{"type": "int", "default": 3},
				},
				"references": []any{
					map[string]any{"identifier": "x.yaml", "time_transform": map[string]any{"scale": 2.0, "offset": 0.5}},
				},
			},
		},
	}
	p := NewParser()
	l, err := p.Decode("a.yaml", raw)
	require.NoError(t, err)

	doc, err := p.Flatten(l)
	require.NoError(t, err)
	assert.Equal(t, "root", doc.DefaultTarget)
	require.Contains(t, doc.Prims, "/root")
	assert.Equal(t, int64(3), doc.Prims["/root"].Attributes["n"].Default)
	require.Len(t, doc.Prims["/root"].References, 1)
	assert.Equal(t, 2.0, *doc.Prims["/root"].References[0].TimeTransform.Scale)

	again, err := p.Build("a.yaml", doc)
	require.NoError(t, err)
	assert.Equal(t, l.Paths(), again.Paths())
}
