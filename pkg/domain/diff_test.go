package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func specWith(path string, refs []Reference, attrs map[string]Value) *PrimSpec {
	spec := NewPrimSpec(MustParsePath(path), SpecifierDef)
	spec.References = refs
	for name, v := range attrs {
		v := v
		spec.Attributes[name] = AttributeSpec{Name: name, TypeName: v.Kind().String(), Default: &v}
	}
	return spec
}

func TestDiffSpecs(t *testing.T) {
	base := map[Path]*PrimSpec{
		"/a": specWith("/a", nil, map[string]Value{"x": Double(1)}),
		"/b": specWith("/b", []Reference{NewReference("other.json")}, nil),
	}

	tests := []struct {
		name string
		old  map[Path]*PrimSpec
		new  map[Path]*PrimSpec
		want []ChangeEvent
	}{
		{
			name: "No Changes",
			old:  base,
			new:  base,
			want: nil,
		},
		{
			name: "Initial Load (Old is Nil)",
			old:  nil,
			new:  map[Path]*PrimSpec{"/a": base["/a"]},
			want: []ChangeEvent{{Kind: ChangePrimAdded, LayerID: "l", Path: "/a"}},
		},
		{
			name: "Prim Removed",
			old:  base,
			new:  map[Path]*PrimSpec{"/a": base["/a"]},
			want: []ChangeEvent{{Kind: ChangePrimRemoved, LayerID: "l", Path: "/b"}},
		},
		{
			name: "Attribute Modified",
			old:  base,
			new: map[Path]*PrimSpec{
				"/a": specWith("/a", nil, map[string]Value{"x": Double(2)}),
				"/b": base["/b"],
			},
			want: []ChangeEvent{{Kind: ChangeAttribute, LayerID: "l", Path: "/a", Attribute: "x"}},
		},
		{
			name: "Attribute Added and Deleted",
			old:  base,
			new: map[Path]*PrimSpec{
				"/a": specWith("/a", nil, map[string]Value{"y": Int(3)}),
				"/b": base["/b"],
			},
			want: []ChangeEvent{
				{Kind: ChangeAttribute, LayerID: "l", Path: "/a", Attribute: "x"},
				{Kind: ChangeAttribute, LayerID: "l", Path: "/a", Attribute: "y"},
			},
		},
		{
			name: "References Changed",
			old:  base,
			new: map[Path]*PrimSpec{
				"/a": base["/a"],
				"/b": specWith("/b", []Reference{NewReference("other.json", WithTargetPath("/t"))}, nil),
			},
			want: []ChangeEvent{{Kind: ChangeReferences, LayerID: "l", Path: "/b"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DiffSpecs("l", tt.old, tt.new)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChangeKind_AffectsIndex(t *testing.T) {
	assert.False(t, ChangeAttribute.AffectsIndex())
	for _, k := range []ChangeKind{ChangePrimAdded, ChangePrimRemoved, ChangeReferences, ChangeDefaultTarget, ChangeLayerRegistered, ChangeLayerReloaded} {
		assert.True(t, k.AffectsIndex(), k)
	}
}
