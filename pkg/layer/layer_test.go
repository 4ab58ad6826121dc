package layer

import (
	"testing"

	"github.com/aretw0/strata/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	begins int
	events []domain.ChangeEvent
}

func (r *recorder) BeginEdit() { r.begins++ }

func (r *recorder) EndEdit(_ *Layer, events []domain.ChangeEvent) {
	r.events = append(r.events, events...)
}

func (r *recorder) kinds() []domain.ChangeKind {
	var out []domain.ChangeKind
	for _, e := range r.events {
		out = append(out, e.Kind)
	}
	return out
}

func TestCreatePrim_CreatesAncestorsAsOver(t *testing.T) {
	l := New("a.json")
	rec := &recorder{}
	l.SetCoordinator(rec)

	require.NoError(t, l.CreatePrim("/world/chair", domain.SpecifierDef, "Xform"))

	world, ok := l.Prim("/world")
	require.True(t, ok)
	assert.Equal(t, domain.SpecifierOver, world.Specifier)

	chair, ok := l.Prim("/world/chair")
	require.True(t, ok)
	assert.Equal(t, domain.SpecifierDef, chair.Specifier)
	assert.Equal(t, "Xform", chair.TypeName)

	assert.Equal(t, []domain.ChangeKind{domain.ChangePrimAdded, domain.ChangePrimAdded}, rec.kinds())
	assert.Equal(t, uint64(1), l.Version())
	for _, e := range rec.events {
		assert.Equal(t, "a.json", e.LayerID)
		assert.Equal(t, uint64(1), e.Version)
	}
}

func TestCreatePrim_RejectsInvalidPath(t *testing.T) {
	l := New("a.json")
	assert.ErrorIs(t, l.CreatePrim("world", domain.SpecifierDef, ""), domain.ErrInvalidPath)
	assert.ErrorIs(t, l.CreatePrim("/", domain.SpecifierDef, ""), domain.ErrInvalidPath)
	assert.Equal(t, uint64(0), l.Version())
}

func TestRemovePrim_RemovesDescendants(t *testing.T) {
	l := New("a.json")
	require.NoError(t, l.CreatePrim("/a/b/c", domain.SpecifierDef, ""))
	require.NoError(t, l.CreatePrim("/ab", domain.SpecifierDef, ""))

	require.NoError(t, l.RemovePrim("/a/b"))
	assert.Equal(t, []domain.Path{"/a", "/ab"}, l.Paths())

	assert.ErrorIs(t, l.RemovePrim("/a/b"), domain.ErrPrimNotFound)
}

func TestSetAttribute(t *testing.T) {
	l := New("a.json")
	rec := &recorder{}
	l.SetCoordinator(rec)

	require.NoError(t, l.SetAttribute("/target1", "attr", "double", domain.Double(1.234)))

	v, ok := l.AttributeValue("/target1", "attr")
	require.True(t, ok)
	assert.True(t, v.Equal(domain.Double(1.234)))
	assert.Equal(t, []domain.ChangeKind{domain.ChangePrimAdded, domain.ChangeAttribute}, rec.kinds())

	// Declared type is kept on overwrite.
	require.NoError(t, l.SetAttribute("/target1", "attr", "", domain.Double(2)))
	assert.ErrorIs(t, l.SetAttribute("/target1", "attr", "", domain.String("x")), domain.ErrInvalidValue)
	assert.ErrorIs(t, l.SetAttribute("/target1", "bad name", "", domain.Int(1)), domain.ErrInvalidIdentifier)

	require.NoError(t, l.ClearAttribute("/target1", "attr"))
	_, ok = l.AttributeValue("/target1", "attr")
	assert.False(t, ok)
}

func TestReferenceListEditing(t *testing.T) {
	l := New("a.json")
	rec := &recorder{}
	l.SetCoordinator(rec)

	ref1 := domain.NewReference("b.json", domain.WithTargetPath("/t"))
	ref2 := domain.NewReference("", domain.WithTargetPath("/u"), domain.WithTimeTransform(2, 1))

	require.NoError(t, l.AppendReference("/src", ref1))
	require.NoError(t, l.AppendReference("/src", ref2))

	refs := l.References("/src")
	require.Len(t, refs, 2)
	assert.True(t, refs[0].Equal(ref1))
	assert.True(t, refs[1].Equal(ref2))

	removed, err := l.RemoveReference("/src", ref1)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = l.RemoveReference("/src", ref1)
	require.NoError(t, err)
	assert.False(t, removed)

	require.NoError(t, l.ClearReferences("/src"))
	assert.Empty(t, l.References("/src"))
	assert.True(t, l.HasPrim("/src"))

	require.NoError(t, l.SetReferences("/src", []domain.Reference{ref2, ref1}))
	assert.Len(t, l.References("/src"), 2)

	assert.ErrorIs(t, l.AppendReference("/src", domain.NewReference("", domain.WithTargetPath("rel"))), domain.ErrInvalidPath)
}

func TestRemoveReference_IdentityTransformMatchesPlain(t *testing.T) {
	l := New("a.json")
	require.NoError(t, l.AppendReference("/src", domain.NewReference("b.json", domain.WithTimeTransform(1, 0))))

	removed, err := l.RemoveReference("/src", domain.NewReference("b.json"))
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Empty(t, l.References("/src"))
}

func TestReferencesAreCopied(t *testing.T) {
	l := New("a.json")
	require.NoError(t, l.AppendReference("/src", domain.NewReference("b.json", domain.WithTimeTransform(1, 5))))

	refs := l.References("/src")
	refs[0].Transform.Offset = 42

	assert.Equal(t, 5.0, l.References("/src")[0].Transform.Offset)
}

func TestDefaultTarget(t *testing.T) {
	l := New("a.json")
	rec := &recorder{}
	l.SetCoordinator(rec)

	require.NoError(t, l.SetDefaultTarget("target1"))
	assert.Equal(t, "target1", l.DefaultTarget())

	require.NoError(t, l.SetDefaultTarget("/target2"))
	assert.Equal(t, "target2", l.DefaultTarget())

	// Same value: no event.
	require.NoError(t, l.SetDefaultTarget("target2"))

	assert.ErrorIs(t, l.SetDefaultTarget("a/b"), domain.ErrInvalidIdentifier)
	assert.ErrorIs(t, l.SetDefaultTarget(""), domain.ErrInvalidIdentifier)

	require.NoError(t, l.ClearDefaultTarget())
	assert.Empty(t, l.DefaultTarget())

	assert.Equal(t, []domain.ChangeKind{
		domain.ChangeDefaultTarget, domain.ChangeDefaultTarget, domain.ChangeDefaultTarget,
	}, rec.kinds())
	assert.Equal(t, uint64(3), l.Version())
}

func TestFailedEditStillEndsEdit(t *testing.T) {
	l := New("a.json")
	rec := &recorder{}
	l.SetCoordinator(rec)

	assert.Error(t, l.RemovePrim("/missing"))
	assert.Equal(t, 1, rec.begins)
	assert.Empty(t, rec.events)
}

func TestReplaceContents(t *testing.T) {
	l := New("a.json", WithDefaultTarget("old"))
	require.NoError(t, l.SetAttribute("/a", "x", "double", domain.Double(1)))
	require.NoError(t, l.CreatePrim("/b", domain.SpecifierDef, ""))

	rec := &recorder{}
	l.SetCoordinator(rec)

	x := domain.Double(2)
	a := domain.NewPrimSpec("/a", domain.SpecifierOver)
	a.Attributes["x"] = domain.AttributeSpec{Name: "x", TypeName: "double", Default: &x}

	require.NoError(t, l.ReplaceContents("new", map[domain.Path]*domain.PrimSpec{"/a": a}))

	assert.Equal(t, []domain.ChangeKind{
		domain.ChangeAttribute, domain.ChangePrimRemoved, domain.ChangeDefaultTarget, domain.ChangeLayerReloaded,
	}, rec.kinds())
	assert.Equal(t, "new", l.DefaultTarget())
	assert.False(t, l.HasPrim("/b"))

	// The caller's map is not aliased.
	x2 := domain.Double(3)
	a.Attributes["x"] = domain.AttributeSpec{Name: "x", TypeName: "double", Default: &x2}
	v, _ := l.AttributeValue("/a", "x")
	assert.True(t, v.Equal(domain.Double(2)))
}

func TestChildNames(t *testing.T) {
	l := New("a.json", WithPrims(
		domain.NewPrimSpec("/w", domain.SpecifierDef),
		domain.NewPrimSpec("/w/b", domain.SpecifierDef),
		domain.NewPrimSpec("/w/a", domain.SpecifierDef),
		domain.NewPrimSpec("/w/a/deep", domain.SpecifierDef),
	))

	assert.Equal(t, []string{"a", "b"}, l.ChildNames("/w"))
	assert.Equal(t, []string{"w"}, l.ChildNames(domain.AbsoluteRoot))
}
