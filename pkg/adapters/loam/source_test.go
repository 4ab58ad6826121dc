package loam

import (
	"context"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/aretw0/strata/internal/dto"
	"github.com/aretw0/strata/internal/testutils"
	"github.com/aretw0/strata/pkg/domain"
	"github.com/aretw0/strata/pkg/layer"
	"github.com/aretw0/strata/pkg/registry"
	"github.com/aretw0/strata/pkg/stage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSource(t *testing.T) (*Source, core.Repository) {
	t.Helper()
	_, repo := testutils.NewLayerRepo(t)
	return New(loam.NewTypedRepository[dto.LayerDocument](repo)), repo
}

func TestSource_OpenFrontmatter(t *testing.T) {
	src, repo := newSource(t)
	ctx := context.Background()

	testutils.SeedLayers(t, repo, map[string]string{
		"props.md": `---
default_target: target1
prims:
  /target1:
    type: Mesh
    attributes:
      attr: {type: double, default: 1.234}
  /target2:
    attributes:
      attr: {type: double, default: 2.345}
---
Shared props for the chair shots.`,
	})

	l, err := src.Open(ctx, "props")
	require.NoError(t, err)
	assert.Equal(t, "target1", l.DefaultTarget())

	v, ok := l.AttributeValue("/target2", "attr")
	require.True(t, ok)
	f, _ := v.AsDouble()
	assert.InDelta(t, 2.345, f, 1e-9)
}

func TestSource_OpenMissing(t *testing.T) {
	src, _ := newSource(t)
	_, err := src.Open(context.Background(), "nowhere")
	assert.ErrorIs(t, err, domain.ErrLayerNotFound)
}

func TestSource_SaveRoundTrip(t *testing.T) {
	src, _ := newSource(t)
	ctx := context.Background()

	l := layer.New("shot", layer.WithDefaultTarget("world"))
	require.NoError(t, l.CreatePrim("/world", domain.SpecifierDef, "Xform"))
	require.NoError(t, l.SetAttribute("/world", "label", "string", domain.String("hero")))
	require.NoError(t, l.AppendReference("/world", domain.NewReference("props", domain.WithTargetPath("/target1"))))

	require.NoError(t, src.Save(ctx, l))

	back, err := src.Open(ctx, "shot")
	require.NoError(t, err)
	assert.Equal(t, "world", back.DefaultTarget())
	assert.Equal(t, l.References("/world"), back.References("/world"))
	v, ok := back.AttributeValue("/world", "label")
	require.True(t, ok)
	assert.Equal(t, domain.String("hero"), v)

	ids, err := src.List(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}

func TestSource_ComposesThroughRegistry(t *testing.T) {
	src, _ := newSource(t)
	ctx := context.Background()

	props := layer.New("props", layer.WithDefaultTarget("target1"))
	require.NoError(t, props.SetAttribute("/target1", "attr", "double", domain.Double(1.234)))
	require.NoError(t, src.Save(ctx, props))

	shot := layer.New("shot")
	require.NoError(t, shot.CreatePrim("/src", domain.SpecifierOver, ""))
	require.NoError(t, shot.AppendReference("/src", domain.NewReference("props")))
	require.NoError(t, src.Save(ctx, shot))

	reg := registry.New(registry.WithSource(src))
	defer reg.Close()

	st, err := stage.Open(ctx, reg, "shot")
	require.NoError(t, err)
	defer st.Close()

	v, ok := st.GetAttributeValue(ctx, "/src", "attr")
	require.True(t, ok)
	f, _ := v.AsDouble()
	assert.InDelta(t, 1.234, f, 1e-9)
}
