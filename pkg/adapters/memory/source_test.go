package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/strata/pkg/adapters/memory"
	"github.com/aretw0/strata/pkg/domain"
	"github.com/aretw0/strata/pkg/layer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSource_OpenReturnsFreshCopies(t *testing.T) {
	ctx := context.Background()
	l := layer.New("scene.json")
	require.NoError(t, l.SetDefaultTarget("root"))
	require.NoError(t, l.SetAttribute("/root", "x", "double", domain.Double(1)))

	src := memory.NewSource(l)

	opened, err := src.Open(ctx, "scene.json")
	require.NoError(t, err)
	assert.Equal(t, "root", opened.DefaultTarget())

	require.NoError(t, opened.SetAttribute("/root", "x", "", domain.Double(5)))

	again, err := src.Open(ctx, "scene.json")
	require.NoError(t, err)
	v, _ := again.AttributeValue("/root", "x")
	assert.True(t, v.Equal(domain.Double(1)), "unsaved edits must not leak into new opens")

	require.NoError(t, src.Save(ctx, opened))
	saved, err := src.Open(ctx, "scene.json")
	require.NoError(t, err)
	v, _ = saved.AttributeValue("/root", "x")
	assert.True(t, v.Equal(domain.Double(5)))
}

func TestSource_OpenMissing(t *testing.T) {
	_, err := memory.NewSource().Open(context.Background(), "nope.json")
	assert.ErrorIs(t, err, domain.ErrLayerNotFound)
}
