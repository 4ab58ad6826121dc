package validator

import (
	"context"
	"testing"

	"github.com/aretw0/strata/pkg/adapters/memory"
	"github.com/aretw0/strata/pkg/domain"
	"github.com/aretw0/strata/pkg/format"
	"github.com/aretw0/strata/pkg/registry"
	"github.com/aretw0/strata/pkg/stage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStage(t *testing.T, docs map[string]string, root string) *stage.Stage {
	t.Helper()
	reg := registry.New(registry.WithSource(format.NewStoreSource(memory.NewStoreFrom(docs), nil)))
	t.Cleanup(func() { _ = reg.Close() })
	st, err := stage.Open(context.Background(), reg, root)
	require.NoError(t, err)
	t.Cleanup(st.Close)
	return st
}

func TestValidateStage(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		st := openStage(t, map[string]string{
			"asset.json": `{"default_target": "chair", "prims": {"/chair": {}}}`,
			"shot.json":  `{"prims": {"/world": {}, "/world/chair": {"references": [{"identifier": "asset.json"}]}}}`,
		}, "shot.json")

		report := ValidateStage(context.Background(), st)
		assert.True(t, report.OK())
		assert.NoError(t, report.Err())
		assert.Equal(t, []domain.Path{"/world", "/world/chair"}, report.Prims)
		assert.ElementsMatch(t, []string{"shot.json", "asset.json"}, report.Layers)
	})

	t.Run("Broken arcs", func(t *testing.T) {
		st := openStage(t, map[string]string{
			"nodefault.json": `{"prims": {"/chair": {}}}`,
			"shot.json": `{"prims": {
				"/missing": {"references": [{"identifier": "gone.json"}]},
				"/nodefault": {"references": [{"identifier": "nodefault.json"}]}
			}}`,
		}, "shot.json")

		report := ValidateStage(context.Background(), st)
		require.False(t, report.OK())
		require.Len(t, report.Issues, 2)

		kinds := []domain.ErrorKind{report.Issues[0].Kind, report.Issues[1].Kind}
		assert.ElementsMatch(t, []domain.ErrorKind{domain.ErrorLayerNotFound, domain.ErrorNoDefaultTarget}, kinds)

		err := report.Err()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "found 2 errors in shot.json")
	})
}
