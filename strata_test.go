package strata_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/strata"
	"github.com/aretw0/strata/pkg/adapters/memory"
	"github.com/aretw0/strata/pkg/domain"
	"github.com/aretw0/strata/pkg/format"
	"github.com/aretw0/strata/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const assetDoc = `{
  "default_target": "chair",
  "prims": {
    "/chair": {"attributes": {"height": {"type": "double", "default": 1.5}}},
    "/table": {"attributes": {"height": {"type": "double", "default": 0.8}}}
  }
}`

const shotDoc = `
prims:
  /world:
    type: Xform
  /world/chair:
    references:
      - identifier: asset.json
`

// watchStore is a memory store whose change feed is driven by the test.
type watchStore struct {
	*memory.Store
	changes chan string
}

func (s *watchStore) Watch(ctx context.Context) (<-chan string, error) {
	return s.changes, nil
}

func newEngine(t *testing.T, opts ...strata.Option) (*strata.Engine, *memory.Store) {
	t.Helper()
	store := memory.NewStoreFrom(map[string]string{
		"asset.json": assetDoc,
		"shot.yaml":  shotDoc,
	})
	eng, err := strata.New("scene", append([]strata.Option{strata.WithAssetStore(store)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })
	return eng, store
}

func TestNew_RequiresDirWithoutSource(t *testing.T) {
	_, err := strata.New("")
	assert.Error(t, err)
}

func TestEngine_CompositionService(t *testing.T) {
	eng, _ := newEngine(t)
	ctx := context.Background()

	assert.Equal(t, "scene", eng.Name)

	exists, err := eng.NodeExists(ctx, "shot.yaml", "/world/chair")
	require.NoError(t, err)
	assert.True(t, exists)

	v, found, err := eng.AttributeValue(ctx, "shot.yaml", "/world/chair", "height")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, domain.Double(1.5), v)

	idx, err := eng.Inspect(ctx, "shot.yaml", "/world/chair")
	require.NoError(t, err)
	assert.Equal(t, []domain.Site{
		{LayerID: "shot.yaml", Path: "/world/chair"},
		{LayerID: "asset.json", Path: "/chair"},
	}, idx.Sites())

	_, err = eng.NodeExists(ctx, "missing.yaml", "/world")
	assert.ErrorIs(t, err, domain.ErrLayerNotFound)
}

func TestEngine_StageCache(t *testing.T) {
	eng, _ := newEngine(t)
	ctx := context.Background()

	first, err := eng.OpenStage(ctx, "shot.yaml")
	require.NoError(t, err)
	second, err := eng.OpenStage(ctx, "shot.yaml")
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, eng.Registry().RefCount("shot.yaml"))

	_, ok := first.GetAttributeValue(ctx, "/world/chair", "height")
	require.True(t, ok)

	mem, err := eng.CreateStageInMemory("scratch")
	require.NoError(t, err)
	assert.Equal(t, []string{mem.ID(), "shot.yaml"}, eng.Stages())
	assert.ElementsMatch(t, []string{"asset.json", "shot.yaml", mem.ID()}, eng.Layers())

	assert.True(t, eng.CloseStage("shot.yaml"))
	assert.False(t, eng.CloseStage("shot.yaml"))
	assert.Equal(t, 0, eng.Registry().RefCount("shot.yaml"))
	assert.Equal(t, []string{mem.ID()}, eng.Stages())
}

func TestEngine_SaveRoundTrip(t *testing.T) {
	eng, store := newEngine(t)
	ctx := context.Background()

	st, err := eng.OpenStage(ctx, "asset.json")
	require.NoError(t, err)
	require.NoError(t, st.GetPrim("/chair").SetAttribute("height", "double", domain.Double(2)))
	require.NoError(t, eng.Save(ctx, "asset.json"))

	data, err := store.Read(ctx, "asset.json")
	require.NoError(t, err)
	reparsed, err := format.Default().Parse("asset.json", data)
	require.NoError(t, err)
	spec, ok := reparsed.Prim("/chair")
	require.True(t, ok)
	assert.Equal(t, domain.Double(2), *spec.Attributes["height"].Default)
}

func TestEngine_WatchReloadsAndAnnounces(t *testing.T) {
	base := memory.NewStoreFrom(map[string]string{
		"asset.json": assetDoc,
		"shot.yaml":  shotDoc + "  /world/lamp:\n    references:\n      - identifier: lamp.json\n",
	})
	store := &watchStore{Store: base, changes: make(chan string, 4)}
	eng, err := strata.New("", strata.WithAssetStore(store))
	require.NoError(t, err)
	defer eng.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := eng.OpenStage(ctx, "shot.yaml")
	require.NoError(t, err)
	require.Len(t, st.Diagnostics(ctx), 1)

	changed, err := eng.Watch(ctx)
	require.NoError(t, err)

	// A held layer is reloaded in place.
	require.NoError(t, base.Write(ctx, "asset.json", []byte(`{
  "default_target": "table",
  "prims": {
    "/chair": {"attributes": {"height": {"type": "double", "default": 1.5}}},
    "/table": {"attributes": {"height": {"type": "double", "default": 0.8}}}
  }
}`)))
	store.changes <- "asset.json"
	select {
	case id := <-changed:
		assert.Equal(t, "asset.json", id)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for asset.json")
	}
	v, ok := st.GetAttributeValue(ctx, "/world/chair", "height")
	require.True(t, ok)
	assert.Equal(t, domain.Double(0.8), v)

	// A layer nobody could open is announced once it appears.
	require.NoError(t, base.Write(ctx, "lamp.json", []byte(`{
  "default_target": "lamp",
  "prims": {"/lamp": {"attributes": {"watts": {"type": "int", "default": 60}}}}
}`)))
	store.changes <- "lamp.json"
	select {
	case id := <-changed:
		assert.Equal(t, "lamp.json", id)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for lamp.json")
	}
	v, ok = st.GetAttributeValue(ctx, "/world/lamp", "watts")
	require.True(t, ok)
	assert.Equal(t, domain.Int(60), v)
	assert.Empty(t, st.Diagnostics(ctx))
}

func TestEngine_WatchUnsupported(t *testing.T) {
	eng, _ := newEngine(t)
	_, err := eng.Watch(context.Background())
	assert.Error(t, err)
}

func TestEngine_Metrics(t *testing.T) {
	promReg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(promReg)
	require.NoError(t, err)

	eng, _ := newEngine(t, strata.WithMetrics(m), strata.WithMaxDepth(8))
	ctx := context.Background()

	_, _, err = eng.AttributeValue(ctx, "shot.yaml", "/world/chair", "height")
	require.NoError(t, err)

	n, err := testutil.GatherAndCount(promReg, "strata_index_builds_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
