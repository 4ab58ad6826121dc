package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/strata/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunAssetStoreContract runs a suite of tests to verify that an AssetStore implementation
// adheres to the defined interface contract.
func RunAssetStoreContract(t *testing.T, store AssetStore) {
	ctx := context.Background()
	prefix := "contract-" + time.Now().Format("20060102150405")

	t.Run("Write and Read", func(t *testing.T) {
		id := prefix + "/scene.json"
		data := []byte(`{"default_target":"root"}`)

		err := store.Write(ctx, id, data)
		require.NoError(t, err, "Write should not return error")

		loaded, err := store.Read(ctx, id)
		require.NoError(t, err, "Read should not return error")
		assert.Equal(t, data, loaded)
	})

	t.Run("Overwrite", func(t *testing.T) {
		id := prefix + "/over.yaml"
		require.NoError(t, store.Write(ctx, id, []byte("a: 1")))
		require.NoError(t, store.Write(ctx, id, []byte("a: 2")))

		loaded, err := store.Read(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "a: 2", string(loaded))
	})

	t.Run("Read Non-Existent", func(t *testing.T) {
		_, err := store.Read(ctx, prefix+"/missing.json")
		assert.ErrorIs(t, err, domain.ErrAssetNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		id := prefix + "/gone.json"
		require.NoError(t, store.Write(ctx, id, []byte("{}")))

		err := store.Delete(ctx, id)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Read(ctx, id)
		assert.ErrorIs(t, err, domain.ErrAssetNotFound, "Read after Delete should return ErrAssetNotFound")

		assert.NoError(t, store.Delete(ctx, id), "Deleting twice should not fail")
	})

	t.Run("List", func(t *testing.T) {
		id1 := prefix + "/list-1.json"
		id2 := prefix + "/list-2.toml"
		require.NoError(t, store.Write(ctx, id1, []byte("{}")))
		require.NoError(t, store.Write(ctx, id2, []byte("")))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
