package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/strata/pkg/adapters/redis"
	"github.com/aretw0/strata/pkg/domain"
	"github.com/aretw0/strata/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, opts ...redis.Option) (*redis.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	store := redis.NewFromClient(client, opts...)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestRedisStore_Contract(t *testing.T) {
	store, _ := newStore(t)
	ports.RunAssetStoreContract(t, store)
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	store, mr := newStore(t, redis.WithTTL(1*time.Second))
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, "shot.json", []byte("{}")))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, "shot.json")

	mr.FastForward(2 * time.Second)

	_, err = store.Read(ctx, "shot.json")
	assert.ErrorIs(t, err, domain.ErrAssetNotFound)

	// The index is pruned against wall-clock time.
	time.Sleep(1200 * time.Millisecond)

	ids, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRedisStore_Prefix(t *testing.T) {
	store, mr := newStore(t, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, "set.yaml", []byte("prims: {}")))

	assert.True(t, mr.Exists("custom:app:set.yaml"), "Expected key with custom prefix to exist")
	assert.True(t, mr.Exists("custom:app:index"), "Expected index with custom prefix to exist")

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"set.yaml"}, ids)
}

func TestRedisStore_Watch(t *testing.T) {
	store, _ := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := store.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, store.Write(ctx, "a.json", []byte("{}")))
	require.NoError(t, store.Delete(ctx, "a.json"))

	for _, want := range []string{"a.json", "a.json"} {
		select {
		case id := <-events:
			assert.Equal(t, want, id)
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for change notification")
		}
	}

	cancel()
	for range events {
	}
}
