package vfs

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type countingObserver struct {
	hits        int
	misses      int
	fills       int
	invalidates int
}

func (o *countingObserver) Hit(string)        { o.hits++ }
func (o *countingObserver) Miss(string)       { o.misses++ }
func (o *countingObserver) Fill(string)       { o.fills++ }
func (o *countingObserver) Invalidate(string) { o.invalidates++ }

func setupCachedStore(t *testing.T, namespace string) (Store, *countingObserver, *miniredis.Miniredis) {
	t.Helper()

	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { client.Close() })

	observer := &countingObserver{}
	inner := NewDatastoreBackedStore(setupTestDB(t), namespace)
	store := NewCachedStore(inner, namespace, client, CacheConfig{
		Enabled:  true,
		TTL:      time.Minute,
		Observer: observer,
	}, zerolog.Nop())
	return store, observer, server
}

func TestCachedStoreReadThrough(t *testing.T) {
	store, observer, _ := setupCachedStore(t, "ns_cache_read")
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "/doc.txt", []byte("v1"), PutOptions{IsDraft: true}))

	entity, err := store.Get(ctx, "/doc.txt")
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), entity.Data)
	require.Equal(t, 1, observer.misses)
	require.Equal(t, 1, observer.fills)

	entity, err = store.Get(ctx, "/doc.txt")
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), entity.Data)
	require.True(t, entity.Metadata.IsDraft, "metadata survives the cache round trip")
	require.Equal(t, 1, observer.hits)
	require.Equal(t, 1, observer.misses, "second read must come from cache")
}

func TestCachedStoreWriteInvalidates(t *testing.T) {
	store, observer, _ := setupCachedStore(t, "ns_cache_inval")
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "/doc.txt", []byte("v1"), PutOptions{}))
	_, err := store.Get(ctx, "/doc.txt")
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, "/doc.txt", []byte("v2"), PutOptions{}))

	// A read after the write acknowledges may never see the old bytes.
	entity, err := store.Get(ctx, "/doc.txt")
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), entity.Data)
	require.GreaterOrEqual(t, observer.invalidates, 2)
}

func TestCachedStoreDeleteInvalidates(t *testing.T) {
	store, _, _ := setupCachedStore(t, "ns_cache_del")
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "/doc.txt", []byte("v1"), PutOptions{}))
	_, err := store.Get(ctx, "/doc.txt")
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "/doc.txt"))

	entity, err := store.Get(ctx, "/doc.txt")
	require.NoError(t, err)
	require.Nil(t, entity)
}

func TestCachedStoreSkipsAbsentEntities(t *testing.T) {
	store, observer, _ := setupCachedStore(t, "ns_cache_absent")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		entity, err := store.Get(ctx, "/missing.txt")
		require.NoError(t, err)
		require.Nil(t, entity)
	}
	require.Equal(t, 2, observer.misses, "absent paths are not negatively cached")
	require.Equal(t, 0, observer.fills)
}

func TestCachedStoreEntriesExpire(t *testing.T) {
	store, observer, server := setupCachedStore(t, "ns_cache_ttl")
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "/doc.txt", []byte("v1"), PutOptions{}))
	_, err := store.Get(ctx, "/doc.txt")
	require.NoError(t, err)

	server.FastForward(2 * time.Minute)

	_, err = store.Get(ctx, "/doc.txt")
	require.NoError(t, err)
	require.Equal(t, 2, observer.misses, "an evicted entry costs a miss, nothing else")
}

func TestNewCachedStoreDisabledReturnsInner(t *testing.T) {
	inner := NewDatastoreBackedStore(setupTestDB(t), "ns_cache_off")

	store := NewCachedStore(inner, "ns_cache_off", nil, CacheConfig{Enabled: true}, zerolog.Nop())
	require.Same(t, inner, store, "no redis client means no cache layer")

	store = NewCachedStore(inner, "ns_cache_off", redis.NewClient(&redis.Options{}), CacheConfig{Enabled: false}, zerolog.Nop())
	require.Same(t, inner, store, "feature flag off means no cache layer")
}
