package archive

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisStore(client), mr
}

func TestRedisStore_RoundTrip(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	projects := []Project{
		{ID: "p1", Name: "Museum in Riyadh", Images: []ArchivedImage{{ID: "a", Payload: "x", Kind: KindLiteral}}},
		{ID: "p2", Name: "Library in Oslo", Images: []ArchivedImage{}},
	}
	require.NoError(t, store.Save(ctx, projects))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Museum in Riyadh", got[0].Name)
	assert.Equal(t, "a", got[0].Images[0].ID)
}

func TestRedisStore_MissingKeyLoadsEmpty(t *testing.T) {
	store, _ := setupRedisStore(t)

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRedisStore_CorruptContentLoadsEmpty(t *testing.T) {
	store, mr := setupRedisStore(t)
	require.NoError(t, mr.Set(snapshotKey, "{not json"))

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRedisStore_SaveOverwritesWholeCollection(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, []Project{{ID: "p1"}, {ID: "p2"}}))
	require.NoError(t, store.Save(ctx, []Project{{ID: "p3"}}))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "p3", got[0].ID)
}
