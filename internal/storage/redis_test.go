package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and a client pointing at it
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() {
		client.Close()
	})

	return client, mr
}

func TestRedis_LoadMissing(t *testing.T) {
	client, _ := setupTestRedis(t)

	_, err := NewRedis(client, "nonexistent").Load(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedis_SaveAndLoad(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()
	st := NewRedis(client, "user123")

	require.NoError(t, st.Save(ctx, `[{"id":"p1"}]`))

	stored, err := mr.Get("cart:user123")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"p1"}]`, stored)
	assert.Equal(t, time.Duration(0), mr.TTL("cart:user123"))

	got, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"p1"}]`, got)
}

func TestRedis_WithTTL(t *testing.T) {
	client, mr := setupTestRedis(t)

	st := NewRedis(client, "user789", WithTTL(15*time.Minute))
	require.NoError(t, st.Save(context.Background(), `[]`))

	assert.Equal(t, 15*time.Minute, mr.TTL("cart:user789"))
}

func TestRedis_ServerDown(t *testing.T) {
	client, mr := setupTestRedis(t)
	mr.Close()

	_, err := NewRedis(client, "user1").Load(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.ErrorContains(t, err, "redis get failed")
}

func TestRedisKey_Format(t *testing.T) {
	assert.Equal(t, "cart:test123", redisKey("test123"))
}
