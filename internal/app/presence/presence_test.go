package presence

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatgrid/internal/app/room"
)

func TestKey(t *testing.T) {
	id := room.Identity{Kind: room.KindGroup, Name: "alice-group-team"}
	assert.Equal(t, "presence:group:alice-group-team", Key(id))
}

// TestRedisStoreLifecycle exercises the store against a real Redis when
// REDIS_URL is set; CI without one skips it.
func TestRedisStoreLifecycle(t *testing.T) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not set")
	}

	ctx := context.Background()

	store, err := NewRedisStore(ctx, redisURL)
	require.NoError(t, err)
	defer store.Close()

	id := room.Identity{Kind: room.KindGlobal, Name: "presence-test"}

	require.NoError(t, store.Add(ctx, id, "u1"))
	require.NoError(t, store.Add(ctx, id, "u1"), "adding twice is idempotent")
	require.NoError(t, store.Add(ctx, id, "u2"))

	count, err := store.Count(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	require.NoError(t, store.Remove(ctx, id, "u1"))
	require.NoError(t, store.Remove(ctx, id, "u1"), "removing twice is idempotent")

	count, err = store.Count(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, store.Remove(ctx, id, "u2"))
}
