/*
Package presence tracks who is currently connected to each room.

The state is a Redis set per room, keyed presence:<kind>:<name>, so every
server process observes the same count and a process restart loses nothing.
Add and Remove are idempotent by set semantics; Count reflects all completed
calls that preceded it. Entries left behind by a crashed process linger until
its disconnect handling runs or the operator clears the key; the design
accepts eventual rather than instantaneous correction.
*/
package presence

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"chatgrid/internal/app/room"
)

// RedisStore is the Redis-backed presence set.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// Key returns the Redis key holding a room's presence set.
func Key(id room.Identity) string {
	return fmt.Sprintf("presence:%s:%s", id.Kind, id.Name)
}

// Add marks a user as present in a room. Adding twice is a no-op.
func (s *RedisStore) Add(ctx context.Context, id room.Identity, userID string) error {
	return s.client.SAdd(ctx, Key(id), userID).Err()
}

// Remove marks a user as gone. Removing an absent user is a no-op.
func (s *RedisStore) Remove(ctx context.Context, id room.Identity, userID string) error {
	return s.client.SRem(ctx, Key(id), userID).Err()
}

// Count returns the number of distinct users present in a room.
func (s *RedisStore) Count(ctx context.Context, id room.Identity) (int64, error) {
	return s.client.SCard(ctx, Key(id)).Result()
}

// Close releases the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
