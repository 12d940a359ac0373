package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// CheckpointStore persists the per-owner inbound sync cursor. Without one
// the inbound worker falls back to full inbox scans, which still works
// because processing is idempotent, it just refetches more.
type CheckpointStore interface {
	Get(ctx context.Context, ownerID uint) (string, error)
	Set(ctx context.Context, ownerID uint, cursor string) error
}

type RedisCheckpointStore struct {
	client *redis.Client
}

func NewRedisCheckpointStore(client *redis.Client) *RedisCheckpointStore {
	return &RedisCheckpointStore{client: client}
}

func checkpointKey(ownerID uint) string {
	return fmt.Sprintf("inbound:cursor:%d", ownerID)
}

func (s *RedisCheckpointStore) Get(ctx context.Context, ownerID uint) (string, error) {
	cursor, err := s.client.Get(ctx, checkpointKey(ownerID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return cursor, err
}

func (s *RedisCheckpointStore) Set(ctx context.Context, ownerID uint, cursor string) error {
	return s.client.Set(ctx, checkpointKey(ownerID), cursor, 0).Err()
}
