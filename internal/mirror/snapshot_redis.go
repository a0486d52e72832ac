package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisSnapshotKey = "provenant:mirror:snapshot"

// RedisSnapshotStore persists the snapshot as one JSON value in redis, for
// deployments where the dashboard process has no durable disk.
type RedisSnapshotStore struct {
	client *redis.Client
}

// NewRedisSnapshotStore builds a redis-backed snapshot store.
func NewRedisSnapshotStore(client *redis.Client) *RedisSnapshotStore {
	return &RedisSnapshotStore{client: client}
}

func (s *RedisSnapshotStore) Save(ctx context.Context, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.client.Set(ctx, redisSnapshotKey, data, 0).Err(); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot value. A missing key loads as an empty snapshot.
func (s *RedisSnapshotStore) Load(ctx context.Context) (Snapshot, error) {
	data, err := s.client.Get(ctx, redisSnapshotKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Snapshot{}, nil
		}
		return Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("parse snapshot: %w", err)
	}
	return snap, nil
}
