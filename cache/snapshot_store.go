package cache

import (
	"context"
	"errors"
	"fmt"

	"soundmap/model"
	"soundmap/repository"

	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"
)

const snapshotKey = "soundmap:snapshot:latest"

// SnapshotStore 把最新快照整体存成一个 Redis 字符串，不设过期
type SnapshotStore struct {
	client *redis.Client
}

// NewSnapshotStore 创建 Redis 快照仓库
func NewSnapshotStore(client *redis.Client) *SnapshotStore {
	return &SnapshotStore{client: client}
}

func (s *SnapshotStore) Name() string { return "redis" }

func (s *SnapshotStore) Save(ctx context.Context, snap *model.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := s.client.Set(ctx, snapshotKey, data, 0).Err(); err != nil {
		return fmt.Errorf("store snapshot: %w", err)
	}
	return nil
}

func (s *SnapshotStore) Load(ctx context.Context) (*model.Snapshot, error) {
	data, err := s.client.Get(ctx, snapshotKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap.Normalize(), nil
}
