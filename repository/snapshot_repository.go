package repository

import (
	"context"
	"errors"

	"soundmap/model"
)

// ErrSnapshotNotFound 后端中还没有任何快照
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotRepository 快照持久化接口
//
// Save replaces the latest snapshot as a whole; Load returns the latest one or
// ErrSnapshotNotFound. Implementations must round-trip the JSON shape exactly.
type SnapshotRepository interface {
	Name() string
	Save(ctx context.Context, s *model.Snapshot) error
	Load(ctx context.Context) (*model.Snapshot, error)
}

// LoadOrEmpty loads the latest snapshot and substitutes the empty snapshot
// when none exists yet. Other errors are returned as is.
func LoadOrEmpty(ctx context.Context, repo SnapshotRepository) (*model.Snapshot, error) {
	s, err := repo.Load(ctx)
	if errors.Is(err, ErrSnapshotNotFound) {
		return model.EmptySnapshot(), nil
	}
	if err != nil {
		return nil, err
	}
	return s.Normalize(), nil
}
