package repository

import (
	"context"
	"errors"
	"fmt"

	"soundmap/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSnapshotRepository 在 MySQL 中按运行保存快照，读取时取最新一条
type GormSnapshotRepository struct {
	db *gorm.DB
}

// NewGormSnapshotRepository 创建 GORM 快照仓库
func NewGormSnapshotRepository(db *gorm.DB) *GormSnapshotRepository {
	return &GormSnapshotRepository{db: db}
}

func (r *GormSnapshotRepository) Name() string { return "mysql" }

// Save 插入一行；快照没有 meta 时生成新 ID
func (r *GormSnapshotRepository) Save(ctx context.Context, s *model.Snapshot) error {
	rec := model.SnapshotRecord{
		ID:         s.SnapshotID(),
		TrackCount: len(s.Tracks),
		Payload:    model.SnapshotPayload{Snapshot: s},
	}
	if s.Meta != nil {
		rec.GeneratedAt = s.Meta.GeneratedAt
		rec.Window = s.Meta.Window
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.GeneratedAt.IsZero() {
		rec.GeneratedAt = r.db.NowFunc()
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("insert snapshot %s: %w", rec.ID, err)
	}
	return nil
}

// Load 获取最新快照
func (r *GormSnapshotRepository) Load(ctx context.Context) (*model.Snapshot, error) {
	var rec model.SnapshotRecord
	err := r.db.WithContext(ctx).
		Order("generated_at DESC").
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("query latest snapshot: %w", err)
	}
	if rec.Payload.Snapshot == nil {
		return nil, fmt.Errorf("snapshot %s has an empty payload", rec.ID)
	}
	return rec.Payload.Snapshot.Normalize(), nil
}

// GetByID 根据ID获取快照
func (r *GormSnapshotRepository) GetByID(ctx context.Context, id string) (*model.Snapshot, error) {
	var rec model.SnapshotRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSnapshotNotFound
		}
		return nil, err
	}
	return rec.Payload.Snapshot.Normalize(), nil
}

// ListRecent 列出最近的快照（不含 payload）
func (r *GormSnapshotRepository) ListRecent(ctx context.Context, limit int) ([]model.SnapshotRecord, error) {
	var recs []model.SnapshotRecord
	err := r.db.WithContext(ctx).
		Select("id", "generated_at", "time_window", "track_count", "created_at").
		Order("generated_at DESC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}
