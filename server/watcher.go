package server

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"soundmap/core/query"
	"soundmap/logger"
	"soundmap/metrics"
	"soundmap/model"
	"soundmap/repository"

	"github.com/fsnotify/fsnotify"
)

// 文件写完后保持稳定多久才重新加载
const reloadSettle = 200 * time.Millisecond

// Reloader 从仓库读取最新快照并原子替换到查询服务
type Reloader struct {
	repo    repository.SnapshotRepository
	svc     *query.Service
	hub     *Hub
	metrics *metrics.Metrics
}

// NewReloader hub 和 metrics 都可以为 nil
func NewReloader(repo repository.SnapshotRepository, svc *query.Service, hub *Hub, m *metrics.Metrics) *Reloader {
	return &Reloader{repo: repo, svc: svc, hub: hub, metrics: m}
}

// Reload 加载失败时保留当前快照
func (r *Reloader) Reload(ctx context.Context) (*model.Snapshot, error) {
	snap, err := r.repo.Load(ctx)
	if err != nil {
		logger.Warn("[Reloader] load failed, keeping current snapshot",
			logger.String("backend", r.repo.Name()),
			logger.ErrorField(err))
		return nil, fmt.Errorf("reload from %s: %w", r.repo.Name(), err)
	}

	r.svc.Replace(snap)
	r.metrics.SetSnapshot(len(snap.Tracks), len(snap.Aggregate.Countries), len(snap.Aggregate.Cities))
	if r.hub != nil {
		r.hub.NotifyReload(snap)
	}

	logger.Info("[Reloader] snapshot replaced",
		logger.String("backend", r.repo.Name()),
		logger.String("snapshotId", snap.SnapshotID()),
		logger.Int("tracks", len(snap.Tracks)))
	return snap, nil
}

// WatchFile 监听快照文件所在目录，文件稳定后触发 Reload，直到 ctx 结束。
// 监听目录而不是文件本身：快照通过 rename 原子写入，文件 inode 会变。
func (r *Reloader) WatchFile(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	logger.Info("[Reloader] watching snapshot file", logger.String("path", abs))

	var pendingSince time.Time
	checkTicker := time.NewTicker(50 * time.Millisecond)
	defer checkTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				pendingSince = time.Now()
			}

		case <-checkTicker.C:
			if pendingSince.IsZero() || time.Since(pendingSince) < reloadSettle {
				continue
			}
			pendingSince = time.Time{}
			r.Reload(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("[Reloader] watcher error", logger.ErrorField(err))
		}
	}
}
