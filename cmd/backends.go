package cmd

import (
	"context"
	"fmt"

	"soundmap/cache"
	"soundmap/config"
	"soundmap/db"
	"soundmap/logger"
	"soundmap/repository"
	"soundmap/storage"
)

// openBackends 按 SNAPSHOT_BACKENDS 的顺序打开快照仓库。
// 返回的 closeAll 关闭所有已建立的连接，出错时也已经调用过。
func openBackends(ctx context.Context, cfg *config.Config) ([]repository.SnapshotRepository, func(), error) {
	var (
		repos   []repository.SnapshotRepository
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	for _, name := range cfg.SnapshotBackends {
		repo, closer, err := openBackend(ctx, cfg, name)
		if err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("open %s backend: %w", name, err)
		}
		if closer != nil {
			closers = append(closers, closer)
		}
		repos = append(repos, repo)
		logger.Info("[Backend] opened", logger.String("backend", name))
	}
	return repos, closeAll, nil
}

func openBackend(ctx context.Context, cfg *config.Config, name string) (repository.SnapshotRepository, func(), error) {
	switch name {
	case config.BackendFile:
		return repository.NewFileSnapshotRepository(cfg.SnapshotPath), nil, nil

	case config.BackendMySQL:
		gdb, err := db.ConnectGormDB(cfg)
		if err != nil {
			return nil, nil, err
		}
		if err := db.AutoMigrate(gdb); err != nil {
			db.CloseGormDB(gdb)
			return nil, nil, err
		}
		return repository.NewGormSnapshotRepository(gdb), func() { db.CloseGormDB(gdb) }, nil

	case config.BackendRedis:
		client, err := cache.ConnectRedis(cfg)
		if err != nil {
			return nil, nil, err
		}
		return cache.NewSnapshotStore(client), func() { client.Close() }, nil

	case config.BackendMinio:
		client, err := storage.NewMinioClient(cfg)
		if err != nil {
			return nil, nil, err
		}
		store := storage.NewSnapshotStore(client, cfg.MinioBucket, cfg.MinioRegion)
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	}
	return nil, nil, fmt.Errorf("unknown snapshot backend %q", name)
}
