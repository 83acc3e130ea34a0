package cmd

import (
	"context"

	"soundmap/cache"
	"soundmap/config"
	"soundmap/core/geo"
	"soundmap/core/query"
	"soundmap/logger"
	"soundmap/metrics"
	"soundmap/repository"
	"soundmap/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动只读查询 API",
	Long:  `从 SNAPSHOT_BACKENDS 的第一个后端加载快照，提供 /api/* 查询、/metrics 和快照更新推送。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}

func runServer(ctx context.Context, cfg *config.Config) error {
	if len(cfg.SnapshotBackends) == 0 {
		cfg.SnapshotBackends = []string{config.BackendFile}
	}
	// 只有第一个后端作为读取来源
	source := *cfg
	source.SnapshotBackends = cfg.SnapshotBackends[:1]
	repos, closeAll, err := openBackends(ctx, &source)
	if err != nil {
		return err
	}
	defer closeAll()
	repo := repos[0]

	snap, err := repository.LoadOrEmpty(ctx, repo)
	if err != nil {
		// 快照损坏时仍然启动，返回空数据
		logger.Warn("[Server] snapshot unreadable, serving empty data",
			logger.String("backend", repo.Name()),
			logger.ErrorField(err))
	}
	m := metrics.NewMetrics()
	svc := query.New(snap, geo.Default())
	m.SetSnapshot(len(svc.Snapshot().Tracks), len(svc.Snapshot().Aggregate.Countries), len(svc.Snapshot().Aggregate.Cities))

	var respCache *cache.ResponseCache
	if cfg.CacheTTL > 0 {
		client, err := cache.ConnectRedis(cfg)
		if err != nil {
			logger.Warn("[Server] Redis unavailable, response cache disabled", logger.ErrorField(err))
		} else {
			defer client.Close()
			respCache = cache.NewResponseCache(client, cfg.CacheTTL)
		}
	}

	return server.New(cfg, svc, repo, respCache, m).Start()
}
