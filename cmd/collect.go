package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"soundmap/config"
	"soundmap/core/insights"
	"soundmap/core/pipeline"
	"soundmap/export"
	"soundmap/logger"
	"soundmap/metrics"
	"soundmap/repository"

	"github.com/fatih/color"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var (
	collectCSV         bool
	collectMetricsFile string
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "运行一次采集并写入快照",
	Long: `依次检查身份、拉取热门曲目、账号整体与逐曲目的国家/城市分布，
组装快照并写入 SNAPSHOT_BACKENDS 中的全部后端。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runCollect(ctx, cfg, cmd.OutOrStdout())
	},
}

func init() {
	collectCmd.Flags().BoolVar(&collectCSV, "csv", false, "同时在 EXPORT_DIR 写出 CSV")
	collectCmd.Flags().StringVar(&collectMetricsFile, "metrics-textfile", "", "运行结束后把指标写入该文件（node_exporter textfile 格式）")
	rootCmd.AddCommand(collectCmd)
}

func runCollect(ctx context.Context, cfg *config.Config, out io.Writer) error {
	m := metrics.NewMetrics()
	client := insights.NewClient(cfg.GraphQLURL, cfg.OAuthToken, logger.L())
	client.SetTimeout(cfg.RequestTimeout)
	client.SetMetrics(m)

	repos, closeAll, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeAll()

	sinks := lo.Map(repos, func(r repository.SnapshotRepository, _ int) pipeline.Sink { return r })
	runner := pipeline.NewRunner(client, pipeline.Options{
		Window:      cfg.Window,
		TrackLimit:  cfg.TrackLimit,
		GeoLimit:    cfg.GeoLimit,
		PerTrackCap: cfg.PerTrackCap,
		Cooldown:    cfg.Cooldown,
	}, logger.L(), sinks...)
	runner.SetMetrics(m)

	res, runErr := runner.Run(ctx)
	if collectMetricsFile != "" {
		if err := m.WriteTextfile(collectMetricsFile); err != nil {
			logger.Warn("[Collect] write metrics textfile failed", logger.ErrorField(err))
		}
	}
	if res == nil {
		color.New(color.FgRed).Fprintf(out, "采集失败: %v\n", runErr)
		return runErr
	}

	if collectCSV {
		paths, err := export.WriteAll(cfg.ExportDir, export.Data{
			Countries: res.Snapshot.Aggregate.Countries,
			Cities:    res.Snapshot.Aggregate.Cities,
			Tracks:    res.AllTracks,
		})
		for _, p := range paths {
			fmt.Fprintf(out, "   ✓ %s\n", p)
		}
		if err != nil {
			runErr = errors.Join(runErr, err)
		}
	}

	printReport(out, res)
	if runErr != nil {
		color.New(color.FgYellow).Fprintf(out, "快照已生成，但部分写入失败: %v\n", runErr)
	}
	return runErr
}

// printReport 打印运行摘要和前 5 首曲目
func printReport(out io.Writer, res *pipeline.Result) {
	snap := res.Snapshot
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	line := strings.Repeat("=", 55)

	if snap.User != nil {
		fmt.Fprintf(out, "👤 %s (followers %d, pro %t)\n", snap.User.DisplayName(), snap.User.FollowersCount, snap.User.IsPro)
	}

	fmt.Fprintln(out, line)
	green.Fprintln(out, "✅ COMPLETE")
	fmt.Fprintf(out, "   Snapshot: %s\n", snap.SnapshotID())
	fmt.Fprintf(out, "   Tracks with geo data: %d\n", len(snap.Tracks))
	fmt.Fprintf(out, "   Countries: %d\n", len(snap.Aggregate.Countries))
	fmt.Fprintf(out, "   Cities: %d\n", len(snap.Aggregate.Cities))
	fmt.Fprintf(out, "   Country→Track mappings: %d\n", len(snap.CountryTracks))
	if n := res.PerTrack.CountryFailures + res.PerTrack.CityFailures; n > 0 {
		color.New(color.FgYellow).Fprintf(out, "   Per-track failures recorded empty: %d\n", n)
	}
	fmt.Fprintf(out, "   Remote calls: %d in %s\n", res.RemoteCalls, res.Duration.Round(time.Millisecond))
	fmt.Fprintln(out, line)

	bold.Fprintln(out, "\n🏆 Top 5 Tracks:")
	for i, t := range lo.Slice(snap.Tracks, 0, 5) {
		top := "N/A"
		if c, ok := t.TopCountry(); ok {
			top = c.Name
		}
		fmt.Fprintf(out, "   %d. %s... - %d plays (top: %s)\n", i+1, truncateTitle(t.Title, 30), t.Plays, top)
	}
}

func truncateTitle(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
