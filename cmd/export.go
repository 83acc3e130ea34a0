package cmd

import (
	"errors"
	"fmt"

	"soundmap/config"
	"soundmap/export"
	"soundmap/repository"

	"github.com/spf13/cobra"
)

var (
	exportDir  string
	exportFrom string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "把已保存的快照导出为 CSV",
	Long: `从快照后端读取最新快照并写出 soundcloud_countries.csv、soundcloud_cities.csv、
soundcloud_top_tracks.csv。快照中只保存了逐曲目上限内的曲目，曲目表以此为准。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		source := *cfg
		if exportFrom != "" {
			source.SnapshotBackends = []string{exportFrom}
		} else if len(cfg.SnapshotBackends) > 0 {
			source.SnapshotBackends = cfg.SnapshotBackends[:1]
		} else {
			source.SnapshotBackends = []string{config.BackendFile}
		}

		ctx := cmd.Context()
		repos, closeAll, err := openBackends(ctx, &source)
		if err != nil {
			return err
		}
		defer closeAll()

		snap, err := repos[0].Load(ctx)
		if errors.Is(err, repository.ErrSnapshotNotFound) {
			return fmt.Errorf("no snapshot in %s yet, run `soundmap collect` first", repos[0].Name())
		}
		if err != nil {
			return fmt.Errorf("load snapshot from %s: %w", repos[0].Name(), err)
		}

		dir := exportDir
		if dir == "" {
			dir = cfg.ExportDir
		}
		paths, err := export.WriteAll(dir, export.FromSnapshot(snap))
		for _, p := range paths {
			fmt.Fprintf(cmd.OutOrStdout(), "   ✓ %s\n", p)
		}
		return err
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportDir, "dir", "", "输出目录（默认 EXPORT_DIR）")
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "读取的后端: file, mysql, redis, minio（默认第一个配置的后端）")
	rootCmd.AddCommand(exportCmd)
}
