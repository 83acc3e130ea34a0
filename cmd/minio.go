package cmd

import (
	"fmt"

	"soundmap/storage"

	"github.com/spf13/cobra"
)

var minioShow string

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "查看 MinIO 中保存的快照",
	Long:  `列出存储桶中 snapshots/ 下的所有快照对象和统计信息，或查看某个快照的概要。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "MinIO配置: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		client, err := storage.NewMinioClient(cfg)
		if err != nil {
			return err
		}
		store := storage.NewSnapshotStore(client, cfg.MinioBucket, cfg.MinioRegion)
		ctx := cmd.Context()

		if minioShow != "" {
			snap, err := store.LoadKey(ctx, minioShow)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\n%s\n", minioShow)
			fmt.Fprintf(out, "  id:        %s\n", snap.SnapshotID())
			if snap.Meta != nil {
				fmt.Fprintf(out, "  generated: %s (%s)\n", snap.Meta.GeneratedAt.Format("2006-01-02 15:04:05"), snap.Meta.Window)
			}
			fmt.Fprintf(out, "  tracks: %d, countries: %d, cities: %d\n",
				len(snap.Tracks), len(snap.Aggregate.Countries), len(snap.Aggregate.Cities))
			return nil
		}

		objects, stats, err := store.ListSnapshots(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "\n快照对象:")
		for _, obj := range objects {
			fmt.Fprintf(out, "  %-50s %10s  %s\n", obj.Key, storage.FormatSize(obj.Size),
				obj.LastModified.Format("2006-01-02 15:04:05"))
		}
		fmt.Fprintf(out, "\n总对象数: %d\n", stats.TotalObjects)
		fmt.Fprintf(out, "总大小: %s\n", storage.FormatSize(stats.TotalSize))
		if !stats.LastModified.IsZero() {
			fmt.Fprintf(out, "最后修改时间: %s\n", stats.LastModified.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)
	minioCmd.Flags().StringVar(&minioShow, "show", "", "查看指定对象中的快照，如 snapshots/latest.json")

	minioCmd.Example = `  # 列出所有快照
  soundmap minio

  # 查看最新快照概要
  soundmap minio --show snapshots/latest.json`
}
