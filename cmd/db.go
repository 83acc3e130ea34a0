package cmd

import (
	"fmt"

	"soundmap/db"
	"soundmap/repository"

	"github.com/spf13/cobra"
)

var dbList int

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "初始化 MySQL 快照表",
	Long:  `连接 MySQL，自动迁移 insights_snapshots 表，并列出最近的快照。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "MySQL配置: %s:%s/%s\n", cfg.DBHost, cfg.DBPort, cfg.DBName)

		gdb, err := db.ConnectGormDB(cfg)
		if err != nil {
			return err
		}
		defer db.CloseGormDB(gdb)

		if err := db.AutoMigrate(gdb); err != nil {
			return err
		}
		fmt.Fprintln(out, "数据表迁移完成")

		if dbList <= 0 {
			return nil
		}
		records, err := repository.NewGormSnapshotRepository(gdb).ListRecent(cmd.Context(), dbList)
		if err != nil {
			return err
		}
		for _, r := range records {
			fmt.Fprintf(out, "  %s  %s  %-8s %d tracks\n", r.ID, r.GeneratedAt.Format("2006-01-02 15:04:05"), r.Window, r.TrackCount)
		}
		return nil
	},
}

func init() {
	dbCmd.Flags().IntVar(&dbList, "list", 10, "列出最近的 N 个快照，0 表示不列出")
	rootCmd.AddCommand(dbCmd)
}
