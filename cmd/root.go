package cmd

import (
	"fmt"
	"os"

	"soundmap/config"
	"soundmap/logger"

	"github.com/spf13/cobra"
)

// cfg 在任何子命令执行前加载
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "soundmap",
	Short: "SoundCloud 听众地理分布采集与查询",
	Long:  `采集 SoundCloud Insights 的曲目与听众地理数据，生成快照，并通过只读 HTTP API 提供查询。`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		logger.InitLogger(logger.Config{
			Level:      logger.ParseLevel(cfg.LogLevel),
			OutputPath: cfg.LogFile,
		})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
	SilenceUsage: true,
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
