package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/beemnet-bee/viplayer/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "viplayer",
	Short: "Healthcare infrastructure planning dashboard",
	Long:  "Orchestrates specialist agents over facility reports: parses documents, discovers facilities from live search, plans resource allocation, and matches staffing placements.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
