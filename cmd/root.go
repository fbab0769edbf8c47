package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/marin-lab/diaspora-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "diaspora-cli",
	Short: "Puerto Rican diaspora statistics pipeline",
	Long:  "Fetches Census ACS, IPUMS, NHGIS, and FRED data on the Puerto Rican diaspora, derives per-state and per-county tables, and renders interactive HTML charts.",
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
