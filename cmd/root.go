package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/teegee567/nsw-test-stats/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "nsw-test-stats",
	Short: "Attribute NSW driving-test outcomes to service centers",
	Long:  "Geocodes the customer-address areas in the published RTA outcome files, assigns each record to a nearby service center by inverse-distance weighted sampling, and aggregates per-center pass rates.",
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
