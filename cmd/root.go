package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/districting-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "districting-cli",
	Short: "District plan editing sessions against a districtmapping server",
	Long:  "Loads geounit shapefiles into a local index, drives plan editing sessions (select, assign, undo/redo) against a districtmapping server, and journals every committed edit.",
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
