package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/assessment-cli/internal/config"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:     "assessment-cli",
	Short:   "Adaptive business assessment questionnaire and analysis",
	Long:    "Runs adaptive self-assessment sessions, scores answers with a panel of rule-based analyzers, and produces maturity scores, alerts and tiered recommendations.",
	Version: version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		if level, _ := cmd.Root().PersistentFlags().GetString("log-level"); level != "" {
			c.Log.Level = level
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}
		zap.L().Debug("config loaded",
			zap.String("store_driver", cfg.Store.Driver),
			zap.String("catalog_source", cfg.Catalog.Source),
		)
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "override log.level (debug, info, warn, error)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
