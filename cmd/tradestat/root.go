package main

import (
	"github.com/spf13/cobra"

	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/version"
)

var (
	// rootFlag is the data root; config, watchlist, catalog, and the default
	// store path all live beneath it
	rootFlag      string
	configFlag    string
	logFormatFlag string
	logLevelFlag  string
	quietFlag     bool
)

var rootCmd = &cobra.Command{
	Use:   "tradestat",
	Short: "tradestat - versioned change detection for trade dataset extractions",
	Long: `tradestat records trade dataset extractions as versioned snapshots, diffs
each recording against the stored baseline for the same dataset slice, and
classifies how far the slice has drifted since the source last published it.

Dataset slices are addressed as feature/trade_type/entity_code@period, e.g.
commodity_wise_all_countries/export/09011112@2024-25.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("tradestat version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", "",
		"Data root directory (default: working directory)")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "",
		"Config file (default: <root>/.tradestat/config.json)")
	rootCmd.PersistentFlags().StringVar(&logFormatFlag, "log-format", "",
		"Log format: human or json (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "",
		"Log level: debug, info, warn, or error (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&quietFlag, "quiet", false,
		"Suppress logs, print command output only")
}
