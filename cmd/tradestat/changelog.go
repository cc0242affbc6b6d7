package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/changelog"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/trade"
)

var (
	changelogFeature string
	changelogTrade   string
	changelogCode    string
	changelogFormat  string
)

var changelogCmd = &cobra.Command{
	Use:   "changelog",
	Short: "List the recorded versions of a dataset slice",
	Long: `List every recorded period of a dataset slice, oldest first, with each
recording's drift classification, change counts, checksum, and the quality
metrics the extractor reported.

A series with no recordings yields an empty changelog, not an error.

Examples:
  tradestat changelog --feature commodity_wise_all_countries --trade export --code 09011112
  tradestat changelog --feature country_wise_all_commodities --trade import --code USA --format yaml`,
	RunE: runChangelog,
}

func init() {
	changelogCmd.Flags().StringVar(&changelogFeature, "feature", "", "Dataset feature (required)")
	changelogCmd.Flags().StringVar(&changelogTrade, "trade", "", "Trade direction: export or import (required)")
	changelogCmd.Flags().StringVar(&changelogCode, "code", "", "Entity code (required)")
	changelogCmd.Flags().StringVar(&changelogFormat, "format", "human", "Output format (human, json, yaml)")
	_ = changelogCmd.MarkFlagRequired("feature")
	_ = changelogCmd.MarkFlagRequired("trade")
	_ = changelogCmd.MarkFlagRequired("code")

	rootCmd.AddCommand(changelogCmd)
}

// ChangelogResponseCLI contains a series history for CLI output
type ChangelogResponseCLI struct {
	Series  string            `json:"series" yaml:"series"`
	Count   int               `json:"count" yaml:"count"`
	Entries []changelog.Entry `json:"entries" yaml:"entries"`
}

func runChangelog(cmd *cobra.Command, args []string) error {
	start := time.Now()

	a, err := loadApp()
	if err != nil {
		return err
	}

	ctx := newContext()
	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	key := trade.SeriesKey{
		Feature:    changelogFeature,
		TradeType:  changelogTrade,
		EntityCode: changelogCode,
	}

	reporter := changelog.NewReporter(st, a.Logger)
	entries, err := reporter.ListHistory(ctx, key)
	if err != nil {
		return err
	}

	resp := &ChangelogResponseCLI{
		Series:  key.String(),
		Count:   len(entries),
		Entries: entries,
	}

	output, err := FormatResponse(resp, OutputFormat(changelogFormat))
	if err != nil {
		return err
	}
	fmt.Println(output)

	a.Logger.Debug("Changelog completed", map[string]interface{}{
		"series":   key.String(),
		"periods":  len(entries),
		"duration": time.Since(start).Milliseconds(),
	})
	return nil
}
