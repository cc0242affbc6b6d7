package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/changelog"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/diff"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/trade"
)

var (
	compareFeature string
	compareTrade   string
	compareCode    string
	comparePeriod  string
	compareFormat  string
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Diff a recorded period against its predecessor",
	Long: `Diff the stored snapshot of one period against the stored snapshot at the
greatest earlier period of the same dataset slice.

Both periods must already be recorded; comparing the oldest recorded period
fails because nothing precedes it.

Examples:
  tradestat compare --feature commodity_wise_all_countries --trade export --code 09011112 --period 2024-25
  tradestat compare --feature country_wise_all_commodities --trade import --code USA --period 2024-25 --format json`,
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().StringVar(&compareFeature, "feature", "", "Dataset feature (required)")
	compareCmd.Flags().StringVar(&compareTrade, "trade", "", "Trade direction: export or import (required)")
	compareCmd.Flags().StringVar(&compareCode, "code", "", "Entity code (required)")
	compareCmd.Flags().StringVar(&comparePeriod, "period", "", "Target financial year, e.g. 2024-25 (required)")
	compareCmd.Flags().StringVar(&compareFormat, "format", "human", "Output format (human, json, yaml)")
	_ = compareCmd.MarkFlagRequired("feature")
	_ = compareCmd.MarkFlagRequired("trade")
	_ = compareCmd.MarkFlagRequired("code")
	_ = compareCmd.MarkFlagRequired("period")

	rootCmd.AddCommand(compareCmd)
}

// CompareResponseCLI contains a cross-period comparison for CLI output
type CompareResponseCLI struct {
	Series        string          `json:"series" yaml:"series"`
	BasePeriod    string          `json:"base_period" yaml:"base_period"`
	TargetPeriod  string          `json:"target_period" yaml:"target_period"`
	Drift         diff.DriftLevel `json:"drift" yaml:"drift"`
	TotalChanges  int             `json:"total_changes" yaml:"total_changes"`
	PercentChange float64         `json:"percent_change" yaml:"percent_change"`
	Report        *diff.Report    `json:"report" yaml:"report"`
}

func runCompare(cmd *cobra.Command, args []string) error {
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

	id := trade.NewIdentity(compareFeature, compareTrade, compareCode, comparePeriod)

	reporter := changelog.NewReporter(st, a.Logger)
	comparison, err := reporter.Compare(ctx, id)
	if err != nil {
		return err
	}

	resp := &CompareResponseCLI{
		Series:        comparison.Series,
		BasePeriod:    comparison.BasePeriod,
		TargetPeriod:  comparison.TargetPeriod,
		Drift:         comparison.Report.DriftLevel,
		TotalChanges:  comparison.Report.TotalChanges,
		PercentChange: comparison.Report.PercentChange,
		Report:        comparison.Report,
	}

	output, err := FormatResponse(resp, OutputFormat(compareFormat))
	if err != nil {
		return err
	}
	fmt.Println(output)

	a.Logger.Debug("Compare completed", map[string]interface{}{
		"series":   comparison.Series,
		"base":     comparison.BasePeriod,
		"target":   comparison.TargetPeriod,
		"duration": time.Since(start).Milliseconds(),
	})
	return nil
}
