package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/diff"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/ingest"
)

var (
	ingestFile        string
	ingestFeature     string
	ingestTrade       string
	ingestCode        string
	ingestPeriod      string
	ingestShowChanges bool
	ingestFormat      string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Record one snapshot file and report its changes",
	Long: `Record one extracted snapshot file as a new version of its dataset slice.

The snapshot is normalized, diffed against the latest stored recording of the
same slice, and persisted with its change report. The first recording of a
slice becomes its baseline. Re-ingesting an identical snapshot is a no-op.

The identity is taken from the file; any identity flag overrides the
corresponding part and must agree with the payload.

Examples:
  tradestat ingest --file coffee_2024-25.json
  tradestat ingest --file coffee_2024-25.json --show-changes --format human
  tradestat ingest --file raw.json --feature commodity_wise_all_countries \
    --trade export --code 09011112 --period 2024-25`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestFile, "file", "", "Snapshot JSON file to record (required)")
	ingestCmd.Flags().StringVar(&ingestFeature, "feature", "", "Dataset feature, e.g. commodity_wise_all_countries")
	ingestCmd.Flags().StringVar(&ingestTrade, "trade", "", "Trade direction: export or import")
	ingestCmd.Flags().StringVar(&ingestCode, "code", "", "Entity code: HS code or country identifier")
	ingestCmd.Flags().StringVar(&ingestPeriod, "period", "", "Financial year, e.g. 2024-25")
	ingestCmd.Flags().BoolVar(&ingestShowChanges, "show-changes", false, "Include the full change report in the output")
	ingestCmd.Flags().StringVar(&ingestFormat, "format", "human", "Output format (human, json, yaml)")
	_ = ingestCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(ingestCmd)
}

// IngestResponseCLI contains one recording result for CLI output
type IngestResponseCLI struct {
	Identity      string          `json:"identity" yaml:"identity"`
	Period        string          `json:"period" yaml:"period"`
	Checksum      string          `json:"checksum" yaml:"checksum"`
	Quality       string          `json:"quality" yaml:"quality"`
	Persisted     bool            `json:"persisted" yaml:"persisted"`
	Baseline      bool            `json:"baseline" yaml:"baseline"`
	Drift         diff.DriftLevel `json:"drift" yaml:"drift"`
	TotalChanges  int             `json:"total_changes" yaml:"total_changes"`
	PercentChange float64         `json:"percent_change" yaml:"percent_change"`
	Changes       *diff.Report    `json:"changes,omitempty" yaml:"changes,omitempty"`
}

func runIngest(cmd *cobra.Command, args []string) error {
	start := time.Now()

	a, err := loadApp()
	if err != nil {
		return err
	}

	raw, err := ingest.ReadRawFile(ingestFile)
	if err != nil {
		return err
	}

	id := raw.Identity()
	if ingestFeature != "" {
		id.Feature = ingestFeature
	}
	if ingestTrade != "" {
		id.TradeType = ingestTrade
	}
	if ingestCode != "" {
		id.EntityCode = ingestCode
	}
	if ingestPeriod != "" {
		id.Period = ingestPeriod
	}

	ctx := newContext()
	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	svc, err := a.ingestService(st)
	if err != nil {
		return err
	}

	// A store write failure still yields the computed result; print it so the
	// change report is not lost, then propagate the error.
	result, runErr := svc.Run(ctx, id, raw)
	if result == nil {
		return runErr
	}

	resp := &IngestResponseCLI{
		Identity:      result.Identity.String(),
		Period:        result.Identity.Period,
		Checksum:      result.Entry.Checksum,
		Quality:       result.Entry.Quality.Summary(),
		Persisted:     result.Persisted,
		Baseline:      result.Report.IsBaseline,
		Drift:         result.Report.DriftLevel,
		TotalChanges:  result.Report.TotalChanges,
		PercentChange: result.Report.PercentChange,
	}
	if ingestShowChanges {
		resp.Changes = result.Report
	}

	output, err := FormatResponse(resp, OutputFormat(ingestFormat))
	if err != nil {
		return err
	}
	fmt.Println(output)

	a.Logger.Debug("Ingest completed", map[string]interface{}{
		"identity": result.Identity.String(),
		"duration": time.Since(start).Milliseconds(),
	})
	return runErr
}
