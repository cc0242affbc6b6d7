package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/export"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/trade"
)

var (
	exportFeature  string
	exportTrade    string
	exportCode     string
	exportOut      string
	exportCompress bool
	exportFormat   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a series' full history to a consolidated file",
	Long: `Write every recorded version of a dataset slice, with diffs and quality
metrics, into one consolidated JSON document for downstream analysis.

With --compress the document is zstd-compressed and named *.json.zst.
Exporting a series with no recordings is an error.

Examples:
  tradestat export --feature commodity_wise_all_countries --trade export --code 09011112
  tradestat export --feature country_wise_all_commodities --trade import --code USA --out /data/out --compress`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFeature, "feature", "", "Dataset feature (required)")
	exportCmd.Flags().StringVar(&exportTrade, "trade", "", "Trade direction: export or import (required)")
	exportCmd.Flags().StringVar(&exportCode, "code", "", "Entity code (required)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output directory (default: config export.dir)")
	exportCmd.Flags().BoolVar(&exportCompress, "compress", false, "zstd-compress the document (default: config export.compress)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "human", "Output format (human, json, yaml)")
	_ = exportCmd.MarkFlagRequired("feature")
	_ = exportCmd.MarkFlagRequired("trade")
	_ = exportCmd.MarkFlagRequired("code")

	rootCmd.AddCommand(exportCmd)
}

// ExportResponseCLI contains the export outcome for CLI output
type ExportResponseCLI struct {
	Series     string `json:"series" yaml:"series"`
	File       string `json:"file" yaml:"file"`
	Compressed bool   `json:"compressed" yaml:"compressed"`
	SizeBytes  int64  `json:"size_bytes" yaml:"size_bytes"`
}

func runExport(cmd *cobra.Command, args []string) error {
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
		Feature:    exportFeature,
		TradeType:  exportTrade,
		EntityCode: exportCode,
	}

	dir := exportOut
	if dir == "" {
		dir = a.Config.ExportDir(a.Root)
	}
	compress := a.Config.Export.Compress
	if cmd.Flags().Changed("compress") {
		compress = exportCompress
	}

	writer := export.NewWriter(st, a.Logger)
	path, err := writer.WriteSeries(ctx, key, dir, compress)
	if err != nil {
		return err
	}

	resp := &ExportResponseCLI{
		Series:     key.String(),
		File:       path,
		Compressed: compress,
	}
	if info, err := os.Stat(path); err == nil {
		resp.SizeBytes = info.Size()
	}

	output, err := FormatResponse(resp, OutputFormat(exportFormat))
	if err != nil {
		return err
	}
	fmt.Println(output)

	a.Logger.Debug("Export completed", map[string]interface{}{
		"series":   key.String(),
		"file":     path,
		"duration": time.Since(start).Milliseconds(),
	})
	return nil
}
