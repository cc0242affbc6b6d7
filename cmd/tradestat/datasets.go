package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/trade"
)

var (
	datasetsFeature string
	datasetsTrade   string
	datasetsCode    string
	datasetsNote    string
	datasetsFormat  string
)

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "Manage the watchlist of tracked dataset slices",
	Long: `Manage the watchlist of tracked dataset slices.

The watchlist lives in .tradestat/watchlist.toml under the data root. Batch
runs can restrict themselves to watchlisted series with --watchlist-only.

Examples:
  tradestat datasets list
  tradestat datasets add --feature commodity_wise_all_countries --trade export --code 09011112 --note "coffee arabica"
  tradestat datasets remove 09011112`,
}

var datasetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked dataset slices",
	RunE:  runDatasetsList,
}

var datasetsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Track a dataset slice",
	Long: `Track a dataset slice. The feature/trade/code triple must not already be
watchlisted; each entry gets an immutable uid for later removal.`,
	RunE: runDatasetsAdd,
}

var datasetsRemoveCmd = &cobra.Command{
	Use:   "remove <uid-or-code>",
	Short: "Stop tracking a dataset slice",
	Long: `Stop tracking a dataset slice, referenced by uid or by entity code. An
entity code shared by several entries must be disambiguated with the uid.`,
	Args: cobra.ExactArgs(1),
	RunE: runDatasetsRemove,
}

func init() {
	datasetsAddCmd.Flags().StringVar(&datasetsFeature, "feature", "", "Dataset feature (required)")
	datasetsAddCmd.Flags().StringVar(&datasetsTrade, "trade", "", "Trade direction: export or import (required)")
	datasetsAddCmd.Flags().StringVar(&datasetsCode, "code", "", "Entity code (required)")
	datasetsAddCmd.Flags().StringVar(&datasetsNote, "note", "", "Free-form annotation")
	_ = datasetsAddCmd.MarkFlagRequired("feature")
	_ = datasetsAddCmd.MarkFlagRequired("trade")
	_ = datasetsAddCmd.MarkFlagRequired("code")

	datasetsListCmd.Flags().StringVar(&datasetsFormat, "format", "human", "Output format (human, json, yaml)")
	datasetsAddCmd.Flags().StringVar(&datasetsFormat, "format", "human", "Output format (human, json, yaml)")
	datasetsRemoveCmd.Flags().StringVar(&datasetsFormat, "format", "human", "Output format (human, json, yaml)")

	datasetsCmd.AddCommand(datasetsListCmd)
	datasetsCmd.AddCommand(datasetsAddCmd)
	datasetsCmd.AddCommand(datasetsRemoveCmd)
	rootCmd.AddCommand(datasetsCmd)
}

// DatasetsListResponseCLI contains the watchlist for CLI output
type DatasetsListResponseCLI struct {
	Count    int          `json:"count" yaml:"count"`
	Datasets []DatasetCLI `json:"datasets" yaml:"datasets"`
}

type DatasetCLI struct {
	UID        string `json:"uid" yaml:"uid"`
	Feature    string `json:"feature" yaml:"feature"`
	TradeType  string `json:"trade_type" yaml:"trade_type"`
	EntityCode string `json:"entity_code" yaml:"entity_code"`
	Note       string `json:"note,omitempty" yaml:"note,omitempty"`
	AddedAt    string `json:"added_at" yaml:"added_at"`
}

// DatasetResponseCLI contains one add or remove outcome for CLI output
type DatasetResponseCLI struct {
	Series  string `json:"series" yaml:"series"`
	UID     string `json:"uid,omitempty" yaml:"uid,omitempty"`
	Note    string `json:"note,omitempty" yaml:"note,omitempty"`
	Removed bool   `json:"removed,omitempty" yaml:"removed,omitempty"`
}

func runDatasetsList(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}

	wl, err := a.loadWatchlist()
	if err != nil {
		return err
	}

	resp := &DatasetsListResponseCLI{Datasets: make([]DatasetCLI, 0, len(wl.List()))}
	for _, ds := range wl.List() {
		resp.Datasets = append(resp.Datasets, DatasetCLI{
			UID:        ds.UID,
			Feature:    ds.Feature,
			TradeType:  ds.TradeType,
			EntityCode: ds.EntityCode,
			Note:       ds.Note,
			AddedAt:    ds.AddedAt.UTC().Format(time.RFC3339),
		})
	}
	resp.Count = len(resp.Datasets)

	output, err := FormatResponse(resp, OutputFormat(datasetsFormat))
	if err != nil {
		return err
	}
	fmt.Println(output)
	return nil
}

func runDatasetsAdd(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}

	wl, err := a.loadWatchlist()
	if err != nil {
		return err
	}

	key := trade.SeriesKey{
		Feature:    datasetsFeature,
		TradeType:  datasetsTrade,
		EntityCode: datasetsCode,
	}
	ds, err := wl.Add(key, datasetsNote)
	if err != nil {
		return err
	}
	if err := wl.Save(); err != nil {
		return err
	}

	a.Logger.Info("Watchlisted dataset", map[string]interface{}{
		"series": key.String(),
		"uid":    ds.UID,
	})

	resp := &DatasetResponseCLI{
		Series: key.String(),
		UID:    ds.UID,
		Note:   ds.Note,
	}
	output, err := FormatResponse(resp, OutputFormat(datasetsFormat))
	if err != nil {
		return err
	}
	fmt.Println(output)
	return nil
}

func runDatasetsRemove(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}

	wl, err := a.loadWatchlist()
	if err != nil {
		return err
	}

	ref := args[0]
	if err := wl.Remove(ref); err != nil {
		return err
	}
	if err := wl.Save(); err != nil {
		return err
	}

	a.Logger.Info("Removed watchlisted dataset", map[string]interface{}{
		"ref": ref,
	})

	resp := &DatasetResponseCLI{
		Series:  ref,
		Removed: true,
	}
	output, err := FormatResponse(resp, OutputFormat(datasetsFormat))
	if err != nil {
		return err
	}
	fmt.Println(output)
	return nil
}
