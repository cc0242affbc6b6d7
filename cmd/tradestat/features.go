package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/features"
)

var featuresFormat string

var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "Show the feature catalog",
	Long: `Show the feature catalog from FEATURES.toml under the data root.

When a catalog is present, ingest rejects snapshots whose feature is not
declared, is disabled, or does not cover the snapshot's trade direction.
Without a catalog every feature is accepted.

Examples:
  tradestat features
  tradestat features --format json`,
	RunE: runFeatures,
}

func init() {
	featuresCmd.Flags().StringVar(&featuresFormat, "format", "human", "Output format (human, json, yaml)")

	rootCmd.AddCommand(featuresCmd)
}

// FeaturesResponseCLI contains the feature catalog for CLI output
type FeaturesResponseCLI struct {
	CatalogPresent bool         `json:"catalog_present" yaml:"catalog_present"`
	CatalogVersion int          `json:"catalog_version,omitempty" yaml:"catalog_version,omitempty"`
	Features       []FeatureCLI `json:"features" yaml:"features"`
}

type FeatureCLI struct {
	Name       string   `json:"name" yaml:"name"`
	Title      string   `json:"title,omitempty" yaml:"title,omitempty"`
	TradeTypes []string `json:"trade_types" yaml:"trade_types"`
	EntityKind string   `json:"entity_kind,omitempty" yaml:"entity_kind,omitempty"`
	Enabled    bool     `json:"enabled" yaml:"enabled"`
}

func runFeatures(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}

	catalog, err := features.LoadCatalog(a.Root)
	if err != nil {
		return err
	}

	resp := &FeaturesResponseCLI{Features: []FeatureCLI{}}
	if catalog != nil {
		resp.CatalogPresent = true
		resp.CatalogVersion = catalog.Version
		for _, decl := range catalog.Features {
			resp.Features = append(resp.Features, FeatureCLI{
				Name:       decl.Name,
				Title:      decl.Title,
				TradeTypes: decl.TradeTypes,
				EntityKind: decl.EntityKind,
				Enabled:    decl.IsEnabled(),
			})
		}
	}

	output, err := FormatResponse(resp, OutputFormat(featuresFormat))
	if err != nil {
		return err
	}
	fmt.Println(output)
	return nil
}
