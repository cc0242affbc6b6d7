// Package features reads the FEATURES.toml catalog of dataset families. When
// a catalog is present, ingestion is restricted to enabled features and their
// declared trade types; without one, everything is accepted.
package features

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/errors"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/trade"
)

// CatalogFile is the default catalog filename under the data root.
const CatalogFile = "FEATURES.toml"

// Entity kinds a feature can iterate over.
const (
	EntityCommodity = "commodity"
	EntityCountry   = "country"
)

// Catalog is the parsed FEATURES.toml.
type Catalog struct {
	// Version is the schema version
	Version int `toml:"version"`

	// Features are the declared dataset families
	Features []Declaration `toml:"feature"`
}

// Declaration describes one dataset family.
type Declaration struct {
	// Name is the catalog key, e.g. commodity_wise_all_countries
	Name string `toml:"name"`

	// Title is the human-readable label
	Title string `toml:"title,omitempty"`

	// TradeTypes restricts directions; empty allows both
	TradeTypes []string `toml:"trade_types,omitempty"`

	// EntityKind is commodity or country
	EntityKind string `toml:"entity_kind,omitempty"`

	// Enabled gates ingestion; omitted means enabled
	Enabled *bool `toml:"enabled,omitempty"`
}

// IsEnabled reports whether the feature accepts ingests.
func (d Declaration) IsEnabled() bool {
	return d.Enabled == nil || *d.Enabled
}

// ParseCatalog parses a catalog file. Unknown keys are rejected so typos in
// hand-edited files surface instead of silently dropping restrictions.
func ParseCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.ConfigInvalid,
			fmt.Sprintf("failed to read %s", path), err)
	}

	var catalog Catalog
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&catalog); err != nil {
		return nil, errors.New(errors.ConfigInvalid,
			fmt.Sprintf("failed to parse %s", path), err)
	}

	for i, decl := range catalog.Features {
		if decl.Name == "" {
			return nil, errors.New(errors.ConfigInvalid,
				fmt.Sprintf("feature %d in %s has no name", i+1, path), nil)
		}
		for _, tt := range decl.TradeTypes {
			if tt != trade.TradeExport && tt != trade.TradeImport {
				return nil, errors.New(errors.ConfigInvalid,
					fmt.Sprintf("feature %q lists unknown trade type %q", decl.Name, tt), nil)
			}
		}
		if decl.EntityKind != "" && decl.EntityKind != EntityCommodity && decl.EntityKind != EntityCountry {
			return nil, errors.New(errors.ConfigInvalid,
				fmt.Sprintf("feature %q has unknown entity kind %q", decl.Name, decl.EntityKind), nil)
		}
	}
	return &catalog, nil
}

// LoadCatalog loads FEATURES.toml from the data root if it exists. A missing
// file means no restriction and returns nil without error.
func LoadCatalog(root string) (*Catalog, error) {
	path := filepath.Join(root, CatalogFile)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	return ParseCatalog(path)
}

// Lookup returns the declaration for name, nil when absent.
func (c *Catalog) Lookup(name string) *Declaration {
	if c == nil {
		return nil
	}
	for i := range c.Features {
		if c.Features[i].Name == name {
			return &c.Features[i]
		}
	}
	return nil
}

// Validate checks an identity against the catalog. A nil catalog accepts
// everything.
func (c *Catalog) Validate(id trade.Identity) error {
	if c == nil {
		return nil
	}
	decl := c.Lookup(id.Feature)
	if decl == nil {
		return errors.New(errors.FeatureUnknown,
			fmt.Sprintf("feature %q is not in the catalog", id.Feature), nil)
	}
	if !decl.IsEnabled() {
		return errors.New(errors.FeatureUnknown,
			fmt.Sprintf("feature %q is disabled", id.Feature), nil)
	}
	if len(decl.TradeTypes) > 0 {
		allowed := false
		for _, tt := range decl.TradeTypes {
			if tt == id.TradeType {
				allowed = true
				break
			}
		}
		if !allowed {
			return errors.New(errors.FeatureUnknown,
				fmt.Sprintf("feature %q does not cover trade type %q", id.Feature, id.TradeType), nil)
		}
	}
	return nil
}
