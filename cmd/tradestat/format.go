package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/diff"
	"github.com/dassoumyajitsenrysa-dataminer/tradestat-ingestor/internal/jobs"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
	FormatHuman OutputFormat = "human"
)

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatYAML:
		return formatYAML(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// formatJSON formats the response as JSON
func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

// formatYAML formats the response as YAML
func formatYAML(resp interface{}) (string, error) {
	data, err := yaml.Marshal(resp)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

// formatHuman formats the response in human-readable format
func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *IngestResponseCLI:
		return formatIngestHuman(v)
	case *BatchResponseCLI:
		return formatBatchHuman(v)
	case *EnqueueResponseCLI:
		return formatEnqueueHuman(v)
	case *ChangelogResponseCLI:
		return formatChangelogHuman(v)
	case *CompareResponseCLI:
		return formatCompareHuman(v)
	case *ExportResponseCLI:
		return formatExportHuman(v)
	case *DatasetsListResponseCLI:
		return formatDatasetsHuman(v)
	case *DatasetResponseCLI:
		return formatDatasetHuman(v)
	case *FeaturesResponseCLI:
		return formatFeaturesHuman(v)
	default:
		// For unknown types, fall back to JSON
		return formatJSON(resp)
	}
}

// formatIngestHuman formats an IngestResponseCLI in human-readable format
func formatIngestHuman(resp *IngestResponseCLI) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Recorded %s\n", resp.Identity))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	persistIcon := "✓"
	persistText := "Persisted"
	if !resp.Persisted {
		persistIcon = "✗"
		persistText = "NOT persisted (change report computed in memory only)"
	}
	b.WriteString(fmt.Sprintf("%s %s\n", persistIcon, persistText))
	b.WriteString(fmt.Sprintf("  Checksum: %s\n", truncateChecksum(resp.Checksum)))
	b.WriteString(fmt.Sprintf("  Quality: %s\n\n", resp.Quality))

	if resp.Baseline {
		b.WriteString("Baseline recording: no earlier snapshot of this slice exists.\n")
		b.WriteString(fmt.Sprintf("Partners captured: %d\n", resp.TotalChanges))
	} else {
		b.WriteString(fmt.Sprintf("Drift: %s\n", resp.Drift))
		b.WriteString(fmt.Sprintf("Changes: %d (%.2f%% of partner set)\n", resp.TotalChanges, resp.PercentChange))
	}

	if resp.Changes != nil && !resp.Baseline {
		b.WriteString("\n")
		writeReportHuman(&b, resp.Changes)
	}

	return b.String(), nil
}

// formatBatchHuman formats a BatchResponseCLI in human-readable format
func formatBatchHuman(resp *BatchResponseCLI) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Batch Ingest: %s\n", resp.Dir))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")
	b.WriteString(fmt.Sprintf("Total: %d   Succeeded: %d   Failed: %d   Skipped: %d\n",
		resp.Total, resp.Succeeded, resp.Failed, resp.Skipped))

	var failed, skipped []BatchJobCLI
	for _, job := range resp.Jobs {
		switch job.Status {
		case string(jobs.StatusFailed):
			failed = append(failed, job)
		case string(jobs.StatusSkipped):
			skipped = append(skipped, job)
		}
	}

	if len(failed) > 0 {
		b.WriteString("\nFailed:\n")
		for _, job := range failed {
			b.WriteString(fmt.Sprintf("  ✗ %s: %s\n", filepath.Base(job.File), job.Error))
		}
	}
	if len(skipped) > 0 {
		b.WriteString("\nSkipped:\n")
		for _, job := range skipped {
			b.WriteString(fmt.Sprintf("  - %s: %s\n", filepath.Base(job.File), job.Error))
		}
	}

	return b.String(), nil
}

// formatEnqueueHuman formats an EnqueueResponseCLI in human-readable format
func formatEnqueueHuman(resp *EnqueueResponseCLI) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Enqueued %d snapshot(s) onto %s\n", resp.Enqueued, resp.Queue))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	for i, job := range resp.Jobs {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, job.Identity))
		b.WriteString(fmt.Sprintf("   Job: %s\n", job.ID))
		b.WriteString(fmt.Sprintf("   File: %s\n", job.File))
	}
	b.WriteString(fmt.Sprintf("\nQueue depth: %d\n", resp.Depth))

	return b.String(), nil
}

// formatChangelogHuman formats a ChangelogResponseCLI in human-readable format
func formatChangelogHuman(resp *ChangelogResponseCLI) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Changelog: %s\n", resp.Series))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	if resp.Count == 0 {
		b.WriteString("No recorded periods for this series.\n")
		return b.String(), nil
	}
	b.WriteString(fmt.Sprintf("%d recorded period(s)\n\n", resp.Count))

	for i, entry := range resp.Entries {
		b.WriteString(fmt.Sprintf("%d. %s  %s\n", i+1, entry.Period, driftLine(entry.Drift, entry.TotalChanges, entry.PercentChange)))
		b.WriteString(fmt.Sprintf("   Recorded: %s%s\n", entry.Timestamp, recency(entry.Timestamp)))
		b.WriteString(fmt.Sprintf("   Checksum: %s\n", truncateChecksum(entry.Checksum)))
		b.WriteString(fmt.Sprintf("   Quality: %s\n", entry.QualitySummary))
	}

	return b.String(), nil
}

// formatCompareHuman formats a CompareResponseCLI in human-readable format
func formatCompareHuman(resp *CompareResponseCLI) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Comparison: %s\n", resp.Series))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")
	b.WriteString(fmt.Sprintf("Base:   %s\n", resp.BasePeriod))
	b.WriteString(fmt.Sprintf("Target: %s\n", resp.TargetPeriod))
	b.WriteString(fmt.Sprintf("Drift:  %s\n\n", driftLine(resp.Drift, resp.TotalChanges, resp.PercentChange)))

	if resp.Report != nil {
		writeReportHuman(&b, resp.Report)
	}

	return b.String(), nil
}

// formatExportHuman formats an ExportResponseCLI in human-readable format
func formatExportHuman(resp *ExportResponseCLI) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Export: %s\n", resp.Series))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	codec := "plain JSON"
	if resp.Compressed {
		codec = "zstd"
	}
	b.WriteString(fmt.Sprintf("✓ Wrote %s\n", resp.File))
	b.WriteString(fmt.Sprintf("  Size: %s (%s)\n", humanize.IBytes(uint64(resp.SizeBytes)), codec))

	return b.String(), nil
}

// formatDatasetsHuman formats a DatasetsListResponseCLI in human-readable format
func formatDatasetsHuman(resp *DatasetsListResponseCLI) (string, error) {
	var b strings.Builder

	b.WriteString("Watchlist\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	if resp.Count == 0 {
		b.WriteString("No tracked series. Add one with: tradestat datasets add\n")
		return b.String(), nil
	}
	b.WriteString(fmt.Sprintf("%d tracked series\n\n", resp.Count))

	for i, ds := range resp.Datasets {
		b.WriteString(fmt.Sprintf("%d. %s/%s/%s\n", i+1, ds.Feature, ds.TradeType, ds.EntityCode))
		b.WriteString(fmt.Sprintf("   UID: %s\n", ds.UID))
		b.WriteString(fmt.Sprintf("   Added: %s%s\n", ds.AddedAt, recency(ds.AddedAt)))
		if ds.Note != "" {
			b.WriteString(fmt.Sprintf("   Note: %s\n", ds.Note))
		}
	}

	return b.String(), nil
}

// formatDatasetHuman formats a DatasetResponseCLI in human-readable format
func formatDatasetHuman(resp *DatasetResponseCLI) (string, error) {
	var b strings.Builder

	verb := "Tracking"
	if resp.Removed {
		verb = "Stopped tracking"
	}
	b.WriteString(fmt.Sprintf("✓ %s %s\n", verb, resp.Series))
	if resp.UID != "" {
		b.WriteString(fmt.Sprintf("  UID: %s\n", resp.UID))
	}
	if resp.Note != "" {
		b.WriteString(fmt.Sprintf("  Note: %s\n", resp.Note))
	}

	return b.String(), nil
}

// formatFeaturesHuman formats a FeaturesResponseCLI in human-readable format
func formatFeaturesHuman(resp *FeaturesResponseCLI) (string, error) {
	var b strings.Builder

	b.WriteString("Feature Catalog\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	if !resp.CatalogPresent {
		b.WriteString("No FEATURES.toml under the data root; every feature is accepted.\n")
		return b.String(), nil
	}

	b.WriteString(fmt.Sprintf("Catalog version %d, %d feature(s)\n\n", resp.CatalogVersion, len(resp.Features)))
	for _, f := range resp.Features {
		icon := "✓"
		if !f.Enabled {
			icon = "✗"
		}
		b.WriteString(fmt.Sprintf("%s %s", icon, f.Name))
		if f.Title != "" {
			b.WriteString(fmt.Sprintf("  (%s)", f.Title))
		}
		if !f.Enabled {
			b.WriteString("  [disabled]")
		}
		b.WriteString("\n")
		trades := strings.Join(f.TradeTypes, ", ")
		if trades == "" {
			trades = "export, import"
		}
		b.WriteString(fmt.Sprintf("   Trades: %s\n", trades))
		if f.EntityKind != "" {
			b.WriteString(fmt.Sprintf("   Entity: %s\n", f.EntityKind))
		}
	}

	return b.String(), nil
}

// writeReportHuman renders the added/removed/modified sections of a diff
// report. Shared by the ingest and compare human views.
func writeReportHuman(b *strings.Builder, report *diff.Report) {
	if len(report.Added) > 0 {
		b.WriteString("Added partners:\n")
		for _, key := range report.Added {
			b.WriteString(fmt.Sprintf("  + %s\n", key))
		}
	}
	if len(report.Removed) > 0 {
		b.WriteString("Removed partners:\n")
		for _, key := range report.Removed {
			b.WriteString(fmt.Sprintf("  - %s\n", key))
		}
	}
	if len(report.Modified) > 0 {
		b.WriteString("Modified partners:\n")
		for _, key := range report.ModifiedKeys() {
			b.WriteString(fmt.Sprintf("  ~ %s\n", key))
			fields := report.Modified[key]
			for _, field := range sortedFieldNames(fields) {
				b.WriteString(fmt.Sprintf("      %s: %s\n", field, fieldChangeLine(fields[field])))
			}
		}
	}
}

func sortedFieldNames(fields map[string]diff.FieldChange) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// fieldChangeLine renders one field movement, e.g. "100 -> 150 (+50.00, +50.0%)".
func fieldChangeLine(fc diff.FieldChange) string {
	line := fmt.Sprintf("%s -> %s", floatOrMissing(fc.Previous), floatOrMissing(fc.Current))
	if fc.Difference != nil {
		line += fmt.Sprintf(" (%+.2f", *fc.Difference)
		if fc.PercentChange != nil {
			line += fmt.Sprintf(", %+.1f%%", *fc.PercentChange)
		}
		line += ")"
	}
	return line
}

func floatOrMissing(v *float64) string {
	if v == nil {
		return "missing"
	}
	return humanize.CommafWithDigits(*v, 2)
}

// driftLine renders a drift level with its change counts, e.g.
// "MODERATE (3 changes, 10.34%)".
func driftLine(drift diff.DriftLevel, totalChanges int, percentChange float64) string {
	switch drift {
	case diff.DriftBaseline:
		return string(diff.DriftBaseline)
	case diff.DriftNoChange:
		return string(diff.DriftNoChange)
	default:
		return fmt.Sprintf("%s (%d changes, %.2f%%)", drift, totalChanges, percentChange)
	}
}

// recency renders an RFC3339 timestamp's age as " (3 days ago)", empty when
// the timestamp does not parse.
func recency(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ""
	}
	return fmt.Sprintf(" (%s)", humanize.Time(t))
}

// truncateChecksum shortens a sha256:<hex> checksum for display.
func truncateChecksum(sum string) string {
	if len(sum) > 19 {
		return sum[:19] + "..."
	}
	return sum
}
