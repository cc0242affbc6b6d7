package trade

import "fmt"

// Validation statuses reported by the extraction layer.
const (
	ValidationValid      = "VALID"
	ValidationPartial    = "PARTIAL"
	ValidationIncomplete = "INCOMPLETE"
)

// QualityMetrics is pass-through data from the extraction collaborator. The
// engine stores and reports it but never interprets it.
type QualityMetrics struct {
	TotalRecords     int     `json:"total_records"`
	RecordsComplete  int     `json:"records_complete"`
	RecordsMissing   int     `json:"records_missing"`
	CompletenessPct  float64 `json:"completeness_pct"`
	ExtractionSecs   float64 `json:"extraction_seconds"`
	ValidationStatus string  `json:"validation_status"`
}

// Summary renders a one-line quality summary for changelog listings.
func (q *QualityMetrics) Summary() string {
	if q == nil {
		return "n/a"
	}
	status := q.ValidationStatus
	if status == "" {
		status = "UNKNOWN"
	}
	return fmt.Sprintf("%s %.1f%% (%d/%d records)", status, q.CompletenessPct, q.RecordsComplete, q.TotalRecords)
}
