// Package transform enriches extracted rows with run metadata, partition
// columns, and configured derived columns before loading.
package transform

import (
	"fmt"
	"time"

	"github.com/dbsmedya/golake/internal/config"
	"github.com/dbsmedya/golake/internal/extract"
)

// Metadata column names stamped onto every processed row.
const (
	ColProcessedAt = "etl_processed_at"
	ColRunID       = "etl_run_id"
	ColYear        = "year"
	ColMonth       = "month"
	ColDay         = "day"
)

// Transformer enriches a batch of records in place and returns it.
type Transformer interface {
	Transform(records []extract.Record, runID string, now time.Time) ([]extract.Record, error)
}

// TableTransformer applies the configured transformations for one table.
type TableTransformer struct {
	table string
	cfg   config.TableConfig
}

// New creates a transformer for a table descriptor.
func New(table string, cfg config.TableConfig) *TableTransformer {
	return &TableTransformer{table: table, cfg: cfg}
}

// Transform stamps run metadata, derives partition columns from the table's
// partition column (processing date when none is configured or the value is
// unreadable), and applies optional segment / value-category derivations.
func (t *TableTransformer) Transform(records []extract.Record, runID string, now time.Time) ([]extract.Record, error) {
	for _, rec := range records {
		rec[ColProcessedAt] = now.UTC()
		rec[ColRunID] = runID

		partTime := now.UTC()
		if t.cfg.PartitionColumn != "" {
			if ts, ok := timeValue(rec[t.cfg.PartitionColumn]); ok {
				partTime = ts
			}
		}
		rec[ColYear] = partTime.Year()
		rec[ColMonth] = fmt.Sprintf("%02d", int(partTime.Month()))
		rec[ColDay] = fmt.Sprintf("%02d", partTime.Day())

		if t.cfg.Transform == nil {
			continue
		}
		if seg := t.cfg.Transform.Segment; seg != nil {
			applySegment(rec, seg, now)
		}
		if vc := t.cfg.Transform.ValueCategory; vc != nil {
			applyValueCategory(rec, vc)
		}
	}
	return records, nil
}

// applySegment buckets a row by the age in days of its source column.
func applySegment(rec extract.Record, seg *config.SegmentConfig, now time.Time) {
	ts, ok := timeValue(rec[seg.SourceColumn])
	if !ok {
		return
	}

	ageDays := int(now.UTC().Sub(ts).Hours() / 24)
	if seg.AgeColumn != "" {
		rec[seg.AgeColumn] = ageDays
	}

	label := seg.DefaultLabel
	for _, b := range seg.Buckets {
		if ageDays < b.MaxDays {
			label = b.Label
			break
		}
	}
	rec[seg.TargetColumn] = label
}

// applyValueCategory buckets a row by quantity * price.
func applyValueCategory(rec extract.Record, vc *config.ValueCategoryConfig) {
	qty, okQ := floatValue(rec[vc.QuantityColumn])
	price, okP := floatValue(rec[vc.PriceColumn])
	if !okQ || !okP {
		return
	}

	value := qty * price
	if vc.ValueColumn != "" {
		rec[vc.ValueColumn] = value
	}

	label := vc.DefaultLabel
	for _, b := range vc.Buckets {
		if value < b.Max {
			label = b.Label
			break
		}
	}
	rec[vc.TargetColumn] = label
}

// timeValue coerces a record value to a time.
// Drivers surface timestamps as time.Time with parseTime enabled, but string
// forms still appear for date columns and in tests.
func timeValue(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), true
	case string:
		for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339, "2006-01-02"} {
			if ts, err := time.Parse(layout, t); err == nil {
				return ts.UTC(), true
			}
		}
	}
	return time.Time{}, false
}

// floatValue coerces a record value to float64.
func floatValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		var f float64
		if _, err := fmt.Sscanf(n, "%g", &f); err == nil {
			return f, true
		}
	}
	return 0, false
}
