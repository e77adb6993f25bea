package lake

import (
	"context"
	"fmt"
	"sort"

	"github.com/dbsmedya/golake/internal/extract"
	"github.com/dbsmedya/golake/internal/transform"
)

// Loader writes a batch of processed records to the data lake.
type Loader interface {
	Load(ctx context.Context, table, runID string, records []extract.Record) (int, error)
}

// ParquetLoader writes records as partitioned Parquet objects under
// <prefix>/<table>/year=YYYY/month=MM/day=DD/<run-id>.parquet.
//
// Loads append only: the run ID in the object key scopes each run's output to
// its own files, so rerunning a failed cycle overwrites nothing and duplicate
// delivery stays safe.
type ParquetLoader struct {
	store  ObjectStore
	prefix string
}

// NewParquetLoader creates a loader writing under the given key prefix.
func NewParquetLoader(store ObjectStore, prefix string) *ParquetLoader {
	return &ParquetLoader{store: store, prefix: prefix}
}

// Load groups records by partition, encodes each group, and uploads them.
// Returns the number of records written.
func (l *ParquetLoader) Load(ctx context.Context, table, runID string, records []extract.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	partitions := make(map[string][]extract.Record)
	for _, rec := range records {
		part := partitionPath(rec)
		partitions[part] = append(partitions[part], rec)
	}

	// Deterministic upload order
	parts := make([]string, 0, len(partitions))
	for part := range partitions {
		parts = append(parts, part)
	}
	sort.Strings(parts)

	written := 0
	for _, part := range parts {
		batch := partitions[part]

		data, err := EncodeParquet(batch)
		if err != nil {
			return written, fmt.Errorf("failed to encode partition %s of %s: %w", part, table, err)
		}

		key := JoinKey(l.prefix, table, part, runID+ParquetFileExt)
		if err := l.store.Put(ctx, key, data, "application/octet-stream"); err != nil {
			return written, fmt.Errorf("failed to upload partition %s of %s: %w", part, table, err)
		}

		written += len(batch)
	}

	return written, nil
}

// partitionPath renders the hive-style partition segments from the row's
// derived partition columns.
func partitionPath(rec extract.Record) string {
	year := rec[transform.ColYear]
	month := rec[transform.ColMonth]
	day := rec[transform.ColDay]
	return fmt.Sprintf("year=%v/month=%v/day=%v", year, month, day)
}
