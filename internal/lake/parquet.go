package lake

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	pqgo "github.com/parquet-go/parquet-go"

	"github.com/dbsmedya/golake/internal/extract"
)

// ParquetFileExt is the object suffix for encoded batches.
const ParquetFileExt = ".parquet"

// EncodeParquet serializes a batch of records into one snappy-compressed
// Parquet file. The schema is inferred from the union of column values in the
// batch; all columns are optional so heterogeneous rows encode cleanly.
func EncodeParquet(records []extract.Record) ([]byte, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("no records to encode")
	}

	schema := inferSchema(records)

	var buf bytes.Buffer
	writer := pqgo.NewGenericWriter[any](&buf, schema, pqgo.Compression(&pqgo.Snappy))

	rows := make([]any, 0, len(records))
	for _, rec := range records {
		rows = append(rows, normalizeRow(rec))
	}

	if _, err := writer.Write(rows); err != nil {
		return nil, fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close parquet writer: %w", err)
	}

	return buf.Bytes(), nil
}

// inferSchema derives a parquet group schema from the record values.
// The first non-nil value seen for a column decides its type.
func inferSchema(records []extract.Record) *pqgo.Schema {
	group := pqgo.Group{}

	for _, rec := range records {
		for col, v := range rec {
			if _, done := group[col]; done || v == nil {
				continue
			}
			group[col] = pqgo.Optional(leafNode(v))
		}
	}

	// Columns that were nil in every row still need a node.
	cols := columnUnion(records)
	for _, col := range cols {
		if _, ok := group[col]; !ok {
			group[col] = pqgo.Optional(pqgo.String())
		}
	}

	return pqgo.NewSchema("golake_record", group)
}

// leafNode maps a Go value to its parquet node type.
func leafNode(v any) pqgo.Node {
	switch v.(type) {
	case time.Time:
		return pqgo.Timestamp(pqgo.Microsecond)
	case int, int32, int64:
		return pqgo.Int(64)
	case float32, float64:
		return pqgo.Leaf(pqgo.DoubleType)
	case bool:
		return pqgo.Leaf(pqgo.BooleanType)
	default:
		return pqgo.String()
	}
}

// normalizeRow converts record values into the physical types the inferred
// schema expects. Timestamps become microseconds; unknown types are
// stringified.
func normalizeRow(rec extract.Record) map[string]any {
	row := make(map[string]any, len(rec))
	for col, v := range rec {
		switch t := v.(type) {
		case nil:
			row[col] = nil
		case time.Time:
			row[col] = t.UnixMicro()
		case int:
			row[col] = int64(t)
		case int32:
			row[col] = int64(t)
		case int64, float64, bool, string:
			row[col] = t
		case float32:
			row[col] = float64(t)
		default:
			row[col] = fmt.Sprint(t)
		}
	}
	return row
}

// columnUnion returns the sorted union of column names across records.
func columnUnion(records []extract.Record) []string {
	seen := make(map[string]bool)
	for _, rec := range records {
		for col := range rec {
			seen[col] = true
		}
	}
	cols := make([]string, 0, len(seen))
	for col := range seen {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}
