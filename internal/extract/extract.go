// Package extract fetches qualifying rows from the source database.
package extract

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/dbsmedya/golake/internal/predicate"
	"github.com/dbsmedya/golake/internal/sqlutil"
)

// Record is an opaque source row. GoLake does not interpret its business
// fields beyond the change-tracking columns.
type Record map[string]any

// Extractor reads incremental rows for one table given a predicate.
type Extractor interface {
	Extract(ctx context.Context, table string, p predicate.Predicate) ([]Record, error)
}

// SQLExtractor fetches rows with a single SELECT over sqlx. Placeholders in
// the predicate are written as `?` and rebound for the active driver.
type SQLExtractor struct {
	db      *sqlx.DB
	dialect sqlutil.Dialect
	schema  string // postgres schema qualifier, empty for mysql
}

// NewSQLExtractor creates an extractor bound to a source connection.
func NewSQLExtractor(db *sqlx.DB, dialect sqlutil.Dialect, schema string) *SQLExtractor {
	if dialect != sqlutil.DialectPostgres {
		schema = ""
	}
	return &SQLExtractor{db: db, dialect: dialect, schema: schema}
}

// Extract runs the incremental selection query and returns all qualifying
// rows. Byte-slice column values are converted to strings so records behave
// the same across drivers.
func (e *SQLExtractor) Extract(ctx context.Context, table string, p predicate.Predicate) ([]Record, error) {
	qualified, err := e.qualifiedTable(table)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT * FROM %s WHERE %s", qualified, p.Clause)
	query = e.db.Rebind(query)

	rows, err := e.db.QueryxContext(ctx, query, p.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		row := make(map[string]any)
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("failed to scan row from %s: %w", table, err)
		}
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
		records = append(records, Record(row))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows from %s: %w", table, err)
	}

	return records, nil
}

// qualifiedTable validates and quotes the table reference, prefixing the
// schema for postgres sources.
func (e *SQLExtractor) qualifiedTable(table string) (string, error) {
	quoted, err := sqlutil.QuoteIdentifierSafe(e.dialect, table)
	if err != nil {
		return "", err
	}
	if e.schema != "" {
		schema, err := sqlutil.QuoteIdentifierSafe(e.dialect, e.schema)
		if err != nil {
			return "", err
		}
		return schema + "." + quoted, nil
	}
	return quoted, nil
}
