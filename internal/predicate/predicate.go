// Package predicate builds the declarative filter that selects new or changed
// rows for one incremental run.
//
// A row qualifies when ANY of its change-tracking timestamp columns is
// strictly greater than the watermark. Strict comparison means a row whose
// timestamp equals the watermark boundary exactly is excluded on subsequent
// runs; a row written in the same instant the watermark was captured can be
// skipped. The watermark is second-granular on purpose and no sub-second
// reconciliation is attempted.
package predicate

import (
	"fmt"
	"strings"
	"time"

	"github.com/dbsmedya/golake/internal/sqlutil"
	"github.com/dbsmedya/golake/internal/watermark"
)

// Descriptor names the change-tracking columns of one source table.
// It is static configuration, not derived at runtime.
type Descriptor struct {
	Table            string
	PrimaryKey       string
	TimestampColumns []string
	Lookback         time.Duration
}

// Predicate is a declarative row filter: a SQL boolean clause with `?`
// placeholders and its arguments. It performs no I/O itself; the extractor
// rebinds the placeholders for the active driver and runs the query.
type Predicate struct {
	Clause string
	Args   []any

	// Watermark is the boundary the clause compares against.
	Watermark watermark.Watermark
	// FirstRun is true when no stored watermark existed and the boundary is
	// the default lookback window.
	FirstRun bool
}

// Build constructs the incremental-selection predicate for a table, quoting
// column identifiers for the given dialect.
//
// When the stored watermark w is zero (first run), the boundary defaults to
// now minus the descriptor's lookback window, which bounds the initial scan
// instead of reading full table history. The same strict greater-than rule
// applies either way.
func Build(dialect sqlutil.Dialect, d Descriptor, w watermark.Watermark, now time.Time) (Predicate, error) {
	if len(d.TimestampColumns) == 0 {
		return Predicate{}, fmt.Errorf("table %s has no timestamp columns", d.Table)
	}

	firstRun := w.IsZero()
	if firstRun {
		lookback := d.Lookback
		if lookback <= 0 {
			lookback = 30 * 24 * time.Hour
		}
		w = watermark.New(now.Add(-lookback))
	}

	var clauses []string
	var args []any
	for _, col := range d.TimestampColumns {
		quoted, err := sqlutil.QuoteIdentifierSafe(dialect, col)
		if err != nil {
			return Predicate{}, fmt.Errorf("table %s: %w", d.Table, err)
		}
		clauses = append(clauses, quoted+" > ?")
		args = append(args, w.Time())
	}

	return Predicate{
		Clause:    strings.Join(clauses, " OR "),
		Args:      args,
		Watermark: w,
		FirstRun:  firstRun,
	}, nil
}

// Matches reports whether a row's timestamp values qualify against the
// predicate's watermark. It mirrors the SQL clause for in-process filtering
// and tests: strictly greater than the boundary on any column.
func (p Predicate) Matches(timestamps ...time.Time) bool {
	for _, t := range timestamps {
		if t.After(p.Watermark.Time()) {
			return true
		}
	}
	return false
}
