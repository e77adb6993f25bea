// Package watermark persists the "processed through" timestamp that bounds
// incremental selection for each source table.
package watermark

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Format is the persisted watermark layout: a human-readable timestamp string,
// always rendered in UTC. It matches the layout the ETL metadata files have
// always used, so existing state remains readable.
const Format = "2006-01-02 15:04:05"

// ErrNotFound is returned by Store.Read when no watermark has been persisted
// for a table yet. Callers fall back to the default lookback window.
var ErrNotFound = errors.New("watermark not found")

// Watermark is a per-table "processed through this instant" marker.
// The zero value means "no watermark".
type Watermark struct {
	t time.Time
}

// New creates a Watermark from a time. Sub-second precision is dropped because
// the persisted format is second-granular; a row written in the same second as
// the watermark capture is therefore re-selected on the next run rather than
// skipped.
func New(t time.Time) Watermark {
	return Watermark{t: t.UTC().Truncate(time.Second)}
}

// Parse decodes a persisted watermark string.
func Parse(s string) (Watermark, error) {
	t, err := time.Parse(Format, strings.TrimSpace(s))
	if err != nil {
		return Watermark{}, fmt.Errorf("invalid watermark %q: %w", s, err)
	}
	return Watermark{t: t.UTC()}, nil
}

// IsZero reports whether the watermark is unset.
func (w Watermark) IsZero() bool {
	return w.t.IsZero()
}

// Time returns the watermark instant.
func (w Watermark) Time() time.Time {
	return w.t
}

// String renders the persisted form.
func (w Watermark) String() string {
	if w.IsZero() {
		return ""
	}
	return w.t.Format(Format)
}

// Before reports whether w is strictly earlier than other.
func (w Watermark) Before(other Watermark) bool {
	return w.t.Before(other.t)
}

// Store durably persists one watermark value per table name.
type Store interface {
	// Read returns the stored watermark for a table, or ErrNotFound when no
	// value has been persisted yet.
	Read(ctx context.Context, table string) (Watermark, error)
	// Write overwrites the stored watermark for a table. It must be called
	// only after the run's load step has fully succeeded.
	Write(ctx context.Context, table string, w Watermark) error
	// Delete removes the stored watermark for a table, forcing the next run
	// back to the default lookback window. Deleting an absent watermark is
	// not an error.
	Delete(ctx context.Context, table string) error
}

// Key returns the well-known per-table key under which a watermark is stored.
func Key(table string) string {
	return fmt.Sprintf("etl-metadata/%s/last_processed_timestamp.txt", table)
}
