package predicate

import (
	"testing"
	"time"

	"github.com/dbsmedya/golake/internal/sqlutil"
	"github.com/dbsmedya/golake/internal/watermark"
)

var testNow = time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

func descriptor(cols ...string) Descriptor {
	return Descriptor{
		Table:            "orders",
		PrimaryKey:       "order_id",
		TimestampColumns: cols,
	}
}

func TestBuildStoredWatermark(t *testing.T) {
	w := watermark.New(time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC))

	p, err := Build(sqlutil.DialectMySQL, descriptor("updated_at"), w, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p.Clause != "`updated_at` > ?" {
		t.Errorf("unexpected clause %q", p.Clause)
	}
	if len(p.Args) != 1 {
		t.Fatalf("expected 1 arg, got %d", len(p.Args))
	}
	if p.Args[0] != w.Time() {
		t.Errorf("expected arg %v, got %v", w.Time(), p.Args[0])
	}
	if p.FirstRun {
		t.Error("stored watermark must not report first run")
	}
}

func TestBuildMultipleColumnsOrJoined(t *testing.T) {
	w := watermark.New(time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC))

	p, err := Build(sqlutil.DialectMySQL, descriptor("created_at", "updated_at"), w, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "`created_at` > ? OR `updated_at` > ?"
	if p.Clause != want {
		t.Errorf("expected clause %q, got %q", want, p.Clause)
	}
	if len(p.Args) != 2 {
		t.Errorf("expected one arg per column, got %d", len(p.Args))
	}
}

func TestBuildPostgresQuoting(t *testing.T) {
	w := watermark.New(time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC))

	p, err := Build(sqlutil.DialectPostgres, descriptor("updated_at"), w, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Clause != `"updated_at" > ?` {
		t.Errorf("unexpected clause %q", p.Clause)
	}
}

func TestBuildFirstRunDefaultsToLookback(t *testing.T) {
	d := descriptor("updated_at")
	d.Lookback = 30 * 24 * time.Hour

	p, err := Build(sqlutil.DialectMySQL, d, watermark.Watermark{}, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !p.FirstRun {
		t.Error("zero watermark must report first run")
	}
	want := watermark.New(testNow.Add(-30 * 24 * time.Hour))
	if p.Watermark != want {
		t.Errorf("expected lookback boundary %v, got %v", want, p.Watermark)
	}
}

func TestBuildFirstRunFallbackLookback(t *testing.T) {
	// Descriptor without an explicit lookback still gets a bounded window.
	p, err := Build(sqlutil.DialectMySQL, descriptor("updated_at"), watermark.Watermark{}, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := watermark.New(testNow.AddDate(0, 0, -30))
	if p.Watermark != want {
		t.Errorf("expected 30-day default boundary %v, got %v", want, p.Watermark)
	}
}

func TestBuildFirstRunExcludesOldRows(t *testing.T) {
	// A row last touched 70 days ago falls outside the initial window.
	p, err := Build(sqlutil.DialectMySQL, descriptor("created_at", "updated_at"), watermark.Watermark{}, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	old := testNow.AddDate(0, 0, -70)
	if p.Matches(old, old) {
		t.Error("row older than the lookback window must not qualify on first run")
	}

	recent := testNow.AddDate(0, 0, -3)
	if !p.Matches(old, recent) {
		t.Error("row touched inside the window must qualify")
	}
}

func TestBuildNoTimestampColumns(t *testing.T) {
	_, err := Build(sqlutil.DialectMySQL, descriptor(), watermark.Watermark{}, testNow)
	if err == nil {
		t.Fatal("expected error for descriptor without timestamp columns")
	}
}

func TestBuildRejectsUnsafeColumn(t *testing.T) {
	_, err := Build(sqlutil.DialectMySQL, descriptor("updated_at; DROP TABLE orders"), watermark.Watermark{}, testNow)
	if err == nil {
		t.Fatal("expected error for invalid identifier")
	}
}

func TestMatchesStrictComparison(t *testing.T) {
	boundary := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)
	w := watermark.New(boundary)

	p, err := Build(sqlutil.DialectMySQL, descriptor("updated_at"), w, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A timestamp exactly at the boundary is excluded.
	if p.Matches(boundary) {
		t.Error("boundary-equal timestamp must not qualify")
	}
	if !p.Matches(boundary.Add(time.Second)) {
		t.Error("timestamp one second past the boundary must qualify")
	}
	if p.Matches(boundary.Add(-time.Second)) {
		t.Error("timestamp before the boundary must not qualify")
	}
}

func TestMatchesAnyColumn(t *testing.T) {
	boundary := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)
	w := watermark.New(boundary)

	p, err := Build(sqlutil.DialectMySQL, descriptor("created_at", "updated_at"), w, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stale := boundary.Add(-time.Hour)
	fresh := boundary.Add(time.Hour)

	// An updated old row qualifies through updated_at alone.
	if !p.Matches(stale, fresh) {
		t.Error("row with one qualifying column must match")
	}
	if p.Matches(stale, stale) {
		t.Error("row with no qualifying column must not match")
	}
}
