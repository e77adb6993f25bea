package watermark

import (
	"testing"
	"time"
)

func TestNewTruncatesToSecond(t *testing.T) {
	instant := time.Date(2026, 8, 27, 10, 30, 45, 999999999, time.UTC)
	w := New(instant)

	if w.Time() != time.Date(2026, 8, 27, 10, 30, 45, 0, time.UTC) {
		t.Errorf("expected sub-second precision dropped, got %v", w.Time())
	}
}

func TestNewConvertsToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	w := New(time.Date(2026, 8, 27, 13, 0, 0, 0, loc))

	if w.String() != "2026-08-27 10:00:00" {
		t.Errorf("expected UTC rendering, got %q", w.String())
	}
}

func TestParseRoundTrip(t *testing.T) {
	w, err := Parse("2026-08-27 10:30:45")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if w.String() != "2026-08-27 10:30:45" {
		t.Errorf("round trip mismatch: %q", w.String())
	}
}

func TestParseTrimsWhitespace(t *testing.T) {
	w, err := Parse("  2026-08-27 10:30:45\n")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if w.String() != "2026-08-27 10:30:45" {
		t.Errorf("expected trimmed parse, got %q", w.String())
	}
}

func TestParseInvalid(t *testing.T) {
	invalid := []string{
		"",
		"not-a-timestamp",
		"2026-08-27T10:30:45Z", // RFC3339 is not the persisted layout
		"2026-08-27",
	}

	for _, s := range invalid {
		if _, err := Parse(s); err == nil {
			t.Errorf("expected parse error for %q", s)
		}
	}
}

func TestIsZero(t *testing.T) {
	var zero Watermark
	if !zero.IsZero() {
		t.Error("zero value should report IsZero")
	}
	if zero.String() != "" {
		t.Errorf("zero value should render empty, got %q", zero.String())
	}

	w := New(time.Now())
	if w.IsZero() {
		t.Error("non-zero watermark should not report IsZero")
	}
}

func TestBefore(t *testing.T) {
	earlier := New(time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC))
	later := New(time.Date(2026, 8, 27, 11, 0, 0, 0, time.UTC))

	if !earlier.Before(later) {
		t.Error("expected earlier.Before(later)")
	}
	if later.Before(earlier) {
		t.Error("expected !later.Before(earlier)")
	}
	if earlier.Before(earlier) {
		t.Error("Before should be strict")
	}
}

func TestKey(t *testing.T) {
	got := Key("orders")
	want := "etl-metadata/orders/last_processed_timestamp.txt"
	if got != want {
		t.Errorf("expected key %q, got %q", want, got)
	}
}
