package extract

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/dbsmedya/golake/internal/predicate"
	"github.com/dbsmedya/golake/internal/sqlutil"
	"github.com/dbsmedya/golake/internal/watermark"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "mysql"), mock
}

func testPredicate(t *testing.T) predicate.Predicate {
	w := watermark.New(time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC))
	p, err := predicate.Build(sqlutil.DialectMySQL, predicate.Descriptor{
		Table:            "orders",
		TimestampColumns: []string{"updated_at"},
	}, w, time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("failed to build predicate: %v", err)
	}
	return p
}

func TestExtractSelectsQualifyingRows(t *testing.T) {
	db, mock := newMockDB(t)
	p := testPredicate(t)

	rows := sqlmock.NewRows([]string{"order_id", "product_name", "quantity"}).
		AddRow(int64(1), []byte("Laptop Pro"), int64(2)).
		AddRow(int64(2), []byte("USB Cable"), int64(1))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `orders` WHERE `updated_at` > ?")).
		WithArgs(p.Watermark.Time()).
		WillReturnRows(rows)

	extractor := NewSQLExtractor(db, sqlutil.DialectMySQL, "")
	records, err := extractor.Extract(context.Background(), "orders", p)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	// Byte-slice values come back as strings
	if records[0]["product_name"] != "Laptop Pro" {
		t.Errorf("expected string product_name, got %T %v",
			records[0]["product_name"], records[0]["product_name"])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestExtractEmptyWindow(t *testing.T) {
	db, mock := newMockDB(t)
	p := testPredicate(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `orders` WHERE")).
		WillReturnRows(sqlmock.NewRows([]string{"order_id"}))

	extractor := NewSQLExtractor(db, sqlutil.DialectMySQL, "")
	records, err := extractor.Extract(context.Background(), "orders", p)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}

func TestExtractQueryError(t *testing.T) {
	db, mock := newMockDB(t)
	p := testPredicate(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `orders` WHERE")).
		WillReturnError(sqlmock.ErrCancelled)

	extractor := NewSQLExtractor(db, sqlutil.DialectMySQL, "")
	if _, err := extractor.Extract(context.Background(), "orders", p); err == nil {
		t.Fatal("expected error from failing query")
	}
}

func TestExtractPostgresSchemaQualifier(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	sqlxDB := sqlx.NewDb(db, "pgx")

	w := watermark.New(time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC))
	p, err := predicate.Build(sqlutil.DialectPostgres, predicate.Descriptor{
		Table:            "orders",
		TimestampColumns: []string{"updated_at"},
	}, w, time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("failed to build predicate: %v", err)
	}

	// Placeholders rebound to $1 for the postgres driver
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "analytics"."orders" WHERE "updated_at" > $1`)).
		WithArgs(p.Watermark.Time()).
		WillReturnRows(sqlmock.NewRows([]string{"order_id"}))

	extractor := NewSQLExtractor(sqlxDB, sqlutil.DialectPostgres, "analytics")
	if _, err := extractor.Extract(context.Background(), "orders", p); err != nil {
		t.Fatalf("extract failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestExtractRejectsUnsafeTable(t *testing.T) {
	db, _ := newMockDB(t)
	p := testPredicate(t)

	extractor := NewSQLExtractor(db, sqlutil.DialectMySQL, "")
	if _, err := extractor.Extract(context.Background(), "orders; DROP TABLE x", p); err == nil {
		t.Fatal("expected error for invalid table identifier")
	}
}
