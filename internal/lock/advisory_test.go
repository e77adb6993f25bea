package lock

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/dbsmedya/golake/internal/sqlutil"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "mysql"), mock
}

func TestAcquireMySQLSuccess(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT GET_LOCK(?, ?)")).
		WithArgs("golake:run:orders", 0).
		WillReturnRows(sqlmock.NewRows([]string{"GET_LOCK"}).AddRow(1))

	l := NewRunLock(sqlutil.DialectMySQL, "orders")
	if err := l.Acquire(context.Background(), db); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if !l.IsHeld() {
		t.Error("expected lock to be held")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestAcquireMySQLHeldElsewhere(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT GET_LOCK(?, ?)")).
		WillReturnRows(sqlmock.NewRows([]string{"GET_LOCK"}).AddRow(0))

	l := NewRunLock(sqlutil.DialectMySQL, "orders")
	err := l.Acquire(context.Background(), db)
	if !errors.Is(err, ErrLockHeld) {
		t.Fatalf("expected ErrLockHeld, got %v", err)
	}
	if l.IsHeld() {
		t.Error("lock must not report held after contention")
	}
}

func TestAcquireMySQLNullResult(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT GET_LOCK(?, ?)")).
		WillReturnRows(sqlmock.NewRows([]string{"GET_LOCK"}).AddRow(nil))

	l := NewRunLock(sqlutil.DialectMySQL, "orders")
	err := l.Acquire(context.Background(), db)
	if err == nil {
		t.Fatal("expected error for NULL GET_LOCK result")
	}
	if errors.Is(err, ErrLockHeld) {
		t.Error("NULL result is an error, not contention")
	}
}

func TestAcquirePostgres(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT pg_try_advisory_lock($1)")).
		WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(true))

	l := NewRunLock(sqlutil.DialectPostgres, "orders")
	if err := l.Acquire(context.Background(), db); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if !l.IsHeld() {
		t.Error("expected lock to be held")
	}
}

func TestAcquireIdempotent(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT GET_LOCK(?, ?)")).
		WillReturnRows(sqlmock.NewRows([]string{"GET_LOCK"}).AddRow(1))

	l := NewRunLock(sqlutil.DialectMySQL, "orders")
	ctx := context.Background()
	if err := l.Acquire(ctx, db); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	// Second acquire on a held lock is a no-op, no extra query expected.
	if err := l.Acquire(ctx, db); err != nil {
		t.Fatalf("re-acquire failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestReleaseMySQL(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT GET_LOCK(?, ?)")).
		WillReturnRows(sqlmock.NewRows([]string{"GET_LOCK"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT RELEASE_LOCK(?)")).
		WithArgs("golake:run:orders").
		WillReturnRows(sqlmock.NewRows([]string{"RELEASE_LOCK"}).AddRow(1))

	l := NewRunLock(sqlutil.DialectMySQL, "orders")
	ctx := context.Background()
	if err := l.Acquire(ctx, db); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if err := l.Release(ctx); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if l.IsHeld() {
		t.Error("lock must not report held after release")
	}
}

func TestReleaseUnheldIsNoOp(t *testing.T) {
	l := NewRunLock(sqlutil.DialectMySQL, "orders")
	if err := l.Release(context.Background()); err != nil {
		t.Errorf("releasing unheld lock must be a no-op, got %v", err)
	}
}

func TestWithRunLockReleasesOnSuccess(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT GET_LOCK(?, ?)")).
		WillReturnRows(sqlmock.NewRows([]string{"GET_LOCK"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT RELEASE_LOCK(?)")).
		WillReturnRows(sqlmock.NewRows([]string{"RELEASE_LOCK"}).AddRow(1))

	called := false
	err := WithRunLock(context.Background(), db, sqlutil.DialectMySQL, "orders", func() error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("expected fn to run")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestWithRunLockPropagatesError(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT GET_LOCK(?, ?)")).
		WillReturnRows(sqlmock.NewRows([]string{"GET_LOCK"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT RELEASE_LOCK(?)")).
		WillReturnRows(sqlmock.NewRows([]string{"RELEASE_LOCK"}).AddRow(1))

	wantErr := errors.New("run failed")
	err := WithRunLock(context.Background(), db, sqlutil.DialectMySQL, "orders", func() error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected fn error, got %v", err)
	}
}

func TestWithRunLockContended(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT GET_LOCK(?, ?)")).
		WillReturnRows(sqlmock.NewRows([]string{"GET_LOCK"}).AddRow(0))

	err := WithRunLock(context.Background(), db, sqlutil.DialectMySQL, "orders", func() error {
		t.Error("fn must not run when the lock is contended")
		return nil
	})
	if !errors.Is(err, ErrLockHeld) {
		t.Fatalf("expected ErrLockHeld, got %v", err)
	}
}

func TestLockName(t *testing.T) {
	tests := []struct {
		table string
		want  string
	}{
		{"orders", "golake:run:orders"},
		{"order_items", "golake:run:order_items"},
		{"weird table!", "golake:run:weird_table_"},
	}

	for _, tt := range tests {
		if got := LockName(tt.table); got != tt.want {
			t.Errorf("LockName(%q) = %q, want %q", tt.table, got, tt.want)
		}
	}
}
