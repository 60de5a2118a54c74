package sqldriver

import (
	"context"
	"testing"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/karu-codes/tilesql/errors"
)

func TestClassifyPostgresUniqueViolation(t *testing.T) {
	appErr := classify(&pgconn.PgError{Code: "23505", Message: "duplicate key"})
	if appErr.Code != errors.CodeAlreadyExists {
		t.Fatalf("expected CodeAlreadyExists, got %v", appErr.Code)
	}
}

func TestClassifyPostgresDeadlock(t *testing.T) {
	appErr := classify(&pgconn.PgError{Code: "40P01"})
	if appErr.Code != errors.CodeConflict {
		t.Fatalf("expected CodeConflict, got %v", appErr.Code)
	}
	if !isRetryable(appErr) {
		t.Fatal("expected deadlock to be retryable")
	}
}

func TestClassifyPostgresCancelled(t *testing.T) {
	appErr := classify(&pgconn.PgError{Code: "57014"})
	if appErr.Code != errors.CodeCancelled {
		t.Fatalf("expected CodeCancelled, got %v", appErr.Code)
	}
	if isRetryable(appErr) {
		t.Fatal("cancellation should not be retried")
	}
}

func TestClassifyMySQLDuplicateEntry(t *testing.T) {
	appErr := classify(&mysqldriver.MySQLError{Number: 1062, Message: "dup"})
	if appErr.Code != errors.CodeAlreadyExists {
		t.Fatalf("expected CodeAlreadyExists, got %v", appErr.Code)
	}
}

func TestClassifyMySQLLockWaitTimeout(t *testing.T) {
	appErr := classify(&mysqldriver.MySQLError{Number: 1205})
	if appErr.Code != errors.CodeTimeout {
		t.Fatalf("expected CodeTimeout, got %v", appErr.Code)
	}
	if !isRetryable(appErr) {
		t.Fatal("expected lock wait timeout to be retryable")
	}
}

func TestClassifyUnknownErrorFallsBackToDriver(t *testing.T) {
	appErr := classify(errors.New(errors.CodeInternal, "boom"))
	if appErr.Code != errors.CodeDriver {
		t.Fatalf("expected CodeDriver fallback, got %v", appErr.Code)
	}
}

func TestClassifyNilIsNil(t *testing.T) {
	if classify(nil) != nil {
		t.Fatal("expected nil in, nil out")
	}
}

func TestIsRetryableContextCancelledNeverRetries(t *testing.T) {
	if isRetryable(context.Canceled) {
		t.Fatal("context.Canceled must never be retried")
	}
}
