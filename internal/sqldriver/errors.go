package sqldriver

import (
	"context"
	stderrors "errors"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/karu-codes/tilesql/errors"
)

// classify maps a driver-level error into the app's error taxonomy so the
// worker and the connect-phase retry loop can tell a retryable connection
// hiccup from a query the user actually got wrong.
func classify(err error) *errors.Error {
	if err == nil {
		return nil
	}
	if code, ok := classifyPostgres(err); ok {
		return errors.Wrap(err, code, "database error")
	}
	if code, ok := classifyMySQL(err); ok {
		return errors.Wrap(err, code, "database error")
	}
	return errors.Wrap(err, errors.CodeDriver, "database error")
}

func classifyPostgres(err error) (errors.Code, bool) {
	var pgErr *pgconn.PgError
	if !stderrors.As(err, &pgErr) {
		return "", false
	}

	switch pgErr.Code {
	case "23502", "23503", "23514", "23P01", "23001": // not_null / fk / check / exclusion / restrict
		return errors.CodeInvalidArgument, true
	case "23505": // unique_violation
		return errors.CodeAlreadyExists, true
	case "40001", "40P01": // serialization_failure, deadlock_detected
		return errors.CodeConflict, true
	case "42601", "42701", "42702", "42703", "42P02": // syntax and name errors
		return errors.CodeInvalidArgument, true
	case "42P01": // undefined_table
		return errors.CodeNotFound, true
	case "42501": // insufficient_privilege
		return errors.CodePermission, true
	case "53000", "53100", "53200", "53300", "57000", "57P01", "57P02", "57P03":
		return errors.CodeUnavailable, true
	case "57014": // query_canceled
		return errors.CodeCancelled, true
	default:
		return errors.CodeQueryFailed, true
	}
}

func classifyMySQL(err error) (errors.Code, bool) {
	var myErr *mysqldriver.MySQLError
	if !stderrors.As(err, &myErr) {
		return "", false
	}

	switch myErr.Number {
	case 1040, 1042, 1043, 1037, 1041: // connection / resource exhaustion
		return errors.CodeUnavailable, true
	case 1044, 1142, 1143: // access denied on db/table/column
		return errors.CodePermission, true
	case 1045: // access denied (auth)
		return errors.CodeUnauthenticated, true
	case 1049, 1051: // unknown database/table
		return errors.CodeNotFound, true
	case 1050, 1062: // already exists / duplicate entry
		return errors.CodeAlreadyExists, true
	case 1054, 1060, 1061, 1064, 1216, 1217, 1451, 1452: // naming/parse/fk errors
		return errors.CodeInvalidArgument, true
	case 1205: // lock wait timeout
		return errors.CodeTimeout, true
	case 1213: // deadlock
		return errors.CodeConflict, true
	case 1159, 1160: // net read/write timeout
		return errors.CodeTimeout, true
	default:
		return errors.CodeQueryFailed, true
	}
}

// isRetryable reports whether err is safe to retry during the connect
// phase. It must never be consulted once a statement is executing — a
// running query either finishes, errors, or is cancelled, it is never
// silently retried underneath the caller.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, context.Canceled) {
		return false
	}
	var appErr *errors.Error
	if !stderrors.As(err, &appErr) {
		return true // unknown dial/network error: assume transient
	}
	return appErr.Code.IsRetryableClass()
}
