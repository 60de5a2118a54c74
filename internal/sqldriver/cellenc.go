package sqldriver

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/karu-codes/tilesql/internal/resultset"
)

// encodeCell renders a single scanned driver value as a text cell,
// substituting the null sentinel for SQL NULL. This is the mirror image of
// the Go-value -> pgtype.* conversion helpers a query builder would use
// (ToUUID, ToTimestamp, ...): those go from a typed Go value to a nullable
// wire type on the way into a query; this goes from a nullable wire/scan
// value back to a single text cell on the way out of one.
func encodeCell(v any) string {
	switch val := v.(type) {
	case nil:
		return resultset.NullSentinel
	case string:
		return val
	case []byte:
		return string(val)
	case bool:
		if val {
			return "t"
		}
		return "f"
	case time.Time:
		return val.Format(time.RFC3339Nano)

	case pgtype.Text:
		if !val.Valid {
			return resultset.NullSentinel
		}
		return val.String
	case pgtype.Int4:
		if !val.Valid {
			return resultset.NullSentinel
		}
		return fmt.Sprintf("%d", val.Int32)
	case pgtype.Int8:
		if !val.Valid {
			return resultset.NullSentinel
		}
		return fmt.Sprintf("%d", val.Int64)
	case pgtype.Float8:
		if !val.Valid {
			return resultset.NullSentinel
		}
		return fmt.Sprintf("%v", val.Float64)
	case pgtype.Bool:
		if !val.Valid {
			return resultset.NullSentinel
		}
		if val.Bool {
			return "t"
		}
		return "f"
	case pgtype.Timestamp:
		if !val.Valid {
			return resultset.NullSentinel
		}
		return val.Time.Format(time.RFC3339Nano)
	case pgtype.Timestamptz:
		if !val.Valid {
			return resultset.NullSentinel
		}
		return val.Time.Format(time.RFC3339Nano)
	case pgtype.UUID:
		if !val.Valid {
			return resultset.NullSentinel
		}
		u, _ := val.Value()
		return fmt.Sprintf("%v", u)

	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}
