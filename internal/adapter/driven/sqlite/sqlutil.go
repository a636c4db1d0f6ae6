package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// timeLayout is the stored timestamp format. attentionhub writes go through
// formatTime. Snapshot columns may hold any format parseTime accepts, so
// snapshot queries compare and order times through julianday() rather than
// as text.
const timeLayout = "2006-01-02T15:04:05Z"

// sqlTimeLayout renders a SQLite time value in timeLayout.
const sqlTimeLayout = `'%Y-%m-%dT%H:%M:%SZ'`

// errMalformedRow marks a snapshot row that scanned but holds a value that
// cannot be interpreted. Callers skip the row instead of failing the query.
var errMalformedRow = errors.New("malformed snapshot row")

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullableTime(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return formatTime(*t)
}

// parseTime tries multiple SQLite datetime formats.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		timeLayout,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.000",
		time.RFC3339,
		time.RFC3339Nano,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}

// requiredTime parses a mandatory snapshot timestamp. Failures wrap
// errMalformedRow.
func requiredTime(s, column string, id int64) (time.Time, error) {
	t, err := parseTime(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s %d: %v", errMalformedRow, column, id, err)
	}
	return t, nil
}

// optionalTime parses a nullable snapshot timestamp. Unparseable values read
// as absent.
func optionalTime(s sql.NullString) time.Time {
	t, err := parseNullTime(s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// parseNullTime returns the zero time for NULL or empty values.
func parseNullTime(s sql.NullString) (time.Time, error) {
	if !s.Valid || s.String == "" {
		return time.Time{}, nil
	}
	return parseTime(s.String)
}

// idList encodes ids as a JSON array for use with json_each(?). A nil slice
// encodes as an empty array so NOT IN filters match every row.
func idList(ids []int64) string {
	if len(ids) == 0 {
		return "[]"
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func stringList(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// decodeStringList decodes a stored JSON array. Malformed values decode to nil.
func decodeStringList(raw string) []string {
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func nullableString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
