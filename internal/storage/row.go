package storage

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Row is a single result row keyed by column name.
//
// Drivers disagree on the Go types they return (int32 vs int64, time.Time vs
// text timestamps, []byte vs string), so callers read values through the
// accessors below instead of asserting types directly.
type Row map[string]any

// rowsFromMaps converts scanned maps to rows. Text columns some drivers hand
// back as []byte become strings so cached values do not alias driver buffers.
func rowsFromMaps(maps []map[string]any) []Row {
	out := make([]Row, 0, len(maps))
	for _, m := range maps {
		for col, v := range m {
			if b, ok := v.([]byte); ok {
				m[col] = string(b)
			}
		}
		out = append(out, Row(m))
	}
	return out
}

// Has reports whether the column is present and not NULL.
func (r Row) Has(col string) bool {
	v, ok := r[col]
	return ok && v != nil
}

// Int64 returns the column as an int64, or 0 when NULL or not numeric.
func (r Row) Int64(col string) int64 {
	n, _ := r.NullInt64(col)
	return n
}

// NullInt64 returns the column as an int64 and whether it held a value.
func (r Row) NullInt64(col string) (int64, bool) {
	return toInt64(r[col])
}

// String returns the column as text, or "" when NULL.
func (r Row) String(col string) string {
	s, _ := r.NullString(col)
	return s
}

// NullString returns the column as text and whether it held a value.
func (r Row) NullString(col string) (string, bool) {
	switch v := r[col].(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case []byte:
		return string(v), true
	case fmt.Stringer:
		return v.String(), true
	default:
		return fmt.Sprint(v), true
	}
}

// Time returns the column as a UTC time. Text timestamps are parsed using the
// layouts SQLite and Postgres emit. The zero time is returned when the value
// is NULL or cannot be parsed.
func (r Row) Time(col string) time.Time {
	t, _ := toTime(r[col])
	return t
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int:
		return int64(n), true
	case int16:
		return int64(n), true
	case int8:
		return int64(n), true
	case uint32:
		return int64(n), true
	case float64:
		return int64(n), true
	case []byte:
		i, err := strconv.ParseInt(string(n), 10, 64)
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), true
	case string:
		return parseTime(t)
	case []byte:
		return parseTime(string(t))
	default:
		return time.Time{}, false
	}
}

func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
