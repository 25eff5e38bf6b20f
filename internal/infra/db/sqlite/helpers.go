package sqlite

import (
	"encoding/json"
	"errors"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

func encodeFeatures(f []float64) (string, error) {
	if f == nil {
		f = []float64{}
	}
	b, err := json.Marshal(f)
	return string(b), err
}

func decodeFeatures(s string) ([]float64, error) {
	if s == "" {
		return []float64{}, nil
	}
	var f []float64
	err := json.Unmarshal([]byte(s), &f)
	return f, err
}

// timestamps are stored as unix nanoseconds so ordering is exact
func toNanos(t time.Time) int64 {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().UnixNano()
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func isDuplicate(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}
