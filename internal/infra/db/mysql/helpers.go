package mysql

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// MySQL error 1062: duplicate entry for a unique key.
const errDupEntry = 1062

// stringOrDash returns "-" when the input is empty/whitespace
func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// urlHash is the unique key; TEXT urls cannot carry a unique index.
func urlHash(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

func encodeFeatures(f []float64) (string, error) {
	if f == nil {
		f = []float64{}
	}
	b, err := json.Marshal(f)
	return string(b), err
}

func decodeFeatures(s string) ([]float64, error) {
	var f []float64
	if strings.TrimSpace(s) == "" {
		return []float64{}, nil
	}
	err := json.Unmarshal([]byte(s), &f)
	return f, err
}

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == errDupEntry
}
