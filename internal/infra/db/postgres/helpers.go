package postgres

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/lib/pq"
)

// unique_violation
const codeUniqueViolation = "23505"

func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func encodeFeatures(f []float64) ([]byte, error) {
	if f == nil {
		f = []float64{}
	}
	return json.Marshal(f)
}

func decodeFeatures(b []byte) ([]float64, error) {
	if len(b) == 0 {
		return []float64{}, nil
	}
	var f []float64
	err := json.Unmarshal(b, &f)
	return f, err
}

func isDuplicate(err error) bool {
	var pe *pq.Error
	return errors.As(err, &pe) && pe.Code == codeUniqueViolation
}
