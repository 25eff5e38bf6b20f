package middleware

import (
	"fmt"
	"strings"
	"unicode"
)

// MaxURLLength bounds the url field of scan and feedback requests.
const MaxURLLength = 8192

// ValidateScanURL checks the submitted URL without rewriting it: the cache is
// keyed on the exact string, so "http://a.com" and "http://a.com/" differ.
func ValidateScanURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("URL is required")
	}
	if len(raw) > MaxURLLength {
		return fmt.Errorf("URL exceeds %d characters", MaxURLLength)
	}
	for _, r := range raw {
		if unicode.IsControl(r) {
			return fmt.Errorf("URL contains control characters")
		}
	}
	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}
