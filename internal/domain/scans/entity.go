package scans

import (
	"strings"
	"time"
	"unicode"
)

// Verdict enum
type Verdict string

const (
	VerdictPhishing Verdict = "phishing"
	VerdictSafe     Verdict = "safe"
)

// verdictAliases maps normalized free text to the closed verdict set.
// "phising" is what the inference service actually emits.
var verdictAliases = map[string]Verdict{
	"phishing":   VerdictPhishing,
	"phising":    VerdictPhishing,
	"phish":      VerdictPhishing,
	"malicious":  VerdictPhishing,
	"safe":       VerdictSafe,
	"legitimate": VerdictSafe,
	"legit":      VerdictSafe,
	"benign":     VerdictSafe,
}

// negations make an answer ambiguous: "not safe" must not read as safe.
// Contractions arrive split on the apostrophe ("isn't" -> "isn", "t").
var negations = map[string]bool{
	"not": true, "no": true, "never": true, "neither": true, "nor": true,
	"isn": true, "aren": true, "wasn": true, "doesn": true, "don": true,
	"cannot": true, "hardly": true,
}

// negatedPrefixes catch "unsafe", "nonmalicious", "illegitimate".
var negatedPrefixes = []string{"un", "non", "il"}

func isNegation(w string) bool {
	if negations[w] {
		return true
	}
	for _, p := range negatedPrefixes {
		if rest, ok := strings.CutPrefix(w, p); ok {
			if _, alias := verdictAliases[rest]; alias {
				return true
			}
		}
	}
	return false
}

// ParseVerdict normalizes raw text (case, whitespace, markdown and
// punctuation) and maps it onto the closed verdict set. Multi-word answers
// are accepted only when exactly one known verdict appears in them and
// nothing negates it.
func ParseVerdict(raw string) (Verdict, bool) {
	words := strings.FieldsFunc(strings.ToLower(raw), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	var found Verdict
	for _, w := range words {
		if isNegation(w) {
			return "", false
		}
		v, ok := verdictAliases[w]
		if !ok {
			continue
		}
		if found != "" && found != v {
			return "", false
		}
		found = v
	}
	return found, found != ""
}

func (v Verdict) Valid() bool {
	return v == VerdictPhishing || v == VerdictSafe
}

// ScanRecord is the single stored result for one URL.
type ScanRecord struct {
	URL        string    `json:"url"`
	Features   []float64 `json:"features"`
	Prediction Verdict   `json:"prediction"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Prediction is what the inference service returned for a URL.
// FeatureNames is parallel to Features, in the order the service sent them.
type Prediction struct {
	Features     []float64
	FeatureNames []string
	Verdict      Verdict
	Raw          string
}
