package scans

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseVerdict(t *testing.T) {
	cases := []struct {
		in   string
		want Verdict
		ok   bool
	}{
		{"phishing", VerdictPhishing, true},
		{"phising", VerdictPhishing, true},
		{"Phishing.\n", VerdictPhishing, true},
		{"**SAFE**", VerdictSafe, true},
		{"  safe ", VerdictSafe, true},
		{"The site is legitimate", VerdictSafe, true},
		{"phishing or safe", "", false},
		{"unsure", "", false},
		{"", "", false},
		{"Not safe", "", false},
		{"not phishing", "", false},
		{"This is NOT a legitimate site", "", false},
		{"It isn't phishing.", "", false},
		{"No, safe", "", false},
		{"unsafe", "", false},
		{"Illegitimate", "", false},
		{"non-malicious", "", false},
		{"Phishing: the domain imitates a bank", VerdictPhishing, true},
	}
	for _, tc := range cases {
		got, ok := ParseVerdict(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestVerdictValid(t *testing.T) {
	assert.True(t, VerdictPhishing.Valid())
	assert.True(t, VerdictSafe.Valid())
	assert.False(t, Verdict("phising").Valid())
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "", ErrorCode(nil))
	assert.Equal(t, "invalid_input", ErrorCode(fmt.Errorf("%w: url is required", ErrInvalidInput)))
	assert.Equal(t, "upstream_failure", ErrorCode(fmt.Errorf("predict: %w", ErrUpstream)))
	assert.Equal(t, "persistence_failure", ErrorCode(fmt.Errorf("insert: %w", ErrPersistence)))
	assert.Equal(t, "internal", ErrorCode(errors.New("boom")))
}

func TestWrapKeepsExistingKind(t *testing.T) {
	base := fmt.Errorf("insert: %w", ErrPersistence)
	assert.Same(t, base, Wrap(ErrPersistence, base))

	wrapped := Wrap(ErrUpstream, errors.New("dial tcp: refused"))
	assert.ErrorIs(t, wrapped, ErrUpstream)
	assert.Nil(t, Wrap(ErrUpstream, nil))
}
