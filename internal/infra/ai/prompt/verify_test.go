package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bryanwahyu/phishscan/internal/domain/scans"
)

func TestUserPromptEmbedsURLAndVerdict(t *testing.T) {
	p := GetUserPrompt("http://paypa1.example/login", scans.VerdictSafe)
	assert.Contains(t, p, "http://paypa1.example/login")
	assert.Contains(t, p, "Classifier verdict: safe")
}

func TestSystemPromptNamesBothVerdicts(t *testing.T) {
	p := GetSystemPrompt()
	assert.Contains(t, p, "phishing")
	assert.Contains(t, p, "safe")
}
