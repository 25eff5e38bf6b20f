package prompt

import (
	"fmt"

	"github.com/bryanwahyu/phishscan/internal/domain/scans"
)

// GetSystemPrompt provides strict directions for a one-word verdict.
func GetSystemPrompt() string {
	return `You are a phishing analyst double-checking a URL classifier.
Requirements:
- Answer with exactly one lowercase word: phishing or safe.
- No punctuation, no explanation, no markdown.
- Judge the URL itself: domain reputation, look-alike brands, suspicious
  paths or parameters. Use web knowledge when you have it.
- If you are unsure, repeat the classifier's verdict.`
}

// GetUserPrompt embeds the url and the classifier verdict.
func GetUserPrompt(url string, predicted scans.Verdict) string {
	return fmt.Sprintf("URL: %s\nClassifier verdict: %s\nIs this URL phishing or safe?", url, predicted)
}
