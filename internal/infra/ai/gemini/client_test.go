package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domai "github.com/bryanwahyu/phishscan/internal/domain/ai"
	"github.com/bryanwahyu/phishscan/internal/domain/scans"
)

func newTestClient(h http.HandlerFunc) (*Client, func()) {
	srv := httptest.NewServer(h)
	c := NewClient("secret", "", time.Second)
	c.BaseURL = srv.URL
	return c, srv.Close
}

func TestVerify(t *testing.T) {
	c, done := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-goog-api-key"))

		var req request
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if assert.Len(t, req.Contents, 1) {
			assert.Contains(t, req.Contents[0].Parts[0].Text, "http://example.com")
		}
		assert.NotNil(t, req.SystemInstruction)

		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Safe\n"}]}}]}`))
	})
	defer done()

	got, err := c.Verify(context.Background(), "http://example.com", scans.VerdictPhishing)
	require.NoError(t, err)
	assert.Equal(t, "Safe\n", got)
}

func TestVerifyQuota(t *testing.T) {
	c, done := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"message":"Resource exhausted","status":"RESOURCE_EXHAUSTED"}}`))
	})
	defer done()

	_, err := c.Verify(context.Background(), "http://example.com", scans.VerdictSafe)
	assert.ErrorIs(t, err, domai.ErrQuotaExceeded)
}

func TestVerifyEmptyCandidates(t *testing.T) {
	c, done := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	})
	defer done()

	_, err := c.Verify(context.Background(), "http://example.com", scans.VerdictSafe)
	assert.ErrorIs(t, err, domai.ErrEmptyResponse)
}

func TestVerifyAPIError(t *testing.T) {
	c, done := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":400,"message":"API key not valid"}}`))
	})
	defer done()

	_, err := c.Verify(context.Background(), "http://example.com", scans.VerdictSafe)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestVerifyJoinsParts(t *testing.T) {
	c, done := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Phish"},{"text":"ing"},{"text":"\n"}]}}]}`))
	})
	defer done()

	got, err := c.Verify(context.Background(), "http://example.com", scans.VerdictSafe)
	require.NoError(t, err)
	assert.Equal(t, "Phishing\n", got)
}
