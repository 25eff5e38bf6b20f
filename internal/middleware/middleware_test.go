package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusBadRequest, "invalid_input", "url is required")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_input", rec.Header().Get(ErrorCodeHeader))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"url is required"}`, rec.Body.String())
}

func TestAPIKeyAuth(t *testing.T) {
	h := APIKeyAuth([]string{"k1", "k2"})(okHandler)

	cases := []struct {
		name   string
		header map[string]string
		want   int
	}{
		{"missing", nil, http.StatusUnauthorized},
		{"bearer", map[string]string{"Authorization": "Bearer k2"}, http.StatusOK},
		{"raw", map[string]string{"Authorization": "k1"}, http.StatusOK},
		{"x-api-key", map[string]string{"X-API-Key": "k1"}, http.StatusOK},
		{"wrong", map[string]string{"Authorization": "Bearer nope"}, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/scan", nil)
			for k, v := range tc.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}

	t.Run("preflight", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/scan", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestAPIKeyAuthDisabled(t *testing.T) {
	h := APIKeyAuth(nil)(okHandler)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/scan", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(NewRateLimiter(2, 0))(okHandler)

	do := func(path, addr string) int {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("/api/scan", "10.0.0.1:1000"))
	assert.Equal(t, http.StatusOK, do("/api/scan", "10.0.0.1:1001"))
	assert.Equal(t, http.StatusTooManyRequests, do("/api/scan", "10.0.0.1:1002"))

	// other clients and non-api paths are unaffected
	assert.Equal(t, http.StatusOK, do("/api/scan", "10.0.0.2:1000"))
	assert.Equal(t, http.StatusOK, do("/health", "10.0.0.1:1003"))
}

func TestRateLimiterPrune(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	rl.Allow("a")
	rl.Allow("b")

	assert.Equal(t, 0, rl.Prune(time.Hour))
	assert.Equal(t, 2, rl.Prune(-time.Second))
}

func TestValidateScanURL(t *testing.T) {
	assert.NoError(t, ValidateScanURL("http://example.com"))
	assert.NoError(t, ValidateScanURL("example.com/login?x=1"))
	assert.Error(t, ValidateScanURL(""))
	assert.Error(t, ValidateScanURL("   "))
	assert.Error(t, ValidateScanURL("http://a.com/\nx"))
	assert.Error(t, ValidateScanURL("http://a.com/"+strings.Repeat("a", MaxURLLength)))

	// long tracking queries are common on phishing links
	assert.NoError(t, ValidateScanURL("http://a.com/?utm="+strings.Repeat("a", 3000)))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "looks fake", SanitizeString("  looks\x00 fake\x07 "))
	assert.Equal(t, "line1\nline2", SanitizeString("line1\nline2"))
}

func TestHealthHandler(t *testing.T) {
	h := HealthHandler(map[string]HealthChecker{
		"db":        CheckerFunc(func(context.Context) error { return nil }),
		"predictor": CheckerFunc(func(context.Context) error { return errors.New("connection refused") }),
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, "healthy", body.Checks["db"].Status)
	assert.Equal(t, "connection refused", body.Checks["predictor"].Message)
}

func TestHealthHandlerAllHealthy(t *testing.T) {
	h := HealthHandler(map[string]HealthChecker{
		"db": CheckerFunc(func(context.Context) error { return nil }),
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoggingRecordsErrorCode(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	h := Logging(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusInternalServerError, "upstream_failure", "Scan failed")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/scan", nil))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "ERROR", line["level"])
	assert.Equal(t, "upstream_failure", line["error_code"])
	assert.Equal(t, float64(500), line["status"])
	assert.Equal(t, "/api/scan", line["path"])
}
