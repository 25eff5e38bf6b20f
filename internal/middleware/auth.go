package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// APIKeyAuth validates the API key from the Authorization or X-API-Key
// header. With no keys configured the API stays open, which is how the
// browser extension talks to it.
func APIKeyAuth(validKeys []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(validKeys) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// preflight carries no credentials
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			apiKey := strings.TrimSpace(r.Header.Get("X-API-Key"))
			if apiKey == "" {
				// Support both "Bearer <key>" and "<key>" formats
				auth := r.Header.Get("Authorization")
				apiKey = strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			}
			if apiKey == "" {
				WriteError(w, http.StatusUnauthorized, "unauthorized", "missing API key")
				return
			}

			// constant-time comparison
			for _, key := range validKeys {
				if subtle.ConstantTimeCompare([]byte(apiKey), []byte(key)) == 1 {
					next.ServeHTTP(w, r)
					return
				}
			}
			WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid API key")
		})
	}
}
