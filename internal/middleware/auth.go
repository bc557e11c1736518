package middleware

import (
	"crypto/subtle"
	"net/http"

	"partshub-api/pkg/apierror"
	"partshub-api/pkg/response"
)

// AuthConfig holds dependencies for the auth middleware.
type AuthConfig struct {
	// APIKey is the static staff API key. Empty disables auth entirely,
	// which is only acceptable in development.
	APIKey string
}

// NewAuthMiddleware creates a middleware that requires the staff API key
// on every request in the protected group. The key is accepted via the
// X-API-Key header or a Bearer token.
func NewAuthMiddleware(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.APIKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get("X-API-Key")
			if key == "" {
				auth := r.Header.Get("Authorization")
				const prefix = "Bearer "
				if len(auth) > len(prefix) && auth[:len(prefix)] == prefix {
					key = auth[len(prefix):]
				}
			}

			if subtle.ConstantTimeCompare([]byte(key), []byte(cfg.APIKey)) != 1 {
				response.Error(w, apierror.Unauthorized("invalid or missing API key"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
