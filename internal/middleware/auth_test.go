package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func authTestHandler() (http.Handler, *bool) {
	reached := false
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	})
	return h, &reached
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		configKey  string
		header     string
		value      string
		wantStatus int
	}{
		{"x-api-key accepted", "sekrit", "X-API-Key", "sekrit", http.StatusOK},
		{"bearer accepted", "sekrit", "Authorization", "Bearer sekrit", http.StatusOK},
		{"wrong key rejected", "sekrit", "X-API-Key", "nope", http.StatusUnauthorized},
		{"missing key rejected", "sekrit", "", "", http.StatusUnauthorized},
		{"malformed bearer rejected", "sekrit", "Authorization", "sekrit", http.StatusUnauthorized},
		{"empty config disables auth", "", "", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, reached := authTestHandler()
			mw := NewAuthMiddleware(AuthConfig{APIKey: tt.configKey})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			mw(next).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if wantReached := tt.wantStatus == http.StatusOK; *reached != wantReached {
				t.Errorf("handler reached = %v, want %v", *reached, wantReached)
			}
		})
	}
}
