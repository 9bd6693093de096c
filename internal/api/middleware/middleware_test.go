package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuth(t *testing.T) {
	h := Auth("secret-key")(okHandler())

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"valid key", "Bearer secret-key", http.StatusOK},
		{"case-insensitive scheme", "bearer secret-key", http.StatusOK},
		{"wrong key", "Bearer wrong", http.StatusUnauthorized},
		{"missing header", "", http.StatusUnauthorized},
		{"malformed header", "secret-key", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/v1/webhooks/payment", nil)
			if tt.authHeader != "" {
				r.Header.Set("Authorization", tt.authHeader)
			}

			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	t.Run("preflight bypasses the wrapped handler", func(t *testing.T) {
		h := CORS(Auth("secret-key")(okHandler()))

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/v1/track", nil))

		if w.Code != http.StatusOK {
			t.Errorf("preflight status = %d, want 200 without auth", w.Code)
		}
		if w.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Error("missing CORS headers on preflight")
		}
	})

	t.Run("sets headers on normal requests", func(t *testing.T) {
		h := CORS(okHandler())

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/track", nil))

		if w.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Error("missing CORS headers")
		}
	})
}

func TestRequestID(t *testing.T) {
	t.Run("generates an id when absent", func(t *testing.T) {
		h := RequestID(okHandler())

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		if w.Header().Get("X-Request-ID") == "" {
			t.Error("no X-Request-ID generated")
		}
	})

	t.Run("propagates a client-sent id", func(t *testing.T) {
		h := RequestID(okHandler())

		r := httptest.NewRequest(http.MethodGet, "/health", nil)
		r.Header.Set("X-Request-ID", "client-id-1")

		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		if got := w.Header().Get("X-Request-ID"); got != "client-id-1" {
			t.Errorf("X-Request-ID = %q", got)
		}
	})
}
