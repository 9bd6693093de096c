package middleware

import "net/http"

// CORS sets permissive CORS headers and answers preflight requests.
// The tracking endpoint is called from browsers on storefront origins, so the
// surface allows any origin. CORS must wrap Auth so OPTIONS preflight requests
// bypass authentication.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			if _, err := w.Write([]byte("ok")); err != nil {
				// Nothing actionable; the client has gone away.
				return
			}
			return
		}

		next.ServeHTTP(w, r)
	})
}
