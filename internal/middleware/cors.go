package middleware

import (
	"net/http"
	"strings"
)

// corsAllowedMethods lists the only methods the scoring API serves.
const corsAllowedMethods = "GET, POST, OPTIONS"

// corsAllowedHeaders lists request headers browsers may send.
const corsAllowedHeaders = "Content-Type, X-Request-ID"

// CORS returns a middleware that handles cross-origin requests from the
// community site frontends. Only explicitly listed origins are allowed;
// with an empty allowlist the middleware is a pass-through. Preflight
// OPTIONS requests are answered directly with 204.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			allowed[origin] = true
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(allowed) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			origin := r.Header.Get("Origin")
			// No Origin header means a same-origin request.
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			if !allowed[origin] {
				http.Error(w, "Origin not allowed", http.StatusForbidden)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", corsAllowedMethods)
			w.Header().Set("Access-Control-Allow-Headers", corsAllowedHeaders)

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
