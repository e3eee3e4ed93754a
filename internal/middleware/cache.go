package middleware

import (
	"net/http"
	"strings"
)

// NoStore forbids caching of responses under prefix; study data must never
// linger in shared or browser caches.
func NoStore(prefix string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, prefix) {
				w.Header().Set("Cache-Control", "no-store, max-age=0")
				w.Header().Set("Pragma", "no-cache")
			}
			next.ServeHTTP(w, r)
		})
	}
}
