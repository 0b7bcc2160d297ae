package middleware

import (
	"net/http"
)

// NoStore sets strict no-cache headers on every response. The dashboard
// serves live tallies and audit entries; a cached response is a wrong one.
func NoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Conservative, widely compatible no-cache headers
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")
		next.ServeHTTP(w, r)
	})
}
