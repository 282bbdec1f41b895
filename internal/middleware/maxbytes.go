package middleware

import (
	"net/http"
)

// DefaultMaxBodyBytes caps JSON request bodies at 1 MiB. Project documents
// with nested phases and team members stay far under this.
const DefaultMaxBodyBytes = 1 << 20

// MaxBytes limits the request body size; oversized bodies fail the JSON
// decode in the handler and surface as 400. Apply to routes that accept a body.
func MaxBytes(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
