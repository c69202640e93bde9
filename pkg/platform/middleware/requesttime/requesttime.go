// Package requesttime captures one "now" per HTTP request so every transition,
// lockout computation and audit line within the request agrees on the time.
package requesttime

import (
	"net/http"
	"time"

	"irdesk/pkg/requestcontext"
)

// Middleware stores the request start time in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
