// Package requesttime pins one "now" per HTTP request. Every timestamp a
// handler or service derives during the request comes from the same instant,
// which keeps state transitions and log timelines consistent.
package requesttime

import (
	"net/http"
	"time"

	"docuflow/pkg/requestcontext"
)

// Middleware captures the current time at the start of the request and
// stores it in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
