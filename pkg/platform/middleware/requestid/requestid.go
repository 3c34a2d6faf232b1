// Package requestid assigns a correlation ID to every HTTP request. Inbound
// X-Request-ID values are honored so callers can trace a request end to end.
package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"docuflow/pkg/requestcontext"
)

const header = "X-Request-ID"

// Middleware puts a request ID in the context and echoes it in the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(header)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(header, requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
