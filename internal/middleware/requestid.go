package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/templui/goalplanner/internal/ctxkeys"
)

const RequestIDHeader = "X-Request-ID"

// WithRequestID tags the request context with the caller's X-Request-ID or a
// fresh one, and echoes it on the response.
func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ctxkeys.WithRequestID(r.Context(), id)))
	})
}
