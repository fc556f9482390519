package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"perfengine/internal/requestctx"
)

const RequestIDHeader = "X-Request-ID"

// RequestID attaches an identifier to every request, honoring one sent
// by the client when present.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := requestctx.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
