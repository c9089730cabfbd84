// Package middleware provides HTTP middleware for the x402 gateway.
package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/Ankitanand2411/Agent-x402/internal/logger"
)

const headerRequestID = "X-Request-ID"

// RequestID assigns each request an ID for log correlation. A caller-supplied
// X-Request-ID is honored; otherwise a fresh UUID is minted. The ID is stored
// in the request context and echoed on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}

		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), id)))
	})
}
