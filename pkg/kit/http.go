package kit

import (
	"net/http"

	"github.com/google/uuid"
)

// RequestIDHeader carries the request id in and out of HTTP calls.
const RequestIDHeader = "X-Request-Id"

// RequestID tags each HTTP request with an id (the caller's X-Request-Id, or a
// fresh UUID) and the http transport, and echoes the id in the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := WithTransport(WithRequestID(r.Context(), id), TransportHTTP)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SecurityHeaders sets the standard response hardening headers of a JSON API.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}
