package testutil

import (
	"net/http"
	"time"

	"pokegate/pkg/requestcontext"
)

// WithRequestID adds a request ID to the request context.
// This simulates what the RequestID middleware would do.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}

// WithRequestTime pins the request-scoped clock.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
