// Package middleware provides HTTP middleware for the epadash API.
package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/epadash/epadash/internal/aqs"
)

// Header names read and written by this package.
const (
	HeaderRequestID = "X-Request-Id"
	HeaderSessionID = "X-Session-Id"
)

// maxSessionIDLen bounds client supplied session identifiers.
const maxSessionIDLen = 128

type (
	requestIDKey struct{}
	sessionIDKey struct{}
)

// RequestID generates a unique request ID and adds it to the request context.
// The ID is also set in the X-Request-Id response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" {
			requestID = "req_" + uuid.New().String()[:22]
		}

		w.Header().Set(HeaderRequestID, requestID)

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// Session binds the X-Session-Id header to the request context. Requests
// sharing a session ID supersede each other: only the latest one in flight
// delivers its result. Requests without the header are independent.
//
// The header is client supplied, so the last-request-wins key is scoped
// to the client IP: a caller guessing another client's ID cannot cancel
// that client's requests. Install chi's RealIP first when running behind
// a proxy.
func Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(HeaderSessionID))
		if id == "" || len(id) > maxSessionIDLen {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set(HeaderSessionID, id)

		ctx := context.WithValue(r.Context(), sessionIDKey{}, id)
		ctx = aqs.WithSession(ctx, clientHost(r)+"/"+id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetSessionID returns the X-Session-Id bound by Session.
func GetSessionID(ctx context.Context) string {
	if id, ok := ctx.Value(sessionIDKey{}).(string); ok {
		return id
	}
	return ""
}

func clientHost(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
