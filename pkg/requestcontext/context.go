// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values. Middleware sets them, services read them, tests
// inject them, and none of it drags net/http into service packages.
package requestcontext

import (
	"context"
	"time"

	id "rangelog/pkg/domain"
)

// Context key types (unexported for encapsulation).
type (
	ownerIDKey     struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// OwnerID retrieves the authenticated owner token from the context.
// Returns the zero value if not set.
func OwnerID(ctx context.Context) id.OwnerID {
	if owner, ok := ctx.Value(ownerIDKey{}).(id.OwnerID); ok {
		return owner
	}
	return ""
}

// WithOwnerID injects an owner token into the context.
func WithOwnerID(ctx context.Context, owner id.OwnerID) context.Context {
	return context.WithValue(ctx, ownerIDKey{}, owner)
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now retrieves the request-scoped time from context. Falls back to
// time.Now() for non-HTTP contexts such as workers and tests.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Useful for service unit
// tests that don't run the middleware chain and for batch operations that
// need one consistent timestamp.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
