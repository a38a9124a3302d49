package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	id "rangelog/pkg/domain"
	"rangelog/pkg/requestcontext"
)

// requestContext stamps each request with an ID and a consistent timestamp so
// every write within one request carries the same time.
func requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx = requestcontext.WithRequestID(ctx, requestID)
		ctx = requestcontext.WithTime(ctx, time.Now().UTC())
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ownerIdentity reads the caller's owner token from the X-Owner-ID header.
// The token is opaque; handlers reject requests without one.
func ownerIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw := r.Header.Get("X-Owner-ID"); raw != "" {
			if owner, err := id.ParseOwnerID(raw); err == nil {
				r = r.WithContext(requestcontext.WithOwnerID(r.Context(), owner))
			}
		}
		next.ServeHTTP(w, r)
	})
}
