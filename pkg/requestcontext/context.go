// Package requestcontext carries request-scoped values from the HTTP
// middleware to the filing service without the service importing net/http.
//
//	filer := requestcontext.UserID(ctx)
//	now := requestcontext.Now(ctx)
package requestcontext

import (
	"context"
	"time"

	id "taxfile/pkg/domain"
)

type key[T any] struct{ name string }

var (
	userIDKey    = key[id.UserID]{"user_id"}
	userRoleKey  = key[string]{"user_role"}
	clientIPKey  = key[string]{"client_ip"}
	userAgentKey = key[string]{"user_agent"}
	requestIDKey = key[string]{"request_id"}
	timeKey      = key[time.Time]{"request_time"}
)

func (k key[T]) get(ctx context.Context) (T, bool) {
	v, ok := ctx.Value(k).(T)
	return v, ok
}

func (k key[T]) set(ctx context.Context, v T) context.Context {
	return context.WithValue(ctx, k, v)
}

// UserID is the authenticated filer, or the nil id.
func UserID(ctx context.Context) id.UserID {
	v, _ := userIDKey.get(ctx)
	return v
}

func WithUserID(ctx context.Context, userID id.UserID) context.Context {
	return userIDKey.set(ctx, userID)
}

func UserRole(ctx context.Context) string {
	v, _ := userRoleKey.get(ctx)
	return v
}

func WithUserRole(ctx context.Context, role string) context.Context {
	return userRoleKey.set(ctx, role)
}

func ClientIP(ctx context.Context) string {
	v, _ := clientIPKey.get(ctx)
	return v
}

func UserAgent(ctx context.Context) string {
	v, _ := userAgentKey.get(ctx)
	return v
}

// WithClientMetadata is set by the metadata middleware; service tests call it
// directly.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	return userAgentKey.set(clientIPKey.set(ctx, clientIP), userAgent)
}

func RequestID(ctx context.Context) string {
	v, _ := requestIDKey.get(ctx)
	return v
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return requestIDKey.set(ctx, requestID)
}

// Now is the time pinned for the request, or the wall clock outside one
// (CLI, background relay, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := timeKey.get(ctx); ok {
		return t
	}
	return time.Now()
}

func WithTime(ctx context.Context, t time.Time) context.Context {
	return timeKey.set(ctx, t)
}
