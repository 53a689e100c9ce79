package testutil

import (
	"context"

	id "taxfile/pkg/domain"
	"taxfile/pkg/requestcontext"
)

// Authenticated returns ctx carrying the caller the auth middleware would set.
func Authenticated(ctx context.Context, userID id.UserID, role string) context.Context {
	return requestcontext.WithUserRole(requestcontext.WithUserID(ctx, userID), role)
}

// WithRequestMetadata sets the request id and client metadata the global
// middleware would add.
func WithRequestMetadata(ctx context.Context, requestID, clientIP, userAgent string) context.Context {
	ctx = requestcontext.WithRequestID(ctx, requestID)
	return requestcontext.WithClientMetadata(ctx, clientIP, userAgent)
}
