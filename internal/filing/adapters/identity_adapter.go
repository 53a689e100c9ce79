package adapters

import (
	"context"

	"taxfile/internal/filing/ports"
	"taxfile/pkg/requestcontext"
)

// RequestIdentity implements ports.IdentityPort from the identity the auth
// middleware placed in the request context.
type RequestIdentity struct{}

func NewRequestIdentity() ports.IdentityPort {
	return RequestIdentity{}
}

func (RequestIdentity) CurrentUser(ctx context.Context) *ports.User {
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		return nil
	}
	return &ports.User{
		ID:   userID,
		Role: requestcontext.UserRole(ctx),
	}
}
