package ports

//go:generate mockgen -source=identity.go -destination=mocks/identity.go -package=mocks

import (
	"context"

	id "taxfile/pkg/domain"
)

// User is the authenticated filer as seen by the filing module.
type User struct {
	ID   id.UserID
	Role string
}

// IdentityPort resolves the caller of the current request.
// CurrentUser returns nil when the request carries no identity.
type IdentityPort interface {
	CurrentUser(ctx context.Context) *User
}
