package ports

//go:generate mockgen -source=audit.go -destination=mocks/audit.go -package=mocks

import (
	"context"

	"taxfile/pkg/platform/audit"
)

// AuditPort defines the interface for emitting audit events.
// Defined here to keep the filing module's boundaries hexagonal.
type AuditPort interface {
	Emit(ctx context.Context, event audit.Event) error
}
