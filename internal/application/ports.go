package application

import (
	"context"

	"github.com/google/uuid"
	bookingDomain "github.com/sewakita/service-rental/internal/domain/booking"
)

// BlacklistRegistry is the cross-tenant customer blacklist lookup. The
// booking service consults it before any booking is created.
type BlacklistRegistry interface {
	Check(ctx context.Context, nationalID, phone string) (hit bool, reason string, err error)
}

// SettingsProvider hands out an immutable pricing settings snapshot per
// tenant, read once per request.
type SettingsProvider interface {
	SettingsFor(ctx context.Context, tenantID uuid.UUID) (bookingDomain.Settings, error)
}
