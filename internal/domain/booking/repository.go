package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BookingRepository defines the persistence contract for booking aggregates.
// All reads and writes are scoped to a single tenant.
type BookingRepository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Booking, error)

	// FindByNumber retrieves a booking by its human-readable booking number.
	FindByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*Booking, error)

	// ListByTenant retrieves the tenant's bookings with pagination.
	ListByTenant(ctx context.Context, tenantID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// CountByStatus returns booking counts grouped by status.
	CountByStatus(ctx context.Context, tenantID uuid.UUID) (map[string]int64, error)

	// CreateReserving persists a new booking under a per-(tenant, car)
	// exclusive lock, re-checking interval overlap inside the lock so two
	// concurrent creations for the same resource cannot both succeed. The
	// loser fails with a ResourceConflict error.
	CreateReserving(ctx context.Context, b *Booking) error

	// Update persists changes to an existing booking with optimistic locking.
	Update(ctx context.Context, b *Booking) error

	// HasOverlap reports whether any non-cancelled booking on the car (or,
	// when driverID is set, on the driver) overlaps [start, end). The booking
	// identified by excludeID is ignored, so an update can check against all
	// bookings except itself.
	HasOverlap(ctx context.Context, tenantID, carID uuid.UUID, driverID *uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error)

	// BlockedResources returns the car and driver IDs held by non-cancelled
	// bookings overlapping [start, end) within the tenant.
	BlockedResources(ctx context.Context, tenantID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (carIDs, driverIDs []uuid.UUID, err error)
}
