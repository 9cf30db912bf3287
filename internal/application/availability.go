package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sewakita/service-rental/internal/domain"
	bookingDomain "github.com/sewakita/service-rental/internal/domain/booking"
)

// AvailabilityService answers whether a car (and optionally a driver) is free
// for an interval within one tenant. A storage failure is surfaced, never
// swallowed: a booking must not be created on an ambiguous answer.
type AvailabilityService struct {
	bookings bookingDomain.BookingRepository
}

// NewAvailabilityService creates a new AvailabilityService.
func NewAvailabilityService(bookings bookingDomain.BookingRepository) *AvailabilityService {
	return &AvailabilityService{bookings: bookings}
}

// IsAvailable reports whether the car, and the driver when set, are free for
// [start, end). Bookings with excludeID are ignored so updates can check
// against everything except themselves.
func (s *AvailabilityService) IsAvailable(ctx context.Context, tenantID, carID uuid.UUID, driverID *uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error) {
	if !start.Before(end) {
		return false, domain.NewValidationError("start must be before end")
	}
	overlap, err := s.bookings.HasOverlap(ctx, tenantID, carID, driverID, start, end, excludeID)
	if err != nil {
		return false, err
	}
	return !overlap, nil
}

// ListUnavailable returns the car and driver IDs blocked by non-cancelled
// bookings overlapping [start, end) in the tenant.
func (s *AvailabilityService) ListUnavailable(ctx context.Context, tenantID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (carIDs, driverIDs []uuid.UUID, err error) {
	if !start.Before(end) {
		return nil, nil, domain.NewValidationError("start must be before end")
	}
	return s.bookings.BlockedResources(ctx, tenantID, start, end, excludeID)
}
