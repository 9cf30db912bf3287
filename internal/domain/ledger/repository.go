package ledger

import (
	"context"

	"github.com/google/uuid"
)

// EntryRepository defines the persistence contract for ledger entries.
type EntryRepository interface {
	// InsertIfAbsent persists the entry unless one with the same
	// (tenant, reference tag) already exists. The check-and-insert is atomic
	// at the storage level. Returns false when the entry was already posted.
	InsertIfAbsent(ctx context.Context, e *Entry) (bool, error)

	// ListByBooking returns all entries posted for a booking.
	ListByBooking(ctx context.Context, tenantID, bookingID uuid.UUID) ([]*Entry, error)

	// ListByTenant returns the tenant's entries with pagination, newest first.
	ListByTenant(ctx context.Context, tenantID uuid.UUID, page, limit int) ([]*Entry, int64, error)
}
