package marketplace

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RequestRepository defines the persistence contract for rent-to-rent
// requests. Unlike every other repository, reads intentionally span the two
// tenants involved in a request.
type RequestRepository interface {
	// FindByID retrieves a request. Callers enforce that the acting tenant
	// is one of the two parties.
	FindByID(ctx context.Context, id uuid.UUID) (*Request, error)

	// ListForTenant returns requests where the tenant is requester or
	// supplier, newest first, with pagination.
	ListForTenant(ctx context.Context, tenantID uuid.UUID, page, limit int) ([]*Request, int64, error)

	// Save persists a new request.
	Save(ctx context.Context, r *Request) error

	// ResolvePending atomically moves the request from PENDING to the given
	// terminal status (compare-and-swap on status). Returns false when the
	// request was no longer pending, so a concurrent response or expiry
	// already won.
	ResolvePending(ctx context.Context, id uuid.UUID, to RequestStatus, respondedAt time.Time) (bool, error)

	// ExpirePending transitions every PENDING request created before the
	// cutoff to EXPIRED in one statement and returns the expired IDs.
	ExpirePending(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error)
}
