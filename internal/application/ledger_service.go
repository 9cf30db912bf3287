package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sewakita/service-rental/internal/domain"
	"github.com/sewakita/service-rental/internal/domain/ledger"
)

// LedgerEntryDTO is the response representation of a ledger entry.
type LedgerEntryDTO struct {
	ID           uuid.UUID `json:"id"`
	BookingID    uuid.UUID `json:"booking_id"`
	Type         string    `json:"type"`
	Category     string    `json:"category"`
	Amount       int64     `json:"amount"`
	Description  string    `json:"description"`
	ReferenceTag string    `json:"reference_tag"`
	CreatedAt    time.Time `json:"created_at"`
}

// LedgerService exposes read access to the tenant's derived ledger. Entries
// are written exclusively by the reconciler.
type LedgerService struct {
	entries ledger.EntryRepository
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(entries ledger.EntryRepository) *LedgerService {
	return &LedgerService{entries: entries}
}

// ListEntries retrieves the tenant's ledger entries with pagination.
func (s *LedgerService) ListEntries(ctx context.Context, tenantID uuid.UUID, page, limit int) (*domain.PaginatedResult[LedgerEntryDTO], error) {
	entries, total, err := s.entries.ListByTenant(ctx, tenantID, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(toLedgerEntryDTOs(entries), total, page, limit)
	return &result, nil
}

// ListEntriesByBooking retrieves every entry posted for one booking.
func (s *LedgerService) ListEntriesByBooking(ctx context.Context, tenantID, bookingID uuid.UUID) ([]LedgerEntryDTO, error) {
	entries, err := s.entries.ListByBooking(ctx, tenantID, bookingID)
	if err != nil {
		return nil, err
	}
	return toLedgerEntryDTOs(entries), nil
}

func toLedgerEntryDTOs(entries []*ledger.Entry) []LedgerEntryDTO {
	dtos := make([]LedgerEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = LedgerEntryDTO{
			ID:           e.ID(),
			BookingID:    e.BookingID(),
			Type:         string(e.Type()),
			Category:     string(e.Category()),
			Amount:       e.Amount(),
			Description:  e.Description(),
			ReferenceTag: e.ReferenceTag(),
			CreatedAt:    e.CreatedAt(),
		}
	}
	return dtos
}
