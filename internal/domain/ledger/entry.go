package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EntryType marks an entry as money in or money out.
type EntryType string

const (
	TypeIncome  EntryType = "INCOME"
	TypeExpense EntryType = "EXPENSE"
)

// Category identifies which reconciliation rule produced an entry. Together
// with the booking ID it forms the deduplication key.
type Category string

const (
	CategoryIncome          Category = "BOOKING_INCOME"
	CategoryDriverSalary    Category = "DRIVER_SALARY"
	CategoryPartnerShare    Category = "PARTNER_SHARE"
	CategoryDeliveryExpense Category = "DELIVERY_REIMBURSEMENT"
)

// ReferenceTag derives the stable deduplication key for a (booking, category)
// pair. The tag is embedded in entry descriptions and enforced unique per
// tenant at the storage level, so reconciliation can never double-post.
func ReferenceTag(bookingID uuid.UUID, category Category) string {
	return fmt.Sprintf("BK:%s:%s", bookingID, category)
}

// Entry is a derived income or expense record. Entries are created only by
// the ledger reconciler and are never updated or deleted.
type Entry struct {
	id           uuid.UUID
	tenantID     uuid.UUID
	bookingID    uuid.UUID
	entryType    EntryType
	category     Category
	amount       int64
	description  string
	referenceTag string
	createdAt    time.Time
}

// NewEntry creates a ledger entry for a booking.
func NewEntry(tenantID, bookingID uuid.UUID, entryType EntryType, category Category, amount int64, description string) (*Entry, error) {
	if tenantID == uuid.Nil || bookingID == uuid.Nil {
		return nil, fmt.Errorf("tenant ID and booking ID are required")
	}
	if amount <= 0 {
		return nil, fmt.Errorf("ledger amount must be positive")
	}
	tag := ReferenceTag(bookingID, category)
	return &Entry{
		id:           uuid.New(),
		tenantID:     tenantID,
		bookingID:    bookingID,
		entryType:    entryType,
		category:     category,
		amount:       amount,
		description:  fmt.Sprintf("%s [%s]", description, tag),
		referenceTag: tag,
		createdAt:    time.Now().UTC(),
	}, nil
}

// ReconstructEntry rebuilds an Entry from persistence data.
func ReconstructEntry(id, tenantID, bookingID uuid.UUID, entryType EntryType, category Category, amount int64, description, referenceTag string, createdAt time.Time) *Entry {
	return &Entry{
		id:           id,
		tenantID:     tenantID,
		bookingID:    bookingID,
		entryType:    entryType,
		category:     category,
		amount:       amount,
		description:  description,
		referenceTag: referenceTag,
		createdAt:    createdAt,
	}
}

func (e *Entry) ID() uuid.UUID        { return e.id }
func (e *Entry) TenantID() uuid.UUID  { return e.tenantID }
func (e *Entry) BookingID() uuid.UUID { return e.bookingID }
func (e *Entry) Type() EntryType      { return e.entryType }
func (e *Entry) Category() Category   { return e.category }
func (e *Entry) Amount() int64        { return e.amount }
func (e *Entry) Description() string  { return e.description }
func (e *Entry) ReferenceTag() string { return e.referenceTag }
func (e *Entry) CreatedAt() time.Time { return e.createdAt }
