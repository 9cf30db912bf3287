package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sewakita/service-rental/internal/domain"
	"github.com/sewakita/service-rental/internal/domain/ledger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerEntryModel is the GORM model for the ledger_entries table. The
// composite unique index on (tenant_id, reference_tag) is what makes
// reconciliation idempotent under concurrency.
type LedgerEntryModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_ledger_tenant_ref"`
	BookingID    uuid.UUID `gorm:"type:uuid;index;not null"`
	EntryType    string    `gorm:"not null;size:10"`
	Category     string    `gorm:"not null;size:30"`
	Amount       int64     `gorm:"not null"`
	Description  string    `gorm:"size:500"`
	ReferenceTag string    `gorm:"not null;size:100;uniqueIndex:idx_ledger_tenant_ref"`
	CreatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (LedgerEntryModel) TableName() string {
	return "ledger_entries"
}

// GormLedgerRepository is the GORM-based implementation of EntryRepository.
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewGormLedgerRepository creates a new GormLedgerRepository.
func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// InsertIfAbsent persists the entry unless one with the same
// (tenant, reference tag) exists. ON CONFLICT DO NOTHING makes the
// check-and-insert a single atomic statement.
func (r *GormLedgerRepository) InsertIfAbsent(ctx context.Context, e *ledger.Entry) (bool, error) {
	model := &LedgerEntryModel{
		ID:           e.ID(),
		TenantID:     e.TenantID(),
		BookingID:    e.BookingID(),
		EntryType:    string(e.Type()),
		Category:     string(e.Category()),
		Amount:       e.Amount(),
		Description:  e.Description(),
		ReferenceTag: e.ReferenceTag(),
		CreatedAt:    e.CreatedAt(),
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "reference_tag"}},
		DoNothing: true,
	}).Create(model)

	if result.Error != nil {
		return false, domain.NewStorageError("failed to insert ledger entry", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ListByBooking returns all entries posted for a booking.
func (r *GormLedgerRepository) ListByBooking(ctx context.Context, tenantID, bookingID uuid.UUID) ([]*ledger.Entry, error) {
	var models []LedgerEntryModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND booking_id = ?", tenantID, bookingID).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, domain.NewStorageError("failed to list ledger entries for booking", err)
	}
	return toDomainEntries(models), nil
}

// ListByTenant returns the tenant's entries with pagination, newest first.
func (r *GormLedgerRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID, page, limit int) ([]*ledger.Entry, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&LedgerEntryModel{}).Where("tenant_id = ?", tenantID).Count(&total).Error; err != nil {
		return nil, 0, domain.NewStorageError("failed to count ledger entries", err)
	}

	var models []LedgerEntryModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, domain.NewStorageError("failed to list ledger entries", err)
	}
	return toDomainEntries(models), total, nil
}

func toDomainEntries(models []LedgerEntryModel) []*ledger.Entry {
	entries := make([]*ledger.Entry, len(models))
	for i, m := range models {
		entries[i] = ledger.ReconstructEntry(
			m.ID,
			m.TenantID,
			m.BookingID,
			ledger.EntryType(m.EntryType),
			ledger.Category(m.Category),
			m.Amount,
			m.Description,
			m.ReferenceTag,
			m.CreatedAt,
		)
	}
	return entries
}
