package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sewakita/service-rental/internal/domain"
	"gorm.io/gorm"
)

// BlacklistEntryModel is the GORM model for the shared customer blacklist.
// Lookups intentionally span all tenants: a customer flagged by one operator
// is flagged for every operator.
type BlacklistEntryModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null"` // reporting tenant
	NationalID string    `gorm:"size:50;index"`
	Phone      string    `gorm:"size:30;index"`
	Reason     string    `gorm:"size:500"`
	CreatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BlacklistEntryModel) TableName() string {
	return "blacklist_entries"
}

// GormBlacklistRegistry answers cross-tenant blacklist lookups.
type GormBlacklistRegistry struct {
	db *gorm.DB
}

// NewGormBlacklistRegistry creates a new GormBlacklistRegistry.
func NewGormBlacklistRegistry(db *gorm.DB) *GormBlacklistRegistry {
	return &GormBlacklistRegistry{db: db}
}

// Check reports whether the customer appears in the registry by national ID
// or phone, together with the recorded reason.
func (r *GormBlacklistRegistry) Check(ctx context.Context, nationalID, phone string) (bool, string, error) {
	if nationalID == "" && phone == "" {
		return false, "", nil
	}

	q := r.db.WithContext(ctx).Model(&BlacklistEntryModel{})
	switch {
	case nationalID != "" && phone != "":
		q = q.Where("national_id = ? OR phone = ?", nationalID, phone)
	case nationalID != "":
		q = q.Where("national_id = ?", nationalID)
	default:
		q = q.Where("phone = ?", phone)
	}

	var model BlacklistEntryModel
	err := q.First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, "", nil
	}
	if err != nil {
		return false, "", domain.NewStorageError("failed to check blacklist", err)
	}
	return true, model.Reason, nil
}
