package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sewakita/service-rental/internal/domain"
	bookingDomain "github.com/sewakita/service-rental/internal/domain/booking"
	"gorm.io/gorm"
)

// TenantSettingsModel stores each tenant's pricing configuration as a jsonb
// blob. The service reads it once per request into an immutable snapshot.
type TenantSettingsModel struct {
	TenantID  uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Pricing   json.RawMessage `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (TenantSettingsModel) TableName() string {
	return "tenant_settings"
}

// Defaults applied when a tenant has no settings row yet.
var defaultPricingSettings = bookingDomain.Settings{
	DriverTiers: bookingDomain.DriverRateTiers{
		ShortTripMaxKm: 100,
		ShortTripRate:  150_000,
		LongTripRate:   250_000,
	},
	StandardDriverRate: 200_000,
	DriverLodgingFee:   100_000,
}

// GormSettingsRepository provides pricing settings snapshots per tenant.
type GormSettingsRepository struct {
	db *gorm.DB
}

// NewGormSettingsRepository creates a new GormSettingsRepository.
func NewGormSettingsRepository(db *gorm.DB) *GormSettingsRepository {
	return &GormSettingsRepository{db: db}
}

// SettingsFor returns the tenant's pricing settings snapshot, falling back to
// defaults when none are stored.
func (r *GormSettingsRepository) SettingsFor(ctx context.Context, tenantID uuid.UUID) (bookingDomain.Settings, error) {
	var model TenantSettingsModel
	err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return defaultPricingSettings, nil
	}
	if err != nil {
		return bookingDomain.Settings{}, domain.NewStorageError("failed to load tenant settings", err)
	}

	var settings bookingDomain.Settings
	if err := json.Unmarshal(model.Pricing, &settings); err != nil {
		return bookingDomain.Settings{}, domain.NewStorageError("failed to decode tenant settings", err)
	}
	return settings, nil
}

// SaveSettings upserts the tenant's pricing settings.
func (r *GormSettingsRepository) SaveSettings(ctx context.Context, tenantID uuid.UUID, settings bookingDomain.Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return domain.NewStorageError("failed to encode tenant settings", err)
	}
	model := TenantSettingsModel{TenantID: tenantID, Pricing: raw, UpdatedAt: time.Now().UTC()}
	if err := r.db.WithContext(ctx).Save(&model).Error; err != nil {
		return domain.NewStorageError("failed to save tenant settings", err)
	}
	return nil
}
