package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sewakita/service-rental/internal/domain"
	"github.com/sewakita/service-rental/internal/domain/fleet"
	"gorm.io/gorm"
)

// CarModel is the GORM model for the cars table.
type CarModel struct {
	ID                  uuid.UUID  `gorm:"type:uuid;primaryKey"`
	TenantID            uuid.UUID  `gorm:"type:uuid;index;not null"`
	PlateNumber         string     `gorm:"not null;size:20;index"`
	Model               string     `gorm:"size:100"`
	DailyRate           int64      `gorm:"not null"`
	DriverSalary        int64      `gorm:"not null;default:0"`
	OwnerType           string     `gorm:"not null;size:10"`
	PartnerID           *uuid.UUID `gorm:"type:uuid"`
	PartnerSharePercent int        `gorm:"not null;default:0"`
	CurrentOdometer     int64      `gorm:"not null;default:0"`
	Version             int64      `gorm:"not null;default:1"`
	CreatedAt           time.Time  `gorm:"not null"`
	UpdatedAt           time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (CarModel) TableName() string {
	return "cars"
}

// DriverModel is the GORM model for the drivers table.
type DriverModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID  uuid.UUID `gorm:"type:uuid;index;not null"`
	Name      string    `gorm:"not null;size:100"`
	Phone     string    `gorm:"size:30"`
	DailyRate int64     `gorm:"not null;default:0"`
	Version   int64     `gorm:"not null;default:1"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (DriverModel) TableName() string {
	return "drivers"
}

// GormCarRepository is the GORM-based implementation of CarRepository.
type GormCarRepository struct {
	db *gorm.DB
}

// NewGormCarRepository creates a new GormCarRepository.
func NewGormCarRepository(db *gorm.DB) *GormCarRepository {
	return &GormCarRepository{db: db}
}

// FindByID retrieves a car by ID within the tenant.
func (r *GormCarRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*fleet.Car, error) {
	var model CarModel
	if err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("car", id.String())
		}
		return nil, domain.NewStorageError("failed to find car", err)
	}
	return toDomainCar(&model), nil
}

// Save persists a new car.
func (r *GormCarRepository) Save(ctx context.Context, car *fleet.Car) error {
	if err := r.db.WithContext(ctx).Create(toCarModel(car)).Error; err != nil {
		return domain.NewStorageError("failed to save car", err)
	}
	return nil
}

// Update persists changes to a car with optimistic locking.
func (r *GormCarRepository) Update(ctx context.Context, car *fleet.Car) error {
	model := toCarModel(car)
	expectedVersion := car.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&CarModel{}).
		Where("tenant_id = ? AND id = ? AND version = ?", model.TenantID, model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"plate_number":          model.PlateNumber,
			"model":                 model.Model,
			"daily_rate":            model.DailyRate,
			"driver_salary":         model.DriverSalary,
			"owner_type":            model.OwnerType,
			"partner_id":            model.PartnerID,
			"partner_share_percent": model.PartnerSharePercent,
			"current_odometer":      model.CurrentOdometer,
			"version":               model.Version,
			"updated_at":            model.UpdatedAt,
		})
	if result.Error != nil {
		return domain.NewStorageError("failed to update car", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewResourceConflictError("car was modified by another transaction")
	}
	return nil
}

// GormDriverRepository is the GORM-based implementation of DriverRepository.
type GormDriverRepository struct {
	db *gorm.DB
}

// NewGormDriverRepository creates a new GormDriverRepository.
func NewGormDriverRepository(db *gorm.DB) *GormDriverRepository {
	return &GormDriverRepository{db: db}
}

// FindByID retrieves a driver by ID within the tenant.
func (r *GormDriverRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*fleet.Driver, error) {
	var model DriverModel
	if err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("driver", id.String())
		}
		return nil, domain.NewStorageError("failed to find driver", err)
	}
	return fleet.ReconstructDriver(model.ID, model.TenantID, model.Name, model.Phone, model.DailyRate, model.Version, model.CreatedAt, model.UpdatedAt), nil
}

// Save persists a new driver.
func (r *GormDriverRepository) Save(ctx context.Context, driver *fleet.Driver) error {
	model := &DriverModel{
		ID:        driver.ID(),
		TenantID:  driver.TenantID(),
		Name:      driver.Name(),
		Phone:     driver.Phone(),
		DailyRate: driver.DailyRate(),
		Version:   driver.Version(),
		CreatedAt: driver.CreatedAt(),
		UpdatedAt: driver.UpdatedAt(),
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return domain.NewStorageError("failed to save driver", err)
	}
	return nil
}

// --- Conversion Helpers ---

func toCarModel(car *fleet.Car) *CarModel {
	return &CarModel{
		ID:                  car.ID(),
		TenantID:            car.TenantID(),
		PlateNumber:         car.PlateNumber(),
		Model:               car.Model(),
		DailyRate:           car.DailyRate(),
		DriverSalary:        car.DriverSalary(),
		OwnerType:           string(car.OwnerType()),
		PartnerID:           car.PartnerID(),
		PartnerSharePercent: car.PartnerSharePercent(),
		CurrentOdometer:     car.CurrentOdometer(),
		Version:             car.Version(),
		CreatedAt:           car.CreatedAt(),
		UpdatedAt:           car.UpdatedAt(),
	}
}

func toDomainCar(m *CarModel) *fleet.Car {
	return fleet.ReconstructCar(
		m.ID,
		m.TenantID,
		m.PlateNumber,
		m.Model,
		m.DailyRate,
		m.DriverSalary,
		fleet.OwnerType(m.OwnerType),
		m.PartnerID,
		m.PartnerSharePercent,
		m.CurrentOdometer,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	)
}
