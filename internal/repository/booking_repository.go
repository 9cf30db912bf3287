package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sewakita/service-rental/internal/domain"
	bookingDomain "github.com/sewakita/service-rental/internal/domain/booking"
	"gorm.io/gorm"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	BookingNumber   string          `gorm:"uniqueIndex;not null;size:20"`
	TenantID        uuid.UUID       `gorm:"type:uuid;index:idx_bookings_tenant_car;not null"`
	CarID           uuid.UUID       `gorm:"type:uuid;index:idx_bookings_tenant_car;not null"`
	CustomerID      uuid.UUID       `gorm:"type:uuid;index;not null"`
	DriverID        *uuid.UUID      `gorm:"type:uuid;index"`
	StartAt         time.Time       `gorm:"not null;index"`
	EndAt           time.Time       `gorm:"not null"`
	TotalPrice      int64           `gorm:"not null"`
	AmountPaid      int64           `gorm:"not null;default:0"`
	PaymentMethod   string          `gorm:"not null;size:20"`
	DeferredMonths  int             `gorm:"not null;default:0"`
	DeliveryFee     int64           `gorm:"not null;default:0"`
	OverdueFee      int64           `gorm:"not null;default:0"`
	ExtraFee        int64           `gorm:"not null;default:0"`
	ExtraFeeReason  string          `gorm:"size:255"`
	Deposit         json.RawMessage `gorm:"type:jsonb"`
	Status          string          `gorm:"not null;size:20;index"`
	ActualReturnAt  *time.Time      `gorm:""`
	PickupChecklist json.RawMessage `gorm:"type:jsonb"`
	ReturnChecklist json.RawMessage `gorm:"type:jsonb"`
	CancelNote      string          `gorm:"size:500"`
	Notes           string          `gorm:"size:1000"`
	Version         int64           `gorm:"not null;default:1"`
	CreatedAt       time.Time       `gorm:"not null"`
	UpdatedAt       time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("booking", id.String())
		}
		return nil, domain.NewStorageError("failed to find booking by ID", err)
	}
	return toDomainBooking(&model)
}

// FindByNumber retrieves a booking by its booking number.
func (r *GormBookingRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("tenant_id = ? AND booking_number = ?", tenantID, number).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("booking", number)
		}
		return nil, domain.NewStorageError("failed to find booking by number", err)
	}
	return toDomainBooking(&model)
}

// ListByTenant retrieves the tenant's bookings with pagination.
func (r *GormBookingRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).Where("tenant_id = ?", tenantID).Count(&total).Error; err != nil {
		return nil, 0, domain.NewStorageError("failed to count bookings", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, domain.NewStorageError("failed to list bookings", err)
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i, m := range models {
		bk, err := toDomainBooking(&m)
		if err != nil {
			return nil, 0, err
		}
		bookings[i] = bk
	}
	return bookings, total, nil
}

// CountByStatus returns booking counts grouped by status.
func (r *GormBookingRepository) CountByStatus(ctx context.Context, tenantID uuid.UUID) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Where("tenant_id = ?", tenantID).
		Group("status").
		Find(&results).Error; err != nil {
		return nil, domain.NewStorageError("failed to count by status", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// resourceLockKey builds the advisory-lock key for a (tenant, resource) pair.
func resourceLockKey(tenantID, resourceID uuid.UUID) string {
	return fmt.Sprintf("booking:%s:%s", tenantID, resourceID)
}

// overlapQuery scopes to non-cancelled bookings overlapping [start, end) on
// the car or, when driverID is set, on the driver.
func overlapQuery(tx *gorm.DB, tenantID, carID uuid.UUID, driverID *uuid.UUID, start, end time.Time, excludeID *uuid.UUID) *gorm.DB {
	q := tx.Model(&BookingModel{}).
		Where("tenant_id = ?", tenantID).
		Where("status <> ?", string(bookingDomain.StatusCancelled)).
		Where("start_at < ? AND end_at > ?", end, start)

	if driverID != nil {
		q = q.Where("(car_id = ? OR driver_id = ?)", carID, *driverID)
	} else {
		q = q.Where("car_id = ?", carID)
	}
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}
	return q
}

// CreateReserving persists a new booking after re-checking interval overlap
// under a per-(tenant, resource) transaction-scoped advisory lock. Two
// concurrent creations for the same car (or driver) serialize on the lock;
// the second sees the first's row and fails with ResourceConflict.
func (r *GormBookingRepository) CreateReserving(ctx context.Context, b *bookingDomain.Booking) error {
	model, err := toBookingModel(b)
	if err != nil {
		return err
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtextextended(?, 0))",
			resourceLockKey(b.TenantID(), b.CarID())).Error; err != nil {
			return domain.NewStorageError("failed to acquire car lock", err)
		}
		if b.DriverID() != nil {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtextextended(?, 0))",
				resourceLockKey(b.TenantID(), *b.DriverID())).Error; err != nil {
				return domain.NewStorageError("failed to acquire driver lock", err)
			}
		}

		var count int64
		if err := overlapQuery(tx, b.TenantID(), b.CarID(), b.DriverID(), b.StartAt(), b.EndAt(), nil).
			Count(&count).Error; err != nil {
			return domain.NewStorageError("failed to check overlap", err)
		}
		if count > 0 {
			return domain.NewResourceConflictError("car or driver is already booked for this interval")
		}

		if err := tx.Create(model).Error; err != nil {
			return domain.NewStorageError("failed to save booking", err)
		}
		return nil
	})
	return err
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, b *bookingDomain.Booking) error {
	model, err := toBookingModel(b)
	if err != nil {
		return err
	}

	// IncrementVersion ran before Update, so the row must still be at
	// version - 1.
	expectedVersion := b.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("tenant_id = ? AND id = ? AND version = ?", model.TenantID, model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"driver_id":        model.DriverID,
			"status":           model.Status,
			"total_price":      model.TotalPrice,
			"amount_paid":      model.AmountPaid,
			"payment_method":   model.PaymentMethod,
			"deferred_months":  model.DeferredMonths,
			"delivery_fee":     model.DeliveryFee,
			"overdue_fee":      model.OverdueFee,
			"extra_fee":        model.ExtraFee,
			"extra_fee_reason": model.ExtraFeeReason,
			"deposit":          model.Deposit,
			"actual_return_at": model.ActualReturnAt,
			"pickup_checklist": model.PickupChecklist,
			"return_checklist": model.ReturnChecklist,
			"cancel_note":      model.CancelNote,
			"notes":            model.Notes,
			"version":          model.Version,
			"updated_at":       model.UpdatedAt,
		})

	if result.Error != nil {
		return domain.NewStorageError("failed to update booking", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewResourceConflictError("booking was modified by another transaction")
	}
	return nil
}

// HasOverlap reports whether any non-cancelled booking overlaps the interval.
func (r *GormBookingRepository) HasOverlap(ctx context.Context, tenantID, carID uuid.UUID, driverID *uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error) {
	var count int64
	if err := overlapQuery(r.db.WithContext(ctx), tenantID, carID, driverID, start, end, excludeID).
		Count(&count).Error; err != nil {
		return false, domain.NewStorageError("failed to check overlap", err)
	}
	return count > 0, nil
}

// BlockedResources returns car and driver IDs held by non-cancelled bookings
// overlapping [start, end) within the tenant.
func (r *GormBookingRepository) BlockedResources(ctx context.Context, tenantID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]uuid.UUID, []uuid.UUID, error) {
	type row struct {
		CarID    uuid.UUID
		DriverID *uuid.UUID
	}
	q := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("car_id, driver_id").
		Where("tenant_id = ?", tenantID).
		Where("status <> ?", string(bookingDomain.StatusCancelled)).
		Where("start_at < ? AND end_at > ?", end, start)
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}

	var rows []row
	if err := q.Find(&rows).Error; err != nil {
		return nil, nil, domain.NewStorageError("failed to list blocked resources", err)
	}

	carSeen := make(map[uuid.UUID]struct{})
	driverSeen := make(map[uuid.UUID]struct{})
	var carIDs, driverIDs []uuid.UUID
	for _, rw := range rows {
		if _, ok := carSeen[rw.CarID]; !ok {
			carSeen[rw.CarID] = struct{}{}
			carIDs = append(carIDs, rw.CarID)
		}
		if rw.DriverID != nil {
			if _, ok := driverSeen[*rw.DriverID]; !ok {
				driverSeen[*rw.DriverID] = struct{}{}
				driverIDs = append(driverIDs, *rw.DriverID)
			}
		}
	}
	return carIDs, driverIDs, nil
}

// --- Conversion Helpers ---

func toBookingModel(b *bookingDomain.Booking) (*BookingModel, error) {
	marshalOpt := func(v interface{}) (json.RawMessage, error) {
		if v == nil {
			return nil, nil
		}
		return json.Marshal(v)
	}

	var depositJSON, pickupJSON, returnJSON json.RawMessage
	var err error
	if b.Deposit() != nil {
		if depositJSON, err = marshalOpt(b.Deposit()); err != nil {
			return nil, fmt.Errorf("failed to marshal deposit: %w", err)
		}
	}
	if b.PickupChecklist() != nil {
		if pickupJSON, err = marshalOpt(b.PickupChecklist()); err != nil {
			return nil, fmt.Errorf("failed to marshal pickup checklist: %w", err)
		}
	}
	if b.ReturnChecklist() != nil {
		if returnJSON, err = marshalOpt(b.ReturnChecklist()); err != nil {
			return nil, fmt.Errorf("failed to marshal return checklist: %w", err)
		}
	}

	return &BookingModel{
		ID:              b.ID(),
		BookingNumber:   b.BookingNumber(),
		TenantID:        b.TenantID(),
		CarID:           b.CarID(),
		CustomerID:      b.CustomerID(),
		DriverID:        b.DriverID(),
		StartAt:         b.StartAt(),
		EndAt:           b.EndAt(),
		TotalPrice:      b.TotalPrice(),
		AmountPaid:      b.AmountPaid(),
		PaymentMethod:   string(b.PaymentMethod()),
		DeferredMonths:  b.DeferredMonths(),
		DeliveryFee:     b.DeliveryFee(),
		OverdueFee:      b.OverdueFee(),
		ExtraFee:        b.ExtraFee(),
		ExtraFeeReason:  b.ExtraFeeReason(),
		Deposit:         depositJSON,
		Status:          string(b.Status()),
		ActualReturnAt:  b.ActualReturnAt(),
		PickupChecklist: pickupJSON,
		ReturnChecklist: returnJSON,
		CancelNote:      b.CancelNote(),
		Notes:           b.Notes(),
		Version:         b.Version(),
		CreatedAt:       b.CreatedAt(),
		UpdatedAt:       b.UpdatedAt(),
	}, nil
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	unmarshalChecklist := func(raw json.RawMessage) (*bookingDomain.Checklist, error) {
		if len(raw) == 0 {
			return nil, nil
		}
		var cl bookingDomain.Checklist
		if err := json.Unmarshal(raw, &cl); err != nil {
			return nil, fmt.Errorf("failed to unmarshal checklist: %w", err)
		}
		return &cl, nil
	}

	pickup, err := unmarshalChecklist(m.PickupChecklist)
	if err != nil {
		return nil, err
	}
	ret, err := unmarshalChecklist(m.ReturnChecklist)
	if err != nil {
		return nil, err
	}

	var deposit *bookingDomain.DepositInfo
	if len(m.Deposit) > 0 {
		var d bookingDomain.DepositInfo
		if err := json.Unmarshal(m.Deposit, &d); err != nil {
			return nil, fmt.Errorf("failed to unmarshal deposit: %w", err)
		}
		deposit = &d
	}

	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}

	return bookingDomain.ReconstructBooking(
		m.ID,
		m.BookingNumber,
		m.TenantID,
		m.CarID,
		m.CustomerID,
		m.DriverID,
		m.StartAt,
		m.EndAt,
		m.TotalPrice,
		m.AmountPaid,
		bookingDomain.PaymentMethod(m.PaymentMethod),
		m.DeferredMonths,
		m.DeliveryFee,
		m.OverdueFee,
		m.ExtraFee,
		m.ExtraFeeReason,
		deposit,
		status,
		m.ActualReturnAt,
		pickup,
		ret,
		m.CancelNote,
		m.Notes,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
