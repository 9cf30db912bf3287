package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sewakita/service-rental/internal/domain"
	"github.com/sewakita/service-rental/internal/domain/marketplace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MarketplaceRequestModel is the GORM model for rent-to-rent requests.
type MarketplaceRequestModel struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey"`
	RequesterTenant  uuid.UUID  `gorm:"type:uuid;index;not null"`
	SupplierTenant   uuid.UUID  `gorm:"type:uuid;index;not null"`
	CarID            uuid.UUID  `gorm:"type:uuid;not null"`
	DriverID         *uuid.UUID `gorm:"type:uuid"`
	StartAt          time.Time  `gorm:"not null"`
	EndAt            time.Time  `gorm:"not null"`
	QuotedTotalPrice int64      `gorm:"not null"`
	Status           string     `gorm:"not null;size:20;index"`
	Note             string     `gorm:"size:500"`
	RespondedAt      *time.Time `gorm:""`
	CreatedAt        time.Time  `gorm:"not null;index"`
	UpdatedAt        time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (MarketplaceRequestModel) TableName() string {
	return "marketplace_requests"
}

// GormMarketplaceRepository is the GORM-based implementation of
// RequestRepository.
type GormMarketplaceRepository struct {
	db *gorm.DB
}

// NewGormMarketplaceRepository creates a new GormMarketplaceRepository.
func NewGormMarketplaceRepository(db *gorm.DB) *GormMarketplaceRepository {
	return &GormMarketplaceRepository{db: db}
}

// FindByID retrieves a request by ID. Not tenant-scoped: the caller checks
// that the acting tenant is a party to the request.
func (r *GormMarketplaceRepository) FindByID(ctx context.Context, id uuid.UUID) (*marketplace.Request, error) {
	var model MarketplaceRequestModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("marketplace request", id.String())
		}
		return nil, domain.NewStorageError("failed to find marketplace request", err)
	}
	return toDomainRequest(&model)
}

// ListForTenant returns requests where the tenant is requester or supplier.
func (r *GormMarketplaceRepository) ListForTenant(ctx context.Context, tenantID uuid.UUID, page, limit int) ([]*marketplace.Request, int64, error) {
	scope := r.db.WithContext(ctx).Model(&MarketplaceRequestModel{}).
		Where("requester_tenant = ? OR supplier_tenant = ?", tenantID, tenantID)

	var total int64
	if err := scope.Count(&total).Error; err != nil {
		return nil, 0, domain.NewStorageError("failed to count marketplace requests", err)
	}

	var models []MarketplaceRequestModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Where("requester_tenant = ? OR supplier_tenant = ?", tenantID, tenantID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, domain.NewStorageError("failed to list marketplace requests", err)
	}

	requests := make([]*marketplace.Request, len(models))
	for i, m := range models {
		req, err := toDomainRequest(&m)
		if err != nil {
			return nil, 0, err
		}
		requests[i] = req
	}
	return requests, total, nil
}

// Save persists a new request.
func (r *GormMarketplaceRepository) Save(ctx context.Context, req *marketplace.Request) error {
	if err := r.db.WithContext(ctx).Create(toRequestModel(req)).Error; err != nil {
		return domain.NewStorageError("failed to save marketplace request", err)
	}
	return nil
}

// ResolvePending compare-and-swaps the status from PENDING to a terminal
// state. A supplier response and the expiry sweep go through this same
// statement, so whichever observes PENDING first wins.
func (r *GormMarketplaceRepository) ResolvePending(ctx context.Context, id uuid.UUID, to marketplace.RequestStatus, respondedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&MarketplaceRequestModel{}).
		Where("id = ? AND status = ?", id, string(marketplace.StatusPending)).
		Updates(map[string]interface{}{
			"status":       string(to),
			"responded_at": respondedAt,
			"updated_at":   time.Now().UTC(),
		})
	if result.Error != nil {
		return false, domain.NewStorageError("failed to resolve marketplace request", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ExpirePending expires every PENDING request created before the cutoff and
// returns the affected IDs so the caller can announce each resolution.
func (r *GormMarketplaceRepository) ExpirePending(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	var expired []MarketplaceRequestModel
	result := r.db.WithContext(ctx).
		Model(&expired).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "id"}}}).
		Where("status = ? AND created_at < ?", string(marketplace.StatusPending), cutoff).
		Updates(map[string]interface{}{
			"status":     string(marketplace.StatusExpired),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return nil, domain.NewStorageError("failed to expire marketplace requests", result.Error)
	}

	ids := make([]uuid.UUID, len(expired))
	for i, m := range expired {
		ids[i] = m.ID
	}
	return ids, nil
}

// --- Conversion Helpers ---

func toRequestModel(req *marketplace.Request) *MarketplaceRequestModel {
	return &MarketplaceRequestModel{
		ID:               req.ID(),
		RequesterTenant:  req.RequesterTenant(),
		SupplierTenant:   req.SupplierTenant(),
		CarID:            req.CarID(),
		DriverID:         req.DriverID(),
		StartAt:          req.StartAt(),
		EndAt:            req.EndAt(),
		QuotedTotalPrice: req.QuotedTotalPrice(),
		Status:           string(req.Status()),
		Note:             req.Note(),
		RespondedAt:      req.RespondedAt(),
		CreatedAt:        req.CreatedAt(),
		UpdatedAt:        req.UpdatedAt(),
	}
}

func toDomainRequest(m *MarketplaceRequestModel) (*marketplace.Request, error) {
	status, err := marketplace.ParseRequestStatus(m.Status)
	if err != nil {
		return nil, err
	}
	return marketplace.ReconstructRequest(
		m.ID,
		m.RequesterTenant,
		m.SupplierTenant,
		m.CarID,
		m.DriverID,
		m.StartAt,
		m.EndAt,
		m.QuotedTotalPrice,
		status,
		m.Note,
		m.RespondedAt,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
