package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sewakita/service-rental/internal/domain"
	"github.com/sewakita/service-rental/internal/domain/fleet"
	"github.com/sewakita/service-rental/internal/domain/marketplace"
	"github.com/sewakita/service-rental/internal/events"
	"github.com/sewakita/service-rental/internal/platform/kafka"
	"go.uber.org/zap"
)

// SendRequestInput holds the data to create a rent-to-rent request.
type SendRequestInput struct {
	SupplierTenant   uuid.UUID  `json:"supplier_tenant" binding:"required"`
	CarID            uuid.UUID  `json:"car_id" binding:"required"`
	DriverID         *uuid.UUID `json:"driver_id"`
	StartAt          time.Time  `json:"start_at" binding:"required"`
	EndAt            time.Time  `json:"end_at" binding:"required"`
	QuotedTotalPrice int64      `json:"quoted_total_price" binding:"required"`
	Note             string     `json:"note"`
}

// RequestDTO is the response representation of a marketplace request.
type RequestDTO struct {
	ID               uuid.UUID  `json:"id"`
	RequesterTenant  uuid.UUID  `json:"requester_tenant"`
	SupplierTenant   uuid.UUID  `json:"supplier_tenant"`
	CarID            uuid.UUID  `json:"car_id"`
	DriverID         *uuid.UUID `json:"driver_id,omitempty"`
	StartAt          time.Time  `json:"start_at"`
	EndAt            time.Time  `json:"end_at"`
	QuotedTotalPrice int64      `json:"quoted_total_price"`
	Status           string     `json:"status"`
	Note             string     `json:"note,omitempty"`
	RespondedAt      *time.Time `json:"responded_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// MarketplaceService orchestrates cross-tenant rent-to-rent requests. A
// request mutates its own record only; approving never books the supplier's
// car, the requester follows up with a regular booking on the supplier side.
type MarketplaceService struct {
	repo     marketplace.RequestRepository
	cars     fleet.CarRepository
	producer EventPublisher
	ttl      time.Duration
	logger   *zap.Logger
}

// NewMarketplaceService creates a new MarketplaceService. ttl is how long a
// request may stay pending before the sweep expires it.
func NewMarketplaceService(
	repo marketplace.RequestRepository,
	cars fleet.CarRepository,
	producer EventPublisher,
	ttl time.Duration,
	logger *zap.Logger,
) *MarketplaceService {
	return &MarketplaceService{
		repo:     repo,
		cars:     cars,
		producer: producer,
		ttl:      ttl,
		logger:   logger,
	}
}

// SendRequest creates a pending request from the acting tenant to the
// supplier tenant for one of the supplier's cars.
func (s *MarketplaceService) SendRequest(ctx context.Context, requesterTenant uuid.UUID, input SendRequestInput) (*RequestDTO, error) {
	// The car must exist in the supplier's fleet before anything is persisted.
	if _, err := s.cars.FindByID(ctx, input.SupplierTenant, input.CarID); err != nil {
		return nil, err
	}

	req, err := marketplace.NewRequest(
		requesterTenant,
		input.SupplierTenant,
		input.CarID,
		input.DriverID,
		input.StartAt,
		input.EndAt,
		input.QuotedTotalPrice,
		input.Note,
	)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, req); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.MarketplaceRequested, events.MarketplaceRequestedEvent{
		RequestID:       req.ID(),
		RequesterTenant: req.RequesterTenant(),
		SupplierTenant:  req.SupplierTenant(),
		CarID:           req.CarID(),
		StartAt:         req.StartAt(),
		EndAt:           req.EndAt(),
		QuotedPrice:     req.QuotedTotalPrice(),
		OccurredAt:      time.Now().UTC(),
	})

	result := toRequestDTO(req)
	return &result, nil
}

// GetRequest retrieves a request visible to the acting tenant. Only the
// requester and the supplier may see it.
func (s *MarketplaceService) GetRequest(ctx context.Context, actingTenant, requestID uuid.UUID) (*RequestDTO, error) {
	req, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !req.InvolvesTenant(actingTenant) {
		return nil, domain.NewNotFoundError("marketplace request", requestID.String())
	}
	result := toRequestDTO(req)
	return &result, nil
}

// ListRequests retrieves paginated requests where the acting tenant is either
// the requester or the supplier.
func (s *MarketplaceService) ListRequests(ctx context.Context, actingTenant uuid.UUID, page, limit int) (*domain.PaginatedResult[RequestDTO], error) {
	requests, total, err := s.repo.ListForTenant(ctx, actingTenant, page, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]RequestDTO, len(requests))
	for i, req := range requests {
		dtos[i] = toRequestDTO(req)
	}
	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// RespondToRequest applies the supplier's decision. The terminal status is
// written with a compare-and-set on PENDING, so between a concurrent
// response and the expiry sweep exactly one writer wins; the loser gets
// AlreadyResolved.
func (s *MarketplaceService) RespondToRequest(ctx context.Context, actingTenant, requestID uuid.UUID, decision marketplace.Decision) (*RequestDTO, error) {
	req, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if err := req.Respond(decision, actingTenant); err != nil {
		return nil, err
	}

	resolved, err := s.repo.ResolvePending(ctx, req.ID(), req.Status(), *req.RespondedAt())
	if err != nil {
		return nil, err
	}
	if !resolved {
		return nil, domain.NewAlreadyResolvedError("request was resolved by another actor")
	}

	s.publishEvent(ctx, events.MarketplaceResolved, events.MarketplaceResolvedEvent{
		RequestID:       req.ID(),
		RequesterTenant: req.RequesterTenant(),
		SupplierTenant:  req.SupplierTenant(),
		Status:          string(req.Status()),
		OccurredAt:      time.Now().UTC(),
	})

	result := toRequestDTO(req)
	return &result, nil
}

// ExpireStaleRequests flips every request pending for longer than the TTL to
// EXPIRED and returns how many were swept. Run periodically by the scheduler.
// Each expiry is announced the same way a supplier decision is.
func (s *MarketplaceService) ExpireStaleRequests(ctx context.Context, now time.Time) (int64, error) {
	ids, err := s.repo.ExpirePending(ctx, now.Add(-s.ttl))
	if err != nil {
		return 0, err
	}

	for _, id := range ids {
		req, err := s.repo.FindByID(ctx, id)
		if err != nil {
			s.logger.Error("failed to load expired request",
				zap.String("request_id", id.String()),
				zap.Error(err),
			)
			continue
		}
		s.publishEvent(ctx, events.MarketplaceResolved, events.MarketplaceResolvedEvent{
			RequestID:       req.ID(),
			RequesterTenant: req.RequesterTenant(),
			SupplierTenant:  req.SupplierTenant(),
			Status:          string(req.Status()),
			OccurredAt:      time.Now().UTC(),
		})
	}

	if len(ids) > 0 {
		s.logger.Info("expired stale marketplace requests", zap.Int("count", len(ids)))
	}
	return int64(len(ids)), nil
}

func (s *MarketplaceService) publishEvent(ctx context.Context, eventType string, data interface{}) {
	if s.producer == nil {
		return
	}
	cloudEvent, err := kafka.NewCloudEvent("service-rental", eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}
	if err := s.producer.PublishEvent(ctx, events.TopicMarketplaceEvents, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

func toRequestDTO(req *marketplace.Request) RequestDTO {
	return RequestDTO{
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
	}
}
