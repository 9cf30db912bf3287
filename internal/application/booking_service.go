package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sewakita/service-rental/internal/domain"
	bookingDomain "github.com/sewakita/service-rental/internal/domain/booking"
	"github.com/sewakita/service-rental/internal/domain/fleet"
	"github.com/sewakita/service-rental/internal/events"
	"github.com/sewakita/service-rental/internal/platform/kafka"
	"go.uber.org/zap"
)

// EventPublisher publishes CloudEvents. Satisfied by the Kafka producer.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	CarID              uuid.UUID                  `json:"car_id" binding:"required"`
	CustomerID         uuid.UUID                  `json:"customer_id" binding:"required"`
	CustomerNationalID string                     `json:"customer_national_id"`
	CustomerPhone      string                     `json:"customer_phone"`
	DriverID           *uuid.UUID                 `json:"driver_id"`
	StartAt            time.Time                  `json:"start_at" binding:"required"`
	EndAt              time.Time                  `json:"end_at" binding:"required"`
	PaymentMethod      string                     `json:"payment_method" binding:"required"`
	DeferredMonths     int                        `json:"deferred_months"`
	TripDistanceKm     float64                    `json:"trip_distance_km"`
	Overnight          bool                       `json:"overnight"`
	Area               string                     `json:"area"`
	DeliveryFee        int64                      `json:"delivery_fee"`
	OverdueFee         int64                      `json:"overdue_fee"`
	ExtraFee           int64                      `json:"extra_fee"`
	ExtraFeeReason     string                     `json:"extra_fee_reason"`
	Deposit            *bookingDomain.DepositInfo `json:"deposit"`
	Confirmed          bool                       `json:"confirmed"`
	Notes              string                     `json:"notes"`
}

// TransitionInput carries the optional payload of a status change.
type TransitionInput struct {
	Checklist  *bookingDomain.Checklist `json:"checklist"`
	ReturnedAt time.Time                `json:"returned_at"`
	Reason     string                   `json:"reason"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID              uuid.UUID                     `json:"id"`
	BookingNumber   string                        `json:"booking_number"`
	TenantID        uuid.UUID                     `json:"tenant_id"`
	CarID           uuid.UUID                     `json:"car_id"`
	CustomerID      uuid.UUID                     `json:"customer_id"`
	DriverID        *uuid.UUID                    `json:"driver_id,omitempty"`
	StartAt         time.Time                     `json:"start_at"`
	EndAt           time.Time                     `json:"end_at"`
	TotalPrice      int64                         `json:"total_price"`
	AmountPaid      int64                         `json:"amount_paid"`
	PaymentMethod   string                        `json:"payment_method"`
	DeferredMonths  int                           `json:"deferred_months,omitempty"`
	DeliveryFee     int64                         `json:"delivery_fee,omitempty"`
	OverdueFee      int64                         `json:"overdue_fee,omitempty"`
	ExtraFee        int64                         `json:"extra_fee,omitempty"`
	ExtraFeeReason  string                        `json:"extra_fee_reason,omitempty"`
	Deposit         *bookingDomain.DepositInfo    `json:"deposit,omitempty"`
	Status          string                        `json:"status"`
	ActualReturnAt  *time.Time                    `json:"actual_return_at,omitempty"`
	PickupChecklist *bookingDomain.Checklist      `json:"pickup_checklist,omitempty"`
	ReturnChecklist *bookingDomain.Checklist      `json:"return_checklist,omitempty"`
	CancelNote      string                        `json:"cancel_note,omitempty"`
	Notes           string                        `json:"notes,omitempty"`
	Breakdown       *bookingDomain.PriceBreakdown `json:"breakdown,omitempty"`
	Version         int64                         `json:"version"`
	CreatedAt       time.Time                     `json:"created_at"`
	UpdatedAt       time.Time                     `json:"updated_at"`
}

// BookingService is the application service orchestrating booking use cases.
// Every successful mutation invokes the ledger reconciler synchronously
// before returning: a caller never observes a booking whose status implies a
// ledger entry that does not exist yet. A reconciliation failure does not
// roll the booking mutation back; the error is surfaced and Reconcile can be
// retried.
type BookingService struct {
	repo       bookingDomain.BookingRepository
	cars       fleet.CarRepository
	drivers    fleet.DriverRepository
	pricing    bookingDomain.PricingStrategy
	blacklist  BlacklistRegistry
	settings   SettingsProvider
	reconciler *LedgerReconciler
	producer   EventPublisher
	logger     *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	repo bookingDomain.BookingRepository,
	cars fleet.CarRepository,
	drivers fleet.DriverRepository,
	pricing bookingDomain.PricingStrategy,
	blacklist BlacklistRegistry,
	settings SettingsProvider,
	reconciler *LedgerReconciler,
	producer EventPublisher,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		repo:       repo,
		cars:       cars,
		drivers:    drivers,
		pricing:    pricing,
		blacklist:  blacklist,
		settings:   settings,
		reconciler: reconciler,
		producer:   producer,
		logger:     logger,
	}
}

// CreateBooking prices and persists a new booking for the tenant. The
// availability re-check and the insert run atomically in the repository, so
// of two concurrent creations for the same car and interval exactly one
// succeeds; the other fails with ResourceConflict.
func (s *BookingService) CreateBooking(ctx context.Context, tenantID uuid.UUID, req CreateBookingRequest) (*BookingDTO, error) {
	hit, reason, err := s.blacklist.Check(ctx, req.CustomerNationalID, req.CustomerPhone)
	if err != nil {
		return nil, err
	}
	if hit {
		return nil, domain.NewBlacklistedError(fmt.Sprintf("customer is blacklisted: %s", reason))
	}

	car, err := s.cars.FindByID(ctx, tenantID, req.CarID)
	if err != nil {
		return nil, err
	}

	var driverRate int64
	if req.DriverID != nil {
		driver, err := s.drivers.FindByID(ctx, tenantID, *req.DriverID)
		if err != nil {
			return nil, err
		}
		driverRate = driver.DailyRate()
	}

	settings, err := s.settings.SettingsFor(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	total, breakdown, err := s.pricing.Calculate(bookingDomain.PriceParams{
		CarDailyRate:    car.DailyRate(),
		CarDriverSalary: car.DriverSalary(),
		WithDriver:      req.DriverID != nil,
		DriverDailyRate: driverRate,
		TripDistanceKm:  req.TripDistanceKm,
		Overnight:       req.Overnight,
		StartAt:         req.StartAt,
		EndAt:           req.EndAt,
		Area:            req.Area,
		DeliveryFee:     req.DeliveryFee,
		OverdueFee:      req.OverdueFee,
		ExtraFee:        req.ExtraFee,
	}, settings)
	if err != nil {
		return nil, err
	}

	initialStatus := bookingDomain.StatusPending
	if req.Confirmed {
		initialStatus = bookingDomain.StatusConfirmed
	}

	bk, err := bookingDomain.NewBooking(
		tenantID,
		req.CarID,
		req.CustomerID,
		req.DriverID,
		req.StartAt,
		req.EndAt,
		total,
		bookingDomain.PaymentMethod(req.PaymentMethod),
		req.DeferredMonths,
		req.DeliveryFee,
		req.OverdueFee,
		req.ExtraFee,
		req.ExtraFeeReason,
		req.Deposit,
		initialStatus,
		req.Notes,
	)
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateReserving(ctx, bk); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingCreated, events.BookingCreatedEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		TenantID:      bk.TenantID(),
		CarID:         bk.CarID(),
		StartAt:       bk.StartAt(),
		EndAt:         bk.EndAt(),
		TotalPrice:    bk.TotalPrice(),
		Status:        string(bk.Status()),
		OccurredAt:    time.Now().UTC(),
	})

	result := toBookingDTO(bk)
	result.Breakdown = &breakdown

	// Deferred-payment bookings recognize income at creation time.
	if err := s.reconciler.Reconcile(ctx, tenantID, bk.ID()); err != nil {
		s.logger.Error("ledger reconciliation failed after create",
			zap.String("booking_id", bk.ID().String()),
			zap.Error(err),
		)
		return &result, err
	}
	return &result, nil
}

// Transition moves a booking to a new status, enforcing the transition table
// and the checklist preconditions, then reconciles the ledger.
func (s *BookingService) Transition(ctx context.Context, tenantID, bookingID uuid.UUID, newStatus bookingDomain.BookingStatus, input TransitionInput) (*BookingDTO, error) {
	if !newStatus.IsValid() {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid target status: %s", newStatus))
	}

	bk, err := s.repo.FindByID(ctx, tenantID, bookingID)
	if err != nil {
		return nil, err
	}
	fromStatus := bk.Status()

	switch newStatus {
	case bookingDomain.StatusConfirmed:
		err = bk.Confirm()
	case bookingDomain.StatusActive:
		err = bk.Activate(input.Checklist)
	case bookingDomain.StatusCompleted:
		err = bk.Complete(input.Checklist, input.ReturnedAt)
	case bookingDomain.StatusCancelled:
		err = bk.Cancel(input.Reason)
	default:
		err = domain.NewIllegalTransitionError(string(fromStatus), string(newStatus))
	}
	if err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	// Pickup and return checklists carry the authoritative odometer reading.
	// The status change is already committed at this point, so a failed sync
	// is surfaced with the DTO after reconciliation, never instead of it.
	var syncErr error
	if newStatus == bookingDomain.StatusActive || newStatus == bookingDomain.StatusCompleted {
		if err := s.syncCarOdometer(ctx, tenantID, bk.CarID(), input.Checklist.Odometer); err != nil {
			s.logger.Error("failed to sync car odometer",
				zap.String("booking_id", bk.ID().String()),
				zap.Error(err),
			)
			syncErr = err
		}
	}

	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingStatusChanged, events.BookingStatusChangedEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		TenantID:      bk.TenantID(),
		FromStatus:    string(fromStatus),
		ToStatus:      string(newStatus),
		OccurredAt:    time.Now().UTC(),
	})

	result := toBookingDTO(bk)
	if err := s.reconciler.Reconcile(ctx, tenantID, bk.ID()); err != nil {
		s.logger.Error("ledger reconciliation failed after transition",
			zap.String("booking_id", bk.ID().String()),
			zap.String("to_status", string(newStatus)),
			zap.Error(err),
		)
		return &result, err
	}
	return &result, syncErr
}

// UpdatePayment records a new paid amount and method. Legal in every status;
// always re-runs the reconciler so income posts the moment the booking is
// paid in full or switched to deferred terms.
func (s *BookingService) UpdatePayment(ctx context.Context, tenantID, bookingID uuid.UUID, amountPaid int64, method bookingDomain.PaymentMethod, deferredMonths int) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, tenantID, bookingID)
	if err != nil {
		return nil, err
	}

	if err := bk.RecordPayment(amountPaid, method, deferredMonths); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingPaymentUpdated, events.BookingPaymentUpdatedEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		TenantID:      bk.TenantID(),
		AmountPaid:    bk.AmountPaid(),
		TotalPrice:    bk.TotalPrice(),
		PaymentMethod: string(bk.PaymentMethod()),
		PaidInFull:    bk.IsPaidInFull(),
		OccurredAt:    time.Now().UTC(),
	})

	result := toBookingDTO(bk)
	if err := s.reconciler.Reconcile(ctx, tenantID, bk.ID()); err != nil {
		s.logger.Error("ledger reconciliation failed after payment update",
			zap.String("booking_id", bk.ID().String()),
			zap.Error(err),
		)
		return &result, err
	}
	return &result, nil
}

// ApplySettlement records a payment announced by the payment collaborator.
// Adds the settled amount on top of what is already paid.
func (s *BookingService) ApplySettlement(ctx context.Context, event events.PaymentSettledEvent) error {
	bk, err := s.repo.FindByID(ctx, event.TenantID, event.BookingID)
	if err != nil {
		return err
	}

	method := bookingDomain.PaymentMethod(event.PaymentMethod)
	if !method.IsValid() {
		method = bk.PaymentMethod()
	}

	_, err = s.UpdatePayment(ctx, event.TenantID, event.BookingID, bk.AmountPaid()+event.AmountPaid, method, bk.DeferredMonths())
	return err
}

// GetBooking retrieves a single booking by ID.
func (s *BookingService) GetBooking(ctx context.Context, tenantID, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, tenantID, bookingID)
	if err != nil {
		return nil, err
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// ListBookings retrieves paginated bookings for the tenant.
func (s *BookingService) ListBookings(ctx context.Context, tenantID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.repo.ListByTenant(ctx, tenantID, page, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// BookingStatsDTO holds booking counts for the dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// GetBookingStats returns aggregate booking statistics for the tenant.
func (s *BookingService) GetBookingStats(ctx context.Context, tenantID uuid.UUID) (*BookingStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, c := range counts {
		total += c
	}
	return &BookingStatsDTO{TotalBookings: total, ByStatus: counts}, nil
}

// --- Helpers ---

func (s *BookingService) syncCarOdometer(ctx context.Context, tenantID, carID uuid.UUID, reading int64) error {
	car, err := s.cars.FindByID(ctx, tenantID, carID)
	if err != nil {
		return err
	}
	car.SetOdometer(reading)
	return s.cars.Update(ctx, car)
}

func (s *BookingService) publishEvent(ctx context.Context, topic, eventType string, data interface{}) {
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
	if err := s.producer.PublishEvent(ctx, topic, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:              bk.ID(),
		BookingNumber:   bk.BookingNumber(),
		TenantID:        bk.TenantID(),
		CarID:           bk.CarID(),
		CustomerID:      bk.CustomerID(),
		DriverID:        bk.DriverID(),
		StartAt:         bk.StartAt(),
		EndAt:           bk.EndAt(),
		TotalPrice:      bk.TotalPrice(),
		AmountPaid:      bk.AmountPaid(),
		PaymentMethod:   string(bk.PaymentMethod()),
		DeferredMonths:  bk.DeferredMonths(),
		DeliveryFee:     bk.DeliveryFee(),
		OverdueFee:      bk.OverdueFee(),
		ExtraFee:        bk.ExtraFee(),
		ExtraFeeReason:  bk.ExtraFeeReason(),
		Deposit:         bk.Deposit(),
		Status:          string(bk.Status()),
		ActualReturnAt:  bk.ActualReturnAt(),
		PickupChecklist: bk.PickupChecklist(),
		ReturnChecklist: bk.ReturnChecklist(),
		CancelNote:      bk.CancelNote(),
		Notes:           bk.Notes(),
		Version:         bk.Version(),
		CreatedAt:       bk.CreatedAt(),
		UpdatedAt:       bk.UpdatedAt(),
	}
}
