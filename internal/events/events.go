package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics this service produces to and consumes from.
const (
	TopicBookingEvents     = "booking.events"
	TopicMarketplaceEvents = "marketplace.events"
	TopicPaymentEvents     = "payment.events"
)

// Event types.
const (
	BookingCreated        = "booking.created"
	BookingStatusChanged  = "booking.status_changed"
	BookingPaymentUpdated = "booking.payment_updated"

	MarketplaceRequested = "marketplace.requested"
	MarketplaceResolved  = "marketplace.resolved"

	PaymentSettled = "payment.settled"
)

// BookingCreatedEvent is published when a booking is persisted.
type BookingCreatedEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	TenantID      uuid.UUID `json:"tenant_id"`
	CarID         uuid.UUID `json:"car_id"`
	StartAt       time.Time `json:"start_at"`
	EndAt         time.Time `json:"end_at"`
	TotalPrice    int64     `json:"total_price"`
	Status        string    `json:"status"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// BookingStatusChangedEvent is published on every successful transition.
type BookingStatusChangedEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	TenantID      uuid.UUID `json:"tenant_id"`
	FromStatus    string    `json:"from_status"`
	ToStatus      string    `json:"to_status"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// BookingPaymentUpdatedEvent is published when the paid amount changes.
type BookingPaymentUpdatedEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	TenantID      uuid.UUID `json:"tenant_id"`
	AmountPaid    int64     `json:"amount_paid"`
	TotalPrice    int64     `json:"total_price"`
	PaymentMethod string    `json:"payment_method"`
	PaidInFull    bool      `json:"paid_in_full"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// MarketplaceRequestedEvent is published when a rent-to-rent request is sent.
type MarketplaceRequestedEvent struct {
	RequestID       uuid.UUID `json:"request_id"`
	RequesterTenant uuid.UUID `json:"requester_tenant"`
	SupplierTenant  uuid.UUID `json:"supplier_tenant"`
	CarID           uuid.UUID `json:"car_id"`
	StartAt         time.Time `json:"start_at"`
	EndAt           time.Time `json:"end_at"`
	QuotedPrice     int64     `json:"quoted_price"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// MarketplaceResolvedEvent is published when a request reaches a terminal
// status, whether by supplier decision or by the expiry sweep.
type MarketplaceResolvedEvent struct {
	RequestID       uuid.UUID `json:"request_id"`
	RequesterTenant uuid.UUID `json:"requester_tenant"`
	SupplierTenant  uuid.UUID `json:"supplier_tenant"`
	Status          string    `json:"status"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// PaymentSettledEvent arrives from the payment collaborator when money lands.
type PaymentSettledEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	TenantID      uuid.UUID `json:"tenant_id"`
	AmountPaid    int64     `json:"amount_paid"`
	PaymentMethod string    `json:"payment_method"`
	OccurredAt    time.Time `json:"occurred_at"`
}
