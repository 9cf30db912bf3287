package booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/sewakita/service-rental/internal/domain"
)

const bookingNumberChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Booking is the aggregate root for the rental booking domain. A booking
// allocates one car (and optionally one driver) of a single tenant to a
// half-open time interval [startAt, endAt).
type Booking struct {
	id            uuid.UUID
	bookingNumber string
	tenantID      uuid.UUID
	carID         uuid.UUID
	customerID    uuid.UUID
	driverID      *uuid.UUID

	startAt time.Time
	endAt   time.Time

	totalPrice     int64
	amountPaid     int64
	paymentMethod  PaymentMethod
	deferredMonths int
	deliveryFee    int64
	overdueFee     int64
	extraFee       int64
	extraFeeReason string
	deposit        *DepositInfo

	status          BookingStatus
	actualReturnAt  *time.Time
	pickupChecklist *Checklist
	returnChecklist *Checklist
	cancelNote      string
	notes           string

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// generateBookingNumber creates a booking number in the format "RB-XXXXXX".
func generateBookingNumber() (string, error) {
	result := make([]byte, 6)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(bookingNumberChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate booking number: %w", err)
		}
		result[i] = bookingNumberChars[n.Int64()]
	}
	return "RB-" + string(result), nil
}

// NewBooking creates a new Booking aggregate in PENDING or CONFIRMED status.
func NewBooking(
	tenantID, carID, customerID uuid.UUID,
	driverID *uuid.UUID,
	startAt, endAt time.Time,
	totalPrice int64,
	paymentMethod PaymentMethod,
	deferredMonths int,
	deliveryFee, overdueFee, extraFee int64,
	extraFeeReason string,
	deposit *DepositInfo,
	initialStatus BookingStatus,
	notes string,
) (*Booking, error) {
	if tenantID == uuid.Nil {
		return nil, domain.NewValidationError("tenant ID is required")
	}
	if carID == uuid.Nil {
		return nil, domain.NewValidationError("car ID is required")
	}
	if customerID == uuid.Nil {
		return nil, domain.NewValidationError("customer ID is required")
	}
	if driverID != nil && *driverID == uuid.Nil {
		return nil, domain.NewValidationError("driver ID must not be empty when set")
	}
	if !startAt.Before(endAt) {
		return nil, domain.NewValidationError("rental start must be before rental end")
	}
	if totalPrice <= 0 {
		return nil, domain.NewValidationError("total price must be positive")
	}
	if !paymentMethod.IsValid() {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid payment method: %s", paymentMethod))
	}
	if paymentMethod == PaymentDeferred && deferredMonths <= 0 {
		return nil, domain.NewValidationError("deferred payment requires a term in months")
	}
	if initialStatus != StatusPending && initialStatus != StatusConfirmed {
		return nil, domain.NewValidationError(fmt.Sprintf("bookings start in PENDING or CONFIRMED, not %s", initialStatus))
	}

	bookingNumber, err := generateBookingNumber()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Booking{
		id:             uuid.New(),
		bookingNumber:  bookingNumber,
		tenantID:       tenantID,
		carID:          carID,
		customerID:     customerID,
		driverID:       driverID,
		startAt:        startAt,
		endAt:          endAt,
		totalPrice:     totalPrice,
		paymentMethod:  paymentMethod,
		deferredMonths: deferredMonths,
		deliveryFee:    deliveryFee,
		overdueFee:     overdueFee,
		extraFee:       extraFee,
		extraFeeReason: extraFeeReason,
		deposit:        deposit,
		status:         initialStatus,
		notes:          notes,
		version:        1,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	bookingNumber string,
	tenantID, carID, customerID uuid.UUID,
	driverID *uuid.UUID,
	startAt, endAt time.Time,
	totalPrice, amountPaid int64,
	paymentMethod PaymentMethod,
	deferredMonths int,
	deliveryFee, overdueFee, extraFee int64,
	extraFeeReason string,
	deposit *DepositInfo,
	status BookingStatus,
	actualReturnAt *time.Time,
	pickupChecklist, returnChecklist *Checklist,
	cancelNote, notes string,
	version int64,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:              id,
		bookingNumber:   bookingNumber,
		tenantID:        tenantID,
		carID:           carID,
		customerID:      customerID,
		driverID:        driverID,
		startAt:         startAt,
		endAt:           endAt,
		totalPrice:      totalPrice,
		amountPaid:      amountPaid,
		paymentMethod:   paymentMethod,
		deferredMonths:  deferredMonths,
		deliveryFee:     deliveryFee,
		overdueFee:      overdueFee,
		extraFee:        extraFee,
		extraFeeReason:  extraFeeReason,
		deposit:         deposit,
		status:          status,
		actualReturnAt:  actualReturnAt,
		pickupChecklist: pickupChecklist,
		returnChecklist: returnChecklist,
		cancelNote:      cancelNote,
		notes:           notes,
		version:         version,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

// --- Getters ---

func (b *Booking) ID() uuid.UUID                { return b.id }
func (b *Booking) BookingNumber() string        { return b.bookingNumber }
func (b *Booking) TenantID() uuid.UUID          { return b.tenantID }
func (b *Booking) CarID() uuid.UUID             { return b.carID }
func (b *Booking) CustomerID() uuid.UUID        { return b.customerID }
func (b *Booking) DriverID() *uuid.UUID         { return b.driverID }
func (b *Booking) StartAt() time.Time           { return b.startAt }
func (b *Booking) EndAt() time.Time             { return b.endAt }
func (b *Booking) TotalPrice() int64            { return b.totalPrice }
func (b *Booking) AmountPaid() int64            { return b.amountPaid }
func (b *Booking) PaymentMethod() PaymentMethod { return b.paymentMethod }
func (b *Booking) DeferredMonths() int          { return b.deferredMonths }
func (b *Booking) DeliveryFee() int64           { return b.deliveryFee }
func (b *Booking) OverdueFee() int64            { return b.overdueFee }
func (b *Booking) ExtraFee() int64              { return b.extraFee }
func (b *Booking) ExtraFeeReason() string       { return b.extraFeeReason }
func (b *Booking) Deposit() *DepositInfo        { return b.deposit }
func (b *Booking) Status() BookingStatus        { return b.status }
func (b *Booking) ActualReturnAt() *time.Time   { return b.actualReturnAt }
func (b *Booking) PickupChecklist() *Checklist  { return b.pickupChecklist }
func (b *Booking) ReturnChecklist() *Checklist  { return b.returnChecklist }
func (b *Booking) CancelNote() string           { return b.cancelNote }
func (b *Booking) Notes() string                { return b.notes }
func (b *Booking) Version() int64               { return b.version }
func (b *Booking) CreatedAt() time.Time         { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time         { return b.updatedAt }

// IsPaidInFull returns true once the amount paid covers the total price.
func (b *Booking) IsPaidInFull() bool {
	return b.amountPaid >= b.totalPrice
}

// RentalDays returns the billable day count for the booked interval.
func (b *Booking) RentalDays() int {
	return DayCount(b.startAt, b.endAt)
}

// NeedsDriver returns true if the booking includes a driver.
func (b *Booking) NeedsDriver() bool {
	return b.driverID != nil
}

// --- Behavior ---

// Confirm transitions the booking from PENDING to CONFIRMED.
func (b *Booking) Confirm() error {
	if !b.status.CanTransitionTo(StatusConfirmed) {
		return domain.NewIllegalTransitionError(string(b.status), string(StatusConfirmed))
	}
	b.status = StatusConfirmed
	b.updatedAt = time.Now().UTC()
	return nil
}

// Activate hands the vehicle over to the customer. The pickup checklist must
// carry a positive odometer reading.
func (b *Booking) Activate(pickup *Checklist) error {
	if !b.status.CanTransitionTo(StatusActive) {
		return domain.NewIllegalTransitionError(string(b.status), string(StatusActive))
	}
	if !pickup.IsComplete() {
		return domain.NewChecklistRequiredError("pickup checklist with odometer reading is required")
	}
	now := time.Now().UTC()
	cl := *pickup
	if cl.RecordedAt.IsZero() {
		cl.RecordedAt = now
	}
	b.pickupChecklist = &cl
	b.status = StatusActive
	b.updatedAt = now
	return nil
}

// Complete records the vehicle return. The return odometer must not run
// backwards relative to pickup.
func (b *Booking) Complete(ret *Checklist, returnedAt time.Time) error {
	if !b.status.CanTransitionTo(StatusCompleted) {
		return domain.NewIllegalTransitionError(string(b.status), string(StatusCompleted))
	}
	if !ret.IsComplete() {
		return domain.NewChecklistRequiredError("return checklist with odometer reading is required")
	}
	if b.pickupChecklist == nil || ret.Odometer < b.pickupChecklist.Odometer {
		return domain.NewChecklistRequiredError("return odometer must be at least the pickup odometer")
	}
	now := time.Now().UTC()
	if returnedAt.IsZero() {
		returnedAt = now
	}
	cl := *ret
	if cl.RecordedAt.IsZero() {
		cl.RecordedAt = now
	}
	b.returnChecklist = &cl
	b.actualReturnAt = &returnedAt
	b.status = StatusCompleted
	b.updatedAt = now
	return nil
}

// Cancel releases the resource. Only reachable before the vehicle leaves.
func (b *Booking) Cancel(reason string) error {
	if !b.status.CanTransitionTo(StatusCancelled) {
		return domain.NewIllegalTransitionError(string(b.status), string(StatusCancelled))
	}
	b.status = StatusCancelled
	b.cancelNote = reason
	b.updatedAt = time.Now().UTC()
	return nil
}

// RecordPayment updates the paid amount and method. Legal in every status.
func (b *Booking) RecordPayment(amountPaid int64, method PaymentMethod, deferredMonths int) error {
	if amountPaid < 0 {
		return domain.NewValidationError("amount paid must not be negative")
	}
	if !method.IsValid() {
		return domain.NewValidationError(fmt.Sprintf("invalid payment method: %s", method))
	}
	if method == PaymentDeferred && deferredMonths <= 0 {
		return domain.NewValidationError("deferred payment requires a term in months")
	}
	b.amountPaid = amountPaid
	b.paymentMethod = method
	b.deferredMonths = deferredMonths
	b.updatedAt = time.Now().UTC()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}
