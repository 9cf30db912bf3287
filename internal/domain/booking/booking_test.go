package booking

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sewakita/service-rental/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBooking(t *testing.T, driverID *uuid.UUID, status BookingStatus) *Booking {
	t.Helper()
	bk, err := NewBooking(
		uuid.New(), uuid.New(), uuid.New(), driverID,
		day(2025, 6, 1), day(2025, 6, 4),
		900_000, PaymentCash, 0,
		0, 0, 0, "", nil,
		status, "",
	)
	require.NoError(t, err)
	return bk
}

func TestNewBookingValidation(t *testing.T) {
	start, end := day(2025, 6, 1), day(2025, 6, 4)

	tests := []struct {
		name string
		fn   func() (*Booking, error)
	}{
		{"missing tenant", func() (*Booking, error) {
			return NewBooking(uuid.Nil, uuid.New(), uuid.New(), nil, start, end, 900_000, PaymentCash, 0, 0, 0, 0, "", nil, StatusPending, "")
		}},
		{"missing car", func() (*Booking, error) {
			return NewBooking(uuid.New(), uuid.Nil, uuid.New(), nil, start, end, 900_000, PaymentCash, 0, 0, 0, 0, "", nil, StatusPending, "")
		}},
		{"start after end", func() (*Booking, error) {
			return NewBooking(uuid.New(), uuid.New(), uuid.New(), nil, end, start, 900_000, PaymentCash, 0, 0, 0, 0, "", nil, StatusPending, "")
		}},
		{"zero-length interval", func() (*Booking, error) {
			return NewBooking(uuid.New(), uuid.New(), uuid.New(), nil, start, start, 900_000, PaymentCash, 0, 0, 0, 0, "", nil, StatusPending, "")
		}},
		{"non-positive price", func() (*Booking, error) {
			return NewBooking(uuid.New(), uuid.New(), uuid.New(), nil, start, end, 0, PaymentCash, 0, 0, 0, 0, "", nil, StatusPending, "")
		}},
		{"invalid payment method", func() (*Booking, error) {
			return NewBooking(uuid.New(), uuid.New(), uuid.New(), nil, start, end, 900_000, "CRYPTO", 0, 0, 0, 0, "", nil, StatusPending, "")
		}},
		{"deferred without term", func() (*Booking, error) {
			return NewBooking(uuid.New(), uuid.New(), uuid.New(), nil, start, end, 900_000, PaymentDeferred, 0, 0, 0, 0, "", nil, StatusPending, "")
		}},
		{"starts in active", func() (*Booking, error) {
			return NewBooking(uuid.New(), uuid.New(), uuid.New(), nil, start, end, 900_000, PaymentCash, 0, 0, 0, 0, "", nil, StatusActive, "")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.fn()
			require.Error(t, err)
			assert.True(t, domain.IsKind(err, domain.KindValidation))
		})
	}
}

func TestNewBookingNumberFormat(t *testing.T) {
	bk := newTestBooking(t, nil, StatusPending)
	assert.True(t, strings.HasPrefix(bk.BookingNumber(), "RB-"))
	assert.Len(t, bk.BookingNumber(), 9)
}

func TestConfirm(t *testing.T) {
	bk := newTestBooking(t, nil, StatusPending)
	require.NoError(t, bk.Confirm())
	assert.Equal(t, StatusConfirmed, bk.Status())

	err := bk.Confirm()
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindIllegalTransition))
}

func TestActivateRequiresChecklist(t *testing.T) {
	bk := newTestBooking(t, nil, StatusConfirmed)

	err := bk.Activate(nil)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindChecklistRequired))

	err = bk.Activate(&Checklist{Odometer: 0})
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindChecklistRequired))

	require.NoError(t, bk.Activate(&Checklist{Odometer: 52_000, FuelPercent: 80}))
	assert.Equal(t, StatusActive, bk.Status())
	require.NotNil(t, bk.PickupChecklist())
	assert.False(t, bk.PickupChecklist().RecordedAt.IsZero())
}

func TestCompleteOdometerMustNotRunBackwards(t *testing.T) {
	bk := newTestBooking(t, nil, StatusConfirmed)
	require.NoError(t, bk.Activate(&Checklist{Odometer: 52_000}))

	err := bk.Complete(&Checklist{Odometer: 51_000}, time.Time{})
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindChecklistRequired))
	assert.Equal(t, StatusActive, bk.Status())

	require.NoError(t, bk.Complete(&Checklist{Odometer: 52_300}, time.Time{}))
	assert.Equal(t, StatusCompleted, bk.Status())
	require.NotNil(t, bk.ActualReturnAt())
}

func TestCompleteEqualOdometerAllowed(t *testing.T) {
	bk := newTestBooking(t, nil, StatusConfirmed)
	require.NoError(t, bk.Activate(&Checklist{Odometer: 52_000}))
	require.NoError(t, bk.Complete(&Checklist{Odometer: 52_000}, time.Time{}))
	assert.Equal(t, StatusCompleted, bk.Status())
}

func TestCancelOnlyBeforeActive(t *testing.T) {
	bk := newTestBooking(t, nil, StatusPending)
	require.NoError(t, bk.Cancel("customer changed plans"))
	assert.Equal(t, StatusCancelled, bk.Status())
	assert.Equal(t, "customer changed plans", bk.CancelNote())

	active := newTestBooking(t, nil, StatusConfirmed)
	require.NoError(t, active.Activate(&Checklist{Odometer: 10_000}))
	err := active.Cancel("too late")
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindIllegalTransition))
}

func TestRecordPayment(t *testing.T) {
	bk := newTestBooking(t, nil, StatusPending)
	assert.False(t, bk.IsPaidInFull())

	require.NoError(t, bk.RecordPayment(900_000, PaymentTransfer, 0))
	assert.True(t, bk.IsPaidInFull())
	assert.Equal(t, PaymentTransfer, bk.PaymentMethod())

	err := bk.RecordPayment(-1, PaymentCash, 0)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	err = bk.RecordPayment(0, PaymentDeferred, 0)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	require.NoError(t, bk.RecordPayment(0, PaymentDeferred, 6))
	assert.Equal(t, 6, bk.DeferredMonths())
}

func TestRentalDaysAndNeedsDriver(t *testing.T) {
	driverID := uuid.New()
	bk := newTestBooking(t, &driverID, StatusPending)
	assert.Equal(t, 3, bk.RentalDays())
	assert.True(t, bk.NeedsDriver())

	noDriver := newTestBooking(t, nil, StatusPending)
	assert.False(t, noDriver.NeedsDriver())
}

func TestIncrementVersion(t *testing.T) {
	bk := newTestBooking(t, nil, StatusPending)
	assert.Equal(t, int64(1), bk.Version())
	bk.IncrementVersion()
	assert.Equal(t, int64(2), bk.Version())
}
