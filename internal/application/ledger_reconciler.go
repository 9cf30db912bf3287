package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	bookingDomain "github.com/sewakita/service-rental/internal/domain/booking"
	"github.com/sewakita/service-rental/internal/domain/fleet"
	"github.com/sewakita/service-rental/internal/domain/ledger"
	"go.uber.org/zap"
)

// LedgerReconciler derives income and expense ledger entries from a booking's
// current state. Reconcile is idempotent: every rule posts through an atomic
// insert-if-absent keyed by the booking's reference tag, so it is safe to
// invoke any number of times, including concurrently.
type LedgerReconciler struct {
	bookings bookingDomain.BookingRepository
	cars     fleet.CarRepository
	drivers  fleet.DriverRepository
	entries  ledger.EntryRepository
	settings SettingsProvider
	logger   *zap.Logger
}

// NewLedgerReconciler creates a new LedgerReconciler.
func NewLedgerReconciler(
	bookings bookingDomain.BookingRepository,
	cars fleet.CarRepository,
	drivers fleet.DriverRepository,
	entries ledger.EntryRepository,
	settings SettingsProvider,
	logger *zap.Logger,
) *LedgerReconciler {
	return &LedgerReconciler{
		bookings: bookings,
		cars:     cars,
		drivers:  drivers,
		entries:  entries,
		settings: settings,
		logger:   logger,
	}
}

// Reconcile posts every ledger entry the booking's state implies:
//
//   - income, once the booking is paid in full or payment is deferred
//   - driver salary, partner revenue share and delivery reimbursement, once
//     the booking is completed
//
// Derived expense amounts are rounded up to the nearest 1,000, matching the
// back-office reports downstream.
func (r *LedgerReconciler) Reconcile(ctx context.Context, tenantID, bookingID uuid.UUID) error {
	bk, err := r.bookings.FindByID(ctx, tenantID, bookingID)
	if err != nil {
		return err
	}

	if bk.IsPaidInFull() || bk.PaymentMethod() == bookingDomain.PaymentDeferred {
		desc := fmt.Sprintf("Rental income %s", bk.BookingNumber())
		if bk.PaymentMethod() == bookingDomain.PaymentDeferred {
			desc = fmt.Sprintf("Rental income %s (deferred, %d months)", bk.BookingNumber(), bk.DeferredMonths())
		}
		if err := r.post(ctx, bk.TenantID(), bk.ID(), ledger.TypeIncome, ledger.CategoryIncome, bk.TotalPrice(), desc); err != nil {
			return err
		}
	}

	if bk.Status() != bookingDomain.StatusCompleted {
		return nil
	}

	car, err := r.cars.FindByID(ctx, bk.TenantID(), bk.CarID())
	if err != nil {
		return err
	}

	if bk.NeedsDriver() {
		if err := r.postDriverSalary(ctx, bk, car); err != nil {
			return err
		}
	}

	if car.IsPartnerOwned() {
		share := bookingDomain.RoundUpThousand(bk.TotalPrice() * int64(car.PartnerSharePercent()) / 100)
		desc := fmt.Sprintf("Partner share %d%% for %s", car.PartnerSharePercent(), bk.BookingNumber())
		if err := r.post(ctx, bk.TenantID(), bk.ID(), ledger.TypeExpense, ledger.CategoryPartnerShare, share, desc); err != nil {
			return err
		}
	}

	if bk.DeliveryFee() > 0 {
		desc := fmt.Sprintf("Delivery reimbursement for %s", bk.BookingNumber())
		if err := r.post(ctx, bk.TenantID(), bk.ID(), ledger.TypeExpense, ledger.CategoryDeliveryExpense, bk.DeliveryFee(), desc); err != nil {
			return err
		}
	}

	return nil
}

func (r *LedgerReconciler) postDriverSalary(ctx context.Context, bk *bookingDomain.Booking, car *fleet.Car) error {
	driver, err := r.drivers.FindByID(ctx, bk.TenantID(), *bk.DriverID())
	if err != nil {
		return err
	}
	settings, err := r.settings.SettingsFor(ctx, bk.TenantID())
	if err != nil {
		return err
	}

	rate := bookingDomain.ResolveDriverRate(bookingDomain.PriceParams{
		CarDriverSalary: car.DriverSalary(),
		DriverDailyRate: driver.DailyRate(),
	}, settings)
	amount := bookingDomain.RoundUpThousand(rate * int64(bk.RentalDays()))

	desc := fmt.Sprintf("Driver salary %s for %s", driver.Name(), bk.BookingNumber())
	return r.post(ctx, bk.TenantID(), bk.ID(), ledger.TypeExpense, ledger.CategoryDriverSalary, amount, desc)
}

func (r *LedgerReconciler) post(ctx context.Context, tenantID, bookingID uuid.UUID, entryType ledger.EntryType, category ledger.Category, amount int64, desc string) error {
	entry, err := ledger.NewEntry(tenantID, bookingID, entryType, category, amount, desc)
	if err != nil {
		return err
	}

	inserted, err := r.entries.InsertIfAbsent(ctx, entry)
	if err != nil {
		return err
	}
	if !inserted {
		r.logger.Debug("ledger entry already posted",
			zap.String("reference_tag", entry.ReferenceTag()),
		)
	}
	return nil
}
