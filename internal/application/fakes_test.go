package application

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sewakita/service-rental/internal/domain"
	bookingDomain "github.com/sewakita/service-rental/internal/domain/booking"
	"github.com/sewakita/service-rental/internal/domain/fleet"
	"github.com/sewakita/service-rental/internal/domain/ledger"
	"github.com/sewakita/service-rental/internal/domain/marketplace"
	"github.com/sewakita/service-rental/internal/platform/kafka"
)

// fakeBookingRepo is an in-memory BookingRepository with the same overlap and
// version semantics as the GORM implementation.
type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*bookingDomain.Booking
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[uuid.UUID]*bookingDomain.Booking)}
}

func (r *fakeBookingRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bk, ok := r.bookings[id]
	if !ok || bk.TenantID() != tenantID {
		return nil, domain.NewNotFoundError("booking", id.String())
	}
	return bk, nil
}

func (r *fakeBookingRepo) FindByNumber(_ context.Context, tenantID uuid.UUID, number string) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, bk := range r.bookings {
		if bk.TenantID() == tenantID && bk.BookingNumber() == number {
			return bk, nil
		}
	}
	return nil, domain.NewNotFoundError("booking", number)
}

func (r *fakeBookingRepo) ListByTenant(_ context.Context, tenantID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*bookingDomain.Booking
	for _, bk := range r.bookings {
		if bk.TenantID() == tenantID {
			all = append(all, bk)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt().After(all[j].CreatedAt()) })
	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *fakeBookingRepo) CountByStatus(_ context.Context, tenantID uuid.UUID) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int64)
	for _, bk := range r.bookings {
		if bk.TenantID() == tenantID {
			counts[string(bk.Status())]++
		}
	}
	return counts, nil
}

func (r *fakeBookingRepo) overlaps(tenantID, carID uuid.UUID, driverID *uuid.UUID, start, end time.Time, excludeID *uuid.UUID) bool {
	for _, bk := range r.bookings {
		if bk.TenantID() != tenantID || !bk.Status().BlocksResource() {
			continue
		}
		if excludeID != nil && bk.ID() == *excludeID {
			continue
		}
		if !bk.StartAt().Before(end) || !bk.EndAt().After(start) {
			continue
		}
		if bk.CarID() == carID {
			return true
		}
		if driverID != nil && bk.DriverID() != nil && *bk.DriverID() == *driverID {
			return true
		}
	}
	return false
}

func (r *fakeBookingRepo) CreateReserving(_ context.Context, b *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.overlaps(b.TenantID(), b.CarID(), b.DriverID(), b.StartAt(), b.EndAt(), nil) {
		return domain.NewResourceConflictError("car or driver is already booked for this interval")
	}
	r.bookings[b.ID()] = b
	return nil
}

func (r *fakeBookingRepo) Update(_ context.Context, b *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[b.ID()]; !ok {
		return domain.NewNotFoundError("booking", b.ID().String())
	}
	r.bookings[b.ID()] = b
	return nil
}

func (r *fakeBookingRepo) HasOverlap(_ context.Context, tenantID, carID uuid.UUID, driverID *uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.overlaps(tenantID, carID, driverID, start, end, excludeID), nil
}

func (r *fakeBookingRepo) BlockedResources(_ context.Context, tenantID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]uuid.UUID, []uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	carSeen := make(map[uuid.UUID]struct{})
	driverSeen := make(map[uuid.UUID]struct{})
	var carIDs, driverIDs []uuid.UUID
	for _, bk := range r.bookings {
		if bk.TenantID() != tenantID || !bk.Status().BlocksResource() {
			continue
		}
		if excludeID != nil && bk.ID() == *excludeID {
			continue
		}
		if !bk.StartAt().Before(end) || !bk.EndAt().After(start) {
			continue
		}
		if _, ok := carSeen[bk.CarID()]; !ok {
			carSeen[bk.CarID()] = struct{}{}
			carIDs = append(carIDs, bk.CarID())
		}
		if bk.DriverID() != nil {
			if _, ok := driverSeen[*bk.DriverID()]; !ok {
				driverSeen[*bk.DriverID()] = struct{}{}
				driverIDs = append(driverIDs, *bk.DriverID())
			}
		}
	}
	return carIDs, driverIDs, nil
}

type fakeCarRepo struct {
	mu        sync.Mutex
	cars      map[uuid.UUID]*fleet.Car
	updateErr error
}

func newFakeCarRepo(cars ...*fleet.Car) *fakeCarRepo {
	r := &fakeCarRepo{cars: make(map[uuid.UUID]*fleet.Car)}
	for _, c := range cars {
		r.cars[c.ID()] = c
	}
	return r
}

func (r *fakeCarRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*fleet.Car, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	car, ok := r.cars[id]
	if !ok || car.TenantID() != tenantID {
		return nil, domain.NewNotFoundError("car", id.String())
	}
	return car, nil
}

func (r *fakeCarRepo) Save(_ context.Context, car *fleet.Car) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cars[car.ID()] = car
	return nil
}

func (r *fakeCarRepo) Update(_ context.Context, car *fleet.Car) error {
	r.mu.Lock()
	if r.updateErr != nil {
		defer r.mu.Unlock()
		return r.updateErr
	}
	r.mu.Unlock()
	return r.Save(context.Background(), car)
}

type fakeDriverRepo struct {
	mu      sync.Mutex
	drivers map[uuid.UUID]*fleet.Driver
}

func newFakeDriverRepo(drivers ...*fleet.Driver) *fakeDriverRepo {
	r := &fakeDriverRepo{drivers: make(map[uuid.UUID]*fleet.Driver)}
	for _, d := range drivers {
		r.drivers[d.ID()] = d
	}
	return r
}

func (r *fakeDriverRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*fleet.Driver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.drivers[id]
	if !ok || d.TenantID() != tenantID {
		return nil, domain.NewNotFoundError("driver", id.String())
	}
	return d, nil
}

func (r *fakeDriverRepo) Save(_ context.Context, d *fleet.Driver) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drivers[d.ID()] = d
	return nil
}

// fakeLedgerRepo deduplicates on (tenant, reference tag) like the unique
// index does.
type fakeLedgerRepo struct {
	mu      sync.Mutex
	entries map[string]*ledger.Entry
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{entries: make(map[string]*ledger.Entry)}
}

func (r *fakeLedgerRepo) key(tenantID uuid.UUID, tag string) string {
	return tenantID.String() + "/" + tag
}

func (r *fakeLedgerRepo) InsertIfAbsent(_ context.Context, e *ledger.Entry) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := r.key(e.TenantID(), e.ReferenceTag())
	if _, ok := r.entries[k]; ok {
		return false, nil
	}
	r.entries[k] = e
	return true, nil
}

func (r *fakeLedgerRepo) ListByBooking(_ context.Context, tenantID, bookingID uuid.UUID) ([]*ledger.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*ledger.Entry
	for _, e := range r.entries {
		if e.TenantID() == tenantID && e.BookingID() == bookingID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeLedgerRepo) ListByTenant(_ context.Context, tenantID uuid.UUID, page, limit int) ([]*ledger.Entry, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*ledger.Entry
	for _, e := range r.entries {
		if e.TenantID() == tenantID {
			out = append(out, e)
		}
	}
	return out, int64(len(out)), nil
}

type fakeMarketplaceRepo struct {
	mu       sync.Mutex
	requests map[uuid.UUID]*marketplace.Request
}

func newFakeMarketplaceRepo() *fakeMarketplaceRepo {
	return &fakeMarketplaceRepo{requests: make(map[uuid.UUID]*marketplace.Request)}
}

func (r *fakeMarketplaceRepo) FindByID(_ context.Context, id uuid.UUID) (*marketplace.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, domain.NewNotFoundError("marketplace request", id.String())
	}
	// Return a detached copy like a database read would; callers mutate the
	// result and the stored record must stay untouched until ResolvePending.
	var respondedAt *time.Time
	if req.RespondedAt() != nil {
		ts := *req.RespondedAt()
		respondedAt = &ts
	}
	return marketplace.ReconstructRequest(
		req.ID(), req.RequesterTenant(), req.SupplierTenant(), req.CarID(), req.DriverID(),
		req.StartAt(), req.EndAt(), req.QuotedTotalPrice(), req.Status(), req.Note(), respondedAt,
		req.CreatedAt(), req.UpdatedAt(),
	), nil
}

func (r *fakeMarketplaceRepo) ListForTenant(_ context.Context, tenantID uuid.UUID, page, limit int) ([]*marketplace.Request, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*marketplace.Request
	for _, req := range r.requests {
		if req.InvolvesTenant(tenantID) {
			out = append(out, req)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeMarketplaceRepo) Save(_ context.Context, req *marketplace.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests[req.ID()] = req
	return nil
}

func (r *fakeMarketplaceRepo) ResolvePending(_ context.Context, id uuid.UUID, to marketplace.RequestStatus, respondedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok || req.Status() != marketplace.StatusPending {
		return false, nil
	}
	r.requests[id] = marketplace.ReconstructRequest(
		req.ID(), req.RequesterTenant(), req.SupplierTenant(), req.CarID(), req.DriverID(),
		req.StartAt(), req.EndAt(), req.QuotedTotalPrice(), to, req.Note(), &respondedAt,
		req.CreatedAt(), respondedAt,
	)
	return true, nil
}

func (r *fakeMarketplaceRepo) ExpirePending(_ context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []uuid.UUID
	now := time.Now().UTC()
	for id, req := range r.requests {
		if req.Status() == marketplace.StatusPending && req.CreatedAt().Before(cutoff) {
			r.requests[id] = marketplace.ReconstructRequest(
				req.ID(), req.RequesterTenant(), req.SupplierTenant(), req.CarID(), req.DriverID(),
				req.StartAt(), req.EndAt(), req.QuotedTotalPrice(), marketplace.StatusExpired, req.Note(), nil,
				req.CreatedAt(), now,
			)
			ids = append(ids, id)
		}
	}
	return ids, nil
}

type fakeBlacklist struct {
	hit    bool
	reason string
}

func (f *fakeBlacklist) Check(_ context.Context, nationalID, phone string) (bool, string, error) {
	if nationalID == "" && phone == "" {
		return false, "", nil
	}
	return f.hit, f.reason, nil
}

type fakeSettings struct {
	settings bookingDomain.Settings
}

func (f *fakeSettings) SettingsFor(_ context.Context, _ uuid.UUID) (bookingDomain.Settings, error) {
	return f.settings, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []kafka.CloudEvent
}

func (f *fakePublisher) PublishEvent(_ context.Context, _ string, event kafka.CloudEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	for i, e := range f.events {
		out[i] = e.Type
	}
	return out
}
