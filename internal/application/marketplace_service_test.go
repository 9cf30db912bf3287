package application

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sewakita/service-rental/internal/domain"
	"github.com/sewakita/service-rental/internal/domain/fleet"
	"github.com/sewakita/service-rental/internal/domain/marketplace"
	"github.com/sewakita/service-rental/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type marketplaceFixture struct {
	service        *MarketplaceService
	repo           *fakeMarketplaceRepo
	publisher      *fakePublisher
	requesterID    uuid.UUID
	supplierID     uuid.UUID
	supplierCar    *fleet.Car
	defaultRequest SendRequestInput
}

func newMarketplaceFixture(t *testing.T) *marketplaceFixture {
	t.Helper()
	requesterID, supplierID := uuid.New(), uuid.New()

	car, err := fleet.NewCar(supplierID, "D 99 ZZ", "Hiace", 600_000, 0, fleet.OwnerOwn, nil, 0, 0)
	require.NoError(t, err)

	repo := newFakeMarketplaceRepo()
	publisher := &fakePublisher{}
	service := NewMarketplaceService(repo, newFakeCarRepo(car), publisher, time.Hour, zap.NewNop())

	return &marketplaceFixture{
		service:     service,
		repo:        repo,
		publisher:   publisher,
		requesterID: requesterID,
		supplierID:  supplierID,
		supplierCar: car,
		defaultRequest: SendRequestInput{
			SupplierTenant:   supplierID,
			CarID:            car.ID(),
			StartAt:          time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			EndAt:            time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC),
			QuotedTotalPrice: 1_800_000,
			Note:             "weekend shortage",
		},
	}
}

func TestSendRequest(t *testing.T) {
	f := newMarketplaceFixture(t)

	dto, err := f.service.SendRequest(context.Background(), f.requesterID, f.defaultRequest)
	require.NoError(t, err)

	assert.Equal(t, string(marketplace.StatusPending), dto.Status)
	assert.Equal(t, f.requesterID, dto.RequesterTenant)
	assert.Equal(t, f.supplierID, dto.SupplierTenant)
	assert.Contains(t, f.publisher.types(), events.MarketplaceRequested)
}

func TestSendRequestSelfDealing(t *testing.T) {
	f := newMarketplaceFixture(t)

	_, err := f.service.SendRequest(context.Background(), f.supplierID, f.defaultRequest)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindSelfDealing))
}

func TestSendRequestUnknownSupplierCar(t *testing.T) {
	f := newMarketplaceFixture(t)

	input := f.defaultRequest
	input.CarID = uuid.New()
	_, err := f.service.SendRequest(context.Background(), f.requesterID, input)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestGetRequestVisibility(t *testing.T) {
	f := newMarketplaceFixture(t)
	ctx := context.Background()

	dto, err := f.service.SendRequest(ctx, f.requesterID, f.defaultRequest)
	require.NoError(t, err)

	_, err = f.service.GetRequest(ctx, f.requesterID, dto.ID)
	require.NoError(t, err)
	_, err = f.service.GetRequest(ctx, f.supplierID, dto.ID)
	require.NoError(t, err)

	// Third parties cannot even learn the request exists.
	_, err = f.service.GetRequest(ctx, uuid.New(), dto.ID)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestRespondToRequest(t *testing.T) {
	f := newMarketplaceFixture(t)
	ctx := context.Background()

	dto, err := f.service.SendRequest(ctx, f.requesterID, f.defaultRequest)
	require.NoError(t, err)

	resolved, err := f.service.RespondToRequest(ctx, f.supplierID, dto.ID, marketplace.DecisionApprove)
	require.NoError(t, err)
	assert.Equal(t, string(marketplace.StatusApproved), resolved.Status)
	assert.NotNil(t, resolved.RespondedAt)
	assert.Contains(t, f.publisher.types(), events.MarketplaceResolved)
}

func TestRespondToRequestRequesterForbidden(t *testing.T) {
	f := newMarketplaceFixture(t)
	ctx := context.Background()

	dto, err := f.service.SendRequest(ctx, f.requesterID, f.defaultRequest)
	require.NoError(t, err)

	_, err = f.service.RespondToRequest(ctx, f.requesterID, dto.ID, marketplace.DecisionApprove)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindNotAuthorized))
}

func TestRespondToRequestLoserGetsAlreadyResolved(t *testing.T) {
	f := newMarketplaceFixture(t)
	ctx := context.Background()

	dto, err := f.service.SendRequest(ctx, f.requesterID, f.defaultRequest)
	require.NoError(t, err)

	_, err = f.service.RespondToRequest(ctx, f.supplierID, dto.ID, marketplace.DecisionReject)
	require.NoError(t, err)

	_, err = f.service.RespondToRequest(ctx, f.supplierID, dto.ID, marketplace.DecisionApprove)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindAlreadyResolved))

	got, err := f.service.GetRequest(ctx, f.supplierID, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, string(marketplace.StatusRejected), got.Status)
}

func TestExpireStaleRequests(t *testing.T) {
	f := newMarketplaceFixture(t)
	ctx := context.Background()

	dto, err := f.service.SendRequest(ctx, f.requesterID, f.defaultRequest)
	require.NoError(t, err)

	// Before the TTL elapses the sweep touches nothing.
	n, err := f.service.ExpireStaleRequests(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = f.service.ExpireStaleRequests(ctx, time.Now().UTC().Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := f.service.GetRequest(ctx, f.requesterID, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, string(marketplace.StatusExpired), got.Status)

	// The sweep announces the expiry like any other resolution.
	var resolved *events.MarketplaceResolvedEvent
	for _, ce := range f.publisher.events {
		if ce.Type == events.MarketplaceResolved {
			var evt events.MarketplaceResolvedEvent
			require.NoError(t, ce.ParseData(&evt))
			resolved = &evt
		}
	}
	require.NotNil(t, resolved)
	assert.Equal(t, dto.ID, resolved.RequestID)
	assert.Equal(t, string(marketplace.StatusExpired), resolved.Status)

	// The supplier responding after expiry loses the race.
	_, err = f.service.RespondToRequest(ctx, f.supplierID, dto.ID, marketplace.DecisionApprove)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindAlreadyResolved))
}
