package marketplace

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sewakita/service-rental/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRequest(t *testing.T) *Request {
	t.Helper()
	req, err := NewRequest(
		uuid.New(), uuid.New(), uuid.New(), nil,
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC),
		1_200_000, "weekend fleet shortage",
	)
	require.NoError(t, err)
	return req
}

func TestNewRequestRejectsSelfDealing(t *testing.T) {
	tenant := uuid.New()
	_, err := NewRequest(
		tenant, tenant, uuid.New(), nil,
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC),
		1_200_000, "",
	)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindSelfDealing))
}

func TestNewRequestValidation(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC)

	_, err := NewRequest(uuid.New(), uuid.New(), uuid.New(), nil, end, start, 1_200_000, "")
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	_, err = NewRequest(uuid.New(), uuid.New(), uuid.New(), nil, start, end, 0, "")
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	_, err = NewRequest(uuid.Nil, uuid.New(), uuid.New(), nil, start, end, 1_200_000, "")
	assert.True(t, domain.IsKind(err, domain.KindValidation))
}

func TestRespondOnlySupplier(t *testing.T) {
	req := newTestRequest(t)

	err := req.Respond(DecisionApprove, req.RequesterTenant())
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindNotAuthorized))

	err = req.Respond(DecisionApprove, uuid.New())
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindNotAuthorized))

	require.NoError(t, req.Respond(DecisionApprove, req.SupplierTenant()))
	assert.Equal(t, StatusApproved, req.Status())
	require.NotNil(t, req.RespondedAt())
}

func TestRespondTwice(t *testing.T) {
	req := newTestRequest(t)
	require.NoError(t, req.Respond(DecisionReject, req.SupplierTenant()))
	assert.Equal(t, StatusRejected, req.Status())

	err := req.Respond(DecisionApprove, req.SupplierTenant())
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindAlreadyResolved))
}

func TestRespondInvalidDecision(t *testing.T) {
	req := newTestRequest(t)
	err := req.Respond(Decision("MAYBE"), req.SupplierTenant())
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindValidation))
	assert.Equal(t, StatusPending, req.Status())
}

func TestInvolvesTenant(t *testing.T) {
	req := newTestRequest(t)
	assert.True(t, req.InvolvesTenant(req.RequesterTenant()))
	assert.True(t, req.InvolvesTenant(req.SupplierTenant()))
	assert.False(t, req.InvolvesTenant(uuid.New()))
}

func TestIsStale(t *testing.T) {
	req := newTestRequest(t)
	ttl := time.Hour

	assert.False(t, req.IsStale(req.CreatedAt().Add(30*time.Minute), ttl))
	assert.True(t, req.IsStale(req.CreatedAt().Add(2*time.Hour), ttl))

	require.NoError(t, req.Respond(DecisionApprove, req.SupplierTenant()))
	assert.False(t, req.IsStale(req.CreatedAt().Add(2*time.Hour), ttl))
}

func TestRequestStatusIsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.True(t, StatusApproved.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())
	assert.True(t, StatusExpired.IsTerminal())
}
