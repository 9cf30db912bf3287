package marketplace

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sewakita/service-rental/internal/domain"
)

// RequestStatus is the lifecycle state of a rent-to-rent request. PENDING is
// the only non-terminal state.
type RequestStatus string

const (
	StatusPending  RequestStatus = "PENDING"
	StatusApproved RequestStatus = "APPROVED"
	StatusRejected RequestStatus = "REJECTED"
	StatusExpired  RequestStatus = "EXPIRED"
)

// IsValid returns true if the status is recognized.
func (s RequestStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusExpired:
		return true
	}
	return false
}

// IsTerminal returns true for every status except PENDING.
func (s RequestStatus) IsTerminal() bool {
	return s != StatusPending
}

// ParseRequestStatus converts a string to a RequestStatus.
func ParseRequestStatus(s string) (RequestStatus, error) {
	status := RequestStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid marketplace request status: %s", s)
	}
	return status, nil
}

// Decision is the supplier's answer to a pending request.
type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
)

// Request is the aggregate root for a cross-tenant rent-to-rent request: the
// requester tenant asks the supplier tenant to reserve one of the supplier's
// cars for an interval. It is the only entity in the system read by two
// tenants.
type Request struct {
	id               uuid.UUID
	requesterTenant  uuid.UUID
	supplierTenant   uuid.UUID
	carID            uuid.UUID
	driverID         *uuid.UUID
	startAt          time.Time
	endAt            time.Time
	quotedTotalPrice int64
	status           RequestStatus
	note             string
	respondedAt      *time.Time
	createdAt        time.Time
	updatedAt        time.Time
}

// NewRequest creates a pending rent-to-rent request.
func NewRequest(
	requesterTenant, supplierTenant, carID uuid.UUID,
	driverID *uuid.UUID,
	startAt, endAt time.Time,
	quotedTotalPrice int64,
	note string,
) (*Request, error) {
	if requesterTenant == uuid.Nil || supplierTenant == uuid.Nil {
		return nil, domain.NewValidationError("requester and supplier tenant IDs are required")
	}
	if requesterTenant == supplierTenant {
		return nil, domain.NewSelfDealingError()
	}
	if carID == uuid.Nil {
		return nil, domain.NewValidationError("car ID is required")
	}
	if !startAt.Before(endAt) {
		return nil, domain.NewValidationError("requested start must be before requested end")
	}
	if quotedTotalPrice <= 0 {
		return nil, domain.NewValidationError("quoted price must be positive")
	}

	now := time.Now().UTC()
	return &Request{
		id:               uuid.New(),
		requesterTenant:  requesterTenant,
		supplierTenant:   supplierTenant,
		carID:            carID,
		driverID:         driverID,
		startAt:          startAt,
		endAt:            endAt,
		quotedTotalPrice: quotedTotalPrice,
		status:           StatusPending,
		note:             note,
		createdAt:        now,
		updatedAt:        now,
	}, nil
}

// ReconstructRequest rebuilds a Request from persistence data.
func ReconstructRequest(
	id, requesterTenant, supplierTenant, carID uuid.UUID,
	driverID *uuid.UUID,
	startAt, endAt time.Time,
	quotedTotalPrice int64,
	status RequestStatus,
	note string,
	respondedAt *time.Time,
	createdAt, updatedAt time.Time,
) *Request {
	return &Request{
		id:               id,
		requesterTenant:  requesterTenant,
		supplierTenant:   supplierTenant,
		carID:            carID,
		driverID:         driverID,
		startAt:          startAt,
		endAt:            endAt,
		quotedTotalPrice: quotedTotalPrice,
		status:           status,
		note:             note,
		respondedAt:      respondedAt,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}
}

func (r *Request) ID() uuid.UUID              { return r.id }
func (r *Request) RequesterTenant() uuid.UUID { return r.requesterTenant }
func (r *Request) SupplierTenant() uuid.UUID  { return r.supplierTenant }
func (r *Request) CarID() uuid.UUID           { return r.carID }
func (r *Request) DriverID() *uuid.UUID       { return r.driverID }
func (r *Request) StartAt() time.Time         { return r.startAt }
func (r *Request) EndAt() time.Time           { return r.endAt }
func (r *Request) QuotedTotalPrice() int64    { return r.quotedTotalPrice }
func (r *Request) Status() RequestStatus      { return r.status }
func (r *Request) Note() string               { return r.note }
func (r *Request) RespondedAt() *time.Time    { return r.respondedAt }
func (r *Request) CreatedAt() time.Time       { return r.createdAt }
func (r *Request) UpdatedAt() time.Time       { return r.updatedAt }

// InvolvesTenant reports whether the tenant is either side of the request.
func (r *Request) InvolvesTenant(tenantID uuid.UUID) bool {
	return r.requesterTenant == tenantID || r.supplierTenant == tenantID
}

// Respond applies the supplier's decision. Only the supplier tenant may
// respond, and only while the request is still pending.
func (r *Request) Respond(decision Decision, actingTenant uuid.UUID) error {
	if actingTenant != r.supplierTenant {
		return domain.NewNotAuthorizedError("only the supplier tenant can respond to a request")
	}
	if r.status != StatusPending {
		return domain.NewAlreadyResolvedError(fmt.Sprintf("request is already %s", r.status))
	}
	now := time.Now().UTC()
	switch decision {
	case DecisionApprove:
		r.status = StatusApproved
	case DecisionReject:
		r.status = StatusRejected
	default:
		return domain.NewValidationError(fmt.Sprintf("invalid decision: %s", decision))
	}
	r.respondedAt = &now
	r.updatedAt = now
	return nil
}

// IsStale reports whether a pending request has outlived the TTL.
func (r *Request) IsStale(now time.Time, ttl time.Duration) bool {
	return r.status == StatusPending && now.Sub(r.createdAt) > ttl
}
