package fleet

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OwnerType distinguishes fleet-owned cars from partner-consigned ones.
type OwnerType string

const (
	OwnerOwn     OwnerType = "OWN"
	OwnerPartner OwnerType = "PARTNER"
)

// IsValid returns true if the owner type is recognized.
func (o OwnerType) IsValid() bool {
	return o == OwnerOwn || o == OwnerPartner
}

// Car is the aggregate root for a rental vehicle.
type Car struct {
	id                  uuid.UUID
	tenantID            uuid.UUID
	plateNumber         string
	model               string
	dailyRate           int64
	driverSalary        int64 // car-specific driver salary per day, 0 if unset
	ownerType           OwnerType
	partnerID           *uuid.UUID
	partnerSharePercent int
	currentOdometer     int64
	version             int64
	createdAt           time.Time
	updatedAt           time.Time
}

// NewCar creates a new Car with validated fields.
func NewCar(
	tenantID uuid.UUID,
	plateNumber, model string,
	dailyRate, driverSalary int64,
	ownerType OwnerType,
	partnerID *uuid.UUID,
	partnerSharePercent int,
	currentOdometer int64,
) (*Car, error) {
	if tenantID == uuid.Nil {
		return nil, fmt.Errorf("tenant ID is required")
	}
	if plateNumber == "" {
		return nil, fmt.Errorf("plate number is required")
	}
	if dailyRate <= 0 {
		return nil, fmt.Errorf("daily rate must be positive")
	}
	if !ownerType.IsValid() {
		return nil, fmt.Errorf("invalid owner type: %s", ownerType)
	}
	if ownerType == OwnerPartner {
		if partnerID == nil || *partnerID == uuid.Nil {
			return nil, fmt.Errorf("partner car requires a partner ID")
		}
		if partnerSharePercent <= 0 || partnerSharePercent > 100 {
			return nil, fmt.Errorf("partner share must be between 1 and 100 percent")
		}
	}

	now := time.Now().UTC()
	return &Car{
		id:                  uuid.New(),
		tenantID:            tenantID,
		plateNumber:         plateNumber,
		model:               model,
		dailyRate:           dailyRate,
		driverSalary:        driverSalary,
		ownerType:           ownerType,
		partnerID:           partnerID,
		partnerSharePercent: partnerSharePercent,
		currentOdometer:     currentOdometer,
		version:             1,
		createdAt:           now,
		updatedAt:           now,
	}, nil
}

// ReconstructCar rebuilds a Car from persistence data (no validation).
func ReconstructCar(
	id, tenantID uuid.UUID,
	plateNumber, model string,
	dailyRate, driverSalary int64,
	ownerType OwnerType,
	partnerID *uuid.UUID,
	partnerSharePercent int,
	currentOdometer, version int64,
	createdAt, updatedAt time.Time,
) *Car {
	return &Car{
		id:                  id,
		tenantID:            tenantID,
		plateNumber:         plateNumber,
		model:               model,
		dailyRate:           dailyRate,
		driverSalary:        driverSalary,
		ownerType:           ownerType,
		partnerID:           partnerID,
		partnerSharePercent: partnerSharePercent,
		currentOdometer:     currentOdometer,
		version:             version,
		createdAt:           createdAt,
		updatedAt:           updatedAt,
	}
}

func (c *Car) ID() uuid.UUID            { return c.id }
func (c *Car) TenantID() uuid.UUID      { return c.tenantID }
func (c *Car) PlateNumber() string      { return c.plateNumber }
func (c *Car) Model() string            { return c.model }
func (c *Car) DailyRate() int64         { return c.dailyRate }
func (c *Car) DriverSalary() int64      { return c.driverSalary }
func (c *Car) OwnerType() OwnerType     { return c.ownerType }
func (c *Car) PartnerID() *uuid.UUID    { return c.partnerID }
func (c *Car) PartnerSharePercent() int { return c.partnerSharePercent }
func (c *Car) CurrentOdometer() int64   { return c.currentOdometer }
func (c *Car) Version() int64           { return c.version }
func (c *Car) CreatedAt() time.Time     { return c.createdAt }
func (c *Car) UpdatedAt() time.Time     { return c.updatedAt }

// IsPartnerOwned returns true if revenue is shared with a partner.
func (c *Car) IsPartnerOwned() bool {
	return c.ownerType == OwnerPartner
}

// SetOdometer records the latest odometer reading from a checklist.
func (c *Car) SetOdometer(reading int64) {
	c.currentOdometer = reading
	c.version++
	c.updatedAt = time.Now().UTC()
}
