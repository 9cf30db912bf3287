package fleet

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Driver is a tenant-employed driver who can be attached to a booking.
type Driver struct {
	id        uuid.UUID
	tenantID  uuid.UUID
	name      string
	phone     string
	dailyRate int64
	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewDriver creates a new Driver with validated fields.
func NewDriver(tenantID uuid.UUID, name, phone string, dailyRate int64) (*Driver, error) {
	if tenantID == uuid.Nil {
		return nil, fmt.Errorf("tenant ID is required")
	}
	if name == "" {
		return nil, fmt.Errorf("driver name is required")
	}
	now := time.Now().UTC()
	return &Driver{
		id:        uuid.New(),
		tenantID:  tenantID,
		name:      name,
		phone:     phone,
		dailyRate: dailyRate,
		version:   1,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructDriver rebuilds a Driver from persistence data.
func ReconstructDriver(id, tenantID uuid.UUID, name, phone string, dailyRate, version int64, createdAt, updatedAt time.Time) *Driver {
	return &Driver{
		id:        id,
		tenantID:  tenantID,
		name:      name,
		phone:     phone,
		dailyRate: dailyRate,
		version:   version,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (d *Driver) ID() uuid.UUID        { return d.id }
func (d *Driver) TenantID() uuid.UUID  { return d.tenantID }
func (d *Driver) Name() string         { return d.name }
func (d *Driver) Phone() string        { return d.phone }
func (d *Driver) DailyRate() int64     { return d.dailyRate }
func (d *Driver) Version() int64       { return d.version }
func (d *Driver) CreatedAt() time.Time { return d.createdAt }
func (d *Driver) UpdatedAt() time.Time { return d.updatedAt }
