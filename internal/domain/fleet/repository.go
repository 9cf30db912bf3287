package fleet

import (
	"context"

	"github.com/google/uuid"
)

// CarRepository defines the persistence contract for cars.
type CarRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Car, error)
	Save(ctx context.Context, car *Car) error
	Update(ctx context.Context, car *Car) error
}

// DriverRepository defines the persistence contract for drivers.
type DriverRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Driver, error)
	Save(ctx context.Context, driver *Driver) error
}
