package repository

import (
	"context"

	"autolytiq-desk/internal/domain"
)

// VehiclesRepository vehicle accessors
type VehiclesRepository interface {
	GetVehicle(ctx context.Context, vehicleID string) (*domain.Vehicle, error)

	// GetVehicleForUpdate locks the row (SELECT ... FOR UPDATE) until the transaction ends.
	// Concurrent deals targeting the same vehicle queue here and observe each other's status change.
	GetVehicleForUpdate(ctx context.Context, vehicleID string) (*domain.Vehicle, error)

	CreateVehicle(ctx context.Context, v *domain.Vehicle) error

	// UpdateVehicleStatus flips status only when the row is currently in `from`.
	// Returns false when no row matched.
	UpdateVehicleStatus(ctx context.Context, tenantID, vehicleID string, from, to domain.VehicleStatus) (bool, error)

	CountVehicles(ctx context.Context, tenantID string, status domain.VehicleStatus) (int, error)
}
