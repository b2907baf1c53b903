package repository

import (
	"context"

	"autolytiq-desk/internal/domain"
)

// DealsRepository deal and scenario accessors
type DealsRepository interface {
	// CreateDeal inserts the deal. A deal_number collision returns *apperrors.DuplicateDealNumberError.
	CreateDeal(ctx context.Context, d *domain.Deal) error

	// GetDealForUpdate locks the deal row; lookup is by id only (tenant checked by the caller)
	GetDealForUpdate(ctx context.Context, dealID string) (*domain.Deal, error)

	UpdateDealState(ctx context.Context, d *domain.Deal) error

	DeleteDeal(ctx context.Context, tenantID, dealID string) (bool, error)

	CreateScenario(ctx context.Context, s *domain.DealScenario) error

	ListScenarios(ctx context.Context, dealID string) ([]domain.DealScenario, error)

	// AttachedVehicleID vehicle carried by the deal's oldest scenario that has one
	AttachedVehicleID(ctx context.Context, dealID string) (*string, error)

	CountDeals(ctx context.Context, tenantID string) (int, error)

	CountScenarios(ctx context.Context, tenantID string) (int, error)
}
