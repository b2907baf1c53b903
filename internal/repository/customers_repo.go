package repository

import (
	"context"

	"autolytiq-desk/internal/domain"
)

// CustomersRepository customer accessors
type CustomersRepository interface {
	// GetCustomer looks the customer up by id across all tenants so callers can tell
	// "does not exist" apart from "belongs to someone else".
	GetCustomer(ctx context.Context, customerID string) (*domain.Customer, error)

	CreateCustomer(ctx context.Context, c *domain.Customer) error

	CountCustomers(ctx context.Context, tenantID string) (int, error)
}
