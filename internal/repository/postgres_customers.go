package repository

import (
	"context"
	"database/sql"
	"fmt"

	"autolytiq-desk/internal/apperrors"
	"autolytiq-desk/internal/domain"
)

type PostgresCustomersRepo struct {
	db DBTX
}

func NewPostgresCustomersRepo(db DBTX) *PostgresCustomersRepo {
	return &PostgresCustomersRepo{db: db}
}

var _ CustomersRepository = (*PostgresCustomersRepo)(nil)

func (r *PostgresCustomersRepo) GetCustomer(ctx context.Context, customerID string) (*domain.Customer, error) {
	var c domain.Customer
	var email, phone sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT customer_id::text, tenant_id::text, first_name, last_name, email, phone, created_at
		FROM customers
		WHERE customer_id = $1
	`, customerID).Scan(
		&c.CustomerID,
		&c.TenantID,
		&c.FirstName,
		&c.LastName,
		&email,
		&phone,
		&c.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("customer", customerID)
		}
		return nil, fmt.Errorf("failed to query customer: %w", err)
	}
	c.Email = email.String
	c.Phone = phone.String
	return &c, nil
}

func (r *PostgresCustomersRepo) CreateCustomer(ctx context.Context, c *domain.Customer) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO customers (customer_id, tenant_id, first_name, last_name, email, phone)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''))
		RETURNING created_at
	`, c.CustomerID, c.TenantID, c.FirstName, c.LastName, c.Email, c.Phone).Scan(&c.CreatedAt)
	if err != nil {
		if verr := unknownTenant(err, c.TenantID); verr != err {
			return verr
		}
		return fmt.Errorf("failed to insert customer: %w", err)
	}
	return nil
}

func (r *PostgresCustomersRepo) CountCustomers(ctx context.Context, tenantID string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM customers WHERE tenant_id = $1`, tenantID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count customers: %w", err)
	}
	return n, nil
}
