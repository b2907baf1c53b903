package domain

import "time"

// Customer (customers table). Tenant binding never changes after creation.
type Customer struct {
	CustomerID string    `db:"customer_id"` // UUID, PRIMARY KEY
	TenantID   string    `db:"tenant_id"`   // UUID, NOT NULL
	FirstName  string    `db:"first_name"`
	LastName   string    `db:"last_name"`
	Email      string    `db:"email"` // nullable
	Phone      string    `db:"phone"` // nullable
	CreatedAt  time.Time `db:"created_at"`
}
