package repository

import (
	"context"
	"fmt"
)

// PostgresTenantsRepo minimal tenant bootstrap used by the CLI and integration tests
type PostgresTenantsRepo struct {
	db DBTX
}

func NewPostgresTenantsRepo(db DBTX) *PostgresTenantsRepo {
	return &PostgresTenantsRepo{db: db}
}

// EnsureTenant inserts the tenant or refreshes its name
func (r *PostgresTenantsRepo) EnsureTenant(ctx context.Context, tenantID, name string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tenants (tenant_id, tenant_name)
		VALUES ($1, $2)
		ON CONFLICT (tenant_id) DO UPDATE SET tenant_name = EXCLUDED.tenant_name
	`, tenantID, name)
	if err != nil {
		return fmt.Errorf("failed to upsert tenant: %w", err)
	}
	return nil
}

// TenantExists reports whether the tenant row is present
func (r *PostgresTenantsRepo) TenantExists(ctx context.Context, tenantID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM tenants WHERE tenant_id = $1)
	`, tenantID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to query tenant: %w", err)
	}
	return exists, nil
}
