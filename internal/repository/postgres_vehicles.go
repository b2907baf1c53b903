package repository

import (
	"context"
	"database/sql"
	"fmt"

	"autolytiq-desk/internal/apperrors"
	"autolytiq-desk/internal/domain"
)

const vehicleColumns = `vehicle_id::text, tenant_id::text, vin, stock_number, make, model, model_year, status, created_at, updated_at`

type PostgresVehiclesRepo struct {
	db DBTX
}

func NewPostgresVehiclesRepo(db DBTX) *PostgresVehiclesRepo {
	return &PostgresVehiclesRepo{db: db}
}

var _ VehiclesRepository = (*PostgresVehiclesRepo)(nil)

func (r *PostgresVehiclesRepo) GetVehicle(ctx context.Context, vehicleID string) (*domain.Vehicle, error) {
	return r.getVehicle(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE vehicle_id = $1`, vehicleID)
}

func (r *PostgresVehiclesRepo) GetVehicleForUpdate(ctx context.Context, vehicleID string) (*domain.Vehicle, error) {
	return r.getVehicle(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE vehicle_id = $1 FOR UPDATE`, vehicleID)
}

func (r *PostgresVehiclesRepo) getVehicle(ctx context.Context, query, vehicleID string) (*domain.Vehicle, error) {
	var v domain.Vehicle
	var status string
	err := r.db.QueryRowContext(ctx, query, vehicleID).Scan(
		&v.VehicleID,
		&v.TenantID,
		&v.VIN,
		&v.StockNumber,
		&v.Make,
		&v.Model,
		&v.Year,
		&status,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("vehicle", vehicleID)
		}
		return nil, fmt.Errorf("failed to query vehicle: %w", err)
	}
	v.Status = domain.VehicleStatus(status)
	return &v, nil
}

func (r *PostgresVehiclesRepo) CreateVehicle(ctx context.Context, v *domain.Vehicle) error {
	if v.Status == "" {
		v.Status = domain.VehicleAvailable
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO vehicles (vehicle_id, tenant_id, vin, stock_number, make, model, model_year, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`, v.VehicleID, v.TenantID, v.VIN, v.StockNumber, v.Make, v.Model, v.Year, string(v.Status)).Scan(&v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if verr := unknownTenant(err, v.TenantID); verr != err {
			return verr
		}
		return fmt.Errorf("failed to insert vehicle: %w", err)
	}
	return nil
}

func (r *PostgresVehiclesRepo) UpdateVehicleStatus(ctx context.Context, tenantID, vehicleID string, from, to domain.VehicleStatus) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE vehicles
		SET status = $4, updated_at = NOW()
		WHERE tenant_id = $1 AND vehicle_id = $2 AND status = $3
	`, tenantID, vehicleID, string(from), string(to))
	if err != nil {
		return false, fmt.Errorf("failed to update vehicle status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n == 1, nil
}

func (r *PostgresVehiclesRepo) CountVehicles(ctx context.Context, tenantID string, status domain.VehicleStatus) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM vehicles WHERE tenant_id = $1 AND ($2::text = '' OR status = $2::text)
	`, tenantID, string(status)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count vehicles: %w", err)
	}
	return n, nil
}
