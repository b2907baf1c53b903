package repository

import (
	"context"
	"database/sql"
	"fmt"

	"autolytiq-desk/internal/apperrors"
	"autolytiq-desk/internal/domain"
)

const dealNumberConstraint = "deals_tenant_deal_number_key"

type PostgresDealsRepo struct {
	db DBTX
}

func NewPostgresDealsRepo(db DBTX) *PostgresDealsRepo {
	return &PostgresDealsRepo{db: db}
}

var _ DealsRepository = (*PostgresDealsRepo)(nil)

func (r *PostgresDealsRepo) CreateDeal(ctx context.Context, d *domain.Deal) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO deals (deal_id, tenant_id, salesperson_id, customer_id, deal_state, deal_number)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`,
		d.DealID,
		d.TenantID,
		d.SalespersonID,
		nullString(d.CustomerID),
		string(d.State),
		nullString(d.DealNumber),
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok && constraint == dealNumberConstraint && d.DealNumber != nil {
			return &apperrors.DuplicateDealNumberError{TenantID: d.TenantID, DealNumber: *d.DealNumber}
		}
		if verr := unknownTenant(err, d.TenantID); verr != err {
			return verr
		}
		return fmt.Errorf("failed to insert deal: %w", err)
	}
	return nil
}

func (r *PostgresDealsRepo) GetDealForUpdate(ctx context.Context, dealID string) (*domain.Deal, error) {
	var d domain.Deal
	var customerID, dealNumber sql.NullString
	var state string
	err := r.db.QueryRowContext(ctx, `
		SELECT deal_id::text, tenant_id::text, salesperson_id::text, customer_id::text,
		       deal_state, deal_number, created_at, updated_at
		FROM deals
		WHERE deal_id = $1
		FOR UPDATE
	`, dealID).Scan(
		&d.DealID,
		&d.TenantID,
		&d.SalespersonID,
		&customerID,
		&state,
		&dealNumber,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("deal", dealID)
		}
		return nil, fmt.Errorf("failed to query deal: %w", err)
	}
	d.CustomerID = stringPtr(customerID)
	d.DealNumber = stringPtr(dealNumber)
	d.State = domain.DealState(state)
	return &d, nil
}

func (r *PostgresDealsRepo) UpdateDealState(ctx context.Context, d *domain.Deal) error {
	err := r.db.QueryRowContext(ctx, `
		UPDATE deals
		SET deal_state = $3, deal_number = $4, updated_at = NOW()
		WHERE tenant_id = $1 AND deal_id = $2
		RETURNING updated_at
	`, d.TenantID, d.DealID, string(d.State), nullString(d.DealNumber)).Scan(&d.UpdatedAt)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok && constraint == dealNumberConstraint && d.DealNumber != nil {
			return &apperrors.DuplicateDealNumberError{TenantID: d.TenantID, DealNumber: *d.DealNumber}
		}
		if err == sql.ErrNoRows {
			return apperrors.NotFound("deal", d.DealID)
		}
		return fmt.Errorf("failed to update deal: %w", err)
	}
	return nil
}

// DeleteDeal removes the deal; scenarios go with it (ON DELETE CASCADE)
func (r *PostgresDealsRepo) DeleteDeal(ctx context.Context, tenantID, dealID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM deals WHERE tenant_id = $1 AND deal_id = $2`, tenantID, dealID)
	if err != nil {
		return false, fmt.Errorf("failed to delete deal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n == 1, nil
}

func (r *PostgresDealsRepo) CreateScenario(ctx context.Context, s *domain.DealScenario) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO deal_scenarios (
			scenario_id, deal_id, tenant_id, vehicle_id, scenario_type, name, is_active,
			vehicle_price, down_payment, trade_in_value, interest_rate, term_months
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at
	`,
		s.ScenarioID,
		s.DealID,
		s.TenantID,
		nullString(s.VehicleID),
		string(s.ScenarioType),
		s.Name,
		s.IsActive,
		s.VehiclePrice,
		s.DownPayment,
		s.TradeInValue,
		s.InterestRate,
		s.TermMonths,
	).Scan(&s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert deal scenario: %w", err)
	}
	return nil
}

func (r *PostgresDealsRepo) ListScenarios(ctx context.Context, dealID string) ([]domain.DealScenario, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT scenario_id::text, deal_id::text, tenant_id::text, vehicle_id::text, scenario_type, name, is_active,
		       vehicle_price::text, down_payment::text, trade_in_value::text, interest_rate::text, term_months, created_at
		FROM deal_scenarios
		WHERE deal_id = $1
		ORDER BY created_at, scenario_id
	`, dealID)
	if err != nil {
		return nil, fmt.Errorf("failed to query deal scenarios: %w", err)
	}
	defer rows.Close()

	var scenarios []domain.DealScenario
	for rows.Next() {
		var s domain.DealScenario
		var vehicleID sql.NullString
		var scenarioType string
		if err := rows.Scan(
			&s.ScenarioID,
			&s.DealID,
			&s.TenantID,
			&vehicleID,
			&scenarioType,
			&s.Name,
			&s.IsActive,
			&s.VehiclePrice,
			&s.DownPayment,
			&s.TradeInValue,
			&s.InterestRate,
			&s.TermMonths,
			&s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan deal scenario: %w", err)
		}
		s.VehicleID = stringPtr(vehicleID)
		s.ScenarioType = domain.ScenarioType(scenarioType)
		scenarios = append(scenarios, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate deal scenarios: %w", err)
	}
	return scenarios, nil
}

func (r *PostgresDealsRepo) AttachedVehicleID(ctx context.Context, dealID string) (*string, error) {
	var vehicleID string
	err := r.db.QueryRowContext(ctx, `
		SELECT vehicle_id::text
		FROM deal_scenarios
		WHERE deal_id = $1 AND vehicle_id IS NOT NULL
		ORDER BY created_at, scenario_id
		LIMIT 1
	`, dealID).Scan(&vehicleID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query attached vehicle: %w", err)
	}
	return &vehicleID, nil
}

func (r *PostgresDealsRepo) CountDeals(ctx context.Context, tenantID string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM deals WHERE tenant_id = $1`, tenantID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count deals: %w", err)
	}
	return n, nil
}

func (r *PostgresDealsRepo) CountScenarios(ctx context.Context, tenantID string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM deal_scenarios WHERE tenant_id = $1`, tenantID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count deal scenarios: %w", err)
	}
	return n, nil
}
