package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autolytiq-desk/internal/apperrors"
	"autolytiq-desk/internal/domain"
)

const (
	tenantA  = "11111111-1111-1111-1111-111111111111"
	dealID   = "33333333-3333-3333-3333-333333333333"
	vehicleA = "44444444-4444-4444-4444-444444444444"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock
}

func TestGetCustomer_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresCustomersRepo(db)

	mock.ExpectQuery(`SELECT customer_id::text`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetCustomer(context.Background(), "missing")

	var nf *apperrors.ResourceNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "customer", nf.Resource)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCustomer_NullContactFields(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresCustomersRepo(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"customer_id", "tenant_id", "first_name", "last_name", "email", "phone", "created_at"}).
		AddRow("c-1", tenantA, "Ada", "Lovelace", nil, nil, now)
	mock.ExpectQuery(`FROM customers`).WithArgs("c-1").WillReturnRows(rows)

	c, err := repo.GetCustomer(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Equal(t, tenantA, c.TenantID)
	assert.Empty(t, c.Email)
	assert.Empty(t, c.Phone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetVehicleForUpdate_LocksRow(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresVehiclesRepo(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"vehicle_id", "tenant_id", "vin", "stock_number", "make", "model", "model_year", "status", "created_at", "updated_at"}).
		AddRow(vehicleA, tenantA, "1HGCM82633A004352", "STK00001", "Honda", "Accord", 2021, "available", now, now)
	mock.ExpectQuery(`FROM vehicles WHERE vehicle_id = \$1 FOR UPDATE`).
		WithArgs(vehicleA).
		WillReturnRows(rows)

	v, err := repo.GetVehicleForUpdate(context.Background(), vehicleA)
	require.NoError(t, err)
	assert.Equal(t, domain.VehicleAvailable, v.Status)
	assert.Equal(t, 2021, v.Year)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateVehicleStatus_NoMatchingRow(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresVehiclesRepo(db)

	mock.ExpectExec(`UPDATE vehicles`).
		WithArgs(tenantA, vehicleA, "available", "in-deal").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.UpdateVehicleStatus(context.Background(), tenantA, vehicleA, domain.VehicleAvailable, domain.VehicleInDeal)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDeal_DuplicateNumber(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresDealsRepo(db)

	number := "D-000007"
	d := &domain.Deal{
		DealID:        dealID,
		TenantID:      tenantA,
		SalespersonID: "22222222-2222-2222-2222-222222222222",
		State:         domain.DealPending,
		DealNumber:    &number,
	}
	mock.ExpectQuery(`INSERT INTO deals`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: dealNumberConstraint})

	err := repo.CreateDeal(context.Background(), d)

	var dup *apperrors.DuplicateDealNumberError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, number, dup.DealNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDeal_OtherUniqueViolationIsWrapped(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresDealsRepo(db)

	d := &domain.Deal{DealID: dealID, TenantID: tenantA, State: domain.DealDraft}
	pqErr := &pq.Error{Code: "23505", Constraint: "deals_pkey"}
	mock.ExpectQuery(`INSERT INTO deals`).WillReturnError(pqErr)

	err := repo.CreateDeal(context.Background(), d)
	require.Error(t, err)
	var dup *apperrors.DuplicateDealNumberError
	assert.False(t, errors.As(err, &dup))
	assert.ErrorIs(t, err, pqErr)
}

func TestGetDealForUpdate_Nullables(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresDealsRepo(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"deal_id", "tenant_id", "salesperson_id", "customer_id", "deal_state", "deal_number", "created_at", "updated_at"}).
		AddRow(dealID, tenantA, "sp", nil, "DRAFT", nil, now, now)
	mock.ExpectQuery(`FROM deals`).WithArgs(dealID).WillReturnRows(rows)

	d, err := repo.GetDealForUpdate(context.Background(), dealID)
	require.NoError(t, err)
	assert.Equal(t, domain.DealDraft, d.State)
	assert.Nil(t, d.CustomerID)
	assert.Nil(t, d.DealNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttachedVehicleID_NoneIsNil(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresDealsRepo(db)

	mock.ExpectQuery(`FROM deal_scenarios`).WithArgs(dealID).WillReturnError(sql.ErrNoRows)

	id, err := repo.AttachedVehicleID(context.Background(), dealID)
	require.NoError(t, err)
	assert.Nil(t, id)
}

func TestListScenarios(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresDealsRepo(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"scenario_id", "deal_id", "tenant_id", "vehicle_id", "scenario_type", "name", "is_active",
		"vehicle_price", "down_payment", "trade_in_value", "interest_rate", "term_months", "created_at"}).
		AddRow("s-1", dealID, tenantA, vehicleA, "finance", "Default", true, "25000.00", "0.00", "0.00", "0.000", 60, now).
		AddRow("s-2", dealID, tenantA, nil, "cash", "Cash offer", false, "24000.00", "0.00", "0.00", "0.000", 0, now)
	mock.ExpectQuery(`FROM deal_scenarios`).WithArgs(dealID).WillReturnRows(rows)

	scenarios, err := repo.ListScenarios(context.Background(), dealID)
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	require.NotNil(t, scenarios[0].VehicleID)
	assert.Equal(t, vehicleA, *scenarios[0].VehicleID)
	assert.Nil(t, scenarios[1].VehicleID)
	assert.Equal(t, domain.ScenarioCash, scenarios[1].ScenarioType)
}

func TestDeleteDeal(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresDealsRepo(db)

	mock.ExpectExec(`DELETE FROM deals`).WithArgs(tenantA, dealID).WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.DeleteDeal(context.Background(), tenantA, dealID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSequenceIncrement(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresSequencesRepo(db)

	mock.ExpectQuery(`INSERT INTO sequence_counters`).
		WithArgs(tenantA, "deal").
		WillReturnRows(sqlmock.NewRows([]string{"current_value"}).AddRow(int64(42)))

	v, err := repo.Increment(context.Background(), tenantA, "deal")
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSequenceCurrent_UnusedSeriesIsZero(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresSequencesRepo(db)

	mock.ExpectQuery(`SELECT current_value FROM sequence_counters`).
		WithArgs(tenantA, "stock").
		WillReturnError(sql.ErrNoRows)

	v, err := repo.Current(context.Background(), tenantA, "stock")
	require.NoError(t, err)
	assert.Zero(t, v)
}

func TestEnsureTenant(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresTenantsRepo(db)

	mock.ExpectExec(`INSERT INTO tenants`).
		WithArgs(tenantA, "Main Street Motors").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.EnsureTenant(context.Background(), tenantA, "Main Street Motors"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTenantExists(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresTenantsRepo(db)

	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM tenants`).
		WithArgs(tenantA).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	ok, err := repo.TenantExists(context.Background(), tenantA)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSequenceIncrement_UnknownTenantIsValidation(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresSequencesRepo(db)

	mock.ExpectQuery(`INSERT INTO sequence_counters`).
		WithArgs(tenantA, "deal").
		WillReturnError(&pq.Error{Code: "23503", Constraint: "sequence_counters_tenant_id_fkey"})

	_, err := repo.Increment(context.Background(), tenantA, "deal")

	var ve *apperrors.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "tenant_id", ve.Field)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestCreateVehicle_OtherForeignKeyIsWrapped(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewPostgresVehiclesRepo(db)

	fk := &pq.Error{Code: "23503", Constraint: "vehicles_lot_id_fkey"}
	mock.ExpectQuery(`INSERT INTO vehicles`).WillReturnError(fk)

	err := repo.CreateVehicle(context.Background(), &domain.Vehicle{VehicleID: vehicleA, TenantID: tenantA, Status: domain.VehicleAvailable})

	require.Error(t, err)
	assert.True(t, errors.Is(err, fk))
	assert.False(t, apperrors.IsBusiness(err))
}
