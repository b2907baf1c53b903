package service

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"sync"
	"testing"
	"time"

	"autolytiq-desk/internal/audit"
	"autolytiq-desk/internal/sequence"
	"autolytiq-desk/internal/txmanager"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	tenantA     = "11111111-1111-1111-1111-111111111111"
	tenantB     = "99999999-9999-9999-9999-999999999999"
	salesperson = "22222222-2222-2222-2222-222222222222"
	dealA       = "33333333-3333-3333-3333-333333333333"
	vehicleA    = "44444444-4444-4444-4444-444444444444"
	customerA   = "55555555-5555-5555-5555-555555555555"
	testVIN     = "1HGCM82633A004352"
)

// fakeRecorder keeps every event; err makes Record fail after storing
type fakeRecorder struct {
	mu     sync.Mutex
	events []audit.Event
	err    error
}

func (f *fakeRecorder) Record(_ context.Context, e audit.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return f.err
}

func (f *fakeRecorder) last(t *testing.T) audit.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.events)
	return f.events[len(f.events)-1]
}

func setupMockManager(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *txmanager.Manager) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	m := txmanager.NewManager(db, zap.NewNop(), txmanager.NewStats(), txmanager.Options{
		MaxRetries: 3,
		BaseDelay:  time.Millisecond,
	})
	return db, mock, m
}

func setupDealService(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *DealService, *txmanager.Manager, *fakeRecorder) {
	db, mock, m := setupMockManager(t)
	rec := &fakeRecorder{}
	svc := NewDealService(m, sequence.NewGenerator(zap.NewNop()), rec, zap.NewNop())
	return db, mock, svc, m, rec
}

func strPtr(s string) *string { return &s }

func customerRows(tenantID string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"customer_id", "tenant_id", "first_name", "last_name", "email", "phone", "created_at"}).
		AddRow(customerA, tenantID, "Ada", "Lovelace", "ada@example.com", nil, time.Now())
}

func vehicleRows(tenantID, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"vehicle_id", "tenant_id", "vin", "stock_number", "make", "model", "model_year", "status", "created_at", "updated_at"}).
		AddRow(vehicleA, tenantID, testVIN, "STK00001", "Honda", "Accord", 2021, status, now, now)
}

func dealRows(tenantID, state string, number interface{}) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"deal_id", "tenant_id", "salesperson_id", "customer_id", "deal_state", "deal_number", "created_at", "updated_at"}).
		AddRow(dealA, tenantID, salesperson, nil, state, number, now, now)
}

func timestampRows(cols ...string) *sqlmock.Rows {
	values := make([]driver.Value, len(cols))
	for i := range values {
		values[i] = time.Now()
	}
	return sqlmock.NewRows(cols).AddRow(values...)
}

func sequenceRow(v int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"current_value"}).AddRow(v)
}

// expectTenant expects the tenant existence check that opens createDeal
func expectTenant(mock sqlmock.Sqlmock, tenantID string) {
	mock.ExpectQuery(`FROM tenants`).WithArgs(tenantID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
}

var errBoom = errors.New("boom")
