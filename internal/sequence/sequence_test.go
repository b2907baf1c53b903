package sequence

import (
	"context"
	"errors"
	"testing"

	"autolytiq-desk/internal/txmanager"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const tenantA = "11111111-1111-1111-1111-111111111111"

func TestFormat(t *testing.T) {
	g := NewGenerator(zap.NewNop())

	tests := []struct {
		series string
		value  int64
		want   string
	}{
		{SeriesDeal, 1, "D-000001"},
		{SeriesDeal, 123, "D-000123"},
		{SeriesDeal, 1234567, "D-1234567"},
		{SeriesStock, 42, "STK00042"},
	}
	for _, tt := range tests {
		got, err := g.Format(tt.series, tt.value)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := g.Format("invoice", 1)
	assert.Error(t, err)
}

func TestRegister(t *testing.T) {
	g := NewGenerator(nil)

	require.NoError(t, g.Register("invoice", "INV-", 4))
	got, err := g.Format("invoice", 7)
	require.NoError(t, err)
	assert.Equal(t, "INV-0007", got)

	assert.Error(t, g.Register("", "X", 3))
	assert.Error(t, g.Register("bad", "X", 0))
}

func TestNextValue_RequiresTransaction(t *testing.T) {
	g := NewGenerator(nil)

	_, err := g.NextValue(context.Background(), nil, tenantA, SeriesDeal)
	assert.ErrorIs(t, err, ErrNoTransaction)
}

func TestNext_IssuesInsideTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	m := txmanager.NewManager(db, zap.NewNop(), nil, txmanager.Options{MaxRetries: 0})
	g := NewGenerator(zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO sequence_counters`).
		WithArgs(tenantA, SeriesDeal).
		WillReturnRows(sqlmock.NewRows([]string{"current_value"}).AddRow(int64(123)))
	mock.ExpectCommit()

	code, err := txmanager.ExecuteTransaction(context.Background(), m, func(ctx context.Context, tc *txmanager.TxContext) (Code, error) {
		return g.Next(ctx, tc, tenantA, SeriesDeal)
	})

	require.NoError(t, err)
	assert.Equal(t, int64(123), code.Value)
	assert.Equal(t, "D-000123", code.Display)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNext_UnknownSeriesIssuesNothing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	m := txmanager.NewManager(db, zap.NewNop(), nil, txmanager.Options{})
	g := NewGenerator(nil)

	mock.ExpectBegin()
	mock.ExpectRollback()

	err = m.Execute(context.Background(), func(ctx context.Context, tc *txmanager.TxContext) error {
		_, err := g.Next(ctx, tc, tenantA, "invoice")
		return err
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown series")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNext_RollbackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	m := txmanager.NewManager(db, zap.NewNop(), nil, txmanager.Options{})
	g := NewGenerator(nil)

	boom := errors.New("disk full")
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO sequence_counters`).WillReturnError(boom)
	mock.ExpectRollback()

	err = m.Execute(context.Background(), func(ctx context.Context, tc *txmanager.TxContext) error {
		_, err := g.Next(ctx, tc, tenantA, SeriesStock)
		return err
	})

	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}
