package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"autolytiq-desk/internal/apperrors"

	"github.com/lib/pq"
)

// DBTX is what every repository executes against. In the engine it is always the
// current transaction's *txmanager.TxContext; *sql.Tx and *sql.DB also satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// uniqueViolation returns the violated constraint name for SQLSTATE 23505
func uniqueViolation(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return pqErr.Constraint, true
	}
	return "", false
}

// unknownTenant maps a tenant foreign key violation (SQLSTATE 23503) to a
// ValidationError; any other error is returned unchanged
func unknownTenant(err error, tenantID string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23503" && strings.HasSuffix(pqErr.Constraint, "_tenant_id_fkey") {
		return apperrors.Validation("tenant_id", "unknown tenant %s", tenantID)
	}
	return err
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
