package repository

import (
	"context"
	"database/sql"
	"fmt"
)

type PostgresSequencesRepo struct {
	db DBTX
}

func NewPostgresSequencesRepo(db DBTX) *PostgresSequencesRepo {
	return &PostgresSequencesRepo{db: db}
}

var _ SequencesRepository = (*PostgresSequencesRepo)(nil)

func (r *PostgresSequencesRepo) Increment(ctx context.Context, tenantID, series string) (int64, error) {
	var v int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO sequence_counters (tenant_id, series_name, current_value)
		VALUES ($1, $2, 1)
		ON CONFLICT (tenant_id, series_name)
		DO UPDATE SET current_value = sequence_counters.current_value + 1,
		              updated_at = NOW()
		RETURNING current_value
	`, tenantID, series).Scan(&v)
	if err != nil {
		if verr := unknownTenant(err, tenantID); verr != err {
			return 0, verr
		}
		return 0, fmt.Errorf("failed to increment sequence %s: %w", series, err)
	}
	return v, nil
}

func (r *PostgresSequencesRepo) Current(ctx context.Context, tenantID, series string) (int64, error) {
	var v int64
	err := r.db.QueryRowContext(ctx, `
		SELECT current_value FROM sequence_counters WHERE tenant_id = $1 AND series_name = $2
	`, tenantID, series).Scan(&v)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read sequence %s: %w", series, err)
	}
	return v, nil
}
