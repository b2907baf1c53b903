package txmanager

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"autolytiq-desk/internal/apperrors"

	"go.uber.org/zap"
)

// State of one Execute call, used in log entries
type State string

const (
	StateAcquiring     State = "ACQUIRING"
	StateInTransaction State = "IN_TRANSACTION"
	StateCommitting    State = "COMMITTING"
	StateRollingBack   State = "ROLLING_BACK"
	StateRetrying      State = "RETRYING"
	StateDone          State = "DONE"
	StateFailed        State = "FAILED"
)

// WorkFunc is the unit of work run inside a transaction
type WorkFunc func(ctx context.Context, tc *TxContext) error

// Manager executes WorkFuncs with retry on transient failure
type Manager struct {
	db       *sql.DB
	logger   *zap.Logger
	stats    *Stats
	defaults Options

	// sleep is swapped in tests
	sleep func(ctx context.Context, d time.Duration) error
}

// NewManager creates a transaction manager over the pool.
// A nil stats gets a private collector.
func NewManager(db *sql.DB, logger *zap.Logger, stats *Stats, defaults Options) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if stats == nil {
		stats = NewStats()
	}
	return &Manager{
		db:       db,
		logger:   logger,
		stats:    stats,
		defaults: defaults,
		sleep:    sleepContext,
	}
}

// Stats returns a snapshot of this manager's counters
func (m *Manager) Stats() StatsSnapshot {
	return m.stats.Snapshot()
}

// Defaults the options applied when a call passes none
func (m *Manager) Defaults() Options {
	return m.defaults
}

// ExecuteTransaction runs work in a transaction and returns its value once committed
func ExecuteTransaction[T any](ctx context.Context, m *Manager, work func(ctx context.Context, tc *TxContext) (T, error), opts ...Option) (T, error) {
	var result T
	err := m.Execute(ctx, func(ctx context.Context, tc *TxContext) error {
		v, err := work(ctx, tc)
		if err != nil {
			return err
		}
		result = v
		return nil
	}, opts...)
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// Execute runs work until it commits, fails with a non-transient error, or
// exhausts the retry budget. Non-transient errors are returned unchanged.
func (m *Manager) Execute(ctx context.Context, work WorkFunc, opts ...Option) error {
	o := m.defaults
	for _, opt := range opts {
		opt(&o)
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}

	m.stats.recordStart()

	for attempt := 1; ; attempt++ {
		start := time.Now()
		rolledBack, err := m.runAttempt(ctx, o, attempt, work)
		if err == nil {
			d := time.Since(start)
			m.stats.recordCommit(d)
			m.logger.Debug("transaction committed",
				zap.String("state", string(StateDone)),
				zap.Int("attempt", attempt),
				zap.Duration("duration", d),
			)
			return nil
		}
		if rolledBack {
			m.stats.recordRollback()
		}

		class := Classify(err)
		if class.Transient && attempt <= o.MaxRetries {
			delay := backoff(o.BaseDelay, attempt)
			m.stats.recordRetry(class.Reason)
			m.logger.Warn("transient transaction failure, retrying",
				zap.String("state", string(StateRetrying)),
				zap.Int("attempt", attempt),
				zap.String("reason", string(class.Reason)),
				zap.String("sqlstate", class.Code),
				zap.Duration("backoff", delay),
				zap.Error(err),
			)
			if sleepErr := m.sleep(ctx, delay); sleepErr != nil {
				m.stats.recordFailure()
				return fmt.Errorf("transaction retry aborted: %w (last error: %v)", sleepErr, err)
			}
			continue
		}

		m.stats.recordFailure()
		if class.Transient {
			m.logger.Error("transaction retries exhausted",
				zap.String("state", string(StateFailed)),
				zap.Int("attempts", attempt),
				zap.String("reason", string(class.Reason)),
				zap.Error(err),
			)
			return &apperrors.RetryExhaustedError{Attempts: attempt, Err: err}
		}
		m.logger.Debug("transaction failed",
			zap.String("state", string(StateFailed)),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		return err
	}
}

// runAttempt performs one ACQUIRING -> ... -> DONE|ROLLING_BACK pass.
// rolledBack reports whether a transaction had been opened and was undone.
func (m *Manager) runAttempt(ctx context.Context, o Options, attempt int, work WorkFunc) (rolledBack bool, err error) {
	conn, err := m.db.Conn(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}

	tc := newTxContext(tx, attempt)
	defer tc.finish()

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			m.stats.recordRollback()
			m.stats.recordFailure()
			panic(p)
		}
	}()

	if err := applySettings(ctx, tx, o); err != nil {
		m.rollback(tx, attempt)
		return true, err
	}

	if err := work(ctx, tc); err != nil {
		m.rollback(tx, attempt)
		return true, err
	}

	if err := tx.Commit(); err != nil {
		// PostgreSQL has already discarded the transaction
		return true, fmt.Errorf("commit transaction: %w", err)
	}
	return false, nil
}

func (m *Manager) rollback(tx *sql.Tx, attempt int) {
	if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
		m.logger.Warn("rollback failed",
			zap.String("state", string(StateRollingBack)),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}

func applySettings(ctx context.Context, tx *sql.Tx, o Options) error {
	if o.Isolation != LevelDefault {
		if _, err := tx.ExecContext(ctx, "SET TRANSACTION ISOLATION LEVEL "+o.Isolation.sql()); err != nil {
			return fmt.Errorf("set isolation level: %w", err)
		}
	}
	if o.StatementTimeout > 0 {
		q := fmt.Sprintf("SET LOCAL statement_timeout = %d", o.StatementTimeout.Milliseconds())
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("set statement timeout: %w", err)
		}
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
