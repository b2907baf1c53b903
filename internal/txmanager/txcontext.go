package txmanager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	// ErrTxDone the attempt that owned this TxContext has committed or rolled back
	ErrTxDone = errors.New("txmanager: transaction already finished")
	// ErrSavepointReleased the savepoint was released, or discarded by an outer release/rollback
	ErrSavepointReleased = errors.New("txmanager: savepoint no longer active")
	// ErrForeignSavepoint the savepoint belongs to a different transaction
	ErrForeignSavepoint = errors.New("txmanager: savepoint belongs to another transaction")
)

// TxContext is handed to work functions. It is the transaction's client:
// repositories execute through it and never open their own connection.
type TxContext struct {
	tx      *sql.Tx
	attempt int

	mu     sync.Mutex
	done   bool
	stack  []*Savepoint
	nextID int
}

// Savepoint handle returned by TxContext.Savepoint
type Savepoint struct {
	name     string
	ident    string
	owner    *TxContext
	released bool
}

// Name the caller-supplied label
func (sp *Savepoint) Name() string { return sp.name }

func newTxContext(tx *sql.Tx, attempt int) *TxContext {
	return &TxContext{tx: tx, attempt: attempt}
}

// Attempt 1 on the first try, incremented on every retry
func (tc *TxContext) Attempt() int { return tc.attempt }

func (tc *TxContext) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if tc.isDone() {
		return nil, ErrTxDone
	}
	return tc.tx.ExecContext(ctx, query, args...)
}

func (tc *TxContext) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if tc.isDone() {
		return nil, ErrTxDone
	}
	return tc.tx.QueryContext(ctx, query, args...)
}

// QueryRowContext defers ErrTxDone-style failures to Row.Scan, like *sql.Tx
func (tc *TxContext) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return tc.tx.QueryRowContext(ctx, query, args...)
}

// Savepoint issues SAVEPOINT and pushes the handle on the stack
func (tc *TxContext) Savepoint(ctx context.Context, name string) (*Savepoint, error) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if tc.done {
		return nil, ErrTxDone
	}

	tc.nextID++
	sp := &Savepoint{
		name:  name,
		ident: fmt.Sprintf("sp_%d_%s", tc.nextID, sanitizeIdent(name)),
		owner: tc,
	}
	if _, err := tc.tx.ExecContext(ctx, "SAVEPOINT "+sp.ident); err != nil {
		return nil, fmt.Errorf("savepoint %s: %w", name, err)
	}
	tc.stack = append(tc.stack, sp)
	return sp, nil
}

// ReleaseSavepoint issues RELEASE SAVEPOINT. sp and every savepoint created after it become inactive.
func (tc *TxContext) ReleaseSavepoint(ctx context.Context, sp *Savepoint) error {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	i, err := tc.indexOf(sp)
	if err != nil {
		return err
	}
	if _, err := tc.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+sp.ident); err != nil {
		return fmt.Errorf("release savepoint %s: %w", sp.name, err)
	}
	tc.discardFrom(i)
	return nil
}

// RollbackToSavepoint issues ROLLBACK TO SAVEPOINT. sp stays active; savepoints created after it do not.
func (tc *TxContext) RollbackToSavepoint(ctx context.Context, sp *Savepoint) error {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	i, err := tc.indexOf(sp)
	if err != nil {
		return err
	}
	if _, err := tc.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+sp.ident); err != nil {
		return fmt.Errorf("rollback to savepoint %s: %w", sp.name, err)
	}
	tc.discardFrom(i + 1)
	return nil
}

// WithSavepoint runs fn inside a savepoint. On error the savepoint is rolled back
// and released, leaving the enclosing transaction usable, and fn's error is returned.
func (tc *TxContext) WithSavepoint(ctx context.Context, name string, fn func() error) error {
	sp, err := tc.Savepoint(ctx, name)
	if err != nil {
		return err
	}
	if fnErr := fn(); fnErr != nil {
		if err := tc.RollbackToSavepoint(ctx, sp); err != nil {
			return errors.Join(fnErr, err)
		}
		if err := tc.ReleaseSavepoint(ctx, sp); err != nil {
			return errors.Join(fnErr, err)
		}
		return fnErr
	}
	return tc.ReleaseSavepoint(ctx, sp)
}

func (tc *TxContext) indexOf(sp *Savepoint) (int, error) {
	if tc.done {
		return -1, ErrTxDone
	}
	if sp == nil || sp.owner != tc {
		return -1, ErrForeignSavepoint
	}
	if sp.released {
		return -1, ErrSavepointReleased
	}
	for i := len(tc.stack) - 1; i >= 0; i-- {
		if tc.stack[i] == sp {
			return i, nil
		}
	}
	return -1, ErrSavepointReleased
}

func (tc *TxContext) discardFrom(i int) {
	for _, sp := range tc.stack[i:] {
		sp.released = true
	}
	tc.stack = tc.stack[:i]
}

func (tc *TxContext) isDone() bool {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.done
}

func (tc *TxContext) finish() {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.done = true
	tc.discardFrom(0)
}

func sanitizeIdent(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
		if b.Len() >= 40 {
			break
		}
	}
	if b.Len() == 0 {
		return "anon"
	}
	return b.String()
}
