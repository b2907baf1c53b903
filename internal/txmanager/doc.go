// Package txmanager runs units of work inside PostgreSQL transactions.
//
// Each attempt acquires a dedicated connection from the *sql.DB pool, begins a
// transaction, applies the requested isolation level and a transaction-local
// statement_timeout, then hands the work function a *TxContext. The work either
// returns nil and the transaction commits, or returns an error and the
// transaction is rolled back immediately.
//
// Failures are classified by Classify. Transient engine conditions
// (serialization failure, deadlock, connection loss, too many connections,
// engine not accepting connections, statement timeout) are retried with
// exponential backoff, baseDelay × 2^(attempt−1), on a fresh connection until
// the retry budget is spent. Every other error, in particular the typed
// business errors from internal/apperrors, is returned unchanged after the
// rollback.
//
// Lifecycle of one Execute call:
//
//	ACQUIRING -> IN_TRANSACTION -> COMMITTING -> DONE
//	                           -> ROLLING_BACK -> RETRYING -> ACQUIRING
//	                           -> ROLLING_BACK -> FAILED
//
// Work functions must not perform side effects outside the transaction; they
// may run more than once.
package txmanager
