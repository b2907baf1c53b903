package txmanager

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"

	"autolytiq-desk/internal/apperrors"

	"github.com/lib/pq"
)

// Reason why a failure counts as transient
type Reason string

const (
	ReasonNone               Reason = ""
	ReasonSerialization      Reason = "serialization"
	ReasonDeadlock           Reason = "deadlock"
	ReasonTooManyConnections Reason = "too_many_connections"
	ReasonConnection         Reason = "connection"
	ReasonUnavailable        Reason = "unavailable"
	ReasonTimeout            Reason = "timeout"
)

// Classification result of Classify
type Classification struct {
	Transient bool
	Reason    Reason
	Code      string // SQLSTATE when the engine supplied one
}

// SQLSTATE codes PostgreSQL uses for conditions worth retrying
var transientCodes = map[pq.ErrorCode]Reason{
	"40001": ReasonSerialization,      // serialization_failure
	"40P01": ReasonDeadlock,           // deadlock_detected
	"53300": ReasonTooManyConnections, // too_many_connections
	"57P03": ReasonUnavailable,        // cannot_connect_now
	"57014": ReasonTimeout,            // query_canceled (statement_timeout)
}

// Classify decides whether err is worth retrying. It has no side effects.
func Classify(err error) Classification {
	if err == nil {
		return Classification{}
	}
	if apperrors.IsBusiness(err) {
		return Classification{}
	}
	// the caller gave up; another attempt would fail the same way
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Classification{}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		code := string(pqErr.Code)
		if reason, ok := transientCodes[pqErr.Code]; ok {
			return Classification{Transient: true, Reason: reason, Code: code}
		}
		if pqErr.Code.Class() == "08" {
			return Classification{Transient: true, Reason: ReasonConnection, Code: code}
		}
		// the engine named the condition; its text cannot overrule that
		return Classification{Code: code}
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return Classification{Transient: true, Reason: ReasonConnection}
	}

	if reason := matchTransientText(rootCause(err).Error()); reason != ReasonNone {
		return Classification{Transient: true, Reason: reason}
	}
	return Classification{}
}

// rootCause drops wrapper context such as "acquire connection: " so only the
// driver's own message is matched
func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

// matchTransientText is the fallback for drivers and proxies that lose the SQLSTATE.
// Phrases are the ones PostgreSQL and the net package actually emit.
func matchTransientText(msg string) Reason {
	msg = strings.ToLower(msg)
	switch {
	case strings.Contains(msg, "deadlock detected"):
		return ReasonDeadlock
	case strings.Contains(msg, "could not serialize access"):
		return ReasonSerialization
	case strings.Contains(msg, "canceling statement due to statement timeout"),
		strings.Contains(msg, "i/o timeout"):
		return ReasonTimeout
	case strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "broken pipe"),
		strings.Contains(msg, "server closed the connection"):
		return ReasonConnection
	}
	return ReasonNone
}
