package txmanager

import (
	"fmt"
	"strings"
	"time"
)

// Level transaction isolation level
type Level int

const (
	// LevelDefault leaves the server default in place (READ COMMITTED on PostgreSQL)
	LevelDefault Level = iota
	LevelReadCommitted
	LevelRepeatableRead
	LevelSerializable
)

func (l Level) String() string {
	switch l {
	case LevelReadCommitted:
		return "read committed"
	case LevelRepeatableRead:
		return "repeatable read"
	case LevelSerializable:
		return "serializable"
	default:
		return "default"
	}
}

func (l Level) sql() string {
	return strings.ToUpper(l.String())
}

// ParseLevel accepts the names produced by Level.String, case-insensitively
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return LevelDefault, nil
	case "read committed", "read_committed":
		return LevelReadCommitted, nil
	case "repeatable read", "repeatable_read":
		return LevelRepeatableRead, nil
	case "serializable":
		return LevelSerializable, nil
	}
	return LevelDefault, fmt.Errorf("unknown isolation level %q", s)
}

// Options controls one Execute call
type Options struct {
	Isolation        Level
	MaxRetries       int
	BaseDelay        time.Duration
	StatementTimeout time.Duration
}

// DefaultOptions engine defaults: server isolation, 3 retries, 50ms base delay, 30s statement timeout
func DefaultOptions() Options {
	return Options{
		Isolation:        LevelDefault,
		MaxRetries:       3,
		BaseDelay:        50 * time.Millisecond,
		StatementTimeout: 30 * time.Second,
	}
}

// Option overrides a single field of the manager defaults for one call
type Option func(*Options)

func WithIsolation(level Level) Option {
	return func(o *Options) { o.Isolation = level }
}

func WithMaxRetries(n int) Option {
	return func(o *Options) { o.MaxRetries = n }
}

func WithBaseDelay(d time.Duration) Option {
	return func(o *Options) { o.BaseDelay = d }
}

// WithStatementTimeout sets statement_timeout for this transaction only. Zero disables it.
func WithStatementTimeout(d time.Duration) Option {
	return func(o *Options) { o.StatementTimeout = d }
}

// backoff returns baseDelay × 2^(attempt−1)
func backoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 || attempt < 1 {
		return 0
	}
	shift := attempt - 1
	if shift > 20 {
		shift = 20
	}
	return base << uint(shift)
}
