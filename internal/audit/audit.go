// Package audit records the outcome of every engine operation after its
// transaction has returned. Recording is best effort: a failing sink is logged
// by the caller and never changes the operation's result.
package audit

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Outcome values
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Event one finished operation
type Event struct {
	Operation  string    `json:"operation"` // create_deal, transition_deal, ...
	TenantID   string    `json:"tenant_id"`
	DealID     string    `json:"deal_id,omitempty"`
	DealNumber string    `json:"deal_number,omitempty"`
	EntityID   string    `json:"entity_id,omitempty"` // customer or vehicle for non-deal operations
	Outcome    string    `json:"outcome"`
	ErrorKind  string    `json:"error_kind,omitempty"`
	Error      string    `json:"error,omitempty"`
	Attempts   int       `json:"attempts"`
	DurationMs int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

// Recorder is an audit sink
type Recorder interface {
	Record(ctx context.Context, e Event) error
}

// Nop discards events
type Nop struct{}

func (Nop) Record(context.Context, Event) error { return nil }

// LogRecorder writes events as structured log entries
type LogRecorder struct {
	logger *zap.Logger
}

func NewLogRecorder(logger *zap.Logger) *LogRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogRecorder{logger: logger.Named("audit")}
}

func (r *LogRecorder) Record(_ context.Context, e Event) error {
	fields := []zap.Field{
		zap.String("operation", e.Operation),
		zap.String("tenant_id", e.TenantID),
		zap.String("outcome", e.Outcome),
		zap.Int("attempts", e.Attempts),
		zap.Int64("duration_ms", e.DurationMs),
	}
	if e.DealID != "" {
		fields = append(fields, zap.String("deal_id", e.DealID))
	}
	if e.DealNumber != "" {
		fields = append(fields, zap.String("deal_number", e.DealNumber))
	}
	if e.EntityID != "" {
		fields = append(fields, zap.String("entity_id", e.EntityID))
	}
	if e.Outcome == OutcomeFailure {
		fields = append(fields, zap.String("error_kind", e.ErrorKind), zap.String("error", e.Error))
		r.logger.Warn("operation failed", fields...)
		return nil
	}
	r.logger.Info("operation completed", fields...)
	return nil
}
