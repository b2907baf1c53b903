// Package service holds the engine's business operations. Each exported
// operation is one logical unit of work: it validates its input, runs every
// read and write through a single txmanager transaction, and emits an audit
// event once the transaction has returned.
package service

import (
	"context"
	"strings"
	"time"

	"autolytiq-desk/internal/apperrors"
	"autolytiq-desk/internal/audit"
	"autolytiq-desk/internal/repository"
	"autolytiq-desk/internal/txmanager"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Operation names used in audit events
const (
	OpCreateDeal     = "create_deal"
	OpTransitionDeal = "transition_deal"
	OpDeleteDeal     = "delete_deal"
	OpAddScenario    = "add_scenario"
	OpCreateCustomer = "create_customer"
	OpReceiveVehicle = "receive_vehicle"
)

// validateID requires a non-empty UUID-shaped id
func validateID(field, id string) error {
	if strings.TrimSpace(id) == "" {
		return apperrors.Validation(field, "is required")
	}
	if _, err := uuid.Parse(id); err != nil {
		return apperrors.Validation(field, "must be a UUID, got %q", id)
	}
	return nil
}

func validateOptionalID(field string, id *string) error {
	if id == nil {
		return nil
	}
	return validateID(field, *id)
}

// auditor emits audit events; sink failures are logged and swallowed
type auditor struct {
	rec    audit.Recorder
	logger *zap.Logger
}

func newAuditor(rec audit.Recorder, logger *zap.Logger) auditor {
	if rec == nil {
		rec = audit.Nop{}
	}
	return auditor{rec: rec, logger: logger}
}

func (a auditor) record(ctx context.Context, e audit.Event, start time.Time, err error) {
	e.DurationMs = time.Since(start).Milliseconds()
	e.Timestamp = time.Now().UTC()
	if err != nil {
		e.Outcome = audit.OutcomeFailure
		e.ErrorKind = string(apperrors.KindOf(err))
		e.Error = err.Error()
	} else {
		e.Outcome = audit.OutcomeSuccess
	}

	// the operation's own deadline must not drop its audit record
	if rerr := a.rec.Record(context.WithoutCancel(ctx), e); rerr != nil {
		a.logger.Warn("failed to record audit event",
			zap.String("operation", e.Operation),
			zap.String("tenant_id", e.TenantID),
			zap.Error(rerr),
		)
	}
}

// requireTenant rejects a well-formed tenant id that has no tenant row
func requireTenant(ctx context.Context, tc *txmanager.TxContext, tenantID string) error {
	ok, err := repository.NewPostgresTenantsRepo(tc).TenantExists(ctx, tenantID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.Validation("tenant_id", "unknown tenant %s", tenantID)
	}
	return nil
}
