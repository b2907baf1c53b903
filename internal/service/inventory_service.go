package service

import (
	"context"
	"strings"
	"time"

	"autolytiq-desk/internal/apperrors"
	"autolytiq-desk/internal/audit"
	"autolytiq-desk/internal/domain"
	"autolytiq-desk/internal/repository"
	"autolytiq-desk/internal/sequence"
	"autolytiq-desk/internal/txmanager"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InventoryService vehicle intake
type InventoryService struct {
	tm     *txmanager.Manager
	seq    *sequence.Generator
	audit  auditor
	logger *zap.Logger
}

func NewInventoryService(tm *txmanager.Manager, seq *sequence.Generator, recorder audit.Recorder, logger *zap.Logger) *InventoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryService{tm: tm, seq: seq, audit: newAuditor(recorder, logger), logger: logger}
}

// ReceiveVehicleInput receiveVehicle request
type ReceiveVehicleInput struct {
	TenantID string
	VIN      string
	Make     string
	Model    string
	Year     int
}

func (in *ReceiveVehicleInput) validate() error {
	if err := validateID("tenant_id", in.TenantID); err != nil {
		return err
	}
	in.VIN = strings.ToUpper(strings.TrimSpace(in.VIN))
	if err := validateVIN(in.VIN); err != nil {
		return err
	}
	in.Make = strings.TrimSpace(in.Make)
	in.Model = strings.TrimSpace(in.Model)
	if in.Make == "" {
		return apperrors.Validation("make", "is required")
	}
	if in.Model == "" {
		return apperrors.Validation("model", "is required")
	}
	if in.Year < 1900 || in.Year > time.Now().Year()+2 {
		return apperrors.Validation("year", "out of range: %d", in.Year)
	}
	return nil
}

// validateVIN 17 characters, letters I, O and Q excluded
func validateVIN(vin string) error {
	if len(vin) != 17 {
		return apperrors.Validation("vin", "must be 17 characters")
	}
	for _, r := range vin {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'A' && r <= 'Z' && r != 'I' && r != 'O' && r != 'Q':
		default:
			return apperrors.Validation("vin", "contains invalid character %q", r)
		}
	}
	return nil
}

// ReceiveVehicle adds a vehicle to the tenant's inventory as available and
// assigns its stock number from the "stock" series in the same transaction.
func (s *InventoryService) ReceiveVehicle(ctx context.Context, in ReceiveVehicleInput) (*domain.Vehicle, error) {
	start := time.Now()
	attempts := 0

	vehicle, err := func() (*domain.Vehicle, error) {
		if err := in.validate(); err != nil {
			return nil, err
		}
		return txmanager.ExecuteTransaction(ctx, s.tm, func(ctx context.Context, tc *txmanager.TxContext) (*domain.Vehicle, error) {
			attempts = tc.Attempt()
			code, err := s.seq.Next(ctx, tc, in.TenantID, sequence.SeriesStock)
			if err != nil {
				return nil, err
			}
			v := &domain.Vehicle{
				VehicleID:   uuid.NewString(),
				TenantID:    in.TenantID,
				VIN:         in.VIN,
				StockNumber: code.Display,
				Make:        in.Make,
				Model:       in.Model,
				Year:        in.Year,
				Status:      domain.VehicleAvailable,
			}
			if err := repository.NewPostgresVehiclesRepo(tc).CreateVehicle(ctx, v); err != nil {
				return nil, err
			}
			return v, nil
		})
	}()

	e := audit.Event{Operation: OpReceiveVehicle, TenantID: in.TenantID, Attempts: attempts}
	if vehicle != nil {
		e.EntityID = vehicle.VehicleID
	}
	s.audit.record(ctx, e, start, err)
	return vehicle, err
}
