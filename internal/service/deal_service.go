package service

import (
	"context"
	"fmt"
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

// Scenario defaults applied where ScenarioData leaves a field nil
const (
	DefaultScenarioName = "Scenario 1"
	DefaultTermMonths   = 60
	maxTermMonths       = 120
)

// DealService deal lifecycle operations
type DealService struct {
	tm     *txmanager.Manager
	seq    *sequence.Generator
	audit  auditor
	logger *zap.Logger
}

// NewDealService creates the deal service. A nil recorder disables auditing.
func NewDealService(tm *txmanager.Manager, seq *sequence.Generator, recorder audit.Recorder, logger *zap.Logger) *DealService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DealService{
		tm:     tm,
		seq:    seq,
		audit:  newAuditor(recorder, logger),
		logger: logger,
	}
}

// ScenarioData optional pricing overrides; nil fields take the defaults
type ScenarioData struct {
	ScenarioType *domain.ScenarioType `json:"scenario_type,omitempty"`
	Name         *string              `json:"name,omitempty"`
	IsActive     *bool                `json:"is_active,omitempty"`
	VehiclePrice *string              `json:"vehicle_price,omitempty"`
	DownPayment  *string              `json:"down_payment,omitempty"`
	TradeInValue *string              `json:"trade_in_value,omitempty"`
	InterestRate *string              `json:"interest_rate,omitempty"`
	TermMonths   *int                 `json:"term_months,omitempty"`
}

// CreateDealInput createDeal request
type CreateDealInput struct {
	TenantID      string
	SalespersonID string
	CustomerID    *string
	VehicleID     *string
	InitialState  domain.DealState // empty means DRAFT
	ScenarioData  *ScenarioData
}

// CreateDealResult everything the transaction wrote or resolved
type CreateDealResult struct {
	Deal     *domain.Deal         `json:"deal"`
	Scenario *domain.DealScenario `json:"scenario"`
	Customer *domain.Customer     `json:"customer,omitempty"`
	Vehicle  *domain.Vehicle      `json:"vehicle,omitempty"`
}

func (in *CreateDealInput) validate() error {
	if err := validateID("tenant_id", in.TenantID); err != nil {
		return err
	}
	if err := validateID("salesperson_id", in.SalespersonID); err != nil {
		return err
	}
	if err := validateOptionalID("customer_id", in.CustomerID); err != nil {
		return err
	}
	if err := validateOptionalID("vehicle_id", in.VehicleID); err != nil {
		return err
	}
	if in.InitialState == "" {
		in.InitialState = domain.DealDraft
	}
	if !in.InitialState.Valid() {
		return apperrors.Validation("initial_state", "unknown deal state %q", in.InitialState)
	}
	if in.InitialState == domain.DealCancelled {
		return apperrors.Validation("initial_state", "a deal cannot be created cancelled")
	}
	return nil
}

// CreateDeal creates a deal with its first scenario in one transaction.
// Business errors are returned as-is; transient failures retry the whole operation.
func (s *DealService) CreateDeal(ctx context.Context, in CreateDealInput) (*CreateDealResult, error) {
	start := time.Now()
	attempts := 0

	result, err := func() (*CreateDealResult, error) {
		if err := in.validate(); err != nil {
			return nil, err
		}
		return txmanager.ExecuteTransaction(ctx, s.tm, func(ctx context.Context, tc *txmanager.TxContext) (*CreateDealResult, error) {
			attempts = tc.Attempt()
			return s.createDeal(ctx, tc, in)
		})
	}()

	e := audit.Event{Operation: OpCreateDeal, TenantID: in.TenantID, Attempts: attempts}
	if result != nil {
		e.DealID = result.Deal.DealID
		if result.Deal.DealNumber != nil {
			e.DealNumber = *result.Deal.DealNumber
		}
	}
	s.audit.record(ctx, e, start, err)
	return result, err
}

func (s *DealService) createDeal(ctx context.Context, tc *txmanager.TxContext, in CreateDealInput) (*CreateDealResult, error) {
	customers := repository.NewPostgresCustomersRepo(tc)
	vehicles := repository.NewPostgresVehiclesRepo(tc)
	deals := repository.NewPostgresDealsRepo(tc)

	if err := requireTenant(ctx, tc, in.TenantID); err != nil {
		return nil, err
	}

	result := &CreateDealResult{}

	if in.CustomerID != nil {
		c, err := customers.GetCustomer(ctx, *in.CustomerID)
		if err != nil {
			return nil, err
		}
		if c.TenantID != in.TenantID {
			return nil, &apperrors.MultiTenantViolationError{
				Resource:      "customer",
				ID:            c.CustomerID,
				TenantID:      in.TenantID,
				OwnerTenantID: c.TenantID,
			}
		}
		result.Customer = c
	}

	if in.VehicleID != nil {
		v, err := lockAvailableVehicle(ctx, vehicles, in.TenantID, *in.VehicleID)
		if err != nil {
			return nil, err
		}
		result.Vehicle = v
	}

	var dealNumber *string
	if in.InitialState != domain.DealDraft {
		code, err := s.seq.Next(ctx, tc, in.TenantID, sequence.SeriesDeal)
		if err != nil {
			return nil, err
		}
		dealNumber = &code.Display
	}

	deal := &domain.Deal{
		DealID:        uuid.NewString(),
		TenantID:      in.TenantID,
		SalespersonID: in.SalespersonID,
		CustomerID:    in.CustomerID,
		State:         in.InitialState,
		DealNumber:    dealNumber,
	}
	if err := deals.CreateDeal(ctx, deal); err != nil {
		return nil, err
	}
	result.Deal = deal

	scenario, err := buildScenario(deal, in.VehicleID, in.ScenarioData)
	if err != nil {
		return nil, err
	}
	if err := deals.CreateScenario(ctx, scenario); err != nil {
		return nil, err
	}
	result.Scenario = scenario

	if result.Vehicle != nil {
		if err := moveVehicle(ctx, vehicles, result.Vehicle, domain.VehicleInDeal); err != nil {
			return nil, err
		}
		if deal.State == domain.DealSold {
			if err := moveVehicle(ctx, vehicles, result.Vehicle, domain.VehicleSold); err != nil {
				return nil, err
			}
		}
	}

	s.logger.Debug("deal created",
		zap.String("tenant_id", deal.TenantID),
		zap.String("deal_id", deal.DealID),
		zap.String("state", string(deal.State)),
		zap.Int("attempt", tc.Attempt()),
	)
	return result, nil
}

// lockAvailableVehicle locks the vehicle row and checks ownership and status
func lockAvailableVehicle(ctx context.Context, vehicles repository.VehiclesRepository, tenantID, vehicleID string) (*domain.Vehicle, error) {
	v, err := vehicles.GetVehicleForUpdate(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if v.TenantID != tenantID {
		return nil, &apperrors.MultiTenantViolationError{
			Resource:      "vehicle",
			ID:            v.VehicleID,
			TenantID:      tenantID,
			OwnerTenantID: v.TenantID,
		}
	}
	if v.Status != domain.VehicleAvailable {
		return nil, &apperrors.VehicleNotAvailableError{VehicleID: v.VehicleID, Status: string(v.Status)}
	}
	return v, nil
}

// moveVehicle applies one status transition to a vehicle already locked by this transaction
func moveVehicle(ctx context.Context, vehicles repository.VehiclesRepository, v *domain.Vehicle, to domain.VehicleStatus) error {
	if !v.Status.CanTransition(to) {
		return &apperrors.VehicleNotAvailableError{VehicleID: v.VehicleID, Status: string(v.Status)}
	}
	ok, err := vehicles.UpdateVehicleStatus(ctx, v.TenantID, v.VehicleID, v.Status, to)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("vehicle %s changed status while locked", v.VehicleID)
	}
	v.Status = to
	return nil
}

// buildScenario merges data over the defaults and validates every field
func buildScenario(deal *domain.Deal, vehicleID *string, data *ScenarioData) (*domain.DealScenario, error) {
	sc := &domain.DealScenario{
		ScenarioID:   uuid.NewString(),
		DealID:       deal.DealID,
		TenantID:     deal.TenantID,
		VehicleID:    vehicleID,
		ScenarioType: domain.ScenarioFinance,
		Name:         DefaultScenarioName,
		IsActive:     true,
		VehiclePrice: "0.00",
		DownPayment:  "0.00",
		TradeInValue: "0.00",
		InterestRate: "0.000",
		TermMonths:   DefaultTermMonths,
	}
	if data == nil {
		return sc, nil
	}

	if data.ScenarioType != nil {
		if !data.ScenarioType.Valid() {
			return nil, apperrors.Validation("scenario_type", "unknown scenario type %q", *data.ScenarioType)
		}
		sc.ScenarioType = *data.ScenarioType
	}
	if data.Name != nil {
		name := strings.TrimSpace(*data.Name)
		if name == "" {
			return nil, apperrors.Validation("name", "must not be blank")
		}
		sc.Name = name
	}
	if data.IsActive != nil {
		sc.IsActive = *data.IsActive
	}

	var err error
	if data.VehiclePrice != nil {
		if sc.VehiclePrice, err = parseMoney("vehicle_price", *data.VehiclePrice); err != nil {
			return nil, err
		}
	}
	if data.DownPayment != nil {
		if sc.DownPayment, err = parseMoney("down_payment", *data.DownPayment); err != nil {
			return nil, err
		}
	}
	if data.TradeInValue != nil {
		if sc.TradeInValue, err = parseMoney("trade_in_value", *data.TradeInValue); err != nil {
			return nil, err
		}
	}
	if data.InterestRate != nil {
		if sc.InterestRate, err = parseRate("interest_rate", *data.InterestRate); err != nil {
			return nil, err
		}
	}
	if data.TermMonths != nil {
		if *data.TermMonths < 0 || *data.TermMonths > maxTermMonths {
			return nil, apperrors.Validation("term_months", "must be between 0 and %d", maxTermMonths)
		}
		sc.TermMonths = *data.TermMonths
	}
	return sc, nil
}

// TransitionDeal moves a deal to another state. Leaving DRAFT assigns the deal
// number; SOLD and CANCELLED settle the attached vehicle.
func (s *DealService) TransitionDeal(ctx context.Context, tenantID, dealID string, to domain.DealState) (*domain.Deal, error) {
	start := time.Now()
	attempts := 0

	deal, err := func() (*domain.Deal, error) {
		if err := validateID("tenant_id", tenantID); err != nil {
			return nil, err
		}
		if err := validateID("deal_id", dealID); err != nil {
			return nil, err
		}
		if !to.Valid() {
			return nil, apperrors.Validation("state", "unknown deal state %q", to)
		}
		return txmanager.ExecuteTransaction(ctx, s.tm, func(ctx context.Context, tc *txmanager.TxContext) (*domain.Deal, error) {
			attempts = tc.Attempt()
			return s.transitionDeal(ctx, tc, tenantID, dealID, to)
		})
	}()

	e := audit.Event{Operation: OpTransitionDeal, TenantID: tenantID, DealID: dealID, Attempts: attempts}
	if deal != nil && deal.DealNumber != nil {
		e.DealNumber = *deal.DealNumber
	}
	s.audit.record(ctx, e, start, err)
	return deal, err
}

func (s *DealService) transitionDeal(ctx context.Context, tc *txmanager.TxContext, tenantID, dealID string, to domain.DealState) (*domain.Deal, error) {
	deals := repository.NewPostgresDealsRepo(tc)
	vehicles := repository.NewPostgresVehiclesRepo(tc)

	deal, err := lockDeal(ctx, deals, tenantID, dealID)
	if err != nil {
		return nil, err
	}
	from := deal.State
	if !from.CanTransition(to) {
		return nil, &apperrors.StateTransitionError{DealID: dealID, From: string(from), To: string(to)}
	}

	if from == domain.DealDraft && deal.DealNumber == nil {
		code, err := s.seq.Next(ctx, tc, tenantID, sequence.SeriesDeal)
		if err != nil {
			return nil, err
		}
		deal.DealNumber = &code.Display
	}

	if to == domain.DealSold || to == domain.DealCancelled {
		vehicleID, err := deals.AttachedVehicleID(ctx, dealID)
		if err != nil {
			return nil, err
		}
		if vehicleID != nil {
			if err := settleVehicle(ctx, vehicles, tenantID, *vehicleID, to); err != nil {
				return nil, err
			}
		}
	}

	deal.State = to
	if err := deals.UpdateDealState(ctx, deal); err != nil {
		return nil, err
	}

	s.logger.Debug("deal transitioned",
		zap.String("tenant_id", tenantID),
		zap.String("deal_id", dealID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	return deal, nil
}

// settleVehicle: SOLD requires the vehicle to be in-deal; CANCELLED releases it if it still is
func settleVehicle(ctx context.Context, vehicles repository.VehiclesRepository, tenantID, vehicleID string, to domain.DealState) error {
	v, err := vehicles.GetVehicleForUpdate(ctx, vehicleID)
	if err != nil {
		return err
	}
	switch to {
	case domain.DealSold:
		return moveVehicle(ctx, vehicles, v, domain.VehicleSold)
	case domain.DealCancelled:
		if v.Status == domain.VehicleInDeal {
			return moveVehicle(ctx, vehicles, v, domain.VehicleAvailable)
		}
	}
	return nil
}

// lockDeal locks the deal row and checks ownership
func lockDeal(ctx context.Context, deals repository.DealsRepository, tenantID, dealID string) (*domain.Deal, error) {
	deal, err := deals.GetDealForUpdate(ctx, dealID)
	if err != nil {
		return nil, err
	}
	if deal.TenantID != tenantID {
		return nil, &apperrors.MultiTenantViolationError{
			Resource:      "deal",
			ID:            dealID,
			TenantID:      tenantID,
			OwnerTenantID: deal.TenantID,
		}
	}
	return deal, nil
}

// DeleteDeal removes a deal and its scenarios. Deleting an open deal returns
// its in-deal vehicle to available; SOLD and CANCELLED deals leave the vehicle alone.
func (s *DealService) DeleteDeal(ctx context.Context, tenantID, dealID string) error {
	start := time.Now()
	attempts := 0

	err := func() error {
		if err := validateID("tenant_id", tenantID); err != nil {
			return err
		}
		if err := validateID("deal_id", dealID); err != nil {
			return err
		}
		return s.tm.Execute(ctx, func(ctx context.Context, tc *txmanager.TxContext) error {
			attempts = tc.Attempt()
			deals := repository.NewPostgresDealsRepo(tc)
			vehicles := repository.NewPostgresVehiclesRepo(tc)

			deal, err := lockDeal(ctx, deals, tenantID, dealID)
			if err != nil {
				return err
			}
			// a closed deal no longer holds its vehicle; another deal may
			if deal.State == domain.DealDraft || deal.State == domain.DealPending {
				vehicleID, err := deals.AttachedVehicleID(ctx, dealID)
				if err != nil {
					return err
				}
				if vehicleID != nil {
					if err := settleVehicle(ctx, vehicles, tenantID, *vehicleID, domain.DealCancelled); err != nil {
						return err
					}
				}
			}
			ok, err := deals.DeleteDeal(ctx, tenantID, dealID)
			if err != nil {
				return err
			}
			if !ok {
				return apperrors.NotFound("deal", dealID)
			}
			return nil
		})
	}()

	s.audit.record(ctx, audit.Event{Operation: OpDeleteDeal, TenantID: tenantID, DealID: dealID, Attempts: attempts}, start, err)
	return err
}

// AddScenario adds another pricing scenario to an open deal. The insert runs
// under a savepoint; the new scenario inherits the deal's attached vehicle.
func (s *DealService) AddScenario(ctx context.Context, tenantID, dealID string, data ScenarioData) (*domain.DealScenario, error) {
	start := time.Now()
	attempts := 0

	scenario, err := func() (*domain.DealScenario, error) {
		if err := validateID("tenant_id", tenantID); err != nil {
			return nil, err
		}
		if err := validateID("deal_id", dealID); err != nil {
			return nil, err
		}
		return txmanager.ExecuteTransaction(ctx, s.tm, func(ctx context.Context, tc *txmanager.TxContext) (*domain.DealScenario, error) {
			attempts = tc.Attempt()
			deals := repository.NewPostgresDealsRepo(tc)

			deal, err := lockDeal(ctx, deals, tenantID, dealID)
			if err != nil {
				return nil, err
			}
			if deal.State == domain.DealSold || deal.State == domain.DealCancelled {
				return nil, apperrors.Validation("deal_id", "deal %s is %s and cannot take new scenarios", dealID, deal.State)
			}
			vehicleID, err := deals.AttachedVehicleID(ctx, dealID)
			if err != nil {
				return nil, err
			}

			var sc *domain.DealScenario
			err = tc.WithSavepoint(ctx, "add_scenario", func() error {
				built, err := buildScenario(deal, vehicleID, &data)
				if err != nil {
					return err
				}
				if err := deals.CreateScenario(ctx, built); err != nil {
					return err
				}
				sc = built
				return nil
			})
			if err != nil {
				return nil, err
			}
			return sc, nil
		})
	}()

	s.audit.record(ctx, audit.Event{Operation: OpAddScenario, TenantID: tenantID, DealID: dealID, Attempts: attempts}, start, err)
	return scenario, err
}
