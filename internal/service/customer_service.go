package service

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"autolytiq-desk/internal/apperrors"
	"autolytiq-desk/internal/audit"
	"autolytiq-desk/internal/domain"
	"autolytiq-desk/internal/repository"
	"autolytiq-desk/internal/txmanager"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CustomerService customer onboarding
type CustomerService struct {
	tm     *txmanager.Manager
	audit  auditor
	logger *zap.Logger
}

func NewCustomerService(tm *txmanager.Manager, recorder audit.Recorder, logger *zap.Logger) *CustomerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CustomerService{tm: tm, audit: newAuditor(recorder, logger), logger: logger}
}

// CreateCustomerInput createCustomer request
type CreateCustomerInput struct {
	TenantID  string
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

func (in *CreateCustomerInput) validate() error {
	if err := validateID("tenant_id", in.TenantID); err != nil {
		return err
	}
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	if in.FirstName == "" {
		return apperrors.Validation("first_name", "is required")
	}
	if in.LastName == "" {
		return apperrors.Validation("last_name", "is required")
	}
	if in.Email != "" {
		if _, err := mail.ParseAddress(in.Email); err != nil {
			return apperrors.Validation("email", "is not a valid address")
		}
	}
	return nil
}

// CreateCustomer registers a customer under the tenant
func (s *CustomerService) CreateCustomer(ctx context.Context, in CreateCustomerInput) (*domain.Customer, error) {
	start := time.Now()
	attempts := 0

	customer, err := func() (*domain.Customer, error) {
		if err := in.validate(); err != nil {
			return nil, err
		}
		return txmanager.ExecuteTransaction(ctx, s.tm, func(ctx context.Context, tc *txmanager.TxContext) (*domain.Customer, error) {
			attempts = tc.Attempt()
			c := &domain.Customer{
				CustomerID: uuid.NewString(),
				TenantID:   in.TenantID,
				FirstName:  in.FirstName,
				LastName:   in.LastName,
				Email:      in.Email,
				Phone:      in.Phone,
			}
			if err := repository.NewPostgresCustomersRepo(tc).CreateCustomer(ctx, c); err != nil {
				return nil, err
			}
			return c, nil
		})
	}()

	e := audit.Event{Operation: OpCreateCustomer, TenantID: in.TenantID, Attempts: attempts}
	if customer != nil {
		e.EntityID = customer.CustomerID
	}
	s.audit.record(ctx, e, start, err)
	return customer, err
}
