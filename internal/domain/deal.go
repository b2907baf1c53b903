package domain

import "time"

// DealState deal lifecycle
type DealState string

const (
	DealDraft     DealState = "DRAFT"
	DealPending   DealState = "PENDING"
	DealSold      DealState = "SOLD"
	DealCancelled DealState = "CANCELLED"
)

var dealTransitions = map[DealState][]DealState{
	DealDraft:   {DealPending, DealSold, DealCancelled},
	DealPending: {DealSold, DealCancelled},
}

// Valid reports whether s is one of the four known states
func (s DealState) Valid() bool {
	switch s {
	case DealDraft, DealPending, DealSold, DealCancelled:
		return true
	}
	return false
}

// CanTransition SOLD and CANCELLED are terminal
func (s DealState) CanTransition(to DealState) bool {
	for _, allowed := range dealTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Deal (deals table)
type Deal struct {
	DealID        string    `db:"deal_id"` // UUID, PRIMARY KEY
	TenantID      string    `db:"tenant_id"`
	SalespersonID string    `db:"salesperson_id"`
	CustomerID    *string   `db:"customer_id"` // nullable FK
	State         DealState `db:"deal_state"`
	DealNumber    *string   `db:"deal_number"` // nil until the deal leaves DRAFT; unique per tenant
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}
