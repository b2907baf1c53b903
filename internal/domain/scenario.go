package domain

import "time"

// ScenarioType how the customer pays
type ScenarioType string

const (
	ScenarioFinance ScenarioType = "finance"
	ScenarioLease   ScenarioType = "lease"
	ScenarioCash    ScenarioType = "cash"
)

func (t ScenarioType) Valid() bool {
	switch t {
	case ScenarioFinance, ScenarioLease, ScenarioCash:
		return true
	}
	return false
}

// DealScenario (deal_scenarios table), one deal : N scenarios.
// Money fields hold canonical fixed-point text ("25999.00") as stored in NUMERIC columns.
type DealScenario struct {
	ScenarioID   string       `db:"scenario_id"`
	DealID       string       `db:"deal_id"`
	TenantID     string       `db:"tenant_id"`
	VehicleID    *string      `db:"vehicle_id"`
	ScenarioType ScenarioType `db:"scenario_type"`
	Name         string       `db:"name"`
	IsActive     bool         `db:"is_active"`
	VehiclePrice string       `db:"vehicle_price"`  // NUMERIC(12,2)
	DownPayment  string       `db:"down_payment"`   // NUMERIC(12,2)
	TradeInValue string       `db:"trade_in_value"` // NUMERIC(12,2)
	InterestRate string       `db:"interest_rate"`  // NUMERIC(6,3), APR percent
	TermMonths   int          `db:"term_months"`
	CreatedAt    time.Time    `db:"created_at"`
}
