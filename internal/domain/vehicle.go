package domain

import "time"

// VehicleStatus inventory state
//
//	available -> in-deal -> sold
//	in-deal -> available (deal cancelled or deleted)
type VehicleStatus string

const (
	VehicleAvailable VehicleStatus = "available"
	VehicleInDeal    VehicleStatus = "in-deal"
	VehicleSold      VehicleStatus = "sold"
)

// CanTransition reports whether the inventory state machine allows from -> to
func (s VehicleStatus) CanTransition(to VehicleStatus) bool {
	switch s {
	case VehicleAvailable:
		return to == VehicleInDeal
	case VehicleInDeal:
		return to == VehicleSold || to == VehicleAvailable
	}
	return false
}

// Vehicle (vehicles table)
type Vehicle struct {
	VehicleID   string        `db:"vehicle_id"` // UUID, PRIMARY KEY
	TenantID    string        `db:"tenant_id"`
	VIN         string        `db:"vin"`
	StockNumber string        `db:"stock_number"` // STK00042, unique per tenant
	Make        string        `db:"make"`
	Model       string        `db:"model"`
	Year        int           `db:"model_year"`
	Status      VehicleStatus `db:"status"`
	CreatedAt   time.Time     `db:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at"`
}
