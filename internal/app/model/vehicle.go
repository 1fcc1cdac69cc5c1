package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type VehicleStatus string
type VehicleCondition string

const (
	VehicleStatusAvailable    VehicleStatus = "AVAILABLE"
	VehicleStatusReserved     VehicleStatus = "RESERVED"
	VehicleStatusSold         VehicleStatus = "SOLD"
	VehicleStatusMaintenance  VehicleStatus = "MAINTENANCE"
	VehicleStatusDiscontinued VehicleStatus = "DISCONTINUED"

	ConditionNew               VehicleCondition = "NEW"
	ConditionUsed              VehicleCondition = "USED"
	ConditionCertifiedPreOwned VehicleCondition = "CERTIFIED_PRE_OWNED"
	ConditionDamaged           VehicleCondition = "DAMAGED"
)

var vehicleStatuses = []VehicleStatus{
	VehicleStatusAvailable,
	VehicleStatusReserved,
	VehicleStatusSold,
	VehicleStatusMaintenance,
	VehicleStatusDiscontinued,
}

func (s VehicleStatus) Valid() bool {
	for _, v := range vehicleStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Sellable reports whether a new sale may be opened against a vehicle in this status.
func (s VehicleStatus) Sellable() bool {
	return s == VehicleStatusAvailable || s == VehicleStatusReserved
}

func ParseVehicleStatus(s string) (VehicleStatus, bool) {
	status := VehicleStatus(s)
	return status, status.Valid()
}

func (c VehicleCondition) Valid() bool {
	switch c {
	case ConditionNew, ConditionUsed, ConditionCertifiedPreOwned, ConditionDamaged:
		return true
	}
	return false
}

type Vehicle struct {
	ID            uint             `gorm:"primarykey" json:"id"`
	VIN           string           `gorm:"type:varchar(17);uniqueIndex;not null" json:"vin" validate:"required,len=17"`
	Make          string           `gorm:"type:varchar(50);not null;index" json:"make" validate:"required,max=50"`
	Model         string           `gorm:"type:varchar(50);not null" json:"model" validate:"required,max=50"`
	Year          int              `gorm:"not null" json:"year" validate:"required,min=1900,max=2030"`
	Color         string           `gorm:"type:varchar(30)" json:"color,omitempty" validate:"max=30"`
	Mileage       int              `gorm:"not null;default:0" json:"mileage" validate:"min=0"`
	PurchasePrice *decimal.Decimal `gorm:"type:decimal(12,2)" json:"purchase_price,omitempty"`
	SellingPrice  *decimal.Decimal `gorm:"type:decimal(12,2)" json:"selling_price,omitempty"`
	MSRP          *decimal.Decimal `gorm:"column:msrp;type:decimal(12,2)" json:"msrp,omitempty"`
	Status        VehicleStatus    `gorm:"type:varchar(20);not null;index" json:"status" validate:"omitempty,oneof=AVAILABLE RESERVED SOLD MAINTENANCE DISCONTINUED"`
	Condition     VehicleCondition `gorm:"column:vehicle_condition;type:varchar(30);not null" json:"condition" validate:"omitempty,oneof=NEW USED CERTIFIED_PRE_OWNED DAMAGED"`
	EngineType    string           `gorm:"type:varchar(50)" json:"engine_type,omitempty" validate:"max=50"`
	Transmission  string           `gorm:"type:varchar(30)" json:"transmission,omitempty" validate:"max=30"`
	FuelType      string           `gorm:"type:varchar(30)" json:"fuel_type,omitempty" validate:"max=30"`
	Description   string           `gorm:"type:text" json:"description,omitempty" validate:"max=1000"`
	Location      string           `gorm:"type:varchar(100)" json:"location,omitempty" validate:"max=100"`
	PurchaseDate  *time.Time       `json:"purchase_date,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

func (Vehicle) TableName() string {
	return "vehicles"
}

// Validate checks every field constraint and reports all violations at once.
func (v *Vehicle) Validate() error {
	verr := validateStruct(v)
	checkNonNegative(verr, "purchase_price", v.PurchasePrice)
	checkNonNegative(verr, "selling_price", v.SellingPrice)
	checkNonNegative(verr, "msrp", v.MSRP)
	return verr.OrNil()
}

// PotentialProfit is sellingPrice − purchasePrice, zero when either is unknown.
func (v *Vehicle) PotentialProfit() decimal.Decimal {
	if v.SellingPrice == nil || v.PurchasePrice == nil {
		return decimal.Zero
	}
	return v.SellingPrice.Sub(*v.PurchasePrice)
}

func (v *Vehicle) FullName() string {
	return fmt.Sprintf("%d %s %s", v.Year, v.Make, v.Model)
}

// ApplyDefaults fills status, condition and purchase date when unset.
func (v *Vehicle) ApplyDefaults(now time.Time) {
	if v.Status == "" {
		v.Status = VehicleStatusAvailable
	}
	if v.Condition == "" {
		v.Condition = ConditionNew
	}
	if v.PurchaseDate == nil {
		today := truncateToDay(now)
		v.PurchaseDate = &today
	}
}

func (v Vehicle) MarshalJSON() ([]byte, error) {
	type vehicle Vehicle
	return json.Marshal(struct {
		vehicle
		FullName        string          `json:"full_name"`
		PotentialProfit decimal.Decimal `json:"potential_profit"`
	}{
		vehicle:         vehicle(v),
		FullName:        v.FullName(),
		PotentialProfit: v.PotentialProfit(),
	})
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
