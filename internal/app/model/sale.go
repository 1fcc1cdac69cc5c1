package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type SaleStatus string
type PaymentMethod string

const (
	SaleStatusPending   SaleStatus = "PENDING"
	SaleStatusApproved  SaleStatus = "APPROVED"
	SaleStatusCompleted SaleStatus = "COMPLETED"
	SaleStatusCancelled SaleStatus = "CANCELLED"
	SaleStatusRefunded  SaleStatus = "REFUNDED"

	PaymentCash        PaymentMethod = "CASH"
	PaymentFinancing   PaymentMethod = "FINANCING"
	PaymentLease       PaymentMethod = "LEASE"
	PaymentTradeIn     PaymentMethod = "TRADE_IN"
	PaymentCombination PaymentMethod = "COMBINATION"
)

func (s SaleStatus) Valid() bool {
	switch s {
	case SaleStatusPending, SaleStatusApproved, SaleStatusCompleted, SaleStatusCancelled, SaleStatusRefunded:
		return true
	}
	return false
}

// Transition predicates of the sale state machine:
//
//	PENDING -> APPROVED -> COMPLETED -> REFUNDED
//	PENDING | APPROVED -> CANCELLED
func (s SaleStatus) CanApprove() bool  { return s == SaleStatusPending }
func (s SaleStatus) CanComplete() bool { return s == SaleStatusApproved }
func (s SaleStatus) CanCancel() bool   { return s == SaleStatusPending || s == SaleStatusApproved }
func (s SaleStatus) CanRefund() bool   { return s == SaleStatusCompleted }

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentFinancing, PaymentLease, PaymentTradeIn, PaymentCombination:
		return true
	}
	return false
}

type Sale struct {
	ID                   uint             `gorm:"primarykey" json:"id"`
	VehicleID            uint             `gorm:"not null;index" json:"vehicle_id" validate:"required"`
	CustomerID           uint             `gorm:"not null;index" json:"customer_id" validate:"required"`
	SaleDate             time.Time        `gorm:"not null;index" json:"sale_date"`
	SalePrice            *decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"sale_price" validate:"required"`
	DownPayment          *decimal.Decimal `gorm:"type:decimal(12,2)" json:"down_payment,omitempty"`
	TradeInValue         *decimal.Decimal `gorm:"type:decimal(12,2)" json:"trade_in_value,omitempty"`
	FinancingAmount      *decimal.Decimal `gorm:"type:decimal(12,2)" json:"financing_amount,omitempty"`
	InterestRate         *decimal.Decimal `gorm:"type:decimal(5,2)" json:"interest_rate,omitempty"`
	LoanTermMonths       *int             `json:"loan_term_months,omitempty" validate:"omitempty,min=1,max=120"`
	MonthlyPayment       *decimal.Decimal `gorm:"type:decimal(10,2)" json:"monthly_payment,omitempty"`
	PaymentMethod        PaymentMethod    `gorm:"type:varchar(20);not null;index" json:"payment_method" validate:"omitempty,oneof=CASH FINANCING LEASE TRADE_IN COMBINATION"`
	Status               SaleStatus       `gorm:"type:varchar(20);not null;index" json:"status" validate:"omitempty,oneof=PENDING APPROVED COMPLETED CANCELLED REFUNDED"`
	SalespersonName      string           `gorm:"type:varchar(100)" json:"salesperson_name,omitempty" validate:"max=100"`
	SalespersonEmail     string           `gorm:"type:varchar(100);index" json:"salesperson_email,omitempty" validate:"omitempty,email,max=100"`
	CommissionRate       *decimal.Decimal `gorm:"type:decimal(5,2)" json:"commission_rate,omitempty"`
	CommissionAmount     *decimal.Decimal `gorm:"type:decimal(10,2)" json:"commission_amount,omitempty"` // derived, see RecalculateCommission
	WarrantyMonths       *int             `json:"warranty_months,omitempty" validate:"omitempty,min=0"`
	ExtendedWarranty     bool             `gorm:"not null" json:"extended_warranty"`
	ExtendedWarrantyCost *decimal.Decimal `gorm:"type:decimal(8,2)" json:"extended_warranty_cost,omitempty"`
	DeliveryDate         *time.Time       `json:"delivery_date,omitempty"`
	DeliveryAddress      string           `gorm:"type:varchar(200)" json:"delivery_address,omitempty" validate:"max=200"`
	Notes                string           `gorm:"type:text" json:"notes,omitempty"`
	ContractSignedAt     *time.Time       `json:"contract_signed_at,omitempty"`
	IsFinalized          bool             `gorm:"not null" json:"is_finalized"`
	Version              uint             `gorm:"not null;default:1" json:"version"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`

	Vehicle  *Vehicle  `gorm:"foreignKey:VehicleID;constraint:OnDelete:RESTRICT" json:"vehicle,omitempty" validate:"-"`
	Customer *Customer `gorm:"foreignKey:CustomerID;constraint:OnDelete:RESTRICT" json:"customer,omitempty" validate:"-"`
}

func (Sale) TableName() string {
	return "sales"
}

// Validate checks every field constraint and reports all violations at once.
func (s *Sale) Validate() error {
	verr := validateStruct(s)
	checkNonNegative(verr, "sale_price", s.SalePrice)
	checkNonNegative(verr, "down_payment", s.DownPayment)
	checkNonNegative(verr, "trade_in_value", s.TradeInValue)
	checkNonNegative(verr, "financing_amount", s.FinancingAmount)
	checkNonNegative(verr, "monthly_payment", s.MonthlyPayment)
	checkNonNegative(verr, "extended_warranty_cost", s.ExtendedWarrantyCost)
	checkPercent(verr, "interest_rate", s.InterestRate)
	checkPercent(verr, "commission_rate", s.CommissionRate)
	return verr.OrNil()
}

// ApplyDefaults fills sale date, status and payment method for a new sale.
// The sale date always keeps only its calendar day.
func (s *Sale) ApplyDefaults(now time.Time) {
	if s.SaleDate.IsZero() {
		s.SaleDate = now
	}
	s.SaleDate = truncateToDay(s.SaleDate)
	if s.Status == "" {
		s.Status = SaleStatusPending
	}
	if s.PaymentMethod == "" {
		s.PaymentMethod = PaymentCash
	}
	s.IsFinalized = false
}

// RecalculateCommission derives commissionAmount from salePrice and
// commissionRate. It must run after any change to either input.
func (s *Sale) RecalculateCommission() {
	if s.CommissionRate == nil || s.SalePrice == nil {
		s.CommissionAmount = nil
		return
	}
	amount := Money(s.SalePrice.Mul(*s.CommissionRate).Div(hundred))
	s.CommissionAmount = &amount
}

// NetAmount is salePrice − tradeInValue + extendedWarrantyCost.
func (s *Sale) NetAmount() decimal.Decimal {
	return orZero(s.SalePrice).Sub(orZero(s.TradeInValue)).Add(orZero(s.ExtendedWarrantyCost))
}

// RemainingBalance is never negative.
func (s *Sale) RemainingBalance() decimal.Decimal {
	remaining := s.NetAmount().Sub(orZero(s.DownPayment))
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// TotalProfit needs the vehicle loaded; without it the purchase price counts as zero.
func (s *Sale) TotalProfit() decimal.Decimal {
	var purchase decimal.Decimal
	if s.Vehicle != nil {
		purchase = orZero(s.Vehicle.PurchasePrice)
	}
	return orZero(s.SalePrice).Sub(purchase).
		Add(orZero(s.ExtendedWarrantyCost)).
		Sub(orZero(s.CommissionAmount))
}

func (s *Sale) IsFullyPaid() bool {
	return s.PaymentMethod == PaymentCash || s.RemainingBalance().IsZero()
}

// AppendNote adds a line to the free-text notes.
func (s *Sale) AppendNote(note string) {
	if s.Notes == "" {
		s.Notes = note
		return
	}
	s.Notes += "\n" + note
}

// ApplyDetails copies the mutable financial and administrative fields of d
// onto s. Identity, references, status and finalization are left untouched.
func (s *Sale) ApplyDetails(d *Sale) {
	if !d.SaleDate.IsZero() {
		s.SaleDate = truncateToDay(d.SaleDate)
	}
	s.SalePrice = d.SalePrice
	s.DownPayment = d.DownPayment
	s.TradeInValue = d.TradeInValue
	s.FinancingAmount = d.FinancingAmount
	s.InterestRate = d.InterestRate
	s.LoanTermMonths = d.LoanTermMonths
	s.MonthlyPayment = d.MonthlyPayment
	if d.PaymentMethod != "" {
		s.PaymentMethod = d.PaymentMethod
	}
	s.SalespersonName = d.SalespersonName
	s.SalespersonEmail = d.SalespersonEmail
	s.CommissionRate = d.CommissionRate
	s.WarrantyMonths = d.WarrantyMonths
	s.ExtendedWarranty = d.ExtendedWarranty
	s.ExtendedWarrantyCost = d.ExtendedWarrantyCost
	s.DeliveryDate = d.DeliveryDate
	s.DeliveryAddress = d.DeliveryAddress
	s.Notes = d.Notes
}

func (s Sale) MarshalJSON() ([]byte, error) {
	type sale Sale
	return json.Marshal(struct {
		sale
		NetAmount        decimal.Decimal `json:"net_amount"`
		RemainingBalance decimal.Decimal `json:"remaining_balance"`
		TotalProfit      decimal.Decimal `json:"total_profit"`
		IsFullyPaid      bool            `json:"is_fully_paid"`
	}{
		sale:             sale(s),
		NetAmount:        s.NetAmount(),
		RemainingBalance: s.RemainingBalance(),
		TotalProfit:      s.TotalProfit(),
		IsFullyPaid:      s.IsFullyPaid(),
	})
}
