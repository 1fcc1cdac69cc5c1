package model

import "time"

type SaleEventType string

const (
	SaleEventCreated   SaleEventType = "sale.created"
	SaleEventUpdated   SaleEventType = "sale.updated"
	SaleEventApproved  SaleEventType = "sale.approved"
	SaleEventCompleted SaleEventType = "sale.completed"
	SaleEventCancelled SaleEventType = "sale.cancelled"
	SaleEventRefunded  SaleEventType = "sale.refunded"
)

// SaleEvent describes a committed sale change.
type SaleEvent struct {
	Type          SaleEventType `json:"type"`
	SaleID        uint          `json:"sale_id"`
	VehicleID     uint          `json:"vehicle_id"`
	CustomerID    uint          `json:"customer_id"`
	Status        SaleStatus    `json:"status"`
	VehicleStatus VehicleStatus `json:"vehicle_status,omitempty"`
	OccurredAt    time.Time     `json:"occurred_at"`
}
