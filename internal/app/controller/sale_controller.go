package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/dealer-backend/internal/app/model"
	"github.com/ikkim/dealer-backend/internal/app/repository"
	"github.com/ikkim/dealer-backend/internal/app/service"
	"github.com/ikkim/dealer-backend/internal/middleware"
	"github.com/shopspring/decimal"
)

type SaleController struct {
	saleService service.SaleService
}

func NewSaleController(saleService service.SaleService) *SaleController {
	return &SaleController{
		saleService: saleService,
	}
}

type SaleRequest struct {
	VehicleID            uint                `json:"vehicle_id"`
	CustomerID           uint                `json:"customer_id"`
	SaleDate             *calendarDate       `json:"sale_date"`
	SalePrice            *decimal.Decimal    `json:"sale_price"`
	DownPayment          *decimal.Decimal    `json:"down_payment"`
	TradeInValue         *decimal.Decimal    `json:"trade_in_value"`
	FinancingAmount      *decimal.Decimal    `json:"financing_amount"`
	InterestRate         *decimal.Decimal    `json:"interest_rate"`
	LoanTermMonths       *int                `json:"loan_term_months"`
	MonthlyPayment       *decimal.Decimal    `json:"monthly_payment"`
	PaymentMethod        model.PaymentMethod `json:"payment_method"`
	SalespersonName      string              `json:"salesperson_name"`
	SalespersonEmail     string              `json:"salesperson_email"`
	CommissionRate       *decimal.Decimal    `json:"commission_rate"`
	WarrantyMonths       *int                `json:"warranty_months"`
	ExtendedWarranty     bool                `json:"extended_warranty"`
	ExtendedWarrantyCost *decimal.Decimal    `json:"extended_warranty_cost"`
	DeliveryDate         *time.Time          `json:"delivery_date"`
	DeliveryAddress      string              `json:"delivery_address"`
	Notes                string              `json:"notes"`
}

func (r *SaleRequest) toModel() *model.Sale {
	sale := &model.Sale{
		VehicleID:            r.VehicleID,
		CustomerID:           r.CustomerID,
		SalePrice:            r.SalePrice,
		DownPayment:          r.DownPayment,
		TradeInValue:         r.TradeInValue,
		FinancingAmount:      r.FinancingAmount,
		InterestRate:         r.InterestRate,
		LoanTermMonths:       r.LoanTermMonths,
		MonthlyPayment:       r.MonthlyPayment,
		PaymentMethod:        r.PaymentMethod,
		SalespersonName:      r.SalespersonName,
		SalespersonEmail:     r.SalespersonEmail,
		CommissionRate:       r.CommissionRate,
		WarrantyMonths:       r.WarrantyMonths,
		ExtendedWarranty:     r.ExtendedWarranty,
		ExtendedWarrantyCost: r.ExtendedWarrantyCost,
		DeliveryDate:         r.DeliveryDate,
		DeliveryAddress:      r.DeliveryAddress,
		Notes:                r.Notes,
		SaleDate:             r.SaleDate.timeOrZero(),
	}
	return sale
}

type ReasonRequest struct {
	Reason string `json:"reason"`
}

// ListSales returns a filtered page of sales
// GET /api/v1/sales
func (ctrl *SaleController) ListSales(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	q := newQueryParser(c)
	filter := repository.SaleFilter{
		Status:           model.SaleStatus(c.Query("status")),
		PaymentMethod:    model.PaymentMethod(c.Query("payment_method")),
		SalespersonEmail: c.Query("salesperson_email"),
		CustomerID:       q.uint("customer_id"),
		VehicleID:        q.uint("vehicle_id"),
		From:             q.date("from"),
		MinPrice:         q.decimal("min_price"),
		MaxPrice:         q.decimal("max_price"),
		Page:             q.page(),
	}
	// "to" is an inclusive calendar day
	if to := q.date("to"); to != nil {
		next := to.AddDate(0, 0, 1)
		filter.To = &next
	}
	if filter.Status != "" && !filter.Status.Valid() {
		q.verr.Add("status", "is not a sale status")
	}
	if filter.PaymentMethod != "" && !filter.PaymentMethod.Valid() {
		q.verr.Add("payment_method", "is not a payment method")
	}
	if !q.done() {
		return
	}

	sales, total, err := ctrl.saleService.ListSales(filter)
	if err != nil {
		respondError(c, log, err, "Failed to list sales", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sales":      sales,
		"pagination": newPageResponse(total, filter.Page),
	})
}

// ListPending returns sales still waiting for completion
// GET /api/v1/sales/pending
func (ctrl *SaleController) ListPending(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	sales, err := ctrl.saleService.PendingUnfinalized()
	if err != nil {
		respondError(c, log, err, "Failed to list pending sales", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sales": sales,
		"count": len(sales),
	})
}

// CountByStatus returns how many sales are in each status
// GET /api/v1/sales/status-counts
func (ctrl *SaleController) CountByStatus(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	counts := make(map[model.SaleStatus]int64)
	for _, status := range []model.SaleStatus{
		model.SaleStatusPending,
		model.SaleStatusApproved,
		model.SaleStatusCompleted,
		model.SaleStatusCancelled,
		model.SaleStatusRefunded,
	} {
		n, err := ctrl.saleService.CountByStatus(status)
		if err != nil {
			respondError(c, log, err, "Failed to count sales", map[string]interface{}{
				"status": status,
			})
			return
		}
		counts[status] = n
	}

	c.JSON(http.StatusOK, gin.H{
		"counts": counts,
	})
}

// ListByCustomer returns a customer's purchase history
// GET /api/v1/customers/:id/sales
func (ctrl *SaleController) ListByCustomer(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	sales, err := ctrl.saleService.SalesByCustomer(id)
	if err != nil {
		respondError(c, log, err, "Failed to list customer sales", map[string]interface{}{
			"customer_id": id,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sales": sales,
		"count": len(sales),
	})
}

// ListByVehicle returns every sale recorded against a vehicle
// GET /api/v1/vehicles/:id/sales
func (ctrl *SaleController) ListByVehicle(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	sales, err := ctrl.saleService.SalesByVehicle(id)
	if err != nil {
		respondError(c, log, err, "Failed to list vehicle sales", map[string]interface{}{
			"vehicle_id": id,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sales": sales,
		"count": len(sales),
	})
}

// GetSale returns a sale with its vehicle and customer
// GET /api/v1/sales/:id
func (ctrl *SaleController) GetSale(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	sale, err := ctrl.saleService.GetSale(id)
	if err != nil {
		respondError(c, log, err, "Failed to fetch sale", map[string]interface{}{
			"sale_id": id,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sale": sale,
	})
}

// CreateSale opens a pending sale and reserves its vehicle
// POST /api/v1/sales
func (ctrl *SaleController) CreateSale(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req SaleRequest
	if !bindJSON(c, &req) {
		return
	}

	sale := req.toModel()
	// default the salesperson to the caller
	if sale.SalespersonEmail == "" {
		if email, ok := middleware.GetUserEmail(c); ok {
			sale.SalespersonEmail = email
		}
	}

	created, err := ctrl.saleService.CreateSale(sale)
	if err != nil {
		respondError(c, log, err, "Failed to create sale", map[string]interface{}{
			"vehicle_id":  req.VehicleID,
			"customer_id": req.CustomerID,
		})
		return
	}

	log.Info("Sale created", map[string]interface{}{
		"sale_id":    created.ID,
		"vehicle_id": created.VehicleID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "Sale created successfully",
		"sale":    created,
	})
}

// UpdateSale edits the commercial terms of an open sale
// PUT /api/v1/sales/:id
func (ctrl *SaleController) UpdateSale(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req SaleRequest
	if !bindJSON(c, &req) {
		return
	}

	sale, err := ctrl.saleService.UpdateSale(id, req.toModel())
	if err != nil {
		respondError(c, log, err, "Failed to update sale", map[string]interface{}{
			"sale_id": id,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Sale updated successfully",
		"sale":    sale,
	})
}

// POST /api/v1/sales/:id/approve
func (ctrl *SaleController) ApproveSale(c *gin.Context) {
	ctrl.transition(c, "approve", func(id uint, _ string) (*model.Sale, error) {
		return ctrl.saleService.ApproveSale(id)
	})
}

// POST /api/v1/sales/:id/complete
func (ctrl *SaleController) CompleteSale(c *gin.Context) {
	ctrl.transition(c, "complete", func(id uint, _ string) (*model.Sale, error) {
		return ctrl.saleService.CompleteSale(id)
	})
}

// POST /api/v1/sales/:id/cancel
func (ctrl *SaleController) CancelSale(c *gin.Context) {
	ctrl.transition(c, "cancel", ctrl.saleService.CancelSale)
}

// POST /api/v1/sales/:id/refund
func (ctrl *SaleController) RefundSale(c *gin.Context) {
	ctrl.transition(c, "refund", ctrl.saleService.RefundSale)
}

func (ctrl *SaleController) transition(c *gin.Context, action string, apply func(id uint, reason string) (*model.Sale, error)) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	// the reason body is optional
	var req ReasonRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	userID, _ := middleware.GetUserID(c)
	sale, err := apply(id, req.Reason)
	if err != nil {
		respondError(c, log, err, "Failed to "+action+" sale", map[string]interface{}{
			"sale_id": id,
			"user_id": userID,
		})
		return
	}

	log.Info("Sale transitioned", map[string]interface{}{
		"sale_id": sale.ID,
		"status":  sale.Status,
		"action":  action,
		"user_id": userID,
	})

	c.JSON(http.StatusOK, gin.H{
		"sale": sale,
	})
}
