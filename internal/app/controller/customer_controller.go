package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/dealer-backend/internal/app/model"
	"github.com/ikkim/dealer-backend/internal/app/repository"
	"github.com/ikkim/dealer-backend/internal/app/service"
	"github.com/ikkim/dealer-backend/internal/middleware"
)

type CustomerController struct {
	customerService service.CustomerService
}

func NewCustomerController(customerService service.CustomerService) *CustomerController {
	return &CustomerController{
		customerService: customerService,
	}
}

type CustomerRequest struct {
	FirstName              string              `json:"first_name"`
	LastName               string              `json:"last_name"`
	Email                  string              `json:"email"`
	Phone                  string              `json:"phone"`
	DateOfBirth            *time.Time          `json:"date_of_birth"`
	Address                string              `json:"address"`
	City                   string              `json:"city"`
	State                  string              `json:"state"`
	ZipCode                string              `json:"zip_code"`
	Country                string              `json:"country"`
	DriverLicense          string              `json:"driver_license"`
	CustomerType           model.CustomerType  `json:"customer_type"`
	CompanyName            string              `json:"company_name"`
	TaxID                  string              `json:"tax_id"`
	CreditScore            *int                `json:"credit_score"`
	PreferredContactMethod model.ContactMethod `json:"preferred_contact_method"`
	Notes                  string              `json:"notes"`
}

func (r *CustomerRequest) toModel() *model.Customer {
	return &model.Customer{
		FirstName:              r.FirstName,
		LastName:               r.LastName,
		Email:                  r.Email,
		Phone:                  r.Phone,
		DateOfBirth:            r.DateOfBirth,
		Address:                r.Address,
		City:                   r.City,
		State:                  r.State,
		ZipCode:                r.ZipCode,
		Country:                r.Country,
		DriverLicense:          r.DriverLicense,
		CustomerType:           r.CustomerType,
		CompanyName:            r.CompanyName,
		TaxID:                  r.TaxID,
		CreditScore:            r.CreditScore,
		PreferredContactMethod: r.PreferredContactMethod,
		Notes:                  r.Notes,
	}
}

type CreditScoreRequest struct {
	CreditScore int `json:"credit_score" binding:"required"`
}

// ListCustomers returns a filtered page of customers
// GET /api/v1/customers
func (ctrl *CustomerController) ListCustomers(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	q := newQueryParser(c)
	filter := repository.CustomerFilter{
		CustomerType: model.CustomerType(c.Query("customer_type")),
		Active:       q.bool("active"),
		State:        c.Query("state"),
		City:         c.Query("city"),
		Page:         q.page(),
	}
	if filter.CustomerType != "" && !filter.CustomerType.Valid() {
		q.verr.Add("customer_type", "is not a customer type")
	}
	if !q.done() {
		return
	}

	customers, total, err := ctrl.customerService.ListCustomers(filter)
	if err != nil {
		respondError(c, log, err, "Failed to list customers", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"customers":  customers,
		"pagination": newPageResponse(total, filter.Page),
	})
}

// GetCustomer returns a customer by ID
// GET /api/v1/customers/:id
func (ctrl *CustomerController) GetCustomer(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	customer, err := ctrl.customerService.GetCustomer(id)
	if err != nil {
		respondError(c, log, err, "Failed to fetch customer", map[string]interface{}{
			"customer_id": id,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"customer": customer,
	})
}

// CreateCustomer registers a customer
// POST /api/v1/customers
func (ctrl *CustomerController) CreateCustomer(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req CustomerRequest
	if !bindJSON(c, &req) {
		return
	}

	customer, err := ctrl.customerService.CreateCustomer(req.toModel())
	if err != nil {
		respondError(c, log, err, "Failed to create customer", map[string]interface{}{
			"email": req.Email,
		})
		return
	}

	log.Info("Customer created", map[string]interface{}{
		"customer_id": customer.ID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Customer created successfully",
		"customer": customer,
	})
}

// UpdateCustomer replaces a customer's details
// PUT /api/v1/customers/:id
func (ctrl *CustomerController) UpdateCustomer(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req CustomerRequest
	if !bindJSON(c, &req) {
		return
	}

	customer, err := ctrl.customerService.UpdateCustomer(id, req.toModel())
	if err != nil {
		respondError(c, log, err, "Failed to update customer", map[string]interface{}{
			"customer_id": id,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Customer updated successfully",
		"customer": customer,
	})
}

// DeleteCustomer removes a customer without sales
// DELETE /api/v1/customers/:id
func (ctrl *CustomerController) DeleteCustomer(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.customerService.DeleteCustomer(id); err != nil {
		respondError(c, log, err, "Failed to delete customer", map[string]interface{}{
			"customer_id": id,
		})
		return
	}

	log.Info("Customer deleted", map[string]interface{}{
		"customer_id": id,
	})
	c.Status(http.StatusNoContent)
}

// PATCH /api/v1/customers/:id/activate
func (ctrl *CustomerController) ActivateCustomer(c *gin.Context) {
	ctrl.setActive(c, true)
}

// PATCH /api/v1/customers/:id/deactivate
func (ctrl *CustomerController) DeactivateCustomer(c *gin.Context) {
	ctrl.setActive(c, false)
}

func (ctrl *CustomerController) setActive(c *gin.Context, active bool) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	apply := ctrl.customerService.DeactivateCustomer
	if active {
		apply = ctrl.customerService.ActivateCustomer
	}

	customer, err := apply(id)
	if err != nil {
		respondError(c, log, err, "Failed to change customer activity", map[string]interface{}{
			"customer_id": id,
			"active":      active,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"customer": customer,
	})
}

// UpdateCreditScore sets the customer's credit score
// PATCH /api/v1/customers/:id/credit-score
func (ctrl *CustomerController) UpdateCreditScore(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req CreditScoreRequest
	if !bindJSON(c, &req) {
		return
	}

	customer, err := ctrl.customerService.UpdateCreditScore(id, req.CreditScore)
	if err != nil {
		respondError(c, log, err, "Failed to update credit score", map[string]interface{}{
			"customer_id":  id,
			"credit_score": req.CreditScore,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"customer": customer,
	})
}
