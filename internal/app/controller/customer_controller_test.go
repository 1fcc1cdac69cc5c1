package controller

import (
	"net/http"
	"testing"

	apperrors "github.com/ikkim/dealer-backend/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCustomerRoutes(t *testing.T) *apiFixture {
	f := setupAPI(t)
	ctrl := NewCustomerController(f.customers)
	sales := NewSaleController(f.sales)
	f.router.GET("/customers", ctrl.ListCustomers)
	f.router.GET("/customers/:id", ctrl.GetCustomer)
	f.router.GET("/customers/:id/sales", sales.ListByCustomer)
	f.router.POST("/customers", ctrl.CreateCustomer)
	f.router.PUT("/customers/:id", ctrl.UpdateCustomer)
	f.router.DELETE("/customers/:id", ctrl.DeleteCustomer)
	f.router.PATCH("/customers/:id/activate", ctrl.ActivateCustomer)
	f.router.PATCH("/customers/:id/deactivate", ctrl.DeactivateCustomer)
	f.router.PATCH("/customers/:id/credit-score", ctrl.UpdateCreditScore)
	return f
}

func TestCustomerController_CreateCustomer(t *testing.T) {
	f := setupCustomerRoutes(t)

	w := f.do(t, http.MethodPost, "/customers", map[string]interface{}{
		"first_name":    "Ada",
		"last_name":     "Lovelace",
		"email":         "  Ada@Example.COM ",
		"customer_type": "BUSINESS",
		"company_name":  "Analytical Engines",
		"credit_score":  780,
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	customer := decode(t, w)["customer"].(map[string]interface{})
	assert.Equal(t, "ada@example.com", customer["email"])
	assert.Equal(t, true, customer["is_active"])
	assert.Equal(t, "EMAIL", customer["preferred_contact_method"])
	assert.Equal(t, "Analytical Engines (Ada Lovelace)", customer["display_name"])
}

func TestCustomerController_CreateCustomer_Rejections(t *testing.T) {
	f := setupCustomerRoutes(t)
	f.customer(t, "taken@example.com")

	tests := []struct {
		name       string
		body       map[string]interface{}
		wantStatus int
		wantCode   string
	}{
		{
			name:       "Missing names",
			body:       map[string]interface{}{"email": "new@example.com"},
			wantStatus: http.StatusBadRequest,
			wantCode:   apperrors.ValidationInvalidInput,
		},
		{
			name: "Credit score out of range",
			body: map[string]interface{}{
				"first_name": "A", "last_name": "B", "email": "score@example.com", "credit_score": 900,
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   apperrors.ValidationInvalidInput,
		},
		{
			name: "Duplicate email",
			body: map[string]interface{}{
				"first_name": "A", "last_name": "B", "email": "TAKEN@example.com",
			},
			wantStatus: http.StatusConflict,
			wantCode:   apperrors.CustomerEmailExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/customers", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, errorCode(decode(t, w)))
		})
	}
}

func TestCustomerController_ActivationAndCreditScore(t *testing.T) {
	f := setupCustomerRoutes(t)
	c := f.customer(t, "flip@example.com")
	base := "/customers/" + itoa(c.ID)

	w := f.do(t, http.MethodPatch, base+"/deactivate", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["customer"].(map[string]interface{})["is_active"])

	w = f.do(t, http.MethodGet, "/customers?active=false", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["customers"], 1)

	w = f.do(t, http.MethodPatch, base+"/activate", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["customer"].(map[string]interface{})["is_active"])

	w = f.do(t, http.MethodPatch, base+"/credit-score", map[string]int{"credit_score": 705})
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 705, decode(t, w)["customer"].(map[string]interface{})["credit_score"])

	w = f.do(t, http.MethodPatch, base+"/credit-score", map[string]int{"credit_score": 120})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCustomerController_ListCustomers_InvalidFilter(t *testing.T) {
	f := setupCustomerRoutes(t)

	w := f.do(t, http.MethodGet, "/customers?customer_type=ALIEN&active=maybe", nil)

	require.Equal(t, http.StatusBadRequest, w.Code)
	fields := decode(t, w)["fields"].(map[string]interface{})
	assert.Contains(t, fields, "customer_type")
	assert.Contains(t, fields, "active")
}

func TestCustomerController_UpdateCustomer(t *testing.T) {
	f := setupCustomerRoutes(t)
	c := f.customer(t, "before@example.com")

	w := f.do(t, http.MethodPut, "/customers/"+itoa(c.ID), map[string]interface{}{
		"first_name": "Sam",
		"last_name":  "Buyer",
		"email":      "after@example.com",
		"state":      "CA",
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	customer := decode(t, w)["customer"].(map[string]interface{})
	assert.Equal(t, "after@example.com", customer["email"])
	assert.Equal(t, "CA", customer["state"])
}

func TestCustomerController_DeleteCustomer(t *testing.T) {
	f := setupCustomerRoutes(t)
	sale := f.pendingSale(t)
	free := f.customer(t, "free@example.com")

	w := f.do(t, http.MethodDelete, "/customers/"+itoa(sale.CustomerID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperrors.CustomerHasSales, errorCode(decode(t, w)))

	w = f.do(t, http.MethodGet, "/customers/"+itoa(sale.CustomerID)+"/sales", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["count"])

	w = f.do(t, http.MethodDelete, "/customers/"+itoa(free.ID), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, http.MethodGet, "/customers/"+itoa(free.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.CustomerNotFound, errorCode(decode(t, w)))
}
