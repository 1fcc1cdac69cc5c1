package controller

import (
	"net/http"
	"testing"

	"github.com/ikkim/dealer-backend/internal/app/model"
	apperrors "github.com/ikkim/dealer-backend/internal/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSaleRoutes(t *testing.T) *apiFixture {
	f := setupAPI(t)
	ctrl := NewSaleController(f.sales)
	f.router.GET("/sales", ctrl.ListSales)
	f.router.GET("/sales/pending", ctrl.ListPending)
	f.router.GET("/sales/status-counts", ctrl.CountByStatus)
	f.router.GET("/sales/:id", ctrl.GetSale)
	f.router.GET("/vehicles/:id/sales", ctrl.ListByVehicle)
	f.router.POST("/sales", ctrl.CreateSale)
	f.router.PUT("/sales/:id", ctrl.UpdateSale)
	f.router.POST("/sales/:id/approve", ctrl.ApproveSale)
	f.router.POST("/sales/:id/complete", ctrl.CompleteSale)
	f.router.POST("/sales/:id/cancel", ctrl.CancelSale)
	f.router.POST("/sales/:id/refund", ctrl.RefundSale)
	return f
}

func TestSaleController_CreateSale(t *testing.T) {
	f := setupSaleRoutes(t)
	v := f.vehicle(t)
	c := f.customer(t, "create@example.com")

	w := f.do(t, http.MethodPost, "/sales", map[string]interface{}{
		"vehicle_id":      v.ID,
		"customer_id":     c.ID,
		"sale_price":      "24000.00",
		"commission_rate": "2.5",
		"payment_method":  "FINANCING",
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sale := decode(t, w)["sale"].(map[string]interface{})
	assert.Equal(t, "PENDING", sale["status"])
	assert.Equal(t, "manager@dealer.test", sale["salesperson_email"])
	assert.True(t, decimal.RequireFromString(sale["commission_amount"].(string)).Equal(decimal.NewFromInt(600)))

	vehicle, err := f.vehicles.GetVehicle(v.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VehicleStatusReserved, vehicle.Status)
}

func TestSaleController_CreateSale_SaleDate(t *testing.T) {
	f := setupSaleRoutes(t)
	c := f.customer(t, "dated@example.com")

	tests := []struct {
		name     string
		saleDate string
		want     string
	}{
		{name: "Calendar day", saleDate: "2024-03-05", want: "2024-03-05T00:00:00Z"},
		{name: "Timestamp keeps its UTC day", saleDate: "2024-03-05T18:45:00-08:00", want: "2024-03-06T00:00:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := f.vehicle(t)
			w := f.do(t, http.MethodPost, "/sales", map[string]interface{}{
				"vehicle_id":  v.ID,
				"customer_id": c.ID,
				"sale_price":  "24000.00",
				"sale_date":   tt.saleDate,
			})
			require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
			sale := decode(t, w)["sale"].(map[string]interface{})
			assert.Equal(t, tt.want, sale["sale_date"])
		})
	}

	v := f.vehicle(t)
	w := f.do(t, http.MethodPost, "/sales", map[string]interface{}{
		"vehicle_id":  v.ID,
		"customer_id": c.ID,
		"sale_price":  "24000.00",
		"sale_date":   "03/05/2024",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "YYYY-MM-DD")
}

func TestSaleController_CreateSale_Rejections(t *testing.T) {
	f := setupSaleRoutes(t)
	sold := f.vehicle(t)
	_, err := f.vehicles.MarkSold(sold.ID)
	require.NoError(t, err)
	free := f.vehicle(t)
	active := f.customer(t, "active@example.com")
	inactive := f.customer(t, "inactive@example.com")
	_, err = f.customers.DeactivateCustomer(inactive.ID)
	require.NoError(t, err)

	tests := []struct {
		name       string
		vehicleID  uint
		customerID uint
		wantStatus int
		wantCode   string
	}{
		{name: "Unknown vehicle", vehicleID: 9999, customerID: active.ID, wantStatus: http.StatusNotFound, wantCode: apperrors.VehicleNotFound},
		{name: "Unknown customer", vehicleID: free.ID, customerID: 9999, wantStatus: http.StatusNotFound, wantCode: apperrors.CustomerNotFound},
		{name: "Vehicle sold", vehicleID: sold.ID, customerID: active.ID, wantStatus: http.StatusConflict, wantCode: apperrors.VehicleNotAvailable},
		{name: "Customer inactive", vehicleID: free.ID, customerID: inactive.ID, wantStatus: http.StatusConflict, wantCode: apperrors.CustomerInactive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/sales", map[string]interface{}{
				"vehicle_id":  tt.vehicleID,
				"customer_id": tt.customerID,
				"sale_price":  "20000",
			})
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.wantCode, errorCode(decode(t, w)))
		})
	}

	vehicle, err := f.vehicles.GetVehicle(free.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VehicleStatusAvailable, vehicle.Status, "rejected sales leave the vehicle untouched")
}

func TestSaleController_FullLifecycle(t *testing.T) {
	f := setupSaleRoutes(t)
	sale := f.pendingSale(t)
	base := "/sales/" + itoa(sale.ID)

	w := f.do(t, http.MethodPost, base+"/complete", nil)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperrors.SaleInvalidTransition, errorCode(decode(t, w)))

	w = f.do(t, http.MethodPost, base+"/approve", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "APPROVED", decode(t, w)["sale"].(map[string]interface{})["status"])

	w = f.do(t, http.MethodPost, base+"/complete", nil)
	require.Equal(t, http.StatusOK, w.Code)
	completed := decode(t, w)["sale"].(map[string]interface{})
	assert.Equal(t, "COMPLETED", completed["status"])
	assert.Equal(t, true, completed["is_finalized"])
	assert.NotNil(t, completed["contract_signed_at"])

	w = f.do(t, http.MethodPut, base, map[string]interface{}{"sale_price": "1.00"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperrors.SaleFinalized, errorCode(decode(t, w)))

	w = f.do(t, http.MethodPost, base+"/refund", map[string]string{"reason": "lemon"})
	require.Equal(t, http.StatusOK, w.Code)
	refunded := decode(t, w)["sale"].(map[string]interface{})
	assert.Equal(t, "REFUNDED", refunded["status"])
	assert.Contains(t, refunded["notes"], "Refund reason: lemon")

	vehicle, err := f.vehicles.GetVehicle(sale.VehicleID)
	require.NoError(t, err)
	assert.Equal(t, model.VehicleStatusAvailable, vehicle.Status)
}

func TestSaleController_CancelSale(t *testing.T) {
	f := setupSaleRoutes(t)
	sale := f.pendingSale(t)

	w := f.do(t, http.MethodPost, "/sales/"+itoa(sale.ID)+"/cancel", map[string]string{"reason": "changed mind"})
	require.Equal(t, http.StatusOK, w.Code)
	cancelled := decode(t, w)["sale"].(map[string]interface{})
	assert.Equal(t, "CANCELLED", cancelled["status"])
	assert.Contains(t, cancelled["notes"], "Cancellation reason: changed mind")

	w = f.do(t, http.MethodPost, "/sales/"+itoa(sale.ID)+"/cancel", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(t, http.MethodPost, "/sales/9999/cancel", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.SaleNotFound, errorCode(decode(t, w)))
}

func TestSaleController_Listings(t *testing.T) {
	f := setupSaleRoutes(t)
	first := f.pendingSale(t)
	second := f.pendingSale(t)
	_, err := f.sales.ApproveSale(second.ID)
	require.NoError(t, err)

	w := f.do(t, http.MethodGet, "/sales?status=APPROVED", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Len(t, body["sales"], 1)
	assert.EqualValues(t, 1, body["pagination"].(map[string]interface{})["total"])

	w = f.do(t, http.MethodGet, "/sales/pending", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.EqualValues(t, 1, body["count"])
	pending := body["sales"].([]interface{})
	require.Len(t, pending, 1)
	assert.EqualValues(t, first.ID, pending[0].(map[string]interface{})["id"])

	w = f.do(t, http.MethodGet, "/sales/status-counts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	counts := decode(t, w)["counts"].(map[string]interface{})
	assert.EqualValues(t, 1, counts["PENDING"])
	assert.EqualValues(t, 1, counts["APPROVED"])
	assert.EqualValues(t, 0, counts["REFUNDED"])

	w = f.do(t, http.MethodGet, "/vehicles/"+itoa(first.VehicleID)+"/sales", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["count"])

	w = f.do(t, http.MethodGet, "/sales/"+itoa(first.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	sale := decode(t, w)["sale"].(map[string]interface{})
	assert.NotNil(t, sale["vehicle"])
	assert.NotNil(t, sale["customer"])

	w = f.do(t, http.MethodGet, "/sales?status=DONE&from=yesterday", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	fields := decode(t, w)["fields"].(map[string]interface{})
	assert.Contains(t, fields, "status")
	assert.Contains(t, fields, "from")
}
