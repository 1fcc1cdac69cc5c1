package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/dealer-backend/internal/app/model"
	"github.com/ikkim/dealer-backend/internal/app/repository"
	"github.com/ikkim/dealer-backend/internal/app/service"
	"github.com/ikkim/dealer-backend/internal/db"
	"github.com/ikkim/dealer-backend/internal/middleware"
	"github.com/stretchr/testify/require"
)

// apiFixture wires real services over the sqlite test database and a gin
// engine whose requests arrive as an authenticated manager.
type apiFixture struct {
	router    *gin.Engine
	vehicles  service.VehicleService
	customers service.CustomerService
	sales     service.SaleService
	analytics service.AnalyticsService
}

func setupAPI(t *testing.T) *apiFixture {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	vehicleRepo := repository.NewVehicleRepository(testDB)
	customerRepo := repository.NewCustomerRepository(testDB)
	saleRepo := repository.NewSaleRepository(testDB)

	vehicles := service.NewVehicleService(vehicleRepo, nil)
	customers := service.NewCustomerService(customerRepo, nil)
	sales := service.NewSaleService(testDB, saleRepo, vehicleRepo, customerRepo, vehicles)
	analytics := service.NewAnalyticsService(saleRepo, vehicleRepo, customerRepo)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.UserIDKey, uint(1))
		c.Set(middleware.UserEmailKey, "manager@dealer.test")
		c.Set(middleware.UserRoleKey, model.RoleManager)
		c.Next()
	})

	return &apiFixture{
		router:    router,
		vehicles:  vehicles,
		customers: customers,
		sales:     sales,
		analytics: analytics,
	}
}

func (f *apiFixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	return f.doAs(t, method, path, "", body)
}

// doAs sends body as JSON, with a bearer token when one is given.
func (f *apiFixture) doAs(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		payload = data
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

var vinSeq int

func nextVIN() string {
	vinSeq++
	return fmt.Sprintf("1HGCM82633A%06d", vinSeq)
}

func (f *apiFixture) vehicle(t *testing.T) *model.Vehicle {
	t.Helper()
	v, err := f.vehicles.CreateVehicle(&model.Vehicle{
		VIN:           nextVIN(),
		Make:          "Honda",
		Model:         "Accord",
		Year:          2022,
		PurchasePrice: model.DecimalPtr("20000.00"),
		SellingPrice:  model.DecimalPtr("25000.00"),
	})
	require.NoError(t, err)
	return v
}

func (f *apiFixture) customer(t *testing.T, email string) *model.Customer {
	t.Helper()
	c, err := f.customers.CreateCustomer(&model.Customer{
		FirstName: "Sam",
		LastName:  "Buyer",
		Email:     email,
	})
	require.NoError(t, err)
	return c
}

func (f *apiFixture) pendingSale(t *testing.T) *model.Sale {
	t.Helper()
	v := f.vehicle(t)
	c := f.customer(t, fmt.Sprintf("buyer%d@example.com", v.ID))
	sale, err := f.sales.CreateSale(&model.Sale{
		VehicleID:  v.ID,
		CustomerID: c.ID,
		SalePrice:  model.DecimalPtr("24500.00"),
	})
	require.NoError(t, err)
	return sale
}

func errorCode(body map[string]interface{}) string {
	code, _ := body["error"].(string)
	return code
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
