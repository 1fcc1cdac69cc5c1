package service

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ikkim/dealer-backend/internal/app/model"
	"github.com/ikkim/dealer-backend/internal/app/repository"
	"github.com/ikkim/dealer-backend/internal/db"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2024, time.June, 15, 10, 30, 0, 0, time.UTC)

func fixedClock() time.Time {
	return fixedNow
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})
	return testDB
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.SaleEvent
}

func (p *recordingPublisher) Publish(event model.SaleEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) types() []model.SaleEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]model.SaleEventType, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

type saleFixture struct {
	db        *gorm.DB
	vehicles  VehicleService
	customers CustomerService
	sales     SaleService
	publisher *recordingPublisher
}

func setupSaleFixture(t *testing.T) *saleFixture {
	testDB := setupTestDB(t)
	vehicleRepo := repository.NewVehicleRepository(testDB)
	customerRepo := repository.NewCustomerRepository(testDB)
	saleRepo := repository.NewSaleRepository(testDB)

	vehicles := NewVehicleService(vehicleRepo, fixedClock)
	publisher := &recordingPublisher{}
	return &saleFixture{
		db:        testDB,
		vehicles:  vehicles,
		customers: NewCustomerService(customerRepo, fixedClock),
		sales: NewSaleService(testDB, saleRepo, vehicleRepo, customerRepo, vehicles,
			WithSaleEventPublisher(publisher),
			WithSaleClock(fixedClock),
		),
		publisher: publisher,
	}
}

var vinSeq int

func nextVIN() string {
	vinSeq++
	return fmt.Sprintf("2T1BURHE0%08d", vinSeq)
}

func (f *saleFixture) vehicle(t *testing.T, purchase, selling string) *model.Vehicle {
	t.Helper()
	v, err := f.vehicles.CreateVehicle(&model.Vehicle{
		VIN:           nextVIN(),
		Make:          "Toyota",
		Model:         "Camry",
		Year:          2023,
		PurchasePrice: model.DecimalPtr(purchase),
		SellingPrice:  model.DecimalPtr(selling),
	})
	require.NoError(t, err)
	return v
}

func (f *saleFixture) customer(t *testing.T, email string) *model.Customer {
	t.Helper()
	c, err := f.customers.CreateCustomer(&model.Customer{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     email,
	})
	require.NoError(t, err)
	return c
}

func (f *saleFixture) pendingSale(t *testing.T, v *model.Vehicle, c *model.Customer, price string) *model.Sale {
	t.Helper()
	sale, err := f.sales.CreateSale(&model.Sale{
		VehicleID:        v.ID,
		CustomerID:       c.ID,
		SalePrice:        model.DecimalPtr(price),
		SalespersonEmail: "rep@dealer.test",
		CommissionRate:   model.DecimalPtr("3"),
	})
	require.NoError(t, err)
	return sale
}

func (f *saleFixture) reloadVehicle(t *testing.T, id uint) *model.Vehicle {
	t.Helper()
	v, err := f.vehicles.GetVehicle(id)
	require.NoError(t, err)
	return v
}
