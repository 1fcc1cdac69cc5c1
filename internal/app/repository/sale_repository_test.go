package repository

import (
	"testing"

	"github.com/ikkim/dealer-backend/internal/app/model"
	"github.com/ikkim/dealer-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupSaleTest(t *testing.T) (*gorm.DB, SaleRepository) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	return testDB, NewSaleRepository(testDB)
}

func TestSaleRepository_FindByIDLoadsAssociations(t *testing.T) {
	testDB, repo := setupSaleTest(t)
	v := newVehicle(t, testDB, "Honda", model.VehicleStatusReserved, "25000", "29000")
	c := newCustomer(t, testDB, "buyer@example.com", "TX", model.CustomerTypeIndividual, true)
	s := newSale(t, testDB, v, c, model.SaleStatusPending, "28000", day(2024, 2, 1))

	found, err := repo.FindByIDForUpdate(s.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.NotNil(t, found.Vehicle)
	require.NotNil(t, found.Customer)
	assert.Equal(t, v.ID, found.Vehicle.ID)
	assert.Equal(t, "3000.00", found.TotalProfit().StringFixed(2))

	missing, err := repo.FindByID(424242)
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSaleRepository_SaveChecksVersion(t *testing.T) {
	testDB, repo := setupSaleTest(t)
	v := newVehicle(t, testDB, "Honda", model.VehicleStatusReserved, "", "")
	c := newCustomer(t, testDB, "buyer@example.com", "TX", model.CustomerTypeIndividual, true)
	s := newSale(t, testDB, v, c, model.SaleStatusPending, "28000", day(2024, 2, 1))

	first, err := repo.FindByID(s.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(s.ID)
	require.NoError(t, err)

	first.Status = model.SaleStatusApproved
	require.NoError(t, repo.Save(first))
	assert.Equal(t, uint(2), first.Version)

	second.Status = model.SaleStatusCancelled
	err = repo.Save(second)
	assert.ErrorIs(t, err, ErrStaleSale)
	assert.Equal(t, uint(1), second.Version)

	stored, err := repo.FindByID(s.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SaleStatusApproved, stored.Status)
	assert.Equal(t, uint(2), stored.Version)
}

func TestSaleRepository_SaveWritesZeroValues(t *testing.T) {
	testDB, repo := setupSaleTest(t)
	v := newVehicle(t, testDB, "Honda", model.VehicleStatusReserved, "", "")
	c := newCustomer(t, testDB, "buyer@example.com", "TX", model.CustomerTypeIndividual, true)
	s := newSale(t, testDB, v, c, model.SaleStatusPending, "28000", day(2024, 2, 1))

	loaded, err := repo.FindByID(s.ID)
	require.NoError(t, err)
	loaded.CommissionRate = model.DecimalPtr("3")
	loaded.RecalculateCommission()
	loaded.Notes = "first"
	require.NoError(t, repo.Save(loaded))

	loaded.CommissionRate = nil
	loaded.RecalculateCommission()
	loaded.Notes = ""
	require.NoError(t, repo.Save(loaded))

	stored, err := repo.FindByID(s.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.CommissionRate)
	assert.Nil(t, stored.CommissionAmount)
	assert.Empty(t, stored.Notes)
}

func TestSaleRepository_RevenueAndProfit(t *testing.T) {
	testDB, repo := setupSaleTest(t)
	c := newCustomer(t, testDB, "buyer@example.com", "TX", model.CustomerTypeIndividual, true)

	v1 := newVehicle(t, testDB, "Honda", model.VehicleStatusSold, "25000", "")
	s1 := newSale(t, testDB, v1, c, model.SaleStatusCompleted, "28000", day(2024, 3, 10))
	require.NoError(t, testDB.Model(s1).Updates(map[string]interface{}{
		"commission_amount":      "840",
		"extended_warranty_cost": "500",
	}).Error)

	v2 := newVehicle(t, testDB, "Toyota", model.VehicleStatusSold, "18000", "")
	newSale(t, testDB, v2, c, model.SaleStatusCompleted, "20000", day(2024, 3, 20))

	v3 := newVehicle(t, testDB, "Ford", model.VehicleStatusSold, "10000", "")
	newSale(t, testDB, v3, c, model.SaleStatusCompleted, "12000", day(2024, 5, 2))

	v4 := newVehicle(t, testDB, "Kia", model.VehicleStatusAvailable, "9000", "")
	newSale(t, testDB, v4, c, model.SaleStatusCancelled, "11000", day(2024, 3, 15))

	revenue, err := repo.RevenueBetween(day(2024, 3, 1), day(2024, 4, 1))
	require.NoError(t, err)
	assert.Equal(t, "48000.00", revenue.StringFixed(2))

	// (28000-25000+500-840) + (20000-18000)
	profit, err := repo.ProfitBetween(day(2024, 3, 1), day(2024, 4, 1))
	require.NoError(t, err)
	assert.Equal(t, "4660.00", profit.StringFixed(2))

	avg, err := repo.AverageSalePrice()
	require.NoError(t, err)
	assert.Equal(t, "20000.00", avg.StringFixed(2))

	empty, err := repo.RevenueBetween(day(2020, 1, 1), day(2020, 2, 1))
	require.NoError(t, err)
	assert.True(t, empty.IsZero())
}

func TestSaleRepository_MonthlyReportAscending(t *testing.T) {
	testDB, repo := setupSaleTest(t)
	c := newCustomer(t, testDB, "buyer@example.com", "TX", model.CustomerTypeIndividual, true)
	v := newVehicle(t, testDB, "Honda", model.VehicleStatusSold, "", "")

	newSale(t, testDB, v, c, model.SaleStatusCompleted, "10000", day(2024, 2, 3))
	newSale(t, testDB, v, c, model.SaleStatusCompleted, "15000", day(2023, 12, 30))
	newSale(t, testDB, v, c, model.SaleStatusCompleted, "5000", day(2024, 2, 27))
	newSale(t, testDB, v, c, model.SaleStatusPending, "99999", day(2024, 1, 10))

	rows, err := repo.MonthlySalesReport()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 2023, rows[0].Year)
	assert.Equal(t, 12, rows[0].Month)
	assert.Equal(t, int64(1), rows[0].SalesCount)
	assert.Equal(t, "15000.00", rows[0].Revenue.StringFixed(2))

	assert.Equal(t, 2024, rows[1].Year)
	assert.Equal(t, 2, rows[1].Month)
	assert.Equal(t, int64(2), rows[1].SalesCount)
	assert.Equal(t, "15000.00", rows[1].Revenue.StringFixed(2))
}

func TestSaleRepository_PerformanceAndDistribution(t *testing.T) {
	testDB, repo := setupSaleTest(t)
	c := newCustomer(t, testDB, "buyer@example.com", "TX", model.CustomerTypeIndividual, true)
	v := newVehicle(t, testDB, "Honda", model.VehicleStatusSold, "", "")

	withRep := func(s *model.Sale, email string, method model.PaymentMethod) {
		require.NoError(t, testDB.Model(s).Updates(map[string]interface{}{
			"salesperson_email": email,
			"payment_method":    method,
		}).Error)
	}

	withRep(newSale(t, testDB, v, c, model.SaleStatusCompleted, "10000", day(2024, 1, 1)), "ann@dealer.test", model.PaymentCash)
	withRep(newSale(t, testDB, v, c, model.SaleStatusCompleted, "20000", day(2024, 1, 2)), "bob@dealer.test", model.PaymentFinancing)
	withRep(newSale(t, testDB, v, c, model.SaleStatusCompleted, "15000", day(2024, 1, 3)), "ann@dealer.test", model.PaymentFinancing)
	withRep(newSale(t, testDB, v, c, model.SaleStatusPending, "50000", day(2024, 1, 4)), "bob@dealer.test", model.PaymentFinancing)
	newSale(t, testDB, v, c, model.SaleStatusCompleted, "7000", day(2024, 1, 5))

	perf, err := repo.SalespersonPerformance()
	require.NoError(t, err)
	require.Len(t, perf, 2)
	assert.Equal(t, "ann@dealer.test", perf[0].SalespersonEmail)
	assert.Equal(t, int64(2), perf[0].SalesCount)
	assert.Equal(t, "25000.00", perf[0].TotalRevenue.StringFixed(2))
	assert.Equal(t, "bob@dealer.test", perf[1].SalespersonEmail)
	assert.Equal(t, int64(1), perf[1].SalesCount)

	dist, err := repo.PaymentMethodDistribution()
	require.NoError(t, err)
	assert.Equal(t, []model.CountByKey{
		{Key: string(model.PaymentFinancing), Count: 3},
		{Key: string(model.PaymentCash), Count: 2},
	}, dist)
}

func TestSaleRepository_ListFilters(t *testing.T) {
	testDB, repo := setupSaleTest(t)
	c := newCustomer(t, testDB, "buyer@example.com", "TX", model.CustomerTypeIndividual, true)
	other := newCustomer(t, testDB, "other@example.com", "TX", model.CustomerTypeIndividual, true)
	v := newVehicle(t, testDB, "Honda", model.VehicleStatusSold, "", "")

	newSale(t, testDB, v, c, model.SaleStatusCompleted, "10000", day(2024, 1, 1))
	newSale(t, testDB, v, c, model.SaleStatusPending, "20000", day(2024, 2, 1))
	newSale(t, testDB, v, other, model.SaleStatusPending, "30000", day(2024, 3, 1))

	sales, total, err := repo.List(SaleFilter{CustomerID: c.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, sales, 2)
	assert.True(t, sales[0].SaleDate.After(sales[1].SaleDate))

	from, to := day(2024, 2, 1), day(2024, 4, 1)
	sales, total, err = repo.List(SaleFilter{Status: model.SaleStatusPending, From: &from, To: &to, MinPrice: model.DecimalPtr("25000")})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, sales, 1)
	assert.Equal(t, other.ID, sales[0].CustomerID)

	pending, err := repo.FindPendingUnfinalized()
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	count, err := repo.CountByStatus(model.SaleStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
