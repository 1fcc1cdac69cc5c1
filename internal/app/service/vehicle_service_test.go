package service

import (
	"testing"

	"github.com/ikkim/dealer-backend/internal/app/model"
	"github.com/ikkim/dealer-backend/internal/app/repository"
	apperrors "github.com/ikkim/dealer-backend/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVehicleService_CreateVehicle_AppliesDefaults(t *testing.T) {
	f := setupSaleFixture(t)

	v, err := f.vehicles.CreateVehicle(&model.Vehicle{
		VIN:   " 1hgcm82633a004352 ",
		Make:  "Honda",
		Model: "Accord",
		Year:  2021,
	})
	require.NoError(t, err)

	assert.NotZero(t, v.ID)
	assert.Equal(t, "1HGCM82633A004352", v.VIN)
	assert.Equal(t, model.VehicleStatusAvailable, v.Status)
	assert.Equal(t, model.ConditionNew, v.Condition)
	require.NotNil(t, v.PurchaseDate)
	assert.Equal(t, "2024-06-15", v.PurchaseDate.Format("2006-01-02"))
}

func TestVehicleService_CreateVehicle_DuplicateVIN(t *testing.T) {
	f := setupSaleFixture(t)
	existing := f.vehicle(t, "20000.00", "25000.00")

	_, err := f.vehicles.CreateVehicle(&model.Vehicle{
		VIN:   existing.VIN,
		Make:  "Ford",
		Model: "Focus",
		Year:  2020,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.ErrorIs(t, err, ErrDuplicateVIN)
}

func TestVehicleService_CreateVehicle_ReportsEveryViolation(t *testing.T) {
	f := setupSaleFixture(t)

	_, err := f.vehicles.CreateVehicle(&model.Vehicle{
		VIN:           "SHORT",
		Year:          1850,
		Mileage:       -5,
		PurchasePrice: model.DecimalPtr("-1.00"),
	})
	require.Error(t, err)

	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	for _, field := range []string{"vin", "make", "model", "year", "mileage", "purchase_price"} {
		assert.True(t, verr.Has(field), "expected violation on %s", field)
	}
}

func TestVehicleService_StatusOperations(t *testing.T) {
	f := setupSaleFixture(t)
	v := f.vehicle(t, "20000.00", "25000.00")

	got, err := f.vehicles.Reserve(v.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VehicleStatusReserved, got.Status)

	_, err = f.vehicles.MarkSold(v.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VehicleStatusSold, f.reloadVehicle(t, v.ID).Status)

	_, err = f.vehicles.MarkForMaintenance(v.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VehicleStatusMaintenance, f.reloadVehicle(t, v.ID).Status)

	_, err = f.vehicles.MakeAvailable(v.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VehicleStatusAvailable, f.reloadVehicle(t, v.ID).Status)
}

func TestVehicleService_SetStatus_RejectsUnknownStatus(t *testing.T) {
	f := setupSaleFixture(t)
	v := f.vehicle(t, "20000.00", "25000.00")

	_, err := f.vehicles.SetStatus(v.ID, model.VehicleStatus("SCRAPPED"))
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Equal(t, model.VehicleStatusAvailable, f.reloadVehicle(t, v.ID).Status)
}

func TestVehicleService_StatusOperations_NotFound(t *testing.T) {
	f := setupSaleFixture(t)

	_, err := f.vehicles.Reserve(999)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.ErrorIs(t, err, ErrVehicleNotFound)
}

func TestVehicleService_UpdateVehicle(t *testing.T) {
	f := setupSaleFixture(t)
	v := f.vehicle(t, "20000.00", "25000.00")
	other := f.vehicle(t, "18000.00", "21000.00")

	updated, err := f.vehicles.UpdateVehicle(v.ID, &model.Vehicle{
		Make:         "Toyota",
		Model:        "Camry Hybrid",
		Year:         2023,
		Mileage:      1200,
		SellingPrice: model.DecimalPtr("26500.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Camry Hybrid", updated.Model)
	assert.Equal(t, v.VIN, updated.VIN)
	assert.Equal(t, model.VehicleStatusAvailable, updated.Status)

	_, err = f.vehicles.UpdateVehicle(v.ID, &model.Vehicle{
		VIN:   other.VIN,
		Make:  "Toyota",
		Model: "Camry",
		Year:  2023,
	})
	assert.ErrorIs(t, err, ErrDuplicateVIN)
}

func TestVehicleService_DeleteVehicle(t *testing.T) {
	f := setupSaleFixture(t)
	unsold := f.vehicle(t, "20000.00", "25000.00")
	sold := f.vehicle(t, "20000.00", "25000.00")
	c := f.customer(t, "buyer@example.com")

	sale := f.pendingSale(t, sold, c, "24000.00")
	_, err := f.sales.CancelSale(sale.ID, "changed mind")
	require.NoError(t, err)

	// a cancelled sale still blocks deletion
	err = f.vehicles.DeleteVehicle(sold.ID)
	assert.ErrorIs(t, err, ErrVehicleHasSales)

	require.NoError(t, f.vehicles.DeleteVehicle(unsold.ID))
	_, err = f.vehicles.GetVehicle(unsold.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.ErrorIs(t, f.vehicles.DeleteVehicle(unsold.ID), apperrors.ErrNotFound)
}

func TestVehicleService_Queries(t *testing.T) {
	f := setupSaleFixture(t)
	a := f.vehicle(t, "20000.00", "25000.00")
	b := f.vehicle(t, "20000.00", "25000.00")
	_, err := f.vehicles.MarkSold(b.ID)
	require.NoError(t, err)

	available, err := f.vehicles.ListAvailable()
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, a.ID, available[0].ID)

	byVIN, err := f.vehicles.GetVehicleByVIN(a.VIN)
	require.NoError(t, err)
	assert.Equal(t, a.ID, byVIN.ID)

	list, total, err := f.vehicles.ListVehicles(repository.VehicleFilter{Make: "toy"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, list, 2)

	_, _, err = f.vehicles.ListVehicles(repository.VehicleFilter{Status: "NOPE"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	low, err := f.vehicles.LowMileage(100)
	require.NoError(t, err)
	assert.Len(t, low, 1)
}

func TestVehicleService_ImportVehicles(t *testing.T) {
	f := setupSaleFixture(t)
	existing := f.vehicle(t, "20000.00", "25000.00")

	result, err := f.vehicles.ImportVehicles([]model.Vehicle{
		{VIN: "5yjsa1e26hf000001", Make: "Tesla", Model: "Model S", Year: 2017},
		{VIN: "5YJSA1E26HF000001", Make: "Tesla", Model: "Model S", Year: 2017},
		{VIN: existing.VIN, Make: "Honda", Model: "Accord", Year: 2020},
		{VIN: "", Make: "Ford", Model: "F-150", Year: 2019},
		{VIN: "1FTFW1ET5DFC00002", Make: "Ford", Model: "F-150", Year: 2019, Mileage: 42000},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Imported)
	assert.Len(t, result.Rejected, 3)
	assert.Contains(t, result.Rejected, "row 4")
	assert.Contains(t, result.Rejected, existing.VIN)

	imported, err := f.vehicles.GetVehicleByVIN("5YJSA1E26HF000001")
	require.NoError(t, err)
	assert.Equal(t, model.VehicleStatusAvailable, imported.Status)
	assert.Equal(t, model.ConditionNew, imported.Condition)
}
