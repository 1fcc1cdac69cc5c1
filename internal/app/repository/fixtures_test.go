package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/ikkim/dealer-backend/internal/app/model"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var vinSeq int

func newVehicle(t *testing.T, tx *gorm.DB, brand string, status model.VehicleStatus, purchase, selling string) *model.Vehicle {
	t.Helper()
	vinSeq++
	v := &model.Vehicle{
		VIN:       fmt.Sprintf("1HGCM8263%08d", vinSeq),
		Make:      brand,
		Model:     "Model",
		Year:      2022,
		Status:    status,
		Condition: model.ConditionNew,
	}
	if purchase != "" {
		v.PurchasePrice = model.DecimalPtr(purchase)
	}
	if selling != "" {
		v.SellingPrice = model.DecimalPtr(selling)
	}
	require.NoError(t, tx.Create(v).Error)
	return v
}

func newCustomer(t *testing.T, tx *gorm.DB, email, state string, customerType model.CustomerType, active bool) *model.Customer {
	t.Helper()
	c := &model.Customer{
		FirstName:    "Test",
		LastName:     "Customer",
		Email:        email,
		State:        state,
		CustomerType: customerType,
		IsActive:     active,
	}
	require.NoError(t, tx.Create(c).Error)
	return c
}

func newSale(t *testing.T, tx *gorm.DB, v *model.Vehicle, c *model.Customer, status model.SaleStatus, price string, date time.Time) *model.Sale {
	t.Helper()
	s := &model.Sale{
		VehicleID:     v.ID,
		CustomerID:    c.ID,
		SaleDate:      date,
		SalePrice:     model.DecimalPtr(price),
		PaymentMethod: model.PaymentCash,
		Status:        status,
		Version:       1,
	}
	require.NoError(t, tx.Omit("Vehicle", "Customer").Create(s).Error)
	return s
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
