package service

import (
	"testing"
	"time"

	"github.com/ikkim/dealer-backend/internal/app/model"
	"github.com/ikkim/dealer-backend/internal/app/repository"
	apperrors "github.com/ikkim/dealer-backend/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomerService_CreateCustomer_Defaults(t *testing.T) {
	f := setupSaleFixture(t)

	c, err := f.customers.CreateCustomer(&model.Customer{
		FirstName: "Sam",
		LastName:  "Lee",
		Email:     "Sam.Lee@Example.com",
		IsActive:  false,
	})
	require.NoError(t, err)

	assert.NotZero(t, c.ID)
	assert.Equal(t, "sam.lee@example.com", c.Email)
	assert.True(t, c.IsActive)
	assert.Equal(t, model.CustomerTypeIndividual, c.CustomerType)
	assert.Equal(t, model.ContactEmail, c.PreferredContactMethod)
}

func TestCustomerService_CreateCustomer_DuplicateEmail(t *testing.T) {
	f := setupSaleFixture(t)
	f.customer(t, "dup@example.com")

	_, err := f.customers.CreateCustomer(&model.Customer{
		FirstName: "Other",
		LastName:  "Person",
		Email:     "DUP@example.com",
	})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestCustomerService_CreateCustomer_Validation(t *testing.T) {
	f := setupSaleFixture(t)
	future := fixedNow.AddDate(1, 0, 0)
	score := 900

	_, err := f.customers.CreateCustomer(&model.Customer{
		Email:       "not-an-email",
		Phone:       "12",
		DateOfBirth: &future,
		CreditScore: &score,
	})
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	for _, field := range []string{"first_name", "last_name", "email", "phone", "date_of_birth", "credit_score"} {
		assert.True(t, verr.Has(field), "expected violation on %s", field)
	}
}

func TestCustomerService_UpdateCustomer(t *testing.T) {
	f := setupSaleFixture(t)
	c := f.customer(t, "first@example.com")
	f.customer(t, "taken@example.com")
	dob := time.Date(1985, time.March, 2, 0, 0, 0, 0, time.UTC)

	updated, err := f.customers.UpdateCustomer(c.ID, &model.Customer{
		FirstName:   "Janet",
		LastName:    "Doe",
		Email:       "first@example.com",
		City:        "Austin",
		State:       "TX",
		DateOfBirth: &dob,
	})
	require.NoError(t, err)
	assert.Equal(t, "Janet", updated.FirstName)
	assert.Equal(t, "Austin, TX", updated.FullAddress())
	assert.True(t, updated.IsActive)

	_, err = f.customers.UpdateCustomer(c.ID, &model.Customer{
		FirstName: "Janet",
		LastName:  "Doe",
		Email:     "taken@example.com",
	})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	_, err = f.customers.UpdateCustomer(404, &model.Customer{})
	assert.ErrorIs(t, err, ErrCustomerNotFound)
}

func TestCustomerService_Activation(t *testing.T) {
	f := setupSaleFixture(t)
	c := f.customer(t, "active@example.com")

	deactivated, err := f.customers.DeactivateCustomer(c.ID)
	require.NoError(t, err)
	assert.False(t, deactivated.IsActive)

	stored, err := f.customers.GetCustomer(c.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	active := true
	list, total, err := f.customers.ListCustomers(repository.CustomerFilter{Active: &active})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, list)

	activated, err := f.customers.ActivateCustomer(c.ID)
	require.NoError(t, err)
	assert.True(t, activated.IsActive)
}

func TestCustomerService_UpdateCreditScore(t *testing.T) {
	f := setupSaleFixture(t)
	c := f.customer(t, "score@example.com")

	updated, err := f.customers.UpdateCreditScore(c.ID, 720)
	require.NoError(t, err)
	require.NotNil(t, updated.CreditScore)
	assert.Equal(t, 720, *updated.CreditScore)

	_, err = f.customers.UpdateCreditScore(c.ID, 299)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	_, err = f.customers.UpdateCreditScore(c.ID, 851)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.customers.UpdateCreditScore(999, 700)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCustomerService_DeleteCustomer(t *testing.T) {
	f := setupSaleFixture(t)
	buyer := f.customer(t, "buyer@example.com")
	browser := f.customer(t, "browser@example.com")
	v := f.vehicle(t, "20000.00", "25000.00")
	f.pendingSale(t, v, buyer, "24000.00")

	assert.ErrorIs(t, f.customers.DeleteCustomer(buyer.ID), ErrCustomerHasSales)
	require.NoError(t, f.customers.DeleteCustomer(browser.ID))

	_, err := f.customers.GetCustomer(browser.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
