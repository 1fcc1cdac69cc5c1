package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ikkim/dealer-backend/internal/errors"
)

func TestCustomerValidate(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	future := now.AddDate(0, 0, 1)
	score := 900

	c := &Customer{
		Email:        "nope",
		Phone:        "12-34",
		DateOfBirth:  &future,
		CreditScore:  &score,
		CustomerType: "GOVERNMENT",
	}

	var verr *apperrors.ValidationError
	require.ErrorAs(t, c.Validate(now), &verr)
	for _, field := range []string{"first_name", "last_name", "email", "phone", "date_of_birth", "credit_score", "customer_type"} {
		assert.True(t, verr.Has(field), "expected violation for %s", field)
	}
}

func TestCustomerValidateAcceptsOptionalFieldsUnset(t *testing.T) {
	now := time.Now()
	born := now.AddDate(-30, 0, 0)
	score := 300

	c := &Customer{
		FirstName:   "Ada",
		LastName:    "Lovelace",
		Email:       "ada@example.com",
		Phone:       "+15551234567",
		DateOfBirth: &born,
		CreditScore: &score,
	}
	assert.NoError(t, c.Validate(now))
}

func TestCustomerNames(t *testing.T) {
	c := &Customer{FirstName: "Jane", LastName: "Doe", CustomerType: CustomerTypeBusiness, CompanyName: "Acme"}
	assert.Equal(t, "Jane Doe", c.FullName())
	assert.Equal(t, "Acme (Jane Doe)", c.DisplayName())

	c.CustomerType = CustomerTypeIndividual
	assert.Equal(t, "Jane Doe", c.DisplayName())

	c.City, c.State = "Austin", "TX"
	assert.Equal(t, "Austin, TX", c.FullAddress())
}

func TestCustomerDefaultsAndEmail(t *testing.T) {
	c := &Customer{}
	c.ApplyDefaults()
	assert.Equal(t, CustomerTypeIndividual, c.CustomerType)
	assert.Equal(t, ContactEmail, c.PreferredContactMethod)

	assert.Equal(t, "jane@example.com", NormalizeEmail("  Jane@Example.COM "))
}
