package model

import (
	"encoding/json"
	"strings"
	"time"
)

type CustomerType string
type ContactMethod string

const (
	CustomerTypeIndividual CustomerType = "INDIVIDUAL"
	CustomerTypeBusiness   CustomerType = "BUSINESS"
	CustomerTypeFleet      CustomerType = "FLEET"

	ContactEmail ContactMethod = "EMAIL"
	ContactPhone ContactMethod = "PHONE"
	ContactSMS   ContactMethod = "SMS"
	ContactMail  ContactMethod = "MAIL"
)

const (
	MinCreditScore = 300
	MaxCreditScore = 850
)

func (t CustomerType) Valid() bool {
	switch t {
	case CustomerTypeIndividual, CustomerTypeBusiness, CustomerTypeFleet:
		return true
	}
	return false
}

type Customer struct {
	ID                     uint          `gorm:"primarykey" json:"id"`
	FirstName              string        `gorm:"type:varchar(50);not null" json:"first_name" validate:"required,max=50"`
	LastName               string        `gorm:"type:varchar(50);not null" json:"last_name" validate:"required,max=50"`
	Email                  string        `gorm:"type:varchar(100);uniqueIndex;not null" json:"email" validate:"required,email,max=100"`
	Phone                  string        `gorm:"type:varchar(20)" json:"phone,omitempty" validate:"omitempty,phone"`
	DateOfBirth            *time.Time    `json:"date_of_birth,omitempty"`
	Address                string        `gorm:"type:varchar(200)" json:"address,omitempty" validate:"max=200"`
	City                   string        `gorm:"type:varchar(50)" json:"city,omitempty" validate:"max=50"`
	State                  string        `gorm:"type:varchar(50);index" json:"state,omitempty" validate:"max=50"`
	ZipCode                string        `gorm:"type:varchar(10)" json:"zip_code,omitempty" validate:"max=10"`
	Country                string        `gorm:"type:varchar(50)" json:"country,omitempty" validate:"max=50"`
	DriverLicense          string        `gorm:"type:varchar(50)" json:"driver_license,omitempty" validate:"max=50"`
	CustomerType           CustomerType  `gorm:"type:varchar(20);not null;index" json:"customer_type" validate:"omitempty,oneof=INDIVIDUAL BUSINESS FLEET"`
	CompanyName            string        `gorm:"type:varchar(100)" json:"company_name,omitempty" validate:"max=100"`
	TaxID                  string        `gorm:"type:varchar(50)" json:"tax_id,omitempty" validate:"max=50"`
	CreditScore            *int          `json:"credit_score,omitempty" validate:"omitempty,min=300,max=850"`
	PreferredContactMethod ContactMethod `gorm:"type:varchar(10)" json:"preferred_contact_method" validate:"omitempty,oneof=EMAIL PHONE SMS MAIL"`
	Notes                  string        `gorm:"type:text" json:"notes,omitempty" validate:"max=1000"`
	IsActive               bool          `gorm:"not null;index" json:"is_active"` // no gorm default, false must persist
	CreatedAt              time.Time     `json:"created_at"`
	UpdatedAt              time.Time     `json:"updated_at"`
}

func (Customer) TableName() string {
	return "customers"
}

// Validate checks field constraints against now for the date of birth.
func (c *Customer) Validate(now time.Time) error {
	verr := validateStruct(c)
	checkPast(verr, "date_of_birth", c.DateOfBirth, now)
	return verr.OrNil()
}

func (c *Customer) ApplyDefaults() {
	if c.CustomerType == "" {
		c.CustomerType = CustomerTypeIndividual
	}
	if c.PreferredContactMethod == "" {
		c.PreferredContactMethod = ContactEmail
	}
}

// NormalizeEmail lowercases and trims so uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (c *Customer) FullName() string {
	return c.FirstName + " " + c.LastName
}

// DisplayName prefers the company for business customers.
func (c *Customer) DisplayName() string {
	if c.CustomerType == CustomerTypeBusiness && c.CompanyName != "" {
		return c.CompanyName + " (" + c.FullName() + ")"
	}
	return c.FullName()
}

func (c *Customer) FullAddress() string {
	var parts []string
	for _, p := range []string{c.Address, c.City, c.State, c.ZipCode, c.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func (c Customer) MarshalJSON() ([]byte, error) {
	type customer Customer
	return json.Marshal(struct {
		customer
		FullName    string `json:"full_name"`
		DisplayName string `json:"display_name"`
	}{
		customer:    customer(c),
		FullName:    c.FullName(),
		DisplayName: c.DisplayName(),
	})
}
