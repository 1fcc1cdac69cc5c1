package service

import (
	"github.com/ikkim/dealer-backend/internal/app/model"
	"github.com/ikkim/dealer-backend/internal/app/repository"
	apperrors "github.com/ikkim/dealer-backend/internal/errors"
	"github.com/ikkim/dealer-backend/pkg/logger"
)

type CustomerService interface {
	CreateCustomer(customer *model.Customer) (*model.Customer, error)
	GetCustomer(id uint) (*model.Customer, error)
	ListCustomers(filter repository.CustomerFilter) ([]model.Customer, int64, error)
	UpdateCustomer(id uint, details *model.Customer) (*model.Customer, error)
	ActivateCustomer(id uint) (*model.Customer, error)
	DeactivateCustomer(id uint) (*model.Customer, error)
	UpdateCreditScore(id uint, score int) (*model.Customer, error)
	DeleteCustomer(id uint) error
}

type customerService struct {
	customerRepo repository.CustomerRepository
	now          Clock
}

func NewCustomerService(customerRepo repository.CustomerRepository, clock Clock) CustomerService {
	if clock == nil {
		clock = utcNow
	}
	return &customerService{
		customerRepo: customerRepo,
		now:          clock,
	}
}

func (s *customerService) CreateCustomer(customer *model.Customer) (*model.Customer, error) {
	customer.ID = 0
	customer.Email = model.NormalizeEmail(customer.Email)
	customer.ApplyDefaults()
	customer.IsActive = true

	logger.Info("Creating customer", map[string]interface{}{
		"email": customer.Email,
		"type":  customer.CustomerType,
	})

	if err := customer.Validate(s.now()); err != nil {
		logFailure("Customer validation failed", err, map[string]interface{}{
			"email": customer.Email,
		})
		return nil, err
	}

	if err := s.ensureEmailFree(customer.Email, 0); err != nil {
		return nil, err
	}

	if err := s.customerRepo.Create(customer); err != nil {
		if isDuplicateKey(err) {
			logger.Warn("Customer creation lost email race", map[string]interface{}{
				"email": customer.Email,
			})
			return nil, ErrDuplicateEmail
		}
		logger.Error("Failed to create customer", err, map[string]interface{}{
			"email": customer.Email,
		})
		return nil, err
	}

	logger.Info("Customer created", map[string]interface{}{
		"customer_id": customer.ID,
	})
	return customer, nil
}

// ensureEmailFree fails when another customer than self already uses email.
func (s *customerService) ensureEmailFree(email string, self uint) error {
	existing, err := s.customerRepo.FindByEmail(email)
	if err != nil {
		logger.Error("Failed to check email uniqueness", err, map[string]interface{}{
			"email": email,
		})
		return err
	}
	if existing != nil && existing.ID != self {
		logger.Warn("Customer email already registered", map[string]interface{}{
			"email":       email,
			"existing_id": existing.ID,
		})
		return ErrDuplicateEmail
	}
	return nil
}

func (s *customerService) GetCustomer(id uint) (*model.Customer, error) {
	customer, err := s.customerRepo.FindByID(id)
	if err != nil {
		logger.Error("Failed to fetch customer", err, map[string]interface{}{
			"customer_id": id,
		})
		return nil, err
	}
	if customer == nil {
		return nil, apperrors.NotFound("customer", id)
	}
	return customer, nil
}

func (s *customerService) ListCustomers(filter repository.CustomerFilter) ([]model.Customer, int64, error) {
	if filter.CustomerType != "" && !filter.CustomerType.Valid() {
		return nil, 0, apperrors.Invalid("customer_type", "must be one of INDIVIDUAL BUSINESS FLEET")
	}
	return s.customerRepo.List(filter)
}

// UpdateCustomer overwrites profile fields. Activation and credit score have
// their own operations.
func (s *customerService) UpdateCustomer(id uint, details *model.Customer) (*model.Customer, error) {
	logger.Info("Updating customer", map[string]interface{}{
		"customer_id": id,
	})

	customer, err := s.GetCustomer(id)
	if err != nil {
		return nil, err
	}

	email := model.NormalizeEmail(details.Email)
	if email != customer.Email {
		if err := s.ensureEmailFree(email, id); err != nil {
			return nil, err
		}
	}

	customer.FirstName = details.FirstName
	customer.LastName = details.LastName
	customer.Email = email
	customer.Phone = details.Phone
	customer.DateOfBirth = details.DateOfBirth
	customer.Address = details.Address
	customer.City = details.City
	customer.State = details.State
	customer.ZipCode = details.ZipCode
	customer.Country = details.Country
	customer.DriverLicense = details.DriverLicense
	if details.CustomerType != "" {
		customer.CustomerType = details.CustomerType
	}
	customer.CompanyName = details.CompanyName
	customer.TaxID = details.TaxID
	if details.PreferredContactMethod != "" {
		customer.PreferredContactMethod = details.PreferredContactMethod
	}
	customer.Notes = details.Notes

	if err := customer.Validate(s.now()); err != nil {
		logFailure("Customer validation failed", err, map[string]interface{}{
			"customer_id": id,
		})
		return nil, err
	}

	if err := s.customerRepo.Update(customer); err != nil {
		if isDuplicateKey(err) {
			return nil, ErrDuplicateEmail
		}
		logger.Error("Failed to update customer", err, map[string]interface{}{
			"customer_id": id,
		})
		return nil, err
	}

	logger.Info("Customer updated", map[string]interface{}{
		"customer_id": id,
	})
	return customer, nil
}

func (s *customerService) ActivateCustomer(id uint) (*model.Customer, error) {
	return s.setActive(id, true)
}

func (s *customerService) DeactivateCustomer(id uint) (*model.Customer, error) {
	return s.setActive(id, false)
}

func (s *customerService) setActive(id uint, active bool) (*model.Customer, error) {
	customer, err := s.GetCustomer(id)
	if err != nil {
		return nil, err
	}
	if customer.IsActive == active {
		return customer, nil
	}

	customer.IsActive = active
	if err := s.customerRepo.Update(customer); err != nil {
		logger.Error("Failed to change customer activation", err, map[string]interface{}{
			"customer_id": id,
			"active":      active,
		})
		return nil, err
	}

	logger.Info("Customer activation changed", map[string]interface{}{
		"customer_id": id,
		"active":      active,
	})
	return customer, nil
}

func (s *customerService) UpdateCreditScore(id uint, score int) (*model.Customer, error) {
	if score < model.MinCreditScore || score > model.MaxCreditScore {
		logger.Warn("Credit score out of range", map[string]interface{}{
			"customer_id": id,
			"score":       score,
		})
		return nil, apperrors.Invalid("credit_score", "must be between 300 and 850")
	}

	customer, err := s.GetCustomer(id)
	if err != nil {
		return nil, err
	}

	customer.CreditScore = &score
	if err := s.customerRepo.Update(customer); err != nil {
		logger.Error("Failed to update credit score", err, map[string]interface{}{
			"customer_id": id,
		})
		return nil, err
	}

	logger.Info("Customer credit score updated", map[string]interface{}{
		"customer_id":  id,
		"credit_score": score,
	})
	return customer, nil
}

func (s *customerService) DeleteCustomer(id uint) error {
	if _, err := s.GetCustomer(id); err != nil {
		return err
	}

	hasSales, err := s.customerRepo.HasSales(id)
	if err != nil {
		logger.Error("Failed to check customer sales", err, map[string]interface{}{
			"customer_id": id,
		})
		return err
	}
	if hasSales {
		logger.Warn("Customer deletion rejected: customer has sales", map[string]interface{}{
			"customer_id": id,
		})
		return ErrCustomerHasSales
	}

	if err := s.customerRepo.Delete(id); err != nil {
		logger.Error("Failed to delete customer", err, map[string]interface{}{
			"customer_id": id,
		})
		return err
	}

	logger.Info("Customer deleted", map[string]interface{}{
		"customer_id": id,
	})
	return nil
}
