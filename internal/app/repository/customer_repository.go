package repository

import (
	"github.com/ikkim/dealer-backend/internal/app/model"
	"github.com/ikkim/dealer-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CustomerFilter struct {
	CustomerType model.CustomerType
	Active       *bool
	State        string
	City         string
	Page
}

type CustomerRepository interface {
	WithTx(tx *gorm.DB) CustomerRepository
	Create(customer *model.Customer) error
	FindByID(id uint) (*model.Customer, error)
	FindByEmail(email string) (*model.Customer, error)
	List(filter CustomerFilter) ([]model.Customer, int64, error)
	Update(customer *model.Customer) error
	Delete(id uint) error
	HasSales(id uint) (bool, error)
	Count() (int64, error)
	CountActive() (int64, error)
	CountByType(customerType model.CustomerType) (int64, error)
	AverageCreditScore() (decimal.Decimal, error)
	CountByState() ([]model.CountByKey, error)
}

type customerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) WithTx(tx *gorm.DB) CustomerRepository {
	return &customerRepository{db: tx}
}

func (r *customerRepository) Create(customer *model.Customer) error {
	logger.Debug("Creating customer in database", map[string]interface{}{
		"email": customer.Email,
	})

	if err := r.db.Create(customer).Error; err != nil {
		logger.Error("Failed to create customer in database", err, map[string]interface{}{
			"email": customer.Email,
		})
		return err
	}

	logger.Debug("Customer created in database", map[string]interface{}{
		"customer_id": customer.ID,
	})
	return nil
}

func (r *customerRepository) FindByID(id uint) (*model.Customer, error) {
	var customer model.Customer
	err := r.db.First(&customer, id).Error
	if absent(err) {
		return nil, nil
	}
	if err != nil {
		logger.Error("Failed to find customer by ID", err, map[string]interface{}{
			"customer_id": id,
		})
		return nil, err
	}
	return &customer, nil
}

// FindByEmail matches regardless of the active flag.
func (r *customerRepository) FindByEmail(email string) (*model.Customer, error) {
	var customer model.Customer
	err := r.db.Where("email = ?", model.NormalizeEmail(email)).First(&customer).Error
	if absent(err) {
		return nil, nil
	}
	if err != nil {
		logger.Error("Failed to find customer by email", err)
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) List(filter CustomerFilter) ([]model.Customer, int64, error) {
	query := r.db.Model(&model.Customer{})
	if filter.CustomerType != "" {
		query = query.Where("customer_type = ?", filter.CustomerType)
	}
	if filter.Active != nil {
		query = query.Where("is_active = ?", *filter.Active)
	}
	if filter.State != "" {
		query = query.Where("state = ?", filter.State)
	}
	if filter.City != "" {
		query = query.Where("city = ?", filter.City)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		logger.Error("Failed to count customers", err)
		return nil, 0, err
	}

	var customers []model.Customer
	if err := filter.Page.apply(query).Order("last_name ASC, first_name ASC, id ASC").Find(&customers).Error; err != nil {
		logger.Error("Failed to list customers", err)
		return nil, 0, err
	}
	return customers, total, nil
}

func (r *customerRepository) Update(customer *model.Customer) error {
	if err := r.db.Save(customer).Error; err != nil {
		logger.Error("Failed to update customer in database", err, map[string]interface{}{
			"customer_id": customer.ID,
		})
		return err
	}
	logger.Debug("Customer updated in database", map[string]interface{}{
		"customer_id": customer.ID,
		"is_active":   customer.IsActive,
	})
	return nil
}

func (r *customerRepository) Delete(id uint) error {
	if err := r.db.Delete(&model.Customer{}, id).Error; err != nil {
		logger.Error("Failed to delete customer", err, map[string]interface{}{
			"customer_id": id,
		})
		return err
	}
	return nil
}

func (r *customerRepository) HasSales(id uint) (bool, error) {
	var count int64
	if err := r.db.Model(&model.Sale{}).Where("customer_id = ?", id).Count(&count).Error; err != nil {
		logger.Error("Failed to count sales for customer", err, map[string]interface{}{
			"customer_id": id,
		})
		return false, err
	}
	return count > 0, nil
}

func (r *customerRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&model.Customer{}).Count(&count).Error
	if err != nil {
		logger.Error("Failed to count customers", err)
	}
	return count, err
}

func (r *customerRepository) CountActive() (int64, error) {
	var count int64
	err := r.db.Model(&model.Customer{}).Where("is_active = ?", true).Count(&count).Error
	if err != nil {
		logger.Error("Failed to count active customers", err)
	}
	return count, err
}

func (r *customerRepository) CountByType(customerType model.CustomerType) (int64, error) {
	var count int64
	err := r.db.Model(&model.Customer{}).Where("customer_type = ?", customerType).Count(&count).Error
	if err != nil {
		logger.Error("Failed to count customers by type", err, map[string]interface{}{
			"customer_type": customerType,
		})
	}
	return count, err
}

// AverageCreditScore ignores customers without a score; zero when none has one.
func (r *customerRepository) AverageCreditScore() (decimal.Decimal, error) {
	var result struct {
		Average decimal.Decimal
	}
	if err := r.db.Model(&model.Customer{}).
		Select("COALESCE(AVG(credit_score), 0) AS average").
		Where("credit_score IS NOT NULL").
		Scan(&result).Error; err != nil {
		logger.Error("Failed to average credit score", err)
		return decimal.Zero, err
	}
	return result.Average, nil
}

func (r *customerRepository) CountByState() ([]model.CountByKey, error) {
	var rows []bucketRow
	if err := r.db.Model(&model.Customer{}).
		Select("state AS bucket, COUNT(*) AS total").
		Where("state IS NOT NULL AND state <> ''").
		Group("state").
		Order("total DESC, bucket ASC").
		Scan(&rows).Error; err != nil {
		logger.Error("Failed to count customers by state", err)
		return nil, err
	}
	return toCounts(rows), nil
}
