package repository

import (
	"errors"
	"time"

	"github.com/ikkim/dealer-backend/internal/app/model"
	"github.com/ikkim/dealer-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrStaleSale is returned by Save when another writer bumped the version first.
var ErrStaleSale = errors.New("sale was modified concurrently")

type SaleFilter struct {
	Status           model.SaleStatus
	PaymentMethod    model.PaymentMethod
	SalespersonEmail string
	CustomerID       uint
	VehicleID        uint
	From             *time.Time // inclusive
	To               *time.Time // exclusive
	MinPrice         *decimal.Decimal
	MaxPrice         *decimal.Decimal
	Page
}

// SalespersonRow is one salesperson's completed sales.
type SalespersonRow struct {
	SalespersonEmail string
	SalesCount       int64
	TotalRevenue     decimal.Decimal
}

type MonthlyRow struct {
	Year       int
	Month      int
	SalesCount int64
	Revenue    decimal.Decimal
}

type SaleRepository interface {
	WithTx(tx *gorm.DB) SaleRepository
	Create(sale *model.Sale) error
	FindByID(id uint) (*model.Sale, error)
	FindByIDForUpdate(id uint) (*model.Sale, error)
	Save(sale *model.Sale) error
	List(filter SaleFilter) ([]model.Sale, int64, error)
	FindAll(filter SaleFilter) ([]model.Sale, error)
	FindPendingUnfinalized() ([]model.Sale, error)
	CountByStatus(status model.SaleStatus) (int64, error)

	RevenueBetween(from, to time.Time) (decimal.Decimal, error)
	ProfitBetween(from, to time.Time) (decimal.Decimal, error)
	AverageSalePrice() (decimal.Decimal, error)
	SalespersonPerformance() ([]SalespersonRow, error)
	MonthlySalesReport() ([]MonthlyRow, error)
	PaymentMethodDistribution() ([]model.CountByKey, error)
}

type saleRepository struct {
	db *gorm.DB
}

func NewSaleRepository(db *gorm.DB) SaleRepository {
	return &saleRepository{db: db}
}

func (r *saleRepository) WithTx(tx *gorm.DB) SaleRepository {
	return &saleRepository{db: tx}
}

func (r *saleRepository) Create(sale *model.Sale) error {
	logger.Debug("Creating sale in database", map[string]interface{}{
		"vehicle_id":  sale.VehicleID,
		"customer_id": sale.CustomerID,
	})

	if sale.Version == 0 {
		sale.Version = 1
	}
	if err := r.db.Omit(clause.Associations).Create(sale).Error; err != nil {
		logger.Error("Failed to create sale in database", err, map[string]interface{}{
			"vehicle_id":  sale.VehicleID,
			"customer_id": sale.CustomerID,
		})
		return err
	}

	logger.Debug("Sale created in database", map[string]interface{}{
		"sale_id": sale.ID,
	})
	return nil
}

func (r *saleRepository) FindByID(id uint) (*model.Sale, error) {
	return r.findOne(r.db, id)
}

// FindByIDForUpdate locks the sale row until the surrounding transaction ends.
func (r *saleRepository) FindByIDForUpdate(id uint) (*model.Sale, error) {
	return r.findOne(r.db.Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *saleRepository) findOne(q *gorm.DB, id uint) (*model.Sale, error) {
	var sale model.Sale
	err := q.First(&sale, id).Error
	if absent(err) {
		logger.Debug("Sale not found in database", map[string]interface{}{
			"sale_id": id,
		})
		return nil, nil
	}
	if err != nil {
		logger.Error("Failed to find sale by ID", err, map[string]interface{}{
			"sale_id": id,
		})
		return nil, err
	}

	// associations load separately so the row lock stays on sales only
	if err := r.db.Preload("Vehicle").Preload("Customer").First(&sale, sale.ID).Error; err != nil {
		logger.Error("Failed to load sale associations", err, map[string]interface{}{
			"sale_id": id,
		})
		return nil, err
	}
	return &sale, nil
}

// Save writes every column of sale when its version still matches the
// stored one and bumps the version. A mismatch returns ErrStaleSale.
func (r *saleRepository) Save(sale *model.Sale) error {
	expected := sale.Version
	sale.Version = expected + 1

	result := r.db.Model(sale).
		Where("version = ?", expected).
		Select("*").
		Omit("id", "created_at", clause.Associations).
		Updates(sale)
	if result.Error != nil {
		sale.Version = expected
		logger.Error("Failed to save sale", result.Error, map[string]interface{}{
			"sale_id": sale.ID,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		sale.Version = expected
		logger.Warn("Sale version conflict", map[string]interface{}{
			"sale_id":          sale.ID,
			"expected_version": expected,
		})
		return ErrStaleSale
	}

	logger.Debug("Sale saved", map[string]interface{}{
		"sale_id": sale.ID,
		"status":  sale.Status,
		"version": sale.Version,
	})
	return nil
}

func (r *saleRepository) filtered(filter SaleFilter) *gorm.DB {
	query := r.db.Model(&model.Sale{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PaymentMethod != "" {
		query = query.Where("payment_method = ?", filter.PaymentMethod)
	}
	if filter.SalespersonEmail != "" {
		query = query.Where("salesperson_email = ?", filter.SalespersonEmail)
	}
	if filter.CustomerID != 0 {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.VehicleID != 0 {
		query = query.Where("vehicle_id = ?", filter.VehicleID)
	}
	if filter.From != nil {
		query = query.Where("sale_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("sale_date < ?", *filter.To)
	}
	if filter.MinPrice != nil {
		query = query.Where("sale_price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("sale_price <= ?", *filter.MaxPrice)
	}
	return query
}

func (r *saleRepository) List(filter SaleFilter) ([]model.Sale, int64, error) {
	query := r.filtered(filter)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		logger.Error("Failed to count sales", err)
		return nil, 0, err
	}

	var sales []model.Sale
	if err := filter.Page.apply(query).
		Preload("Vehicle").Preload("Customer").
		Order("sale_date DESC, id DESC").
		Find(&sales).Error; err != nil {
		logger.Error("Failed to list sales", err)
		return nil, 0, err
	}
	return sales, total, nil
}

// FindAll returns every sale matching filter, ignoring its Page.
func (r *saleRepository) FindAll(filter SaleFilter) ([]model.Sale, error) {
	var sales []model.Sale
	if err := r.filtered(filter).
		Preload("Vehicle").Preload("Customer").
		Order("sale_date DESC, id DESC").
		Find(&sales).Error; err != nil {
		logger.Error("Failed to find sales", err, map[string]interface{}{
			"customer_id": filter.CustomerID,
			"vehicle_id":  filter.VehicleID,
		})
		return nil, err
	}
	return sales, nil
}

func (r *saleRepository) FindPendingUnfinalized() ([]model.Sale, error) {
	var sales []model.Sale
	if err := r.db.Where("status = ? AND is_finalized = ?", model.SaleStatusPending, false).
		Order("sale_date ASC, id ASC").
		Find(&sales).Error; err != nil {
		logger.Error("Failed to find pending sales", err)
		return nil, err
	}
	return sales, nil
}

func (r *saleRepository) CountByStatus(status model.SaleStatus) (int64, error) {
	var count int64
	err := r.db.Model(&model.Sale{}).Where("status = ?", status).Count(&count).Error
	if err != nil {
		logger.Error("Failed to count sales by status", err, map[string]interface{}{
			"status": status,
		})
	}
	return count, err
}

func (r *saleRepository) completed() *gorm.DB {
	return r.db.Model(&model.Sale{}).Where("sales.status = ?", model.SaleStatusCompleted)
}

// RevenueBetween sums completed sale prices with from <= sale_date < to.
func (r *saleRepository) RevenueBetween(from, to time.Time) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.completed().
		Select("COALESCE(SUM(sale_price), 0) AS total").
		Where("sale_date >= ? AND sale_date < ?", from, to).
		Scan(&result).Error; err != nil {
		logger.Error("Failed to sum revenue", err, map[string]interface{}{
			"from": from,
			"to":   to,
		})
		return decimal.Zero, err
	}
	return result.Total, nil
}

// ProfitBetween sums the per-sale profit: price minus the vehicle's purchase
// price, plus extended warranty, minus commission.
func (r *saleRepository) ProfitBetween(from, to time.Time) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.completed().
		Joins("JOIN vehicles ON vehicles.id = sales.vehicle_id").
		Select("COALESCE(SUM(sales.sale_price - COALESCE(vehicles.purchase_price, 0) + "+
			"COALESCE(sales.extended_warranty_cost, 0) - COALESCE(sales.commission_amount, 0)), 0) AS total").
		Where("sales.sale_date >= ? AND sales.sale_date < ?", from, to).
		Scan(&result).Error; err != nil {
		logger.Error("Failed to sum profit", err, map[string]interface{}{
			"from": from,
			"to":   to,
		})
		return decimal.Zero, err
	}
	return result.Total, nil
}

func (r *saleRepository) AverageSalePrice() (decimal.Decimal, error) {
	var result struct {
		Average decimal.Decimal
	}
	if err := r.completed().
		Select("COALESCE(AVG(sale_price), 0) AS average").
		Scan(&result).Error; err != nil {
		logger.Error("Failed to average sale price", err)
		return decimal.Zero, err
	}
	return result.Average, nil
}

// SalespersonPerformance skips sales without a salesperson.
func (r *saleRepository) SalespersonPerformance() ([]SalespersonRow, error) {
	var rows []SalespersonRow
	if err := r.completed().
		Select("salesperson_email, COUNT(*) AS sales_count, COALESCE(SUM(sale_price), 0) AS total_revenue").
		Where("salesperson_email IS NOT NULL AND salesperson_email <> ''").
		Group("salesperson_email").
		Order("total_revenue DESC, salesperson_email ASC").
		Scan(&rows).Error; err != nil {
		logger.Error("Failed to aggregate salesperson performance", err)
		return nil, err
	}
	return rows, nil
}

// MonthlySalesReport covers every completed sale, oldest month first.
func (r *saleRepository) MonthlySalesReport() ([]MonthlyRow, error) {
	yearExpr, monthExpr := yearMonthExpr(r.db, "sale_date")

	var rows []MonthlyRow
	if err := r.completed().
		Select(yearExpr + " AS year, " + monthExpr + " AS month, COUNT(*) AS sales_count, COALESCE(SUM(sale_price), 0) AS revenue").
		Group(yearExpr + ", " + monthExpr).
		Order("year ASC, month ASC").
		Scan(&rows).Error; err != nil {
		logger.Error("Failed to build monthly sales report", err)
		return nil, err
	}
	return rows, nil
}

// PaymentMethodDistribution counts sales in every status.
func (r *saleRepository) PaymentMethodDistribution() ([]model.CountByKey, error) {
	var rows []bucketRow
	if err := r.db.Model(&model.Sale{}).
		Select("payment_method AS bucket, COUNT(*) AS total").
		Group("payment_method").
		Order("total DESC, bucket ASC").
		Scan(&rows).Error; err != nil {
		logger.Error("Failed to count sales by payment method", err)
		return nil, err
	}
	return toCounts(rows), nil
}
