package repository

import (
	"github.com/ikkim/dealer-backend/internal/app/model"
	"github.com/ikkim/dealer-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VehicleFilter narrows ListVehicles. Empty fields are ignored.
type VehicleFilter struct {
	Make      string
	Model     string
	Year      int
	Status    model.VehicleStatus
	Condition model.VehicleCondition
	MinPrice  *decimal.Decimal
	MaxPrice  *decimal.Decimal
	Page
}

type VehicleRepository interface {
	WithTx(tx *gorm.DB) VehicleRepository
	Create(vehicle *model.Vehicle) error
	CreateBatch(vehicles []model.Vehicle) error
	FindByID(id uint) (*model.Vehicle, error)
	FindByIDForUpdate(id uint) (*model.Vehicle, error)
	FindByVIN(vin string) (*model.Vehicle, error)
	List(filter VehicleFilter) ([]model.Vehicle, int64, error)
	FindByStatus(status model.VehicleStatus) ([]model.Vehicle, error)
	FindLowMileage(maxMileage int) ([]model.Vehicle, error)
	Update(vehicle *model.Vehicle) error
	UpdateStatus(id uint, status model.VehicleStatus) error
	Delete(id uint) error
	HasSales(id uint) (bool, error)
	CountByStatus(status model.VehicleStatus) (int64, error)
	AverageSellingPrice(status model.VehicleStatus) (decimal.Decimal, error)
	TotalPotentialProfitOfSold() (decimal.Decimal, error)
	CountByMake() ([]model.CountByKey, error)
}

type vehicleRepository struct {
	db *gorm.DB
}

func NewVehicleRepository(db *gorm.DB) VehicleRepository {
	return &vehicleRepository{db: db}
}

func (r *vehicleRepository) WithTx(tx *gorm.DB) VehicleRepository {
	return &vehicleRepository{db: tx}
}

func (r *vehicleRepository) Create(vehicle *model.Vehicle) error {
	logger.Debug("Creating vehicle in database", map[string]interface{}{
		"vin": vehicle.VIN,
	})

	if err := r.db.Create(vehicle).Error; err != nil {
		logger.Error("Failed to create vehicle in database", err, map[string]interface{}{
			"vin": vehicle.VIN,
		})
		return err
	}

	logger.Debug("Vehicle created in database", map[string]interface{}{
		"vehicle_id": vehicle.ID,
		"vin":        vehicle.VIN,
	})
	return nil
}

func (r *vehicleRepository) CreateBatch(vehicles []model.Vehicle) error {
	if len(vehicles) == 0 {
		return nil
	}
	if err := r.db.CreateInBatches(vehicles, 100).Error; err != nil {
		logger.Error("Failed to batch create vehicles", err, map[string]interface{}{
			"count": len(vehicles),
		})
		return err
	}
	logger.Debug("Vehicles batch created", map[string]interface{}{
		"count": len(vehicles),
	})
	return nil
}

func (r *vehicleRepository) FindByID(id uint) (*model.Vehicle, error) {
	return r.findOne(r.db, "id = ?", id)
}

// FindByIDForUpdate locks the row for the rest of the transaction.
func (r *vehicleRepository) FindByIDForUpdate(id uint) (*model.Vehicle, error) {
	return r.findOne(r.db.Clauses(clause.Locking{Strength: "UPDATE"}), "id = ?", id)
}

func (r *vehicleRepository) FindByVIN(vin string) (*model.Vehicle, error) {
	return r.findOne(r.db, "vin = ?", vin)
}

func (r *vehicleRepository) findOne(q *gorm.DB, cond string, arg interface{}) (*model.Vehicle, error) {
	var vehicle model.Vehicle
	err := q.Where(cond, arg).First(&vehicle).Error
	if absent(err) {
		logger.Debug("Vehicle not found in database", map[string]interface{}{
			"condition": cond,
			"value":     arg,
		})
		return nil, nil
	}
	if err != nil {
		logger.Error("Failed to find vehicle in database", err, map[string]interface{}{
			"condition": cond,
			"value":     arg,
		})
		return nil, err
	}
	return &vehicle, nil
}

func (r *vehicleRepository) List(filter VehicleFilter) ([]model.Vehicle, int64, error) {
	query := r.db.Model(&model.Vehicle{})

	if filter.Make != "" {
		query = query.Where("LOWER(make) LIKE LOWER(?)", "%"+filter.Make+"%")
	}
	if filter.Model != "" {
		query = query.Where("LOWER(model) LIKE LOWER(?)", "%"+filter.Model+"%")
	}
	if filter.Year != 0 {
		query = query.Where("year = ?", filter.Year)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Condition != "" {
		query = query.Where("vehicle_condition = ?", filter.Condition)
	}
	if filter.MinPrice != nil {
		query = query.Where("selling_price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("selling_price <= ?", *filter.MaxPrice)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		logger.Error("Failed to count vehicles", err)
		return nil, 0, err
	}

	var vehicles []model.Vehicle
	if err := filter.Page.apply(query).Order("id ASC").Find(&vehicles).Error; err != nil {
		logger.Error("Failed to list vehicles", err)
		return nil, 0, err
	}

	logger.Debug("Vehicles listed", map[string]interface{}{
		"total":    total,
		"returned": len(vehicles),
	})
	return vehicles, total, nil
}

func (r *vehicleRepository) FindByStatus(status model.VehicleStatus) ([]model.Vehicle, error) {
	var vehicles []model.Vehicle
	if err := r.db.Where("status = ?", status).Order("id ASC").Find(&vehicles).Error; err != nil {
		logger.Error("Failed to find vehicles by status", err, map[string]interface{}{
			"status": status,
		})
		return nil, err
	}
	return vehicles, nil
}

func (r *vehicleRepository) FindLowMileage(maxMileage int) ([]model.Vehicle, error) {
	var vehicles []model.Vehicle
	if err := r.db.Where("mileage <= ? AND status = ?", maxMileage, model.VehicleStatusAvailable).
		Order("mileage ASC").
		Find(&vehicles).Error; err != nil {
		logger.Error("Failed to find low mileage vehicles", err, map[string]interface{}{
			"max_mileage": maxMileage,
		})
		return nil, err
	}
	return vehicles, nil
}

func (r *vehicleRepository) Update(vehicle *model.Vehicle) error {
	if err := r.db.Save(vehicle).Error; err != nil {
		logger.Error("Failed to update vehicle in database", err, map[string]interface{}{
			"vehicle_id": vehicle.ID,
		})
		return err
	}

	logger.Debug("Vehicle updated in database", map[string]interface{}{
		"vehicle_id": vehicle.ID,
		"status":     vehicle.Status,
	})
	return nil
}

func (r *vehicleRepository) UpdateStatus(id uint, status model.VehicleStatus) error {
	logger.Debug("Updating vehicle status in database", map[string]interface{}{
		"vehicle_id": id,
		"status":     status,
	})

	if err := r.db.Model(&model.Vehicle{}).Where("id = ?", id).
		Update("status", status).Error; err != nil {
		logger.Error("Failed to update vehicle status in database", err, map[string]interface{}{
			"vehicle_id": id,
			"status":     status,
		})
		return err
	}
	return nil
}

func (r *vehicleRepository) Delete(id uint) error {
	if err := r.db.Delete(&model.Vehicle{}, id).Error; err != nil {
		logger.Error("Failed to delete vehicle", err, map[string]interface{}{
			"vehicle_id": id,
		})
		return err
	}
	logger.Debug("Vehicle deleted from database", map[string]interface{}{
		"vehicle_id": id,
	})
	return nil
}

func (r *vehicleRepository) HasSales(id uint) (bool, error) {
	var count int64
	if err := r.db.Model(&model.Sale{}).Where("vehicle_id = ?", id).Count(&count).Error; err != nil {
		logger.Error("Failed to count sales for vehicle", err, map[string]interface{}{
			"vehicle_id": id,
		})
		return false, err
	}
	return count > 0, nil
}

func (r *vehicleRepository) CountByStatus(status model.VehicleStatus) (int64, error) {
	var count int64
	if err := r.db.Model(&model.Vehicle{}).Where("status = ?", status).Count(&count).Error; err != nil {
		logger.Error("Failed to count vehicles by status", err, map[string]interface{}{
			"status": status,
		})
		return 0, err
	}
	return count, nil
}

func (r *vehicleRepository) AverageSellingPrice(status model.VehicleStatus) (decimal.Decimal, error) {
	var result struct {
		Average decimal.Decimal
	}
	if err := r.db.Model(&model.Vehicle{}).
		Select("COALESCE(AVG(selling_price), 0) AS average").
		Where("status = ? AND selling_price IS NOT NULL", status).
		Scan(&result).Error; err != nil {
		logger.Error("Failed to average selling price", err, map[string]interface{}{
			"status": status,
		})
		return decimal.Zero, err
	}
	return result.Average, nil
}

func (r *vehicleRepository) TotalPotentialProfitOfSold() (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.Model(&model.Vehicle{}).
		Select("COALESCE(SUM(selling_price - purchase_price), 0) AS total").
		Where("status = ? AND selling_price IS NOT NULL AND purchase_price IS NOT NULL", model.VehicleStatusSold).
		Scan(&result).Error; err != nil {
		logger.Error("Failed to sum potential profit of sold vehicles", err)
		return decimal.Zero, err
	}
	return result.Total, nil
}

func (r *vehicleRepository) CountByMake() ([]model.CountByKey, error) {
	var rows []bucketRow
	if err := r.db.Model(&model.Vehicle{}).
		Select("make AS bucket, COUNT(*) AS total").
		Group("make").
		Order("total DESC, bucket ASC").
		Scan(&rows).Error; err != nil {
		logger.Error("Failed to count vehicles by make", err)
		return nil, err
	}
	return toCounts(rows), nil
}

func toCounts(rows []bucketRow) []model.CountByKey {
	counts := make([]model.CountByKey, 0, len(rows))
	for _, row := range rows {
		counts = append(counts, model.CountByKey{Key: row.Bucket, Count: row.Total})
	}
	return counts
}
