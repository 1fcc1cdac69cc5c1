package service

import (
	"fmt"
	"strings"

	"github.com/ikkim/dealer-backend/internal/app/model"
	"github.com/ikkim/dealer-backend/internal/app/repository"
	apperrors "github.com/ikkim/dealer-backend/internal/errors"
	"github.com/ikkim/dealer-backend/pkg/logger"
	"gorm.io/gorm"
)

// VehicleLifecycle moves a vehicle between statuses. The sale workflow binds
// it to its transaction with WithTx.
type VehicleLifecycle interface {
	SetStatus(id uint, status model.VehicleStatus) (*model.Vehicle, error)
	Reserve(id uint) (*model.Vehicle, error)
	MarkSold(id uint) (*model.Vehicle, error)
	MakeAvailable(id uint) (*model.Vehicle, error)
	MarkForMaintenance(id uint) (*model.Vehicle, error)
	WithTx(tx *gorm.DB) VehicleLifecycle
}

type VehicleService interface {
	VehicleLifecycle

	CreateVehicle(vehicle *model.Vehicle) (*model.Vehicle, error)
	GetVehicle(id uint) (*model.Vehicle, error)
	GetVehicleByVIN(vin string) (*model.Vehicle, error)
	ListVehicles(filter repository.VehicleFilter) ([]model.Vehicle, int64, error)
	ListAvailable() ([]model.Vehicle, error)
	UpdateVehicle(id uint, details *model.Vehicle) (*model.Vehicle, error)
	DeleteVehicle(id uint) error
	LowMileage(maxMileage int) ([]model.Vehicle, error)
	ImportVehicles(vehicles []model.Vehicle) (*ImportResult, error)
}

// ImportResult reports a batch import. Rejected maps a VIN (or row label when
// the VIN is blank) to the reason it was skipped.
type ImportResult struct {
	Imported int
	Rejected map[string]string
}

type vehicleService struct {
	vehicleRepo repository.VehicleRepository
	now         Clock
}

func NewVehicleService(vehicleRepo repository.VehicleRepository, clock Clock) VehicleService {
	if clock == nil {
		clock = utcNow
	}
	return &vehicleService{
		vehicleRepo: vehicleRepo,
		now:         clock,
	}
}

func (s *vehicleService) WithTx(tx *gorm.DB) VehicleLifecycle {
	return &vehicleService{
		vehicleRepo: s.vehicleRepo.WithTx(tx),
		now:         s.now,
	}
}

func normalizeVIN(vin string) string {
	return strings.ToUpper(strings.TrimSpace(vin))
}

func (s *vehicleService) CreateVehicle(vehicle *model.Vehicle) (*model.Vehicle, error) {
	vehicle.ID = 0
	vehicle.VIN = normalizeVIN(vehicle.VIN)
	vehicle.ApplyDefaults(s.now())

	logger.Info("Creating vehicle", map[string]interface{}{
		"vin":  vehicle.VIN,
		"make": vehicle.Make,
	})

	if err := vehicle.Validate(); err != nil {
		logFailure("Vehicle validation failed", err, map[string]interface{}{
			"vin": vehicle.VIN,
		})
		return nil, err
	}

	existing, err := s.vehicleRepo.FindByVIN(vehicle.VIN)
	if err != nil {
		logger.Error("Failed to check VIN uniqueness", err, map[string]interface{}{
			"vin": vehicle.VIN,
		})
		return nil, err
	}
	if existing != nil {
		logger.Warn("Vehicle creation rejected: VIN already registered", map[string]interface{}{
			"vin":         vehicle.VIN,
			"existing_id": existing.ID,
		})
		return nil, ErrDuplicateVIN
	}

	if err := s.vehicleRepo.Create(vehicle); err != nil {
		if isDuplicateKey(err) {
			logger.Warn("Vehicle creation lost VIN race", map[string]interface{}{
				"vin": vehicle.VIN,
			})
			return nil, ErrDuplicateVIN
		}
		logger.Error("Failed to create vehicle", err, map[string]interface{}{
			"vin": vehicle.VIN,
		})
		return nil, err
	}

	logger.Info("Vehicle created", map[string]interface{}{
		"vehicle_id": vehicle.ID,
		"vin":        vehicle.VIN,
		"status":     vehicle.Status,
	})
	return vehicle, nil
}

// ImportVehicles validates every vehicle and stores the valid ones in one
// batch. Invalid rows and VINs already in stock are skipped, not fatal.
func (s *vehicleService) ImportVehicles(vehicles []model.Vehicle) (*ImportResult, error) {
	result := &ImportResult{Rejected: map[string]string{}}
	now := s.now()
	seen := make(map[string]bool, len(vehicles))
	accepted := make([]model.Vehicle, 0, len(vehicles))

	for i := range vehicles {
		v := vehicles[i]
		v.ID = 0
		v.VIN = normalizeVIN(v.VIN)
		v.ApplyDefaults(now)

		label := v.VIN
		if label == "" {
			label = fmt.Sprintf("row %d", i+1)
		}

		if err := v.Validate(); err != nil {
			result.Rejected[label] = err.Error()
			continue
		}
		if seen[v.VIN] {
			result.Rejected[label] = "duplicate VIN in batch"
			continue
		}
		existing, err := s.vehicleRepo.FindByVIN(v.VIN)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			result.Rejected[label] = ErrDuplicateVIN.Error()
			continue
		}

		seen[v.VIN] = true
		accepted = append(accepted, v)
	}

	if err := s.vehicleRepo.CreateBatch(accepted); err != nil {
		return nil, err
	}
	result.Imported = len(accepted)

	logger.Info("Vehicle import finished", map[string]interface{}{
		"imported": result.Imported,
		"rejected": len(result.Rejected),
	})
	return result, nil
}

func (s *vehicleService) GetVehicle(id uint) (*model.Vehicle, error) {
	vehicle, err := s.vehicleRepo.FindByID(id)
	if err != nil {
		logger.Error("Failed to fetch vehicle", err, map[string]interface{}{
			"vehicle_id": id,
		})
		return nil, err
	}
	if vehicle == nil {
		return nil, apperrors.NotFound("vehicle", id)
	}
	return vehicle, nil
}

func (s *vehicleService) GetVehicleByVIN(vin string) (*model.Vehicle, error) {
	vin = normalizeVIN(vin)
	vehicle, err := s.vehicleRepo.FindByVIN(vin)
	if err != nil {
		logger.Error("Failed to fetch vehicle by VIN", err, map[string]interface{}{
			"vin": vin,
		})
		return nil, err
	}
	if vehicle == nil {
		return nil, apperrors.NotFound("vehicle", vin)
	}
	return vehicle, nil
}

func (s *vehicleService) ListVehicles(filter repository.VehicleFilter) ([]model.Vehicle, int64, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, apperrors.Invalid("status", "must be one of AVAILABLE RESERVED SOLD MAINTENANCE DISCONTINUED")
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		return nil, 0, apperrors.Invalid("min_price", "must not exceed max_price")
	}
	return s.vehicleRepo.List(filter)
}

func (s *vehicleService) ListAvailable() ([]model.Vehicle, error) {
	return s.vehicleRepo.FindByStatus(model.VehicleStatusAvailable)
}

func (s *vehicleService) LowMileage(maxMileage int) ([]model.Vehicle, error) {
	if maxMileage < 0 {
		return nil, apperrors.Invalid("max_mileage", "must be zero or greater")
	}
	return s.vehicleRepo.FindLowMileage(maxMileage)
}

// UpdateVehicle overwrites the descriptive and pricing fields. Status only
// changes when details carries one.
func (s *vehicleService) UpdateVehicle(id uint, details *model.Vehicle) (*model.Vehicle, error) {
	logger.Info("Updating vehicle", map[string]interface{}{
		"vehicle_id": id,
	})

	vehicle, err := s.GetVehicle(id)
	if err != nil {
		return nil, err
	}

	vin := normalizeVIN(details.VIN)
	if vin != "" && vin != vehicle.VIN {
		existing, err := s.vehicleRepo.FindByVIN(vin)
		if err != nil {
			logger.Error("Failed to check VIN uniqueness", err, map[string]interface{}{
				"vin": vin,
			})
			return nil, err
		}
		if existing != nil && existing.ID != id {
			logger.Warn("Vehicle update rejected: VIN already registered", map[string]interface{}{
				"vehicle_id":  id,
				"vin":         vin,
				"existing_id": existing.ID,
			})
			return nil, ErrDuplicateVIN
		}
		vehicle.VIN = vin
	}

	vehicle.Make = details.Make
	vehicle.Model = details.Model
	vehicle.Year = details.Year
	vehicle.Color = details.Color
	vehicle.Mileage = details.Mileage
	vehicle.PurchasePrice = details.PurchasePrice
	vehicle.SellingPrice = details.SellingPrice
	vehicle.MSRP = details.MSRP
	if details.Status != "" {
		vehicle.Status = details.Status
	}
	if details.Condition != "" {
		vehicle.Condition = details.Condition
	}
	vehicle.EngineType = details.EngineType
	vehicle.Transmission = details.Transmission
	vehicle.FuelType = details.FuelType
	vehicle.Description = details.Description
	vehicle.Location = details.Location
	if details.PurchaseDate != nil {
		vehicle.PurchaseDate = details.PurchaseDate
	}

	if err := vehicle.Validate(); err != nil {
		logFailure("Vehicle validation failed", err, map[string]interface{}{
			"vehicle_id": id,
		})
		return nil, err
	}

	if err := s.vehicleRepo.Update(vehicle); err != nil {
		if isDuplicateKey(err) {
			return nil, ErrDuplicateVIN
		}
		logger.Error("Failed to update vehicle", err, map[string]interface{}{
			"vehicle_id": id,
		})
		return nil, err
	}

	logger.Info("Vehicle updated", map[string]interface{}{
		"vehicle_id": id,
	})
	return vehicle, nil
}

func (s *vehicleService) DeleteVehicle(id uint) error {
	logger.Info("Deleting vehicle", map[string]interface{}{
		"vehicle_id": id,
	})

	if _, err := s.GetVehicle(id); err != nil {
		return err
	}

	hasSales, err := s.vehicleRepo.HasSales(id)
	if err != nil {
		logger.Error("Failed to check vehicle sales", err, map[string]interface{}{
			"vehicle_id": id,
		})
		return err
	}
	if hasSales {
		logger.Warn("Vehicle deletion rejected: vehicle has sales", map[string]interface{}{
			"vehicle_id": id,
		})
		return ErrVehicleHasSales
	}

	if err := s.vehicleRepo.Delete(id); err != nil {
		logger.Error("Failed to delete vehicle", err, map[string]interface{}{
			"vehicle_id": id,
		})
		return err
	}

	logger.Info("Vehicle deleted", map[string]interface{}{
		"vehicle_id": id,
	})
	return nil
}

// SetStatus applies any valid status; transitions are not constrained here.
func (s *vehicleService) SetStatus(id uint, status model.VehicleStatus) (*model.Vehicle, error) {
	if !status.Valid() {
		logger.Warn("Rejected unknown vehicle status", map[string]interface{}{
			"vehicle_id": id,
			"status":     status,
		})
		return nil, apperrors.Invalid("status", "must be one of AVAILABLE RESERVED SOLD MAINTENANCE DISCONTINUED")
	}

	vehicle, err := s.vehicleRepo.FindByIDForUpdate(id)
	if err != nil {
		logger.Error("Failed to fetch vehicle for status change", err, map[string]interface{}{
			"vehicle_id": id,
		})
		return nil, err
	}
	if vehicle == nil {
		logger.Warn("Vehicle not found for status change", map[string]interface{}{
			"vehicle_id": id,
		})
		return nil, apperrors.NotFound("vehicle", id)
	}

	previous := vehicle.Status
	if err := s.vehicleRepo.UpdateStatus(id, status); err != nil {
		logger.Error("Failed to update vehicle status", err, map[string]interface{}{
			"vehicle_id": id,
			"status":     status,
		})
		return nil, err
	}
	vehicle.Status = status

	logger.Info("Vehicle status changed", map[string]interface{}{
		"vehicle_id": id,
		"from":       previous,
		"to":         status,
	})
	return vehicle, nil
}

func (s *vehicleService) Reserve(id uint) (*model.Vehicle, error) {
	return s.SetStatus(id, model.VehicleStatusReserved)
}

func (s *vehicleService) MarkSold(id uint) (*model.Vehicle, error) {
	return s.SetStatus(id, model.VehicleStatusSold)
}

func (s *vehicleService) MakeAvailable(id uint) (*model.Vehicle, error) {
	return s.SetStatus(id, model.VehicleStatusAvailable)
}

func (s *vehicleService) MarkForMaintenance(id uint) (*model.Vehicle, error) {
	return s.SetStatus(id, model.VehicleStatusMaintenance)
}
