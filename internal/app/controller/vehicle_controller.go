package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/dealer-backend/internal/app/model"
	"github.com/ikkim/dealer-backend/internal/app/repository"
	"github.com/ikkim/dealer-backend/internal/app/service"
	apperrors "github.com/ikkim/dealer-backend/internal/errors"
	"github.com/ikkim/dealer-backend/internal/middleware"
	"github.com/shopspring/decimal"
)

type VehicleController struct {
	vehicleService service.VehicleService
}

func NewVehicleController(vehicleService service.VehicleService) *VehicleController {
	return &VehicleController{
		vehicleService: vehicleService,
	}
}

type VehicleRequest struct {
	VIN           string                 `json:"vin"`
	Make          string                 `json:"make"`
	Model         string                 `json:"model"`
	Year          int                    `json:"year"`
	Color         string                 `json:"color"`
	Mileage       int                    `json:"mileage"`
	PurchasePrice *decimal.Decimal       `json:"purchase_price"`
	SellingPrice  *decimal.Decimal       `json:"selling_price"`
	MSRP          *decimal.Decimal       `json:"msrp"`
	Status        model.VehicleStatus    `json:"status"`
	Condition     model.VehicleCondition `json:"condition"`
	EngineType    string                 `json:"engine_type"`
	Transmission  string                 `json:"transmission"`
	FuelType      string                 `json:"fuel_type"`
	Description   string                 `json:"description"`
	Location      string                 `json:"location"`
	PurchaseDate  *time.Time             `json:"purchase_date"`
}

func (r *VehicleRequest) toModel() *model.Vehicle {
	return &model.Vehicle{
		VIN:           r.VIN,
		Make:          r.Make,
		Model:         r.Model,
		Year:          r.Year,
		Color:         r.Color,
		Mileage:       r.Mileage,
		PurchasePrice: r.PurchasePrice,
		SellingPrice:  r.SellingPrice,
		MSRP:          r.MSRP,
		Status:        r.Status,
		Condition:     r.Condition,
		EngineType:    r.EngineType,
		Transmission:  r.Transmission,
		FuelType:      r.FuelType,
		Description:   r.Description,
		Location:      r.Location,
		PurchaseDate:  r.PurchaseDate,
	}
}

type VehicleStatusRequest struct {
	Status model.VehicleStatus `json:"status" binding:"required"`
}

// ListVehicles returns a filtered page of the inventory
// GET /api/v1/vehicles
func (ctrl *VehicleController) ListVehicles(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	q := newQueryParser(c)
	filter := repository.VehicleFilter{
		Make:      c.Query("make"),
		Model:     c.Query("model"),
		Year:      q.int("year"),
		Status:    model.VehicleStatus(c.Query("status")),
		Condition: model.VehicleCondition(c.Query("condition")),
		MinPrice:  q.decimal("min_price"),
		MaxPrice:  q.decimal("max_price"),
		Page:      q.page(),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		q.verr.Add("status", "is not a vehicle status")
	}
	if !q.done() {
		return
	}

	vehicles, total, err := ctrl.vehicleService.ListVehicles(filter)
	if err != nil {
		respondError(c, log, err, "Failed to list vehicles", nil)
		return
	}

	log.Debug("Vehicles listed", map[string]interface{}{
		"count": len(vehicles),
		"total": total,
	})

	c.JSON(http.StatusOK, gin.H{
		"vehicles":   vehicles,
		"pagination": newPageResponse(total, filter.Page),
	})
}

// ListAvailable returns every vehicle that can be sold right now
// GET /api/v1/vehicles/available
func (ctrl *VehicleController) ListAvailable(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	vehicles, err := ctrl.vehicleService.ListAvailable()
	if err != nil {
		respondError(c, log, err, "Failed to list available vehicles", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"vehicles": vehicles,
		"count":    len(vehicles),
	})
}

// ListLowMileage returns vehicles at or under max_mileage
// GET /api/v1/vehicles/low-mileage
func (ctrl *VehicleController) ListLowMileage(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	q := newQueryParser(c)
	maxMileage := q.int("max_mileage")
	if c.Query("max_mileage") == "" {
		maxMileage = 30000
	}
	if !q.done() {
		return
	}

	vehicles, err := ctrl.vehicleService.LowMileage(maxMileage)
	if err != nil {
		respondError(c, log, err, "Failed to list low mileage vehicles", map[string]interface{}{
			"max_mileage": maxMileage,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"vehicles": vehicles,
		"count":    len(vehicles),
	})
}

// GetVehicle returns a vehicle by ID
// GET /api/v1/vehicles/:id
func (ctrl *VehicleController) GetVehicle(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	vehicle, err := ctrl.vehicleService.GetVehicle(id)
	if err != nil {
		respondError(c, log, err, "Failed to fetch vehicle", map[string]interface{}{
			"vehicle_id": id,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"vehicle": vehicle,
	})
}

// GetVehicleByVIN returns a vehicle by its VIN
// GET /api/v1/vehicles/vin/:vin
func (ctrl *VehicleController) GetVehicleByVIN(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	vin := c.Param("vin")
	vehicle, err := ctrl.vehicleService.GetVehicleByVIN(vin)
	if err != nil {
		respondError(c, log, err, "Failed to fetch vehicle by VIN", map[string]interface{}{
			"vin": vin,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"vehicle": vehicle,
	})
}

// CreateVehicle adds a vehicle to the inventory
// POST /api/v1/vehicles
func (ctrl *VehicleController) CreateVehicle(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req VehicleRequest
	if !bindJSON(c, &req) {
		return
	}

	vehicle, err := ctrl.vehicleService.CreateVehicle(req.toModel())
	if err != nil {
		respondError(c, log, err, "Failed to create vehicle", map[string]interface{}{
			"vin": req.VIN,
		})
		return
	}

	log.Info("Vehicle created", map[string]interface{}{
		"vehicle_id": vehicle.ID,
		"vin":        vehicle.VIN,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "Vehicle created successfully",
		"vehicle": vehicle,
	})
}

// UpdateVehicle replaces a vehicle's details
// PUT /api/v1/vehicles/:id
func (ctrl *VehicleController) UpdateVehicle(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req VehicleRequest
	if !bindJSON(c, &req) {
		return
	}

	vehicle, err := ctrl.vehicleService.UpdateVehicle(id, req.toModel())
	if err != nil {
		respondError(c, log, err, "Failed to update vehicle", map[string]interface{}{
			"vehicle_id": id,
		})
		return
	}

	log.Info("Vehicle updated", map[string]interface{}{
		"vehicle_id": vehicle.ID,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Vehicle updated successfully",
		"vehicle": vehicle,
	})
}

// DeleteVehicle removes a vehicle that never took part in a sale
// DELETE /api/v1/vehicles/:id
func (ctrl *VehicleController) DeleteVehicle(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.vehicleService.DeleteVehicle(id); err != nil {
		respondError(c, log, err, "Failed to delete vehicle", map[string]interface{}{
			"vehicle_id": id,
		})
		return
	}

	log.Info("Vehicle deleted", map[string]interface{}{
		"vehicle_id": id,
	})

	c.Status(http.StatusNoContent)
}

// UpdateStatus sets an arbitrary status
// PATCH /api/v1/vehicles/:id/status
func (ctrl *VehicleController) UpdateStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req VehicleStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	if !req.Status.Valid() {
		apperrors.RespondWithValidationError(c, apperrors.Invalid("status", "is not a vehicle status"))
		return
	}

	ctrl.applyStatus(c, id, "set status", func(id uint) (*model.Vehicle, error) {
		return ctrl.vehicleService.SetStatus(id, req.Status)
	})
}

// PATCH /api/v1/vehicles/:id/reserve
func (ctrl *VehicleController) Reserve(c *gin.Context) {
	if id, ok := parseIDParam(c, "id"); ok {
		ctrl.applyStatus(c, id, "reserve", ctrl.vehicleService.Reserve)
	}
}

// PATCH /api/v1/vehicles/:id/sold
func (ctrl *VehicleController) MarkSold(c *gin.Context) {
	if id, ok := parseIDParam(c, "id"); ok {
		ctrl.applyStatus(c, id, "mark sold", ctrl.vehicleService.MarkSold)
	}
}

// PATCH /api/v1/vehicles/:id/available
func (ctrl *VehicleController) MakeAvailable(c *gin.Context) {
	if id, ok := parseIDParam(c, "id"); ok {
		ctrl.applyStatus(c, id, "make available", ctrl.vehicleService.MakeAvailable)
	}
}

// PATCH /api/v1/vehicles/:id/maintenance
func (ctrl *VehicleController) MarkForMaintenance(c *gin.Context) {
	if id, ok := parseIDParam(c, "id"); ok {
		ctrl.applyStatus(c, id, "mark for maintenance", ctrl.vehicleService.MarkForMaintenance)
	}
}

func (ctrl *VehicleController) applyStatus(c *gin.Context, id uint, action string, apply func(uint) (*model.Vehicle, error)) {
	log := middleware.GetLoggerFromContext(c)

	vehicle, err := apply(id)
	if err != nil {
		respondError(c, log, err, "Failed to "+action, map[string]interface{}{
			"vehicle_id": id,
		})
		return
	}

	log.Info("Vehicle status changed", map[string]interface{}{
		"vehicle_id": vehicle.ID,
		"status":     vehicle.Status,
		"action":     action,
	})

	c.JSON(http.StatusOK, gin.H{
		"vehicle": vehicle,
	})
}
