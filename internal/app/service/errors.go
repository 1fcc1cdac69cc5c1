package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ikkim/dealer-backend/internal/app/model"
	apperrors "github.com/ikkim/dealer-backend/internal/errors"
	"github.com/ikkim/dealer-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrVehicleNotFound  = &apperrors.NotFoundError{Resource: "vehicle", Code: apperrors.VehicleNotFound}
	ErrCustomerNotFound = &apperrors.NotFoundError{Resource: "customer", Code: apperrors.CustomerNotFound}
	ErrSaleNotFound     = &apperrors.NotFoundError{Resource: "sale", Code: apperrors.SaleNotFound}
	ErrUserNotFound     = &apperrors.NotFoundError{Resource: "user", Code: apperrors.UserNotFound}

	ErrDuplicateVIN        = apperrors.Conflict(apperrors.VehicleVINExists, "a vehicle with this VIN already exists")
	ErrVehicleNotAvailable = apperrors.Conflict(apperrors.VehicleNotAvailable, "vehicle not available")
	ErrVehicleHasSales     = apperrors.Conflict(apperrors.VehicleHasSales, "vehicle has sales and cannot be deleted")
	ErrDuplicateEmail      = apperrors.Conflict(apperrors.CustomerEmailExists, "a customer with this email already exists")
	ErrCustomerInactive    = apperrors.Conflict(apperrors.CustomerInactive, "customer is not active")
	ErrCustomerHasSales    = apperrors.Conflict(apperrors.CustomerHasSales, "customer has sales and cannot be deleted")
	ErrSaleFinalized       = apperrors.Conflict(apperrors.SaleFinalized, "sale is finalized and cannot be modified")
	ErrInvalidTransition   = apperrors.Conflict(apperrors.SaleInvalidTransition, "sale status does not allow this operation")
	ErrSaleStale           = apperrors.Conflict(apperrors.SaleStale, "sale was modified concurrently, reload and retry")
)

// Clock returns the current time. Services take one so tests can pin dates.
type Clock func() time.Time

func utcNow() time.Time {
	return time.Now().UTC()
}

// invalidTransition keeps the transition code but names the offending status.
func invalidTransition(action string, from model.SaleStatus) error {
	return apperrors.Conflict(apperrors.SaleInvalidTransition,
		fmt.Sprintf("cannot %s a sale in status %s", action, from))
}

// isDuplicateKey catches unique violations that slip past the pre-insert
// lookup when two writers race.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}

// logFailure logs business rejections as warnings and everything else as errors.
func logFailure(msg string, err error, fields map[string]interface{}) {
	if errors.Is(err, apperrors.ErrValidation) ||
		errors.Is(err, apperrors.ErrNotFound) ||
		errors.Is(err, apperrors.ErrConflict) {
		fields["reason"] = err.Error()
		logger.Warn(msg, fields)
		return
	}
	logger.Error(msg, err, fields)
}
