package errors

import (
	"net/http"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo is a client-safe description of an infrastructure error.
type ErrorInfo struct {
	Status  int
	Code    string
	Message string
}

// ParseError translates database and driver errors into codes without
// leaking SQL. context names the operation, e.g. "vehicle".
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Status: http.StatusInternalServerError, Code: InternalServerError, Message: "internal server error"}
	}

	if Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{Status: http.StatusNotFound, Code: ResourceNotFound, Message: context + " not found"}
	}

	lower := strings.ToLower(err.Error())

	switch {
	case strings.Contains(lower, "duplicate key"),
		strings.Contains(lower, "unique constraint"),
		strings.Contains(lower, "duplicate entry"):
		return parseDuplicateKeyError(lower)
	case strings.Contains(lower, "foreign key constraint"):
		return ErrorInfo{Status: http.StatusConflict, Code: ResourceConflict, Message: context + " is referenced by other records"}
	case strings.Contains(lower, "connection refused"),
		strings.Contains(lower, "no such host"),
		strings.Contains(lower, "bad connection"):
		return ErrorInfo{Status: http.StatusServiceUnavailable, Code: InternalDatabaseError, Message: "database unavailable, try again later"}
	}

	return ErrorInfo{Status: http.StatusInternalServerError, Code: InternalServerError, Message: "failed to process " + context}
}

func parseDuplicateKeyError(lower string) ErrorInfo {
	switch {
	case strings.Contains(lower, "vin"):
		return ErrorInfo{Status: http.StatusConflict, Code: VehicleVINExists, Message: "a vehicle with this VIN already exists"}
	case strings.Contains(lower, "customers") && strings.Contains(lower, "email"):
		return ErrorInfo{Status: http.StatusConflict, Code: CustomerEmailExists, Message: "a customer with this email already exists"}
	}
	return ErrorInfo{Status: http.StatusConflict, Code: ResourceAlreadyExists, Message: "record already exists"}
}
