package errors

// Error codes returned in the "error" field of every JSON error body.
// Format: CATEGORY_DETAIL. Clients map these codes to messages.
const (
	// auth
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"
	AuthTokenRevoked       = "AUTH_TOKEN_REVOKED"
	AuthRateLimited        = "AUTH_RATE_LIMITED"
	UserNotFound           = "USER_NOT_FOUND"

	// authz
	AuthzForbidden = "AUTHZ_FORBIDDEN"

	// validation
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID    = "VALIDATION_INVALID_ID"

	// generic resource
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// vehicles
	VehicleNotFound     = "VEHICLE_NOT_FOUND"
	VehicleVINExists    = "VEHICLE_VIN_EXISTS"
	VehicleNotAvailable = "VEHICLE_NOT_AVAILABLE"
	VehicleHasSales     = "VEHICLE_HAS_SALES"

	// customers
	CustomerNotFound    = "CUSTOMER_NOT_FOUND"
	CustomerEmailExists = "CUSTOMER_EMAIL_EXISTS"
	CustomerInactive    = "CUSTOMER_INACTIVE"
	CustomerHasSales    = "CUSTOMER_HAS_SALES"

	// sales
	SaleNotFound          = "SALE_NOT_FOUND"
	SaleFinalized         = "SALE_FINALIZED"
	SaleInvalidTransition = "SALE_INVALID_TRANSITION"
	SaleStale             = "SALE_STALE"

	// internal
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalStorageError  = "INTERNAL_STORAGE_ERROR"
)
