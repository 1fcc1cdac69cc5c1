package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func RespondWithError(c *gin.Context, statusCode int, errorCode string, message string) {
	c.JSON(statusCode, ErrorResponse{
		Error:   errorCode,
		Message: message,
	})
}

func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "authentication required"
	}
	RespondWithError(c, http.StatusUnauthorized, AuthUnauthorized, message)
}

func Forbidden(c *gin.Context, message string) {
	if message == "" {
		message = "insufficient permissions"
	}
	RespondWithError(c, http.StatusForbidden, AuthzForbidden, message)
}

func BadRequest(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusBadRequest, errorCode, message)
}

func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "internal server error"
	}
	RespondWithError(c, http.StatusInternalServerError, InternalServerError, message)
}

func RespondWithValidationError(c *gin.Context, verr *ValidationError) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   ValidationInvalidInput,
		Message: "input is invalid",
		Fields:  verr.Fields(),
	})
}

// Respond writes err using its kind: validation 400, not found 404,
// conflict 409. Anything else goes through ParseError and ends up 409 for
// constraint violations or 500.
func Respond(c *gin.Context, err error, context string) {
	var verr *ValidationError
	if As(err, &verr) {
		RespondWithValidationError(c, verr)
		return
	}

	var nf *NotFoundError
	if As(err, &nf) {
		code := nf.Code
		if code == "" {
			code = ResourceNotFound
		}
		RespondWithError(c, http.StatusNotFound, code, nf.Error())
		return
	}

	var ce *ConflictError
	if As(err, &ce) {
		RespondWithError(c, http.StatusConflict, ce.Code, ce.Message)
		return
	}

	info := ParseError(err, context)
	RespondWithError(c, info.Status, info.Code, info.Message)
}
