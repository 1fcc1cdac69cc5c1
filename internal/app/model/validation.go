package model

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	apperrors "github.com/ikkim/dealer-backend/internal/errors"
)

var phonePattern = regexp.MustCompile(`^[+]?[0-9]{10,15}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report fields by their JSON name
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})

	return v
}

// validateStruct runs the tag rules and returns a collector the caller can
// extend with checks tags cannot express.
func validateStruct(s interface{}) *apperrors.ValidationError {
	verr := apperrors.NewValidationError()
	err := validate.Struct(s)
	if err == nil {
		return verr
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.Add("_", err.Error())
		return verr
	}
	for _, fe := range fieldErrs {
		verr.Add(fe.Field(), describe(fe))
	}
	return verr
}

func describe(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return "is required"
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "min":
		if isString {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if isString {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "phone":
		return "must be 10 to 15 digits, optionally prefixed with +"
	}
	return "is invalid"
}

var hundred = decimal.NewFromInt(100)

func checkNonNegative(verr *apperrors.ValidationError, field string, d *decimal.Decimal) {
	if d != nil && d.IsNegative() {
		verr.Add(field, "must be greater than or equal to 0")
	}
}

func checkPercent(verr *apperrors.ValidationError, field string, d *decimal.Decimal) {
	if d == nil {
		return
	}
	if d.IsNegative() || d.GreaterThan(hundred) {
		verr.Add(field, "must be between 0 and 100")
	}
}

func checkPast(verr *apperrors.ValidationError, field string, t *time.Time, now time.Time) {
	if t != nil && !t.Before(now) {
		verr.Add(field, "must be in the past")
	}
}
