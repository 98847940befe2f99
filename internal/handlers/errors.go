package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/dimitrije/gigflow-api/internal/services"
	"github.com/dimitrije/gigflow-api/pkg/dto"
	"github.com/go-playground/validator/v10"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/sirupsen/logrus"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// respondError maps a service error onto its HTTP status. Errors without a
// kind are logged and reported as fallback with a 500.
func respondError(c *drift.Context, log logrus.FieldLogger, err error, fallback string) {
	message := err.Error()
	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		message = svcErr.Msg
	}

	switch {
	case errors.Is(err, services.ErrNotFound):
		writeError(c, http.StatusNotFound, "not_found", message)
	case errors.Is(err, services.ErrForbidden):
		writeError(c, http.StatusForbidden, "forbidden", message)
	case errors.Is(err, services.ErrInvalidState):
		writeError(c, http.StatusUnprocessableEntity, "invalid_state", message)
	case errors.Is(err, services.ErrConflict):
		writeError(c, http.StatusConflict, "conflict", message)
	case errors.Is(err, services.ErrUnavailable):
		log.WithError(err).Warn(fallback)
		c.Response.Header().Set("Retry-After", "1")
		writeError(c, http.StatusServiceUnavailable, "unavailable", message)
	default:
		log.WithError(err).Error(fallback)
		c.InternalServerError(fallback)
	}
}

func writeError(c *drift.Context, status int, code, message string) {
	_ = c.JSON(status, dto.ErrorResponse{Code: code, Message: message})
}

// validationMessage renders validator field errors as one readable line.
func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return "invalid request body"
	}

	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, fmt.Sprintf("'%s': %s", fe.Field(), fieldMessage(fe)))
	}
	return strings.Join(parts, "; ")
}

func fieldMessage(fe validator.FieldError) string {
	kind := fe.Kind()
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "uuid":
		return "should be a valid id"
	case "max", "lte":
		if kind == reflect.String {
			return "length should be less or equal than " + fe.Param()
		}
		return "should be less or equal than " + fe.Param()
	case "min", "gte":
		if kind == reflect.String {
			return "length should be greater or equal than " + fe.Param()
		}
		return "should be greater or equal than " + fe.Param()
	}
	return "incorrect value passed"
}
