package http_utils

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

// NewValidationErrorResponse flattens validator errors into one message per
// field. Any other error is reported as is.
func NewValidationErrorResponse(err error) ValidationErrorResponse {
	response := ValidationErrorResponse{
		BaseResponse: NewBaseResponse(false, "invalid request, validation failed"),
		Errors:       []string{},
	}

	var vErrs validator.ValidationErrors

	if !errors.As(err, &vErrs) {
		response.Errors = append(response.Errors, err.Error())
		return response
	}

	response.Errors = lo.Map(vErrs, func(item validator.FieldError, index int) string {
		return item.Error()
	})

	return response
}
