package http_utils

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

func TestNewValidationErrorResponse(t *testing.T) {
	t.Run("one entry per field", func(t *testing.T) {
		type request struct {
			Name string `validate:"required"`
			Age  int    `validate:"min=3"`
		}

		err := validator.New().Struct(request{Age: 1})

		response := NewValidationErrorResponse(err)

		require.False(t, response.Success)
		require.Len(t, response.Errors, 2)
	})

	t.Run("other errors", func(t *testing.T) {
		response := NewValidationErrorResponse(errors.New("boom"))

		require.Equal(t, []string{"boom"}, response.Errors)
	})
}

func TestNewDataResponse(t *testing.T) {
	response := NewDataResponse("rooms", []string{"garden"})

	require.True(t, response.Success)
	require.Equal(t, "rooms", response.Message)
	require.Equal(t, []string{"garden"}, response.Data)
}
