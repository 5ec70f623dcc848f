package util

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var Validate = validator.New()

// InitValidator makes validation errors report env var names instead of Go
// field names.
func InitValidator() {
	Validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("mapstructure"), ",", 2)[0]

		if name == "" || name == "-" {
			return field.Name
		}

		return name
	})
}
