package validators

import (
	"github.com/go-playground/validator/v10"
)

// CustomValidator plugs go-playground/validator into echo's Validator hook.
type CustomValidator struct {
	validator *validator.Validate
}

func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate checks the `validate` tags of i.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
