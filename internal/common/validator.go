package common

import (
	"fmt"

	"github.com/go-playground/validator"
)

// GenericEchoValidator validates structs using `validate` tags. It satisfies
// echo.Validator and is also used for configuration files.
type GenericEchoValidator struct {
	Validator *validator.Validate
}

func NewGenericEchoValidator() *GenericEchoValidator {
	return &GenericEchoValidator{Validator: validator.New()}
}

func (gv *GenericEchoValidator) Validate(i interface{}) error {
	if gv.Validator == nil {
		gv.Validator = validator.New()
	}
	if err := gv.Validator.Struct(i); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}
