package validator

import (
	"github.com/gookit/validate"

	"github.com/hirosato/construction-erp/internal/domain/errors"
)

// Validator provides validation functions for request data
type Validator interface {
	// Validate validates a struct based on its validate tags
	Validate(i interface{}) error
}

// New creates a new validator
func New() Validator {
	return &tagValidator{}
}

type tagValidator struct{}

// Validate runs the struct's tag rules and reports the first failure as a
// validation error with every failing field in the details.
func (v *tagValidator) Validate(i interface{}) error {
	vd := validate.Struct(i)
	if vd.Validate() {
		return nil
	}

	fields := make(map[string]interface{}, len(vd.Errors))
	for field, msgs := range vd.Errors.All() {
		fields[field] = msgs
	}
	return errors.NewValidationError(vd.Errors.One()).WithDetail("fields", fields)
}
