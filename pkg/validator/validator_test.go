package validator

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirosato/construction-erp/internal/domain/errors"
)

type sampleRequest struct {
	Code string `json:"code" validate:"required"`
	Name string `json:"name" validate:"required|maxLen:10"`
}

func TestValidator_Validate(t *testing.T) {
	v := New()

	t.Run("valid struct", func(t *testing.T) {
		assert.NoError(t, v.Validate(&sampleRequest{Code: "1000", Name: "Cash"}))
	})

	t.Run("missing required field", func(t *testing.T) {
		err := v.Validate(&sampleRequest{Name: "Cash"})

		require.Error(t, err)
		assert.True(t, stderrors.Is(err, errors.ErrValidation))

		var appErr errors.AppError
		require.True(t, stderrors.As(err, &appErr))
		assert.NotEmpty(t, appErr.Details["fields"])
	})

	t.Run("too long", func(t *testing.T) {
		err := v.Validate(&sampleRequest{Code: "1000", Name: "Cash and cash equivalents"})

		assert.Error(t, err)
	})
}
