package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Is(t *testing.T) {
	t.Run("matches sentinel by code through wrapping", func(t *testing.T) {
		err := fmt.Errorf("posting failed: %w", NewAlreadyPostedError("je-1"))

		assert.True(t, stderrors.Is(err, ErrAlreadyPosted))
		assert.False(t, stderrors.Is(err, ErrNotFound))
	})

	t.Run("unwraps the cause", func(t *testing.T) {
		cause := stderrors.New("connection reset")
		err := NewInternalError("failed to post", cause)

		assert.True(t, stderrors.Is(err, cause))
		assert.Equal(t, http.StatusInternalServerError, err.StatusCode)
	})
}

func TestAppError_WithDetail(t *testing.T) {
	base := NewValidationError("bad input")
	withField := base.WithDetail("field", "code")

	assert.Nil(t, base.Details)
	assert.Equal(t, "code", withField.Details["field"])
}

func TestAsAppError(t *testing.T) {
	t.Run("keeps application errors", func(t *testing.T) {
		err := fmt.Errorf("wrapped: %w", NewOverpaymentError("600.00", "400.00"))

		appErr := AsAppError(err)

		assert.Equal(t, CodeOverpayment, appErr.Code)
		assert.Equal(t, http.StatusConflict, appErr.StatusCode)
	})

	t.Run("hides unknown errors behind an internal error", func(t *testing.T) {
		appErr := AsAppError(stderrors.New("pq: deadlock detected"))

		assert.Equal(t, CodeInternal, appErr.Code)
		assert.Equal(t, "An unexpected error occurred", appErr.Message)
	})
}
