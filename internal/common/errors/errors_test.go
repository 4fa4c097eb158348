package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapKeepsCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewResolutionError("628123@s.whatsapp.net", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "[RESOLUTION_FAILURE] Identity resolution failed: connection refused", err.Error())
	assert.True(t, err.IsInternal())
	assert.Equal(t, "628123@s.whatsapp.net", err.Details["transport_id"])
}

func TestAsAppErrorFindsWrapped(t *testing.T) {
	inner := NewCooldownError(1500 * time.Millisecond)
	outer := fmt.Errorf("gate: %w", inner)

	appErr, ok := AsAppError(outer)
	require.True(t, ok)
	assert.Equal(t, ErrCodeCooldown, appErr.Code)
	assert.True(t, appErr.IsGateRejection())
	assert.True(t, HasCode(outer, ErrCodeCooldown))
	assert.False(t, HasCode(outer, ErrCodeQuotaExceeded))

	_, ok = AsAppError(stderrors.New("plain"))
	assert.False(t, ok)
	_, ok = AsAppError(nil)
	assert.False(t, ok)
}

func TestClassification(t *testing.T) {
	assert.True(t, NewNotFoundError("user", 1).IsNotFound())
	assert.True(t, NewValidationError("tier", "unknown").IsValidation())
	assert.True(t, NewUnauthorizedError("bad password").IsUnauthorized())
	assert.True(t, NewQuotaExceededError(30, 30).IsGateRejection())
	assert.False(t, NewHandlerTimeoutError("brat", time.Second).IsGateRejection())
}
