package errors_test

import (
	stderrors "errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vytor/blundercheck/internal/errors"
)

func TestAppError_Error(t *testing.T) {
	err := errors.NewEngineError("evaluation failed", io.ErrUnexpectedEOF)
	assert.Equal(t, "ENGINE_ERROR: evaluation failed (unexpected EOF)", err.Error())

	cfg := errors.NewConfigError("WDL_MODEL", "unknown model")
	assert.Equal(t, "CONFIG_ERROR: invalid configuration for WDL_MODEL: unknown model", cfg.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	err := fmt.Errorf("game 3: %w", errors.NewEngineError("evaluation failed", io.EOF))
	assert.True(t, stderrors.Is(err, io.EOF))
	assert.True(t, errors.IsCode(err, errors.ErrCodeEngine))
	assert.False(t, errors.IsCode(err, errors.ErrCodeConfig))
}

func TestIsCode_PlainError(t *testing.T) {
	assert.False(t, errors.IsCode(io.EOF, errors.ErrCodeInput))
	assert.False(t, errors.IsCode(nil, errors.ErrCodeInput))
}
