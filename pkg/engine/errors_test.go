package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEngineError_Error(t *testing.T) {
	t.Parallel()

	t.Run("error with project and vault includes both in message", func(t *testing.T) {
		t.Parallel()
		err := &EngineError{Code: ErrNotFound, Message: "vault not found", Project: "proj-1", Vault: "v1"}

		assert.Contains(t, err.Error(), "vault not found")
		assert.Contains(t, err.Error(), "proj-1")
		assert.Contains(t, err.Error(), "v1")
	})

	t.Run("error without scope returns message only", func(t *testing.T) {
		t.Parallel()
		err := &EngineError{Code: ErrBackend, Message: "connection refused"}

		assert.Equal(t, "connection refused", err.Error())
	})
}

func TestErrorFactories(t *testing.T) {
	t.Parallel()

	t.Run("NewNotFoundError", func(t *testing.T) {
		t.Parallel()
		err := NewNotFoundError("proj-1", "v1", "block not found")
		assert.Equal(t, ErrNotFound, err.Code)
		assert.True(t, IsNotFound(err))
		assert.False(t, IsConstraint(err))
	})

	t.Run("NewConstraintError", func(t *testing.T) {
		t.Parallel()
		err := NewConstraintError("proj-1", "v1", "vault not empty")
		assert.Equal(t, ErrConstraint, err.Code)
		assert.True(t, IsConstraint(err))
	})

	t.Run("NewAlreadyFinalizedError", func(t *testing.T) {
		t.Parallel()
		err := NewAlreadyFinalizedError("proj-1", "v1")
		assert.Equal(t, ErrAlreadyFinalized, err.Code)
		assert.True(t, IsAlreadyFinalized(err))
	})

	t.Run("NewBackendError wraps the cause message", func(t *testing.T) {
		t.Parallel()
		cause := assert.AnError
		err := NewBackendError("proj-1", "v1", cause)
		assert.Equal(t, ErrBackend, err.Code)
		assert.Contains(t, err.Message, cause.Error())
	})

	t.Run("ValidationError counts diagnostics", func(t *testing.T) {
		t.Parallel()
		diags := []Diagnostic{{Kind: DiagnosticGap}, {Kind: DiagnosticOverlap}}
		err := ValidationError("proj-1", "v1", diags)
		assert.Equal(t, ErrValidation, err.Code)
		assert.Contains(t, err.Message, "2")
	})
}

func TestIsHelpers_NilError(t *testing.T) {
	t.Parallel()
	assert.False(t, IsNotFound(nil))
	assert.False(t, IsConstraint(nil))
	assert.False(t, IsAlreadyFinalized(nil))
}

func TestIsHelpers_NonEngineError(t *testing.T) {
	t.Parallel()
	plain := assert.AnError
	assert.False(t, IsNotFound(plain))
}
