package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DerivesCategoryFromCode(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		category Category
	}{
		{"config code", ErrCodeConfigInvalid, CategoryConfig},
		{"io code", ErrCodeFileNotFound, CategoryIO},
		{"network code", ErrCodeNetworkTimeout, CategoryNetwork},
		{"validation code", ErrCodeInvalidPath, CategoryValidation},
		{"internal code", ErrCodeOperationFailed, CategoryInternal},
		{"cancelled code", ErrCodeCancelled, CategoryCancelled},
		{"malformed code", "ERR", CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, "boom", nil)
			assert.Equal(t, tt.category, err.Category)
		})
	}
}

func TestError_Format(t *testing.T) {
	err := New(ErrCodeInvalidPath, "invalid path: /nope", nil)
	assert.Equal(t, "[ERR_406_INVALID_PATH] invalid path: /nope", err.Error())
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := fmt.Errorf("read failed")
	err := Wrap(ErrCodeFileNotFound, cause)

	require.NotNil(t, err)
	assert.Equal(t, "read failed", err.Message)
	assert.True(t, stderrors.Is(err, cause))
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeFileNotFound, nil))
}

func TestIs_MatchesByCode(t *testing.T) {
	a := New(ErrCodeOperationNotFound, "operation not found: x", nil)
	b := New(ErrCodeOperationNotFound, "different message", nil)
	c := New(ErrCodeOperationFailed, "operation not found: x", nil)

	assert.True(t, stderrors.Is(a, b))
	assert.False(t, stderrors.Is(a, c))
}

func TestIsCancelled(t *testing.T) {
	cancelled := Cancelled("operation cancelled by user")
	assert.True(t, IsCancelled(cancelled))
	assert.True(t, IsCancelled(fmt.Errorf("wrapped: %w", cancelled)))
	assert.False(t, IsCancelled(OperationFailed("boom", nil)))
	assert.False(t, IsCancelled(nil))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(New(ErrCodeNetworkTimeout, "timeout", nil)))
	assert.False(t, IsRetryable(New(ErrCodeInvalidPath, "bad", nil)))
	assert.False(t, IsRetryable(nil))
}

func TestCancelled_Severity(t *testing.T) {
	err := Cancelled("stopped")
	assert.Equal(t, SeverityInfo, err.Severity)
}

func TestWithDetail_Chains(t *testing.T) {
	err := InvalidPath("/tmp/x", nil).WithDetail("source", "add")
	assert.Equal(t, "/tmp/x", err.Details["path"])
	assert.Equal(t, "add", err.Details["source"])
}

func TestGetCode_UnwrapsChain(t *testing.T) {
	inner := EmbeddingError("model unavailable", nil)
	wrapped := fmt.Errorf("context 7: %w", inner)

	assert.Equal(t, ErrCodeEmbeddingFailed, GetCode(wrapped))
	assert.Equal(t, "", GetCode(fmt.Errorf("plain")))
}
