package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "error without cause",
			err:      NewTimeoutError("export polling exceeded deadline"),
			expected: "[TIMEOUT] export polling exceeded deadline",
		},
		{
			name:     "error with cause",
			err:      NewNetworkError("request failed", errors.New("connection refused")),
			expected: "[NETWORK] request failed: connection refused",
		},
		{
			name:     "not found formats resource",
			err:      NewNotFoundError("survey SV_abc123"),
			expected: "[NOT_FOUND] survey SV_abc123 not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying failure")
	err := NewArchiveError("cannot open archive", cause)

	assert.True(t, errors.Is(err, cause))

	var appErr *AppError
	require.True(t, errors.As(fmt.Errorf("wrapped: %w", err), &appErr))
	assert.Equal(t, ErrTypeArchive, appErr.Type)
}

func TestAppError_WithContext(t *testing.T) {
	err := NewAuthError("invalid API token", nil).
		WithContext("status_code", 401).
		WithContext("datacenter", "pdx1")

	assert.Equal(t, 401, err.Context["status_code"])
	assert.Equal(t, "pdx1", err.Context["datacenter"])
}

func TestIsType(t *testing.T) {
	err := NewExportFailedError("platform reported failure")

	assert.True(t, IsType(err, ErrTypeExportFailed))
	assert.False(t, IsType(err, ErrTypeTimeout))
	assert.True(t, IsType(fmt.Errorf("run aborted: %w", err), ErrTypeExportFailed))
	assert.False(t, IsType(errors.New("plain"), ErrTypeExportFailed))
}
