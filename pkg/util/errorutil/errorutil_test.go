package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToDomainError(t *testing.T) {
	notFound := NewNotFound("ticket", map[string]any{"ticket_id": "t1"})

	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"domain error passes through", notFound, CodeNotFound, http.StatusNotFound},
		{"wrapped domain error", fmt.Errorf("lookup: %w", notFound), CodeNotFound, http.StatusNotFound},
		{"record not found", fmt.Errorf("scan: %w", ErrRecordNotFound), CodeNotFound, http.StatusNotFound},
		{"conflict", NewConflict("busy", nil), CodeConflict, http.StatusConflict},
		{"anything else is internal", errors.New("boom"), CodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToDomainError(tt.err)
			assert.Equal(t, tt.code, got.Code)
			assert.Equal(t, tt.status, got.HTTPStatus)
		})
	}

	assert.Nil(t, ToDomainError(nil))
	assert.NoError(t, MapError(nil))
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("wrap: %w", NewValidationError("bad", nil))

	assert.True(t, HasCode(err, CodeValidation))
	assert.False(t, IsNotFound(err))
	assert.False(t, HasCode(errors.New("plain"), CodeValidation))
}

func TestInternalErrorUnwraps(t *testing.T) {
	cause := errors.New("disk full")

	err := NewInternalError(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "internal server error: disk full", err.Error())
}
