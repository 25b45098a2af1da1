package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestToDomainError(t *testing.T) {
	cause := errors.New("connection reset")

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"validation", NewValidationError("title is required"), http.StatusBadRequest, "VALIDATION_FAILED", "title is required"},
		{"not found", NewNotFound("ticket"), http.StatusNotFound, "NOT_FOUND", "ticket not found"},
		{"forbidden", NewForbidden("access denied"), http.StatusForbidden, "FORBIDDEN", "access denied"},
		{"wrapped domain error", fmt.Errorf("reassign: %w", NewUnauthorized("authentication required")), http.StatusUnauthorized, "UNAUTHORIZED", "authentication required"},
		{"fiber error", fiber.NewError(http.StatusNotFound, "Cannot GET /nope"), http.StatusNotFound, "NOT_FOUND", "Cannot GET /nope"},
		{"unknown error", cause, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			de := ToDomainError(tt.err)
			assert.Equal(t, tt.wantStatus, de.HTTPStatus)
			assert.Equal(t, tt.wantCode, de.Code)
			assert.Equal(t, tt.wantMsg, de.Message)
		})
	}
}

func TestInternalErrorKeepsCauseOutOfMessage(t *testing.T) {
	cause := errors.New("pq: password authentication failed")
	de := ToDomainError(NewInternalError(cause))

	assert.Equal(t, "internal server error", de.Message)
	assert.ErrorIs(t, de, cause)
}

func TestIsStatus(t *testing.T) {
	assert.True(t, IsStatus(NewForbidden("no"), http.StatusForbidden))
	assert.False(t, IsStatus(NewForbidden("no"), http.StatusNotFound))
	assert.False(t, IsStatus(nil, http.StatusOK))
}
