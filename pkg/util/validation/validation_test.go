package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type registerPayload struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=50"`
	Role     string `json:"role" validate:"omitempty,oneof=user assignee admin"`
}

func TestStruct_Valid(t *testing.T) {
	err := Struct(registerPayload{Name: "Ada", Email: "ada@example.com", Password: "secret1", Role: "assignee"})
	assert.NoError(t, err)
}

func TestStruct_MessagesUseJSONNames(t *testing.T) {
	tests := []struct {
		name    string
		payload registerPayload
		want    string
	}{
		{"missing name", registerPayload{Email: "a@b.co", Password: "secret1"}, "name is required"},
		{"bad email", registerPayload{Name: "Ada", Email: "nope", Password: "secret1"}, "email must be a valid email"},
		{"short password", registerPayload{Name: "Ada", Email: "a@b.co", Password: "abc"}, "password must be at least 6 characters"},
		{"unknown role", registerPayload{Name: "Ada", Email: "a@b.co", Password: "secret1", Role: "root"}, "role must be one of: user, assignee, admin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.payload)
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestStruct_JoinsMultipleFailures(t *testing.T) {
	err := Struct(registerPayload{})
	require.Error(t, err)
	assert.Equal(t, "name is required, email is required, password is required", err.Error())
}
