package goerror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
		msg  string
	}{
		{name: "server", err: NewServer(errors.New("db down")), want: http.StatusInternalServerError, msg: "Internal server error"},
		{name: "server msg", err: NewServerMsg(errors.New("smtp"), "Failed to send OTP email."), want: http.StatusInternalServerError, msg: "Failed to send OTP email."},
		{name: "not found", err: NewBusiness("User not found.", CodeNotFound), want: http.StatusNotFound, msg: "User not found."},
		{name: "conflict", err: NewBusiness("User already exists.", CodeConflict), want: http.StatusConflict, msg: "User already exists."},
		{name: "unauthorized", err: NewBusiness("Invalid password.", CodeUnauthorized), want: http.StatusUnauthorized, msg: "Invalid password."},
		{name: "invalid input", err: NewInvalidInput(errors.New("bad")), want: http.StatusUnprocessableEntity, msg: "Validation error"},
		{name: "invalid format", err: NewInvalidFormat(), want: http.StatusBadRequest, msg: "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gerr, ok := As(fmt.Errorf("wrapped: %w", tt.err))
			require.True(t, ok)
			assert.Equal(t, tt.want, gerr.StatusCode())
			assert.Equal(t, tt.msg, gerr.Msg())
		})
	}
}

func TestUnwrapKeepsCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	err := NewServer(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "connection reset", err.Error())
}

func TestNewInvalidInputFields(t *testing.T) {
	t.Parallel()

	gerr, ok := As(NewInvalidInput(nil, "email", "email is required"))
	require.True(t, ok)
	assert.Equal(t, TypeValidation, gerr.Type())
	assert.Equal(t, map[string]string{"email": "email is required"}, gerr.Fields())

	gerr, ok = As(NewInvalidInput(nil, "odd"))
	require.True(t, ok)
	assert.Equal(t, CodeInvalidFormat, gerr.Code())
}

func TestAsNonGoerror(t *testing.T) {
	t.Parallel()

	_, ok := As(errors.New("plain"))
	assert.False(t, ok)
}
