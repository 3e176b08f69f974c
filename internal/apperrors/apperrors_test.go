package apperrors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeForbidden, CodeOf(Forbidden("nope")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
	assert.Equal(t, CodeInternal, CodeOf(nil))
}

func TestMessageOfMasksUnknownErrors(t *testing.T) {
	assert.Equal(t, "nope", MessageOf(Forbidden("nope")))
	assert.Equal(t, "internal error", MessageOf(errors.New("postgres: connection refused")))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("boom")
	err := Internal("could not store message", cause)
	require.True(t, errors.Is(err, cause))
	assert.Equal(t, CodeInternal, CodeOf(err))
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Unauthorized("x"), http.StatusUnauthorized},
		{Forbidden("x"), http.StatusForbidden},
		{NotFound("x"), http.StatusNotFound},
		{BadRequest("x"), http.StatusBadRequest},
		{Validation("x"), http.StatusBadRequest},
		{Conflict("x"), http.StatusConflict},
		{Internal("x", nil), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err))
	}
}
