package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_ErrorString(t *testing.T) {
	plain := NotFound("user not found")
	assert.Equal(t, "user not found", plain.Error())

	wrapped := Wrap(errors.New("underlying"), ErrCodeInternal, "lookup failed")
	assert.Equal(t, "lookup failed: underlying", wrapped.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	wrapped := Wrap(cause, ErrCodeInternal, "wrapped")

	assert.ErrorIs(t, wrapped, cause)

	var appErr *AppError
	require.ErrorAs(t, wrapped, &appErr)
	assert.Equal(t, ErrCodeInternal, appErr.Code)
}

func TestWrap_NilError(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeInternal, "should be nil"))
}

func TestCodeCheckers(t *testing.T) {
	assert.True(t, IsNotFound(NotFoundf("user %s not found", "u1")))
	assert.True(t, IsConflict(Conflict("dup")))
	assert.True(t, IsValidation(Validation("bad input")))
	assert.True(t, IsForbidden(Forbidden("nope")))
	assert.True(t, IsUnauthorized(Unauthorized("login first")))
	assert.True(t, IsInternal(Internal("boom")))

	plain := errors.New("plain")
	assert.False(t, IsNotFound(plain))
	assert.False(t, IsConflict(plain))
}

func TestCodeCheckers_WrappedChain(t *testing.T) {
	inner := NotFound("missing")
	outer := Wrapf(inner, ErrCodeInternal, "while handling %s", "request")

	// The outermost code wins for direct checks.
	assert.True(t, IsInternal(outer))
	assert.Equal(t, ErrCodeInternal, GetCode(outer))
}

func TestGetField(t *testing.T) {
	err := ValidationField("email", "invalid email")
	assert.Equal(t, "email", GetField(err))
	assert.Equal(t, "", GetField(errors.New("plain")))
}
