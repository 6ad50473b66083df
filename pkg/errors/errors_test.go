package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrNotFound, CodeOf(NewNotFound("user", nil)))
	assert.Equal(t, ErrBadRequest, CodeOf(NewValidation("roles", "roles list cannot be empty")))
	assert.Equal(t, ErrForbidden, CodeOf(fmt.Errorf("wrapped: %w", NewForbidden("no"))))
	assert.Equal(t, ErrInternal, CodeOf(stderrors.New("boom")))
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsNotFound(NewNotFoundf("medicine not found or inactive")))
	assert.True(t, IsValidation(NewBadRequest("bad", nil)))
	assert.True(t, IsConflict(NewConflict("schedule[1]", "duplicate")))
	assert.True(t, IsForbidden(NewForbidden("patient profile is inactive")))
	assert.False(t, IsNotFound(nil))
	assert.False(t, IsValidation(stderrors.New("plain")))
}

func TestAppErrorMessage(t *testing.T) {
	err := NewValidation("endDate", "endDate before startDate")
	assert.Equal(t, "endDate: endDate before startDate", err.Error())

	cause := stderrors.New("db down")
	internal := NewInternal(cause)
	assert.ErrorIs(t, internal, cause)
	assert.Equal(t, "internal server error: db down", internal.Error())
}

func TestCodeString(t *testing.T) {
	assert.Equal(t, "validation", ErrBadRequest.String())
	assert.Equal(t, "authorization", ErrForbidden.String())
	assert.Equal(t, "not_found", ErrNotFound.String())
	assert.Equal(t, "internal", ErrorCode(0).String())
}
