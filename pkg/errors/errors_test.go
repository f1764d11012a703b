package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneKeepsCodeAndMatchesTemplate(t *testing.T) {
	clone := Clone(ErrCourseFull, "Course is full.")

	assert.Equal(t, "Course is full.", clone.Message)
	assert.Equal(t, ErrCourseFull.Code, clone.Code)
	assert.True(t, errors.Is(clone, ErrCourseFull))
	assert.False(t, errors.Is(clone, ErrAlreadyEnrolled))
	assert.Equal(t, "course is full", ErrCourseFull.Message)
}

func TestFromErrorWrapsUnknownErrors(t *testing.T) {
	appErr := FromError(fmt.Errorf("boom"))

	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.EqualError(t, appErr, "internal server error: boom")
}

func TestFromErrorUnwrapsTypedErrors(t *testing.T) {
	wrapped := fmt.Errorf("context: %w", Clone(ErrValidation, "course code is required"))

	appErr := FromError(wrapped)

	assert.Equal(t, ErrValidation.Code, appErr.Code)
	assert.Equal(t, "course code is required", appErr.Message)
	assert.Nil(t, FromError(nil))
}
