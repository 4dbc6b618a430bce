package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfSurvivesWrapping(t *testing.T) {
	base := State("attempt %d is already completed", 7)
	wrapped := fmt.Errorf("complete attempt: %w", base)

	kind, ok := KindOf(wrapped)
	assert.True(t, ok)
	assert.Equal(t, KindState, kind)
	assert.True(t, Is(wrapped, KindState))
	assert.False(t, Is(wrapped, KindPolicy))
	assert.Equal(t, "complete attempt: attempt 7 is already completed", wrapped.Error())
}

func TestKindOfPlainError(t *testing.T) {
	_, ok := KindOf(errors.New("connection reset"))
	assert.False(t, ok)
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("record not found")
	err := Wrap(KindNotFound, cause, "test %d not found", 3)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "test 3 not found: record not found", err.Error())
}
