package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Legend8883/CompetencyTestingSystem/internal/apperror"
	"github.com/Legend8883/CompetencyTestingSystem/internal/repository"
)

// ErrAssistantUnavailable is returned when the AI grading assistant has no client.
var ErrAssistantUnavailable = errors.New("grading assistant is not configured")

// lookupErr turns a missing record into a NotFound error and wraps anything
// else as an infrastructure failure.
func lookupErr(err error, what string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound("%s %d not found", what, id)
	}
	return fmt.Errorf("failed to load %s %d: %w", what, id, err)
}

// staleErr maps a lost optimistic race to a State error.
func staleErr(err error, attemptID uint) error {
	if errors.Is(err, repository.ErrStaleAttempt) {
		return apperror.State("attempt %d was changed by another request", attemptID)
	}
	return fmt.Errorf("failed to update attempt %d: %w", attemptID, err)
}
