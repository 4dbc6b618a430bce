package model

import (
	"time"
)

type AttemptStatus string

const (
	AttemptStatusInProgress    AttemptStatus = "IN_PROGRESS"
	AttemptStatusCompleted     AttemptStatus = "COMPLETED"
	AttemptStatusAutoSubmitted AttemptStatus = "AUTO_SUBMITTED"
	AttemptStatusEvaluating    AttemptStatus = "EVALUATING"
	AttemptStatusEvaluated     AttemptStatus = "EVALUATED"
)

func (s AttemptStatus) Valid() bool {
	switch s {
	case AttemptStatusInProgress, AttemptStatusCompleted, AttemptStatusAutoSubmitted,
		AttemptStatusEvaluating, AttemptStatusEvaluated:
		return true
	}
	return false
}

// Final reports whether the score of an attempt in this status will not change
// without HR re-grading.
func (s AttemptStatus) Final() bool {
	return s == AttemptStatusCompleted || s == AttemptStatusAutoSubmitted || s == AttemptStatusEvaluated
}

// Attempt is one employee's sitting of one test. At most one attempt per
// (user, test) may be IN_PROGRESS; the partial unique index enforces it.
type Attempt struct {
	ID           uint          `gorm:"primarykey" json:"id"`
	UserID       uint          `json:"user_id" gorm:"not null;index;uniqueIndex:idx_attempts_active,where:status = 'IN_PROGRESS'"`
	TestID       uint          `json:"test_id" gorm:"not null;index;uniqueIndex:idx_attempts_active,where:status = 'IN_PROGRESS'"`
	Test         Test          `json:"test,omitempty" gorm:"foreignKey:TestID"`
	Status       AttemptStatus `json:"status" gorm:"size:32;not null;index"`
	Score        int           `json:"score" gorm:"not null;default:0"`
	StartedAt    time.Time     `json:"started_at" gorm:"not null"`
	AutoSubmitAt *time.Time    `json:"auto_submit_at,omitempty" gorm:"index"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
	Version      int           `json:"-" gorm:"not null;default:0"`
	Answers      []Answer      `json:"answers,omitempty" gorm:"foreignKey:AttemptID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Expired reports whether the time limit has run out at now.
func (a *Attempt) Expired(now time.Time) bool {
	return a.AutoSubmitAt != nil && now.After(*a.AutoSubmitAt)
}
