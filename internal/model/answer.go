package model

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Answer holds an employee's response to one question of an attempt. The row
// is created blank when the attempt starts; AnsweredAt stays nil until the
// first submission.
type Answer struct {
	ID                uint                      `gorm:"primarykey" json:"id"`
	AttemptID         uint                      `json:"attempt_id" gorm:"not null;uniqueIndex:idx_answers_attempt_question"`
	QuestionID        uint                      `json:"question_id" gorm:"not null;uniqueIndex:idx_answers_attempt_question;index"`
	SelectedOptionIDs datatypes.JSONSlice[uint] `json:"selected_option_ids,omitempty"`
	OpenAnswerText    *string                   `json:"open_answer_text,omitempty" gorm:"type:text"`
	AutoScore         *int                      `json:"auto_score,omitempty"`
	AssignedScore     *int                      `json:"assigned_score,omitempty"`
	GradedByID        *uint                     `json:"graded_by_id,omitempty"`
	GradedAt          *time.Time                `json:"graded_at,omitempty"`
	AnsweredAt        *time.Time                `json:"answered_at,omitempty" gorm:"index"`
	CreatedAt         time.Time                 `json:"created_at"`
	UpdatedAt         time.Time                 `json:"updated_at"`
}

// Answered reports whether the employee has submitted this answer at least once.
func (a *Answer) Answered() bool {
	return a.AnsweredAt != nil
}

// HasContent reports whether the answer carries a non-empty selection or text.
func (a *Answer) HasContent() bool {
	if len(a.SelectedOptionIDs) > 0 {
		return true
	}
	return a.OpenAnswerText != nil && strings.TrimSpace(*a.OpenAnswerText) != ""
}
