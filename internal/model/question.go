package model

import (
	"time"
)

type QuestionType string

const (
	QuestionTypeSingleChoice   QuestionType = "SINGLE_CHOICE"
	QuestionTypeMultipleChoice QuestionType = "MULTIPLE_CHOICE"
	QuestionTypeOpenAnswer     QuestionType = "OPEN_ANSWER"
)

func (t QuestionType) Valid() bool {
	switch t {
	case QuestionTypeSingleChoice, QuestionTypeMultipleChoice, QuestionTypeOpenAnswer:
		return true
	}
	return false
}

// IsChoice reports whether answers are given by selecting options.
func (t QuestionType) IsChoice() bool {
	return t == QuestionTypeSingleChoice || t == QuestionTypeMultipleChoice
}

type Question struct {
	ID              uint           `gorm:"primarykey" json:"id"`
	TestID          uint           `json:"test_id" gorm:"not null;uniqueIndex:idx_questions_test_order"`
	Text            string         `json:"text" gorm:"type:text;not null"`
	Type            QuestionType   `json:"type" gorm:"size:32;not null"`
	MaxScore        int            `json:"max_score" gorm:"not null"`
	ReferenceAnswer *string        `json:"reference_answer,omitempty" gorm:"type:text"`
	OrderIndex      int            `json:"order_index" gorm:"not null;uniqueIndex:idx_questions_test_order"`
	Options         []AnswerOption `json:"options,omitempty" gorm:"foreignKey:QuestionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

type AnswerOption struct {
	ID         uint   `gorm:"primarykey" json:"id"`
	QuestionID uint   `json:"question_id" gorm:"not null;uniqueIndex:idx_options_question_order"`
	Text       string `json:"text" gorm:"size:500;not null"`
	IsCorrect  bool   `json:"is_correct" gorm:"not null;default:false"`
	OrderIndex int    `json:"order_index" gorm:"not null;uniqueIndex:idx_options_question_order"`
}

// CorrectOptionIDs returns the ids of options flagged correct, in option order.
func (q *Question) CorrectOptionIDs() []uint {
	var ids []uint
	for _, o := range q.Options {
		if o.IsCorrect {
			ids = append(ids, o.ID)
		}
	}
	return ids
}
