package dto

import "time"

// --- HR authoring ---

type OptionCreateDTO struct {
	Text       string `json:"text" binding:"required,max=500"`
	IsCorrect  bool   `json:"is_correct"`
	OrderIndex *int   `json:"order_index,omitempty" binding:"omitempty,min=0"`
}

type QuestionCreateDTO struct {
	Text            string            `json:"text" binding:"required,min=5,max=1000"`
	Type            string            `json:"type" binding:"required,question_type"`
	MaxScore        int               `json:"max_score" binding:"required,min=1,max=100"`
	ReferenceAnswer *string           `json:"reference_answer,omitempty" binding:"omitempty,max=5000"`
	OrderIndex      *int              `json:"order_index,omitempty" binding:"omitempty,min=0"`
	Options         []OptionCreateDTO `json:"options,omitempty" binding:"omitempty,dive"`
}

type TestCreateDTO struct {
	Title            string              `json:"title" binding:"required,min=3,max=200"`
	Description      string              `json:"description,omitempty" binding:"max=1000"`
	TimeLimitMinutes int                 `json:"time_limit_minutes" binding:"required,min=5,max=180"`
	PassingScore     int                 `json:"passing_score" binding:"min=0"`
	Questions        []QuestionCreateDTO `json:"questions" binding:"required,min=1,dive"`
}

// --- HR views (correctness visible) ---

type OptionResponseDTO struct {
	ID         uint   `json:"id"`
	Text       string `json:"text"`
	IsCorrect  bool   `json:"is_correct"`
	OrderIndex int    `json:"order_index"`
}

type QuestionResponseDTO struct {
	ID              uint                `json:"id"`
	TestID          uint                `json:"test_id"`
	Text            string              `json:"text"`
	Type            string              `json:"type"`
	MaxScore        int                 `json:"max_score"`
	ReferenceAnswer *string             `json:"reference_answer,omitempty"`
	OrderIndex      int                 `json:"order_index"`
	Options         []OptionResponseDTO `json:"options,omitempty"`
}

type TestResponseDTO struct {
	ID               uint                  `json:"id"`
	Title            string                `json:"title"`
	Description      string                `json:"description,omitempty"`
	TimeLimitMinutes int                   `json:"time_limit_minutes"`
	PassingScore     int                   `json:"passing_score"`
	MaxPossibleScore int                   `json:"max_possible_score"`
	IsActive         bool                  `json:"is_active"`
	CreatedByID      uint                  `json:"created_by_id"`
	Questions        []QuestionResponseDTO `json:"questions,omitempty"`
	CreatedAt        time.Time             `json:"created_at"`
}

// TestSummaryDTO is used for test listings.
type TestSummaryDTO struct {
	ID               uint       `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description,omitempty"`
	TimeLimitMinutes int        `json:"time_limit_minutes"`
	PassingScore     int        `json:"passing_score"`
	IsActive         bool       `json:"is_active"`
	QuestionCount    int        `json:"question_count"`
	Deadline         *time.Time `json:"deadline,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// --- Employee views (correctness hidden) ---

type OptionViewDTO struct {
	ID         uint   `json:"id"`
	Text       string `json:"text"`
	OrderIndex int    `json:"order_index"`
}

type QuestionViewDTO struct {
	ID         uint            `json:"id"`
	Text       string          `json:"text"`
	Type       string          `json:"type"`
	MaxScore   int             `json:"max_score"`
	OrderIndex int             `json:"order_index"`
	Options    []OptionViewDTO `json:"options,omitempty"`
}

type TestViewDTO struct {
	ID               uint              `json:"id"`
	Title            string            `json:"title"`
	Description      string            `json:"description,omitempty"`
	TimeLimitMinutes int               `json:"time_limit_minutes"`
	PassingScore     int               `json:"passing_score"`
	MaxPossibleScore int               `json:"max_possible_score"`
	Questions        []QuestionViewDTO `json:"questions"`
}
