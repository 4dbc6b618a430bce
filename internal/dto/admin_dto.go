package dto

import "time"

type AssignmentDTO struct {
	ID           uint       `json:"id"`
	TestID       uint       `json:"test_id"`
	UserID       uint       `json:"user_id"`
	AssignedByID uint       `json:"assigned_by_id"`
	AssignedAt   time.Time  `json:"assigned_at"`
	Deadline     *time.Time `json:"deadline,omitempty"`
	IsActive     bool       `json:"is_active"`
	IsCompleted  bool       `json:"is_completed"`
}

// AnswerForEvaluationDTO is one entry of the HR grading queue.
type AnswerForEvaluationDTO struct {
	AnswerID        uint       `json:"answer_id"`
	AttemptID       uint       `json:"attempt_id"`
	QuestionID      uint       `json:"question_id"`
	QuestionText    string     `json:"question_text"`
	ReferenceAnswer *string    `json:"reference_answer,omitempty"`
	MaxScore        int        `json:"max_score"`
	OpenAnswerText  *string    `json:"open_answer_text,omitempty"`
	AssignedScore   *int       `json:"assigned_score,omitempty"`
	GradedByID      *uint      `json:"graded_by_id,omitempty"`
	GradedAt        *time.Time `json:"graded_at,omitempty"`
	AnsweredAt      *time.Time `json:"answered_at,omitempty"`
}

type GradeSuggestionDTO struct {
	AnswerID       uint   `json:"answer_id"`
	SuggestedScore int    `json:"suggested_score"`
	MaxScore       int    `json:"max_score"`
	Feedback       string `json:"feedback"`
}

// AnswerReviewDTO is the HR view of one answer, with option correctness.
type AnswerReviewDTO struct {
	AnswerID          uint                `json:"answer_id"`
	QuestionID        uint                `json:"question_id"`
	QuestionText      string              `json:"question_text"`
	Type              string              `json:"type"`
	MaxScore          int                 `json:"max_score"`
	OrderIndex        int                 `json:"order_index"`
	Options           []OptionResponseDTO `json:"options,omitempty"`
	ReferenceAnswer   *string             `json:"reference_answer,omitempty"`
	SelectedOptionIDs []uint              `json:"selected_option_ids,omitempty"`
	OpenAnswerText    *string             `json:"open_answer_text,omitempty"`
	AutoScore         *int                `json:"auto_score,omitempty"`
	AssignedScore     *int                `json:"assigned_score,omitempty"`
	FinalScore        int                 `json:"final_score"`
	ScoreSource       string              `json:"score_source"`
	AnsweredAt        *time.Time          `json:"answered_at,omitempty"`
}

type AttemptReviewDTO struct {
	AttemptSummaryDTO
	EmployeeName     string            `json:"employee_name,omitempty"`
	MaxPossibleScore int               `json:"max_possible_score"`
	PassingScore     int               `json:"passing_score"`
	Percentage       float64           `json:"percentage"`
	Passed           *bool             `json:"passed,omitempty"`
	PendingGrading   int               `json:"pending_grading"`
	Answers          []AnswerReviewDTO `json:"answers"`
}
