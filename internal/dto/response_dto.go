package dto

import "time"

type ErrorResponse struct {
	Error   string   `json:"error"`
	Kind    string   `json:"kind,omitempty"`
	Details []string `json:"details,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type QuestionProgressDTO struct {
	QuestionID uint `json:"question_id"`
	OrderIndex int  `json:"order_index"`
	Answered   bool `json:"answered"`
}

// CurrentQuestionDTO is the question on screen together with whatever the
// employee previously submitted for it.
type CurrentQuestionDTO struct {
	QuestionViewDTO
	SelectedOptionIDs []uint  `json:"selected_option_ids,omitempty"`
	OpenAnswerText    *string `json:"open_answer_text,omitempty"`
	Answered          bool    `json:"answered"`
}

type TestProgressDTO struct {
	AttemptID            uint                  `json:"attempt_id"`
	TestID               uint                  `json:"test_id"`
	TestTitle            string                `json:"test_title"`
	Status               string                `json:"status"`
	StartedAt            time.Time             `json:"started_at"`
	AutoSubmitAt         *time.Time            `json:"auto_submit_at,omitempty"`
	TimeLeftMinutes      int                   `json:"time_left_minutes"`
	TotalQuestions       int                   `json:"total_questions"`
	AnsweredQuestions    int                   `json:"answered_questions"`
	CurrentQuestionIndex int                   `json:"current_question_index"`
	CurrentQuestion      *CurrentQuestionDTO   `json:"current_question,omitempty"`
	QuestionProgress     []QuestionProgressDTO `json:"question_progress"`
}

// AttemptQuestionsDTO lists every question of an attempt with the employee's
// saved answers, for reviewing before completing.
type AttemptQuestionsDTO struct {
	AttemptID         uint                 `json:"attempt_id"`
	TestID            uint                 `json:"test_id"`
	TestTitle         string               `json:"test_title"`
	Status            string               `json:"status"`
	TimeLeftMinutes   int                  `json:"time_left_minutes"`
	TotalQuestions    int                  `json:"total_questions"`
	AnsweredQuestions int                  `json:"answered_questions"`
	Questions         []CurrentQuestionDTO `json:"questions"`
}

type AttemptSummaryDTO struct {
	ID          uint       `json:"id"`
	TestID      uint       `json:"test_id"`
	TestTitle   string     `json:"test_title,omitempty"`
	UserID      uint       `json:"user_id"`
	Status      string     `json:"status"`
	Score       int        `json:"score"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type AnswerResultDTO struct {
	QuestionID  uint   `json:"question_id"`
	Text        string `json:"text"`
	Type        string `json:"type"`
	MaxScore    int    `json:"max_score"`
	Earned      int    `json:"earned"`
	ScoreSource string `json:"score_source"`
	Answered    bool   `json:"answered"`
}

type TestResultDTO struct {
	AttemptID           uint              `json:"attempt_id"`
	TestID              uint              `json:"test_id"`
	TestTitle           string            `json:"test_title"`
	Status              string            `json:"status"`
	Score               int               `json:"score"`
	MaxPossibleScore    int               `json:"max_possible_score"`
	PassingScore        int               `json:"passing_score"`
	Percentage          float64           `json:"percentage"`
	Passed              *bool             `json:"passed,omitempty"`
	FullyCorrectAnswers int               `json:"fully_correct_answers"`
	TotalQuestions      int               `json:"total_questions"`
	StartedAt           time.Time         `json:"started_at"`
	CompletedAt         *time.Time        `json:"completed_at,omitempty"`
	Answers             []AnswerResultDTO `json:"answers"`
}

type AuthResponseDTO struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      UserDTO   `json:"user"`
}

type UserDTO struct {
	ID        uint   `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}
