package dto

import "time"

// SubmitAnswerDTO carries one answer. SelectedOptionIDs is read for choice
// questions and OpenAnswerText for open-answer questions.
type SubmitAnswerDTO struct {
	QuestionID        uint    `json:"question_id" binding:"required"`
	SelectedOptionIDs []uint  `json:"selected_option_ids,omitempty"`
	OpenAnswerText    *string `json:"open_answer_text,omitempty"`
}

type GoToQuestionDTO struct {
	QuestionID uint `json:"question_id" binding:"required"`
}

type GradeAnswerDTO struct {
	Score *int `json:"score" binding:"required"`
}

type AssignTestDTO struct {
	UserIDs  []uint     `json:"user_ids" binding:"required,min=1"`
	Deadline *time.Time `json:"deadline,omitempty"`
}

type RegisterDTO struct {
	Email      string `json:"email" binding:"required,email,max=255"`
	Password   string `json:"password" binding:"required,min=8,max=72"`
	FirstName  string `json:"first_name" binding:"required,max=100"`
	LastName   string `json:"last_name" binding:"required,max=100"`
	InviteCode string `json:"invite_code,omitempty"`
}

type LoginDTO struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}
