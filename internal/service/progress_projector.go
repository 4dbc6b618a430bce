package service

import (
	"time"

	"github.com/Legend8883/CompetencyTestingSystem/internal/dto"
	"github.com/Legend8883/CompetencyTestingSystem/internal/model"
)

// ProgressInput is everything the employee progress view is built from.
// Questions and their options must be in order.
type ProgressInput struct {
	Attempt *model.Attempt
	Test    *model.Test
	Answers []model.Answer
	Now     time.Time
	// FocusQuestionID, when set, selects the current question explicitly.
	FocusQuestionID *uint
}

// ProjectProgress builds the read-only view of an attempt for the employee
// taking it. It never exposes option correctness.
func ProjectProgress(in ProgressInput) *dto.TestProgressDTO {
	byQuestion := make(map[uint]*model.Answer, len(in.Answers))
	for i := range in.Answers {
		byQuestion[in.Answers[i].QuestionID] = &in.Answers[i]
	}

	questions := in.Test.Questions
	view := &dto.TestProgressDTO{
		AttemptID:        in.Attempt.ID,
		TestID:           in.Test.ID,
		TestTitle:        in.Test.Title,
		Status:           string(in.Attempt.Status),
		StartedAt:        in.Attempt.StartedAt,
		AutoSubmitAt:     in.Attempt.AutoSubmitAt,
		TimeLeftMinutes:  TimeLeftMinutes(in.Attempt, in.Now),
		TotalQuestions:   len(questions),
		QuestionProgress: make([]dto.QuestionProgressDTO, 0, len(questions)),
	}

	current := -1
	for i := range questions {
		q := &questions[i]
		a := byQuestion[q.ID]
		answered := a != nil && a.Answered()
		if answered {
			view.AnsweredQuestions++
		}
		view.QuestionProgress = append(view.QuestionProgress, dto.QuestionProgressDTO{
			QuestionID: q.ID,
			OrderIndex: q.OrderIndex,
			Answered:   answered,
		})
		if in.FocusQuestionID != nil {
			if q.ID == *in.FocusQuestionID {
				current = i
			}
		} else if current < 0 && (a == nil || !a.HasContent()) {
			current = i
		}
	}
	if len(questions) == 0 {
		return view
	}
	if current < 0 {
		current = len(questions) - 1
	}

	view.CurrentQuestionIndex = current
	view.CurrentQuestion = currentQuestion(&questions[current], byQuestion[questions[current].ID])
	return view
}

// ProjectQuestions shows every question of the attempt with the answer saved
// for it. FocusQuestionID is ignored.
func ProjectQuestions(in ProgressInput) *dto.AttemptQuestionsDTO {
	byQuestion := make(map[uint]*model.Answer, len(in.Answers))
	for i := range in.Answers {
		byQuestion[in.Answers[i].QuestionID] = &in.Answers[i]
	}

	view := &dto.AttemptQuestionsDTO{
		AttemptID:       in.Attempt.ID,
		TestID:          in.Test.ID,
		TestTitle:       in.Test.Title,
		Status:          string(in.Attempt.Status),
		TimeLeftMinutes: TimeLeftMinutes(in.Attempt, in.Now),
		TotalQuestions:  len(in.Test.Questions),
		Questions:       make([]dto.CurrentQuestionDTO, 0, len(in.Test.Questions)),
	}
	for i := range in.Test.Questions {
		q := &in.Test.Questions[i]
		cq := currentQuestion(q, byQuestion[q.ID])
		if cq.Answered {
			view.AnsweredQuestions++
		}
		view.Questions = append(view.Questions, *cq)
	}
	return view
}

// TimeLeftMinutes is the whole number of minutes until auto-submission, or 0
// when there is no deadline, the attempt is finished or the deadline passed.
func TimeLeftMinutes(a *model.Attempt, now time.Time) int {
	if a.AutoSubmitAt == nil || a.CompletedAt != nil || a.Status != model.AttemptStatusInProgress {
		return 0
	}
	if now.After(*a.AutoSubmitAt) {
		return 0
	}
	return int(a.AutoSubmitAt.Sub(now) / time.Minute)
}

func currentQuestion(q *model.Question, a *model.Answer) *dto.CurrentQuestionDTO {
	cq := &dto.CurrentQuestionDTO{QuestionViewDTO: questionView(q)}
	if a == nil {
		return cq
	}
	cq.Answered = a.Answered()
	if len(a.SelectedOptionIDs) > 0 {
		cq.SelectedOptionIDs = append([]uint(nil), a.SelectedOptionIDs...)
	}
	cq.OpenAnswerText = a.OpenAnswerText
	return cq
}

func questionView(q *model.Question) dto.QuestionViewDTO {
	v := dto.QuestionViewDTO{
		ID:         q.ID,
		Text:       q.Text,
		Type:       string(q.Type),
		MaxScore:   q.MaxScore,
		OrderIndex: q.OrderIndex,
	}
	for _, o := range q.Options {
		v.Options = append(v.Options, dto.OptionViewDTO{ID: o.ID, Text: o.Text, OrderIndex: o.OrderIndex})
	}
	return v
}
