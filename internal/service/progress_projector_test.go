package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/Legend8883/CompetencyTestingSystem/internal/model"
)

func projectorFixture() (*model.Attempt, *model.Test, time.Time) {
	start := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	deadline := start.Add(20 * time.Minute)
	test := &model.Test{
		ID:    1,
		Title: "Projection",
		Questions: []model.Question{
			{ID: 10, Type: model.QuestionTypeSingleChoice, MaxScore: 1, OrderIndex: 0, Options: []model.AnswerOption{
				{ID: 100, QuestionID: 10, Text: "yes", IsCorrect: true, OrderIndex: 0},
				{ID: 101, QuestionID: 10, Text: "no", OrderIndex: 1},
			}},
			{ID: 11, Type: model.QuestionTypeOpenAnswer, MaxScore: 5, OrderIndex: 1},
			{ID: 12, Type: model.QuestionTypeOpenAnswer, MaxScore: 5, OrderIndex: 2},
		},
	}
	attempt := &model.Attempt{ID: 7, TestID: 1, Status: model.AttemptStatusInProgress, StartedAt: start, AutoSubmitAt: &deadline}
	return attempt, test, start
}

func TestProjectProgress_CurrentIsFirstWithoutContent(t *testing.T) {
	attempt, test, start := projectorFixture()
	answeredAt := start.Add(time.Minute)
	blank := ""
	answers := []model.Answer{
		{QuestionID: 10, SelectedOptionIDs: datatypes.JSONSlice[uint]{100}, AnsweredAt: &answeredAt},
		{QuestionID: 11, OpenAnswerText: &blank, AnsweredAt: &answeredAt},
		{QuestionID: 12},
	}

	view := ProjectProgress(ProgressInput{Attempt: attempt, Test: test, Answers: answers, Now: start.Add(5*time.Minute + 30*time.Second)})

	assert.Equal(t, 3, view.TotalQuestions)
	assert.Equal(t, 2, view.AnsweredQuestions)
	assert.Equal(t, 14, view.TimeLeftMinutes)
	assert.Equal(t, 1, view.CurrentQuestionIndex)
	require.NotNil(t, view.CurrentQuestion)
	assert.Equal(t, uint(11), view.CurrentQuestion.ID)
	assert.True(t, view.CurrentQuestion.Answered)
	require.Len(t, view.QuestionProgress, 3)
	assert.False(t, view.QuestionProgress[2].Answered)
}

func TestProjectProgress_AllAnsweredShowsLast(t *testing.T) {
	attempt, test, start := projectorFixture()
	text := "answer"
	answers := []model.Answer{
		{QuestionID: 10, SelectedOptionIDs: datatypes.JSONSlice[uint]{101}, AnsweredAt: &start},
		{QuestionID: 11, OpenAnswerText: &text, AnsweredAt: &start},
		{QuestionID: 12, OpenAnswerText: &text, AnsweredAt: &start},
	}

	view := ProjectProgress(ProgressInput{Attempt: attempt, Test: test, Answers: answers, Now: start})
	assert.Equal(t, 2, view.CurrentQuestionIndex)
	assert.Equal(t, 20, view.TimeLeftMinutes)
}

func TestProjectProgress_FocusAndHiddenCorrectness(t *testing.T) {
	attempt, test, start := projectorFixture()
	focus := uint(10)

	view := ProjectProgress(ProgressInput{Attempt: attempt, Test: test, Now: start, FocusQuestionID: &focus})
	require.NotNil(t, view.CurrentQuestion)
	assert.Equal(t, 0, view.CurrentQuestionIndex)
	assert.False(t, view.CurrentQuestion.Answered)
	require.Len(t, view.CurrentQuestion.Options, 2)
	assert.Equal(t, "yes", view.CurrentQuestion.Options[0].Text)
}

func TestTimeLeftMinutes(t *testing.T) {
	attempt, _, start := projectorFixture()

	assert.Equal(t, 20, TimeLeftMinutes(attempt, start))
	assert.Equal(t, 0, TimeLeftMinutes(attempt, start.Add(21*time.Minute)))

	done := start.Add(time.Minute)
	finished := *attempt
	finished.Status = model.AttemptStatusCompleted
	finished.CompletedAt = &done
	assert.Equal(t, 0, TimeLeftMinutes(&finished, start))

	noDeadline := *attempt
	noDeadline.AutoSubmitAt = nil
	assert.Equal(t, 0, TimeLeftMinutes(&noDeadline, start))
}
