package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Legend8883/CompetencyTestingSystem/internal/apperror"
	"github.com/Legend8883/CompetencyTestingSystem/internal/dto"
	"github.com/Legend8883/CompetencyTestingSystem/internal/model"
)

// completedForEvaluation finishes a sampleTest attempt with the single-choice
// answered correctly and an open answer, leaving it in EVALUATING.
func completedForEvaluation(t *testing.T, e *testEnv) (*dto.TestResponseDTO, uint, *model.Answer) {
	t.Helper()
	test, progress := e.startSample(t, sampleTest())
	e.answerChoice(t, progress.AttemptID, test.Questions[0], 0)
	e.answerOpen(t, progress.AttemptID, test.Questions[2], "It blocks until one of its cases can run.")
	_, err := e.attempts.CompleteAttempt(e.ctx, progress.AttemptID, e.employee.ID)
	require.NoError(t, err)
	return test, progress.AttemptID, e.answerFor(t, progress.AttemptID, test.Questions[2].ID)
}

func TestGradeAnswer_UpdatesAttemptScore(t *testing.T) {
	e := newTestEnv(t)
	_, attemptID, open := completedForEvaluation(t, e)

	graded, err := e.evaluation.GradeAnswer(e.ctx, open.ID, 8, e.hr.ID)
	require.NoError(t, err)
	require.NotNil(t, graded.AssignedScore)
	assert.Equal(t, 8, *graded.AssignedScore)
	require.NotNil(t, graded.GradedByID)
	assert.Equal(t, e.hr.ID, *graded.GradedByID)

	attempt, err := e.attemptRepo.FindByID(e.ctx, attemptID)
	require.NoError(t, err)
	assert.Equal(t, 13, attempt.Score)
	assert.Equal(t, model.AttemptStatusEvaluating, attempt.Status)

	_, err = e.evaluation.GradeAnswer(e.ctx, open.ID, 2, e.hr.ID)
	require.NoError(t, err)
	attempt, err = e.attemptRepo.FindByID(e.ctx, attemptID)
	require.NoError(t, err)
	assert.Equal(t, 7, attempt.Score)
}

func TestGradeAnswer_Rejections(t *testing.T) {
	e := newTestEnv(t)
	test, attemptID, open := completedForEvaluation(t, e)

	_, err := e.evaluation.GradeAnswer(e.ctx, open.ID, 15, e.hr.ID)
	assert.True(t, apperror.Is(err, apperror.KindValidation), "got %v", err)

	_, err = e.evaluation.GradeAnswer(e.ctx, open.ID, -1, e.hr.ID)
	assert.True(t, apperror.Is(err, apperror.KindValidation), "got %v", err)

	choice := e.answerFor(t, attemptID, test.Questions[0].ID)
	_, err = e.evaluation.GradeAnswer(e.ctx, choice.ID, 1, e.hr.ID)
	assert.True(t, apperror.Is(err, apperror.KindPolicy), "got %v", err)

	_, err = e.evaluation.GradeAnswer(e.ctx, 99999, 1, e.hr.ID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound), "got %v", err)

	stored := e.answerFor(t, attemptID, test.Questions[2].ID)
	assert.Nil(t, stored.AssignedScore)
}

func TestGradeAnswer_AttemptStillInProgress(t *testing.T) {
	e := newTestEnv(t)
	test, progress := e.startSample(t, sampleTest())
	e.answerOpen(t, progress.AttemptID, test.Questions[2], "draft")

	open := e.answerFor(t, progress.AttemptID, test.Questions[2].ID)
	_, err := e.evaluation.GradeAnswer(e.ctx, open.ID, 5, e.hr.ID)
	assert.True(t, apperror.Is(err, apperror.KindState), "got %v", err)
}

func TestCloseEvaluation(t *testing.T) {
	e := newTestEnv(t)
	_, attemptID, open := completedForEvaluation(t, e)

	_, err := e.evaluation.CloseEvaluation(e.ctx, attemptID, e.hr.ID)
	assert.True(t, apperror.Is(err, apperror.KindPolicy), "got %v", err)

	_, err = e.evaluation.GradeAnswer(e.ctx, open.ID, 10, e.hr.ID)
	require.NoError(t, err)

	summary, err := e.evaluation.CloseEvaluation(e.ctx, attemptID, e.hr.ID)
	require.NoError(t, err)
	assert.Equal(t, string(model.AttemptStatusEvaluated), summary.Status)
	assert.Equal(t, 15, summary.Score)
	assert.Equal(t, "Go fundamentals", summary.TestTitle)

	_, err = e.evaluation.CloseEvaluation(e.ctx, attemptID, e.hr.ID)
	assert.True(t, apperror.Is(err, apperror.KindState), "got %v", err)

	result, err := e.attempts.GetAttemptResult(e.ctx, attemptID, e.employee.ID)
	require.NoError(t, err)
	require.NotNil(t, result.Passed)
	assert.True(t, *result.Passed)
	assert.Equal(t, 60.0, result.Percentage)
}

func TestListOpenAnswersForEvaluation_OldestFirst(t *testing.T) {
	e := newTestEnv(t)
	test := e.createTest(t, sampleTest())
	second := e.createUser(t, "second@example.com", model.RoleEmployee)
	e.assign(t, test.ID, e.employee.ID, second.ID)

	first, err := e.attempts.StartAttempt(e.ctx, e.employee.ID, test.ID)
	require.NoError(t, err)
	other, err := e.attempts.StartAttempt(e.ctx, second.ID, test.ID)
	require.NoError(t, err)

	text := "Second employee answers first."
	_, err = e.attempts.SubmitAnswer(e.ctx, other.AttemptID, second.ID, dto.SubmitAnswerDTO{QuestionID: test.Questions[2].ID, OpenAnswerText: &text})
	require.NoError(t, err)
	e.clock.Advance(time.Minute)
	e.answerOpen(t, first.AttemptID, test.Questions[2], "First employee answers later.")

	_, err = e.attempts.CompleteAttempt(e.ctx, first.AttemptID, e.employee.ID)
	require.NoError(t, err)
	_, err = e.attempts.CompleteAttempt(e.ctx, other.AttemptID, second.ID)
	require.NoError(t, err)

	queue, err := e.evaluation.ListOpenAnswersForEvaluation(e.ctx)
	require.NoError(t, err)
	require.Len(t, queue, 2)
	assert.Equal(t, other.AttemptID, queue[0].AttemptID)
	assert.Equal(t, first.AttemptID, queue[1].AttemptID)
	assert.Equal(t, 10, queue[0].MaxScore)
	require.NotNil(t, queue[0].ReferenceAnswer)

	attempts, err := e.evaluation.ListAttemptsForEvaluation(e.ctx)
	require.NoError(t, err)
	assert.Len(t, attempts, 2)
}

func TestGetAttemptReview(t *testing.T) {
	e := newTestEnv(t)
	test, attemptID, _ := completedForEvaluation(t, e)

	review, err := e.evaluation.GetAttemptReview(e.ctx, attemptID)
	require.NoError(t, err)
	assert.Equal(t, "Test EMPLOYEE", review.EmployeeName)
	assert.Equal(t, 25, review.MaxPossibleScore)
	assert.Equal(t, 1, review.PendingGrading)
	assert.Nil(t, review.Passed)
	require.Len(t, review.Answers, 3)

	assert.Equal(t, "AUTO", review.Answers[0].ScoreSource)
	assert.Equal(t, 5, review.Answers[0].FinalScore)
	assert.True(t, review.Answers[0].Options[0].IsCorrect)
	assert.Equal(t, test.Questions[2].ID, review.Answers[2].QuestionID)
}

func TestSuggestGrade(t *testing.T) {
	e := newTestEnv(t)
	test, attemptID, open := completedForEvaluation(t, e)

	e.assistant.feedback = "Covers blocking but not default cases."
	e.assistant.score = 6
	suggestion, err := e.evaluation.SuggestGrade(e.ctx, open.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, suggestion.SuggestedScore)
	assert.Equal(t, 10, suggestion.MaxScore)
	assert.Nil(t, e.answerFor(t, attemptID, open.QuestionID).AssignedScore)

	choice := e.answerFor(t, attemptID, test.Questions[0].ID)
	_, err = e.evaluation.SuggestGrade(e.ctx, choice.ID)
	assert.True(t, apperror.Is(err, apperror.KindPolicy), "got %v", err)

	e.assistant.err = ErrAssistantUnavailable
	_, err = e.evaluation.SuggestGrade(e.ctx, open.ID)
	assert.True(t, errors.Is(err, ErrAssistantUnavailable))
}
