package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Legend8883/CompetencyTestingSystem/config"
	"github.com/Legend8883/CompetencyTestingSystem/internal/apperror"
	"github.com/Legend8883/CompetencyTestingSystem/internal/dto"
	"github.com/Legend8883/CompetencyTestingSystem/internal/model"
)

func TestSweep_SubmitsExpiredAttempt(t *testing.T) {
	e := newTestEnv(t)
	test, progress := e.startSample(t, choiceOnlyTest())
	e.answerChoice(t, progress.AttemptID, test.Questions[0], 0)

	e.clock.Advance(29 * time.Minute)
	res, err := e.sweeper.Sweep(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{}, res)

	e.clock.Advance(2 * time.Minute)
	res, err = e.sweeper.Sweep(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Submitted: 1}, res)

	attempt, err := e.attemptRepo.FindByID(e.ctx, progress.AttemptID)
	require.NoError(t, err)
	assert.Equal(t, model.AttemptStatusAutoSubmitted, attempt.Status)
	assert.Equal(t, 5, attempt.Score)
	require.NotNil(t, attempt.CompletedAt)
	assert.True(t, attempt.CompletedAt.Equal(e.clock.Now()))

	res, err = e.sweeper.Sweep(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{}, res)

	_, err = e.attempts.CompleteAttempt(e.ctx, progress.AttemptID, e.employee.ID)
	assert.True(t, apperror.Is(err, apperror.KindState), "got %v", err)
}

func TestSweep_ExpiredWithOpenAnswerGoesToEvaluation(t *testing.T) {
	e := newTestEnv(t)
	_, progress := e.startSample(t, sampleTest())

	e.clock.Advance(31 * time.Minute)
	res, err := e.sweeper.Sweep(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Submitted)

	attempt, err := e.attemptRepo.FindByID(e.ctx, progress.AttemptID)
	require.NoError(t, err)
	assert.Equal(t, model.AttemptStatusEvaluating, attempt.Status)
	assert.Equal(t, 0, attempt.Score)
}

func TestAutoSubmit_NotDueYet(t *testing.T) {
	e := newTestEnv(t)
	_, progress := e.startSample(t, sampleTest())

	_, err := e.attempts.AutoSubmit(e.ctx, progress.AttemptID)
	assert.True(t, apperror.Is(err, apperror.KindState), "got %v", err)

	attempt, err := e.attemptRepo.FindByID(e.ctx, progress.AttemptID)
	require.NoError(t, err)
	assert.Equal(t, model.AttemptStatusInProgress, attempt.Status)
}

func TestCompleteAttempt_AfterDeadlineIsTaggedAutoSubmitted(t *testing.T) {
	e := newTestEnv(t)
	_, progress := e.startSample(t, choiceOnlyTest())

	e.clock.Advance(30 * time.Minute)
	done, err := e.attempts.CompleteAttempt(e.ctx, progress.AttemptID, e.employee.ID)
	require.NoError(t, err)
	assert.Equal(t, string(model.AttemptStatusAutoSubmitted), done.Status)

	_, err = e.attempts.AutoSubmit(e.ctx, progress.AttemptID)
	assert.True(t, apperror.Is(err, apperror.KindState), "got %v", err)
}

func TestAttemptRepository_StaleTransitionLoses(t *testing.T) {
	e := newTestEnv(t)
	_, progress := e.startSample(t, choiceOnlyTest())

	first, err := e.attemptRepo.FindByID(e.ctx, progress.AttemptID)
	require.NoError(t, err)
	second, err := e.attemptRepo.FindByID(e.ctx, progress.AttemptID)
	require.NoError(t, err)

	now := e.clock.Now()
	first.Status = model.AttemptStatusCompleted
	first.CompletedAt = &now
	require.NoError(t, e.attemptRepo.Transition(e.ctx, first, model.AttemptStatusInProgress))

	second.Status = model.AttemptStatusAutoSubmitted
	second.CompletedAt = &now
	err = e.attemptRepo.Transition(e.ctx, second, model.AttemptStatusInProgress)
	assert.True(t, apperror.Is(staleErr(err, second.ID), apperror.KindState), "got %v", err)

	stored, err := e.attemptRepo.FindByID(e.ctx, progress.AttemptID)
	require.NoError(t, err)
	assert.Equal(t, model.AttemptStatusCompleted, stored.Status)
}

// flakyAutoSubmit fails AutoSubmit for one attempt and delegates the rest.
type flakyAutoSubmit struct {
	AttemptService
	failID    uint
	summaries []dto.AttemptSummaryDTO
}

func (f *flakyAutoSubmit) AutoSubmit(ctx context.Context, attemptID uint) (*dto.AttemptSummaryDTO, error) {
	if attemptID == f.failID {
		return nil, errors.New("connection reset")
	}
	summary, err := f.AttemptService.AutoSubmit(ctx, attemptID)
	if err == nil {
		f.summaries = append(f.summaries, *summary)
	}
	return summary, err
}

func TestSweep_FailingAttemptDoesNotBlockOthers(t *testing.T) {
	e := newTestEnv(t)
	second := e.createUser(t, "second@example.com", model.RoleEmployee)
	test := e.createTest(t, choiceOnlyTest())
	e.assign(t, test.ID, e.employee.ID, second.ID)

	stuck, err := e.attempts.StartAttempt(e.ctx, e.employee.ID, test.ID)
	require.NoError(t, err)
	e.clock.Advance(time.Minute)
	healthy, err := e.attempts.StartAttempt(e.ctx, second.ID, test.ID)
	require.NoError(t, err)

	flaky := &flakyAutoSubmit{AttemptService: e.attempts, failID: stuck.AttemptID}
	sweeper := NewAutoSubmitSweeper(e.attemptRepo, flaky, &config.Config{
		Attempts: config.Attempts{AutoSubmitBatch: 1},
	})
	sweeper.now = e.clock.Now

	e.clock.Advance(31 * time.Minute)
	res, err := sweeper.Sweep(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Submitted: 1, Failed: 1}, res)

	attempt, err := e.attemptRepo.FindByID(e.ctx, healthy.AttemptID)
	require.NoError(t, err)
	assert.Equal(t, model.AttemptStatusAutoSubmitted, attempt.Status)
	require.Len(t, flaky.summaries, 1)
	assert.Equal(t, "Go fundamentals", flaky.summaries[0].TestTitle)

	res, err = sweeper.Sweep(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Failed: 1}, res)

	attempt, err = e.attemptRepo.FindByID(e.ctx, stuck.AttemptID)
	require.NoError(t, err)
	assert.Equal(t, model.AttemptStatusInProgress, attempt.Status)
}
