package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/Legend8883/CompetencyTestingSystem/config"
	"github.com/Legend8883/CompetencyTestingSystem/internal/apperror"
	"github.com/Legend8883/CompetencyTestingSystem/internal/dto"
	"github.com/Legend8883/CompetencyTestingSystem/internal/model"
	"github.com/Legend8883/CompetencyTestingSystem/internal/repository"
	"github.com/Legend8883/CompetencyTestingSystem/internal/scoring"
)

// MaxOpenAnswerLength is the limit on open-answer text, in characters.
const MaxOpenAnswerLength = 5000

// AttemptService drives an attempt from start to completion.
type AttemptService interface {
	StartAttempt(ctx context.Context, employeeID, testID uint) (*dto.TestProgressDTO, error)
	SubmitAnswer(ctx context.Context, attemptID, employeeID uint, req dto.SubmitAnswerDTO) (*dto.TestProgressDTO, error)
	CompleteAttempt(ctx context.Context, attemptID, employeeID uint) (*dto.TestProgressDTO, error)
	AutoSubmit(ctx context.Context, attemptID uint) (*dto.AttemptSummaryDTO, error)
	GetProgress(ctx context.Context, attemptID, employeeID uint) (*dto.TestProgressDTO, error)
	GoToQuestion(ctx context.Context, attemptID, employeeID, questionID uint) (*dto.TestProgressDTO, error)
	GetAttemptQuestions(ctx context.Context, attemptID, employeeID uint) (*dto.AttemptQuestionsDTO, error)
	GetAttemptQuestion(ctx context.Context, attemptID, employeeID, questionID uint) (*dto.CurrentQuestionDTO, error)
	GetMyAttempts(ctx context.Context, employeeID uint) ([]dto.AttemptSummaryDTO, error)
	GetAttemptResult(ctx context.Context, attemptID, employeeID uint) (*dto.TestResultDTO, error)
}

type attemptService struct {
	testRepo       repository.TestRepository
	questionRepo   repository.QuestionRepository
	assignmentRepo repository.AssignmentRepository
	attemptRepo    repository.AttemptRepository
	answerRepo     repository.AnswerRepository
	scoreConverter ScoreConverterService
	db             *gorm.DB

	enforceAssignment bool
	now               func() time.Time
}

func NewAttemptService(
	testRepo repository.TestRepository,
	questionRepo repository.QuestionRepository,
	assignmentRepo repository.AssignmentRepository,
	attemptRepo repository.AttemptRepository,
	answerRepo repository.AnswerRepository,
	scoreConverter ScoreConverterService,
	db *gorm.DB,
	cfg *config.Config,
) AttemptService {
	return &attemptService{
		testRepo:          testRepo,
		questionRepo:      questionRepo,
		assignmentRepo:    assignmentRepo,
		attemptRepo:       attemptRepo,
		answerRepo:        answerRepo,
		scoreConverter:    scoreConverter,
		db:                db,
		enforceAssignment: cfg.Attempts.EnforceAssignment,
		now:               func() time.Time { return time.Now().UTC() },
	}
}

// StartAttempt returns the employee's in-progress attempt for the test,
// creating it with one blank answer per question if there is none.
func (s *attemptService) StartAttempt(ctx context.Context, employeeID, testID uint) (*dto.TestProgressDTO, error) {
	var attempt *model.Attempt
	var test *model.Test

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		test, err = s.testRepo.WithTx(tx).FindByIDWithQuestions(ctx, testID)
		if err != nil {
			return lookupErr(err, "test", testID)
		}
		if !test.IsActive {
			return apperror.Policy("test %d is not active", testID)
		}

		now := s.now()
		if s.enforceAssignment {
			assignment, err := s.assignmentRepo.WithTx(tx).FindByUserAndTestForUpdate(ctx, employeeID, testID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperror.NotFound("test %d is not assigned to you", testID)
				}
				return fmt.Errorf("failed to load assignment: %w", err)
			}
			if !assignment.IsActive {
				return apperror.Policy("assignment for test %d is not active", testID)
			}
			if assignment.Expired(now) {
				return apperror.Policy("deadline for test %d has passed", testID)
			}
		}

		existing, err := s.attemptRepo.WithTx(tx).FindInProgress(ctx, employeeID, testID)
		if err == nil {
			attempt = existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to look up in-progress attempt: %w", err)
		}

		if len(test.Questions) == 0 {
			return apperror.Policy("test %d has no questions", testID)
		}

		autoSubmitAt := now.Add(test.TimeLimit())
		attempt = &model.Attempt{
			UserID:       employeeID,
			TestID:       testID,
			Status:       model.AttemptStatusInProgress,
			Score:        0,
			StartedAt:    now,
			AutoSubmitAt: &autoSubmitAt,
			Answers:      make([]model.Answer, 0, len(test.Questions)),
		}
		for _, q := range test.Questions {
			attempt.Answers = append(attempt.Answers, model.Answer{QuestionID: q.ID})
		}
		if err := s.attemptRepo.WithTx(tx).Create(ctx, attempt); err != nil {
			return err
		}
		log.Info().Uint("attemptID", attempt.ID).Uint("employeeID", employeeID).Uint("testID", testID).
			Time("autoSubmitAt", autoSubmitAt).Msg("StartAttempt: attempt created")
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// A concurrent start won the race; hand back its attempt.
		attempt, err = s.attemptRepo.FindInProgress(ctx, employeeID, testID)
		if err != nil {
			return nil, fmt.Errorf("failed to reload concurrent attempt: %w", err)
		}
		test, err = s.testRepo.FindByIDWithQuestions(ctx, testID)
		if err != nil {
			return nil, lookupErr(err, "test", testID)
		}
	} else if err != nil {
		return nil, err
	}

	return s.project(ctx, attempt, test, nil)
}

// SubmitAnswer records the answer to one question and scores it immediately.
// The attempt total is only recomputed on completion.
func (s *attemptService) SubmitAnswer(ctx context.Context, attemptID, employeeID uint, req dto.SubmitAnswerDTO) (*dto.TestProgressDTO, error) {
	var attempt *model.Attempt
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		attempt, err = s.lockOwnedAttempt(ctx, tx, attemptID, employeeID)
		if err != nil {
			return err
		}
		now := s.now()
		if attempt.Status != model.AttemptStatusInProgress {
			return apperror.State("attempt %d is %s", attemptID, attempt.Status)
		}
		if attempt.Expired(now) {
			return apperror.State("time limit for attempt %d has expired", attemptID)
		}

		question, err := s.questionRepo.WithTx(tx).FindByID(ctx, req.QuestionID)
		if err != nil {
			return lookupErr(err, "question", req.QuestionID)
		}
		if question.TestID != attempt.TestID {
			return apperror.Validation("question %d does not belong to this test", req.QuestionID)
		}

		answers := s.answerRepo.WithTx(tx)
		answer, err := answers.FindByAttemptAndQuestion(ctx, attemptID, question.ID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			answer = &model.Answer{AttemptID: attemptID, QuestionID: question.ID}
		} else if err != nil {
			return fmt.Errorf("failed to load answer: %w", err)
		}

		if question.Type.IsChoice() {
			selected := scoring.Distinct(req.SelectedOptionIDs)
			if err := s.checkOptions(ctx, tx, question, selected); err != nil {
				return err
			}
			autoScore := scoring.AutoScore(question, selected)
			answer.SelectedOptionIDs = selected
			answer.OpenAnswerText = nil
			answer.AutoScore = &autoScore
		} else {
			text := ""
			if req.OpenAnswerText != nil {
				text = *req.OpenAnswerText
			}
			if n := utf8.RuneCountInString(text); n > MaxOpenAnswerLength {
				return apperror.Validation("answer text is %d characters, the limit is %d", n, MaxOpenAnswerLength)
			}
			zero := 0
			answer.SelectedOptionIDs = nil
			answer.OpenAnswerText = &text
			answer.AutoScore = &zero
		}
		answer.AnsweredAt = &now

		if err := answers.Update(ctx, answer); err != nil {
			return fmt.Errorf("failed to save answer: %w", err)
		}
		if err := s.attemptRepo.WithTx(tx).Touch(ctx, attempt); err != nil {
			return staleErr(err, attemptID)
		}
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Uint("attemptID", attemptID).Uint("questionID", req.QuestionID).Msg("SubmitAnswer failed")
		return nil, err
	}
	return s.projectLoaded(ctx, attempt, nil)
}

// checkOptions verifies that every selected id is an option of q.
func (s *attemptService) checkOptions(ctx context.Context, tx *gorm.DB, q *model.Question, selected []uint) error {
	if len(selected) == 0 {
		return nil
	}
	options, err := s.questionRepo.WithTx(tx).GetOptionsByIDs(ctx, selected)
	if err != nil {
		return fmt.Errorf("failed to load options: %w", err)
	}
	found := make(map[uint]model.AnswerOption, len(options))
	for _, o := range options {
		found[o.ID] = o
	}
	for _, id := range selected {
		o, ok := found[id]
		if !ok {
			return apperror.NotFound("option %d not found", id)
		}
		if o.QuestionID != q.ID {
			return apperror.Validation("option %d does not belong to question %d", id, q.ID)
		}
	}
	return nil
}

func (s *attemptService) CompleteAttempt(ctx context.Context, attemptID, employeeID uint) (*dto.TestProgressDTO, error) {
	attempt, err := s.finalize(ctx, attemptID, &employeeID)
	if err != nil {
		return nil, err
	}
	return s.projectLoaded(ctx, attempt, nil)
}

// AutoSubmit finalizes an attempt whose time limit has run out.
func (s *attemptService) AutoSubmit(ctx context.Context, attemptID uint) (*dto.AttemptSummaryDTO, error) {
	attempt, err := s.finalize(ctx, attemptID, nil)
	if err != nil {
		return nil, err
	}
	return attemptSummary(attempt), nil
}

// finalize scores and closes an in-progress attempt. With an owner it is the
// employee completing; without one it is the time-limit sweep, which only acts
// on expired attempts.
func (s *attemptService) finalize(ctx context.Context, attemptID uint, ownerID *uint) (*model.Attempt, error) {
	var attempt *model.Attempt
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if ownerID != nil {
			attempt, err = s.lockOwnedAttempt(ctx, tx, attemptID, *ownerID)
		} else {
			attempt, err = s.attemptRepo.WithTx(tx).FindByIDForUpdate(ctx, attemptID)
			if err != nil {
				err = lookupErr(err, "attempt", attemptID)
			}
		}
		if err != nil {
			return err
		}
		if attempt.Status != model.AttemptStatusInProgress {
			return apperror.State("attempt %d is already %s", attemptID, attempt.Status)
		}

		now := s.now()
		expired := attempt.AutoSubmitAt != nil && !now.Before(*attempt.AutoSubmitAt)
		if ownerID == nil && !expired {
			return apperror.State("attempt %d is not due for auto-submission", attemptID)
		}

		test, err := s.testRepo.WithTx(tx).FindByIDWithQuestions(ctx, attempt.TestID)
		if err != nil {
			return lookupErr(err, "test", attempt.TestID)
		}
		answers, err := s.answerRepo.WithTx(tx).FindByAttempt(ctx, attemptID)
		if err != nil {
			return fmt.Errorf("failed to load answers: %w", err)
		}

		attempt.Score = scoring.AttemptTotal(answers)
		attempt.CompletedAt = &now
		switch {
		case scoring.PendingManualGrading(questionIndex(test), answers) > 0:
			attempt.Status = model.AttemptStatusEvaluating
		case expired:
			attempt.Status = model.AttemptStatusAutoSubmitted
		default:
			attempt.Status = model.AttemptStatusCompleted
		}

		if err := s.attemptRepo.WithTx(tx).Transition(ctx, attempt, model.AttemptStatusInProgress); err != nil {
			return staleErr(err, attemptID)
		}
		if err := s.assignmentRepo.WithTx(tx).MarkCompleted(ctx, attempt.UserID, attempt.TestID); err != nil {
			return fmt.Errorf("failed to mark assignment completed: %w", err)
		}
		attempt.Test = *test
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Uint("attemptID", attempt.ID).Str("status", string(attempt.Status)).Int("score", attempt.Score).
		Bool("auto", ownerID == nil).Msg("Attempt finalized")
	return attempt, nil
}

func (s *attemptService) GetProgress(ctx context.Context, attemptID, employeeID uint) (*dto.TestProgressDTO, error) {
	attempt, err := s.ownedAttempt(ctx, attemptID, employeeID)
	if err != nil {
		return nil, err
	}
	return s.projectLoaded(ctx, attempt, nil)
}

func (s *attemptService) GoToQuestion(ctx context.Context, attemptID, employeeID, questionID uint) (*dto.TestProgressDTO, error) {
	attempt, err := s.ownedAttempt(ctx, attemptID, employeeID)
	if err != nil {
		return nil, err
	}
	if attempt.Status != model.AttemptStatusInProgress {
		return nil, apperror.State("attempt %d is %s", attemptID, attempt.Status)
	}
	test, err := s.testRepo.FindByIDWithQuestions(ctx, attempt.TestID)
	if err != nil {
		return nil, lookupErr(err, "test", attempt.TestID)
	}
	if _, ok := questionIndex(test)[questionID]; !ok {
		return nil, apperror.Validation("question %d does not belong to this test", questionID)
	}
	return s.project(ctx, attempt, test, &questionID)
}

// GetAttemptQuestions lists all questions of the attempt with the saved
// answers. Available in any status; correctness stays hidden.
func (s *attemptService) GetAttemptQuestions(ctx context.Context, attemptID, employeeID uint) (*dto.AttemptQuestionsDTO, error) {
	attempt, err := s.ownedAttempt(ctx, attemptID, employeeID)
	if err != nil {
		return nil, err
	}
	test, err := s.testRepo.FindByIDWithQuestions(ctx, attempt.TestID)
	if err != nil {
		return nil, lookupErr(err, "test", attempt.TestID)
	}
	answers, err := s.answerRepo.FindByAttempt(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}
	return ProjectQuestions(ProgressInput{Attempt: attempt, Test: test, Answers: answers, Now: s.now()}), nil
}

func (s *attemptService) GetAttemptQuestion(ctx context.Context, attemptID, employeeID, questionID uint) (*dto.CurrentQuestionDTO, error) {
	attempt, err := s.ownedAttempt(ctx, attemptID, employeeID)
	if err != nil {
		return nil, err
	}
	test, err := s.testRepo.FindByIDWithQuestions(ctx, attempt.TestID)
	if err != nil {
		return nil, lookupErr(err, "test", attempt.TestID)
	}
	q, ok := questionIndex(test)[questionID]
	if !ok {
		return nil, apperror.Validation("question %d does not belong to this test", questionID)
	}
	answer, err := s.answerRepo.FindByAttemptAndQuestion(ctx, attemptID, questionID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		answer = nil
	case err != nil:
		return nil, fmt.Errorf("failed to load answer: %w", err)
	}
	return currentQuestion(q, answer), nil
}

func (s *attemptService) GetMyAttempts(ctx context.Context, employeeID uint) ([]dto.AttemptSummaryDTO, error) {
	attempts, err := s.attemptRepo.FindByUser(ctx, employeeID)
	if err != nil {
		log.Error().Err(err).Uint("employeeID", employeeID).Msg("GetMyAttempts: failed to load attempts")
		return nil, fmt.Errorf("failed to load attempts: %w", err)
	}
	out := make([]dto.AttemptSummaryDTO, 0, len(attempts))
	for i := range attempts {
		out = append(out, *attemptSummary(&attempts[i]))
	}
	return out, nil
}

// GetAttemptResult reports the score of a finished attempt to its owner.
func (s *attemptService) GetAttemptResult(ctx context.Context, attemptID, employeeID uint) (*dto.TestResultDTO, error) {
	attempt, err := s.ownedAttempt(ctx, attemptID, employeeID)
	if err != nil {
		return nil, err
	}
	if attempt.Status == model.AttemptStatusInProgress {
		return nil, apperror.State("attempt %d is still in progress", attemptID)
	}
	test, err := s.testRepo.FindByIDWithQuestions(ctx, attempt.TestID)
	if err != nil {
		return nil, lookupErr(err, "test", attempt.TestID)
	}
	answers, err := s.answerRepo.FindByAttempt(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}

	byQuestion := make(map[uint]*model.Answer, len(answers))
	for i := range answers {
		byQuestion[answers[i].QuestionID] = &answers[i]
	}

	maxPossible := test.MaxPossibleScore()
	summary := s.scoreConverter.Summarize(attempt.Score, maxPossible, test.PassingScore, attempt.Status)
	result := &dto.TestResultDTO{
		AttemptID:        attempt.ID,
		TestID:           test.ID,
		TestTitle:        test.Title,
		Status:           string(attempt.Status),
		Score:            attempt.Score,
		MaxPossibleScore: maxPossible,
		PassingScore:     test.PassingScore,
		Percentage:       summary.Percentage,
		Passed:           summary.Passed,
		TotalQuestions:   len(test.Questions),
		StartedAt:        attempt.StartedAt,
		CompletedAt:      attempt.CompletedAt,
		Answers:          make([]dto.AnswerResultDTO, 0, len(test.Questions)),
	}
	for i := range test.Questions {
		q := &test.Questions[i]
		row := dto.AnswerResultDTO{
			QuestionID:  q.ID,
			Text:        q.Text,
			Type:        string(q.Type),
			MaxScore:    q.MaxScore,
			ScoreSource: scoring.SourceNone.String(),
		}
		if a, ok := byQuestion[q.ID]; ok {
			src := scoring.Resolve(a)
			row.Earned = src.Points()
			row.ScoreSource = src.Source().String()
			row.Answered = a.Answered()
		}
		if row.Earned == q.MaxScore && row.ScoreSource != scoring.SourceNone.String() {
			result.FullyCorrectAnswers++
		}
		result.Answers = append(result.Answers, row)
	}
	return result, nil
}

func (s *attemptService) lockOwnedAttempt(ctx context.Context, tx *gorm.DB, attemptID, employeeID uint) (*model.Attempt, error) {
	attempt, err := s.attemptRepo.WithTx(tx).FindByIDForUpdate(ctx, attemptID)
	if err != nil {
		return nil, lookupErr(err, "attempt", attemptID)
	}
	if attempt.UserID != employeeID {
		return nil, apperror.Policy("attempt %d belongs to another employee", attemptID)
	}
	return attempt, nil
}

func (s *attemptService) ownedAttempt(ctx context.Context, attemptID, employeeID uint) (*model.Attempt, error) {
	attempt, err := s.attemptRepo.FindByID(ctx, attemptID)
	if err != nil {
		return nil, lookupErr(err, "attempt", attemptID)
	}
	if attempt.UserID != employeeID {
		return nil, apperror.Policy("attempt %d belongs to another employee", attemptID)
	}
	return attempt, nil
}

func (s *attemptService) projectLoaded(ctx context.Context, attempt *model.Attempt, focus *uint) (*dto.TestProgressDTO, error) {
	test, err := s.testRepo.FindByIDWithQuestions(ctx, attempt.TestID)
	if err != nil {
		return nil, lookupErr(err, "test", attempt.TestID)
	}
	return s.project(ctx, attempt, test, focus)
}

func (s *attemptService) project(ctx context.Context, attempt *model.Attempt, test *model.Test, focus *uint) (*dto.TestProgressDTO, error) {
	answers, err := s.answerRepo.FindByAttempt(ctx, attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}
	return ProjectProgress(ProgressInput{
		Attempt:         attempt,
		Test:            test,
		Answers:         answers,
		Now:             s.now(),
		FocusQuestionID: focus,
	}), nil
}

func questionIndex(test *model.Test) map[uint]*model.Question {
	idx := make(map[uint]*model.Question, len(test.Questions))
	for i := range test.Questions {
		idx[test.Questions[i].ID] = &test.Questions[i]
	}
	return idx
}

func attemptSummary(a *model.Attempt) *dto.AttemptSummaryDTO {
	return &dto.AttemptSummaryDTO{
		ID:          a.ID,
		TestID:      a.TestID,
		TestTitle:   a.Test.Title,
		UserID:      a.UserID,
		Status:      string(a.Status),
		Score:       a.Score,
		StartedAt:   a.StartedAt,
		CompletedAt: a.CompletedAt,
	}
}
