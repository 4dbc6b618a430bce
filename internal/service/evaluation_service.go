package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/Legend8883/CompetencyTestingSystem/internal/apperror"
	"github.com/Legend8883/CompetencyTestingSystem/internal/dto"
	"github.com/Legend8883/CompetencyTestingSystem/internal/model"
	"github.com/Legend8883/CompetencyTestingSystem/internal/repository"
	"github.com/Legend8883/CompetencyTestingSystem/internal/scoring"
)

// EvaluationService is the HR side of open-answer grading.
type EvaluationService interface {
	ListOpenAnswersForEvaluation(ctx context.Context) ([]dto.AnswerForEvaluationDTO, error)
	GradeAnswer(ctx context.Context, answerID uint, score int, graderID uint) (*dto.AnswerForEvaluationDTO, error)
	CloseEvaluation(ctx context.Context, attemptID, graderID uint) (*dto.AttemptSummaryDTO, error)
	ListAttemptsForEvaluation(ctx context.Context) ([]dto.AttemptSummaryDTO, error)
	ListAttemptsByStatus(ctx context.Context, status model.AttemptStatus) ([]dto.AttemptSummaryDTO, error)
	GetAttemptReview(ctx context.Context, attemptID uint) (*dto.AttemptReviewDTO, error)
	SuggestGrade(ctx context.Context, answerID uint) (*dto.GradeSuggestionDTO, error)
}

type evaluationService struct {
	testRepo       repository.TestRepository
	questionRepo   repository.QuestionRepository
	attemptRepo    repository.AttemptRepository
	answerRepo     repository.AnswerRepository
	userRepo       repository.UserRepository
	scoreConverter ScoreConverterService
	assistant      GeminiLLMService
	db             *gorm.DB

	now func() time.Time
}

func NewEvaluationService(
	testRepo repository.TestRepository,
	questionRepo repository.QuestionRepository,
	attemptRepo repository.AttemptRepository,
	answerRepo repository.AnswerRepository,
	userRepo repository.UserRepository,
	scoreConverter ScoreConverterService,
	assistant GeminiLLMService,
	db *gorm.DB,
) EvaluationService {
	return &evaluationService{
		testRepo:       testRepo,
		questionRepo:   questionRepo,
		attemptRepo:    attemptRepo,
		answerRepo:     answerRepo,
		userRepo:       userRepo,
		scoreConverter: scoreConverter,
		assistant:      assistant,
		db:             db,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// ListOpenAnswersForEvaluation returns the grading queue, oldest answer first.
func (s *evaluationService) ListOpenAnswersForEvaluation(ctx context.Context) ([]dto.AnswerForEvaluationDTO, error) {
	answers, err := s.answerRepo.FindOpenForEvaluation(ctx)
	if err != nil {
		log.Error().Err(err).Msg("ListOpenAnswersForEvaluation: failed to load answers")
		return nil, fmt.Errorf("failed to load open answers: %w", err)
	}

	ids := make([]uint, 0, len(answers))
	for _, a := range answers {
		ids = append(ids, a.QuestionID)
	}
	questions, err := s.questionRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	byID := make(map[uint]*model.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	out := make([]dto.AnswerForEvaluationDTO, 0, len(answers))
	for i := range answers {
		q, ok := byID[answers[i].QuestionID]
		if !ok {
			continue
		}
		out = append(out, answerForEvaluation(&answers[i], q))
	}
	return out, nil
}

// GradeAnswer sets HR's score on an open answer and refreshes the attempt total.
func (s *evaluationService) GradeAnswer(ctx context.Context, answerID uint, score int, graderID uint) (*dto.AnswerForEvaluationDTO, error) {
	var answer *model.Answer
	var question *model.Question
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		answers := s.answerRepo.WithTx(tx)
		answer, err = answers.FindByIDForUpdate(ctx, answerID)
		if err != nil {
			return lookupErr(err, "answer", answerID)
		}
		question, err = s.questionRepo.WithTx(tx).FindByID(ctx, answer.QuestionID)
		if err != nil {
			return lookupErr(err, "question", answer.QuestionID)
		}
		if question.Type != model.QuestionTypeOpenAnswer {
			return apperror.Policy("only open-answer questions are graded manually")
		}
		if score < 0 || score > question.MaxScore {
			return apperror.Validation("score %d is outside 0..%d", score, question.MaxScore)
		}

		attempts := s.attemptRepo.WithTx(tx)
		attempt, err := attempts.FindByIDForUpdate(ctx, answer.AttemptID)
		if err != nil {
			return lookupErr(err, "attempt", answer.AttemptID)
		}
		if attempt.Status == model.AttemptStatusInProgress {
			return apperror.State("attempt %d is still in progress", attempt.ID)
		}

		now := s.now()
		answer.AssignedScore = &score
		answer.GradedByID = &graderID
		answer.GradedAt = &now
		if err := answers.Update(ctx, answer); err != nil {
			return fmt.Errorf("failed to save grade: %w", err)
		}

		all, err := answers.FindByAttempt(ctx, attempt.ID)
		if err != nil {
			return fmt.Errorf("failed to load answers: %w", err)
		}
		attempt.Score = scoring.AttemptTotal(all)
		if err := attempts.UpdateScore(ctx, attempt); err != nil {
			return staleErr(err, attempt.ID)
		}
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Uint("answerID", answerID).Int("score", score).Msg("GradeAnswer failed")
		return nil, err
	}

	log.Info().Uint("answerID", answerID).Uint("graderID", graderID).Int("score", score).Msg("Answer graded")
	resp := answerForEvaluation(answer, question)
	return &resp, nil
}

// CloseEvaluation moves a fully graded attempt to EVALUATED.
func (s *evaluationService) CloseEvaluation(ctx context.Context, attemptID, graderID uint) (*dto.AttemptSummaryDTO, error) {
	var attempt *model.Attempt
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		attempts := s.attemptRepo.WithTx(tx)
		attempt, err = attempts.FindByIDForUpdate(ctx, attemptID)
		if err != nil {
			return lookupErr(err, "attempt", attemptID)
		}
		if attempt.Status != model.AttemptStatusEvaluating {
			return apperror.State("attempt %d is %s, not awaiting evaluation", attemptID, attempt.Status)
		}

		test, err := s.testRepo.WithTx(tx).FindByIDWithQuestions(ctx, attempt.TestID)
		if err != nil {
			return lookupErr(err, "test", attempt.TestID)
		}
		answers, err := s.answerRepo.WithTx(tx).FindByAttempt(ctx, attemptID)
		if err != nil {
			return fmt.Errorf("failed to load answers: %w", err)
		}
		if pending := scoring.PendingManualGrading(questionIndex(test), answers); pending > 0 {
			return apperror.Policy("not all open answers evaluated: %d remaining", pending)
		}

		attempt.Score = scoring.AttemptTotal(answers)
		attempt.Status = model.AttemptStatusEvaluated
		if err := attempts.Transition(ctx, attempt, model.AttemptStatusEvaluating); err != nil {
			return staleErr(err, attemptID)
		}
		attempt.Test = *test
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Uint("attemptID", attemptID).Uint("graderID", graderID).Int("score", attempt.Score).Msg("Evaluation closed")
	return attemptSummary(attempt), nil
}

func (s *evaluationService) ListAttemptsForEvaluation(ctx context.Context) ([]dto.AttemptSummaryDTO, error) {
	return s.ListAttemptsByStatus(ctx, model.AttemptStatusEvaluating)
}

func (s *evaluationService) ListAttemptsByStatus(ctx context.Context, status model.AttemptStatus) ([]dto.AttemptSummaryDTO, error) {
	if !status.Valid() {
		return nil, apperror.Validation("unknown attempt status %q", status)
	}
	attempts, err := s.attemptRepo.FindByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to load attempts: %w", err)
	}
	out := make([]dto.AttemptSummaryDTO, 0, len(attempts))
	for i := range attempts {
		out = append(out, *attemptSummary(&attempts[i]))
	}
	return out, nil
}

// GetAttemptReview is the full HR view of an attempt, correctness included.
func (s *evaluationService) GetAttemptReview(ctx context.Context, attemptID uint) (*dto.AttemptReviewDTO, error) {
	attempt, err := s.attemptRepo.FindByID(ctx, attemptID)
	if err != nil {
		return nil, lookupErr(err, "attempt", attemptID)
	}
	test, err := s.testRepo.FindByIDWithQuestions(ctx, attempt.TestID)
	if err != nil {
		return nil, lookupErr(err, "test", attempt.TestID)
	}
	answers, err := s.answerRepo.FindByAttempt(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}
	attempt.Test = *test

	maxPossible := test.MaxPossibleScore()
	summary := s.scoreConverter.Summarize(attempt.Score, maxPossible, test.PassingScore, attempt.Status)
	review := &dto.AttemptReviewDTO{
		AttemptSummaryDTO: *attemptSummary(attempt),
		MaxPossibleScore:  maxPossible,
		PassingScore:      test.PassingScore,
		Percentage:        summary.Percentage,
		Passed:            summary.Passed,
		PendingGrading:    scoring.PendingManualGrading(questionIndex(test), answers),
		Answers:           make([]dto.AnswerReviewDTO, 0, len(answers)),
	}
	if user, err := s.userRepo.FindByID(ctx, attempt.UserID); err == nil {
		review.EmployeeName = user.FullName()
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Warn().Err(err).Uint("userID", attempt.UserID).Msg("GetAttemptReview: failed to load employee")
	}

	byQuestion := make(map[uint]*model.Answer, len(answers))
	for i := range answers {
		byQuestion[answers[i].QuestionID] = &answers[i]
	}
	for i := range test.Questions {
		q := &test.Questions[i]
		a, ok := byQuestion[q.ID]
		if !ok {
			continue
		}
		review.Answers = append(review.Answers, answerReview(a, q))
	}
	return review, nil
}

// SuggestGrade asks the AI assistant for a score proposal. Nothing is saved.
func (s *evaluationService) SuggestGrade(ctx context.Context, answerID uint) (*dto.GradeSuggestionDTO, error) {
	answer, err := s.answerRepo.FindByID(ctx, answerID)
	if err != nil {
		return nil, lookupErr(err, "answer", answerID)
	}
	question, err := s.questionRepo.FindByID(ctx, answer.QuestionID)
	if err != nil {
		return nil, lookupErr(err, "question", answer.QuestionID)
	}
	if question.Type != model.QuestionTypeOpenAnswer {
		return nil, apperror.Policy("only open-answer questions are graded manually")
	}
	text := ""
	if answer.OpenAnswerText != nil {
		text = *answer.OpenAnswerText
	}

	feedback, score, err := s.assistant.SuggestGrade(ctx, question, text)
	if err != nil {
		return nil, err
	}
	return &dto.GradeSuggestionDTO{
		AnswerID:       answer.ID,
		SuggestedScore: score,
		MaxScore:       question.MaxScore,
		Feedback:       feedback,
	}, nil
}

func answerForEvaluation(a *model.Answer, q *model.Question) dto.AnswerForEvaluationDTO {
	return dto.AnswerForEvaluationDTO{
		AnswerID:        a.ID,
		AttemptID:       a.AttemptID,
		QuestionID:      q.ID,
		QuestionText:    q.Text,
		ReferenceAnswer: q.ReferenceAnswer,
		MaxScore:        q.MaxScore,
		OpenAnswerText:  a.OpenAnswerText,
		AssignedScore:   a.AssignedScore,
		GradedByID:      a.GradedByID,
		GradedAt:        a.GradedAt,
		AnsweredAt:      a.AnsweredAt,
	}
}

func answerReview(a *model.Answer, q *model.Question) dto.AnswerReviewDTO {
	src := scoring.Resolve(a)
	r := dto.AnswerReviewDTO{
		AnswerID:        a.ID,
		QuestionID:      q.ID,
		QuestionText:    q.Text,
		Type:            string(q.Type),
		MaxScore:        q.MaxScore,
		OrderIndex:      q.OrderIndex,
		ReferenceAnswer: q.ReferenceAnswer,
		OpenAnswerText:  a.OpenAnswerText,
		AutoScore:       a.AutoScore,
		AssignedScore:   a.AssignedScore,
		FinalScore:      src.Points(),
		ScoreSource:     src.Source().String(),
		AnsweredAt:      a.AnsweredAt,
	}
	if len(a.SelectedOptionIDs) > 0 {
		r.SelectedOptionIDs = append([]uint(nil), a.SelectedOptionIDs...)
	}
	for _, o := range q.Options {
		r.Options = append(r.Options, dto.OptionResponseDTO{ID: o.ID, Text: o.Text, IsCorrect: o.IsCorrect, OrderIndex: o.OrderIndex})
	}
	return r
}
