package service

import (
	"context"
	"fmt"

	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/Legend8883/CompetencyTestingSystem/internal/apperror"
	"github.com/Legend8883/CompetencyTestingSystem/internal/dto"
	"github.com/Legend8883/CompetencyTestingSystem/internal/model"
	"github.com/Legend8883/CompetencyTestingSystem/internal/repository"
)

// TestService covers HR management of existing tests.
type TestService interface {
	GetTest(ctx context.Context, hrID, testID uint) (*dto.TestResponseDTO, error)
	GetMyTests(ctx context.Context, hrID uint) ([]dto.TestSummaryDTO, error)
	SetTestActive(ctx context.Context, hrID, testID uint, active bool) (*dto.TestResponseDTO, error)
	AddQuestionToTest(ctx context.Context, hrID, testID uint, req dto.QuestionCreateDTO) (*dto.QuestionResponseDTO, error)
}

type testService struct {
	testRepo     repository.TestRepository
	questionRepo repository.QuestionRepository
	attemptRepo  repository.AttemptRepository
	db           *gorm.DB
}

func NewTestService(
	testRepo repository.TestRepository,
	questionRepo repository.QuestionRepository,
	attemptRepo repository.AttemptRepository,
	db *gorm.DB,
) TestService {
	return &testService{testRepo: testRepo, questionRepo: questionRepo, attemptRepo: attemptRepo, db: db}
}

func (s *testService) GetTest(ctx context.Context, hrID, testID uint) (*dto.TestResponseDTO, error) {
	test, err := s.testRepo.FindByIDWithQuestions(ctx, testID)
	if err != nil {
		return nil, lookupErr(err, "test", testID)
	}
	if test.CreatedByID != hrID {
		return nil, apperror.Policy("test %d belongs to another HR user", testID)
	}
	return testResponse(test)
}

func (s *testService) GetMyTests(ctx context.Context, hrID uint) ([]dto.TestSummaryDTO, error) {
	tests, err := s.testRepo.FindByCreatorWithQuestionCount(ctx, hrID)
	if err != nil {
		log.Error().Err(err).Uint("hrID", hrID).Msg("Failed to list tests")
		return nil, fmt.Errorf("error fetching tests: %w", err)
	}
	return testSummaries(tests), nil
}

// SetTestActive activates or deactivates a test. Deactivation blocks new
// attempts; attempts already running are unaffected.
func (s *testService) SetTestActive(ctx context.Context, hrID, testID uint, active bool) (*dto.TestResponseDTO, error) {
	if _, err := s.ownedTest(ctx, hrID, testID); err != nil {
		return nil, err
	}
	if err := s.testRepo.UpdateActive(ctx, testID, active); err != nil {
		return nil, lookupErr(err, "test", testID)
	}
	log.Info().Uint("testID", testID).Bool("active", active).Msg("Test activation changed")
	return s.GetTest(ctx, hrID, testID)
}

// AddQuestionToTest appends a question after the existing ones. Tests that
// already have attempts are frozen.
func (s *testService) AddQuestionToTest(ctx context.Context, hrID, testID uint, req dto.QuestionCreateDTO) (*dto.QuestionResponseDTO, error) {
	var question model.Question
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		test, err := s.testRepo.WithTx(tx).FindByID(ctx, testID)
		if err != nil {
			return lookupErr(err, "test", testID)
		}
		if test.CreatedByID != hrID {
			return apperror.Policy("test %d belongs to another HR user", testID)
		}
		started, err := s.attemptRepo.WithTx(tx).ExistsForTest(ctx, testID)
		if err != nil {
			return fmt.Errorf("failed to check attempts: %w", err)
		}
		if started {
			return apperror.Policy("test %d already has attempts and cannot be changed", testID)
		}

		count, err := s.questionRepo.WithTx(tx).CountByTestID(ctx, testID)
		if err != nil {
			return fmt.Errorf("failed to count questions: %w", err)
		}
		if req.OrderIndex != nil && *req.OrderIndex != int(count) {
			return apperror.Validation("new question must take order_index %d", count)
		}
		req.OrderIndex = nil
		question, err = buildQuestion(req, int(count))
		if err != nil {
			return err
		}
		question.TestID = testID
		return s.questionRepo.WithTx(tx).Create(ctx, &question)
	})
	if err != nil {
		return nil, err
	}

	var resp dto.QuestionResponseDTO
	if err := copier.Copy(&resp, &question); err != nil {
		return nil, fmt.Errorf("error preparing question response: %w", err)
	}
	return &resp, nil
}

func (s *testService) ownedTest(ctx context.Context, hrID, testID uint) (*model.Test, error) {
	test, err := s.testRepo.FindByID(ctx, testID)
	if err != nil {
		return nil, lookupErr(err, "test", testID)
	}
	if test.CreatedByID != hrID {
		return nil, apperror.Policy("test %d belongs to another HR user", testID)
	}
	return test, nil
}

func testSummaries(tests []repository.TestWithQuestionCount) []dto.TestSummaryDTO {
	out := make([]dto.TestSummaryDTO, 0, len(tests))
	for _, t := range tests {
		out = append(out, dto.TestSummaryDTO{
			ID:               t.Test.ID,
			Title:            t.Test.Title,
			Description:      t.Test.Description,
			TimeLimitMinutes: t.Test.TimeLimitMinutes,
			PassingScore:     t.Test.PassingScore,
			IsActive:         t.Test.IsActive,
			QuestionCount:    t.QuestionCount,
			CreatedAt:        t.Test.CreatedAt,
		})
	}
	return out
}
