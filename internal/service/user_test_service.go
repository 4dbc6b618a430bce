package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/Legend8883/CompetencyTestingSystem/config"
	"github.com/Legend8883/CompetencyTestingSystem/internal/apperror"
	"github.com/Legend8883/CompetencyTestingSystem/internal/dto"
	"github.com/Legend8883/CompetencyTestingSystem/internal/repository"
)

// UserTestService is the employee's view of the tests they may take.
type UserTestService interface {
	GetAvailableTests(ctx context.Context, employeeID uint) ([]dto.TestSummaryDTO, error)
	GetTestDetails(ctx context.Context, employeeID, testID uint) (*dto.TestViewDTO, error)
}

type userTestService struct {
	testRepo          repository.TestRepository
	assignmentRepo    repository.AssignmentRepository
	enforceAssignment bool
	now               func() time.Time
}

func NewUserTestService(testRepo repository.TestRepository, assignmentRepo repository.AssignmentRepository, cfg *config.Config) UserTestService {
	return &userTestService{
		testRepo:          testRepo,
		assignmentRepo:    assignmentRepo,
		enforceAssignment: cfg.Attempts.EnforceAssignment,
		now:               func() time.Time { return time.Now().UTC() },
	}
}

// GetAvailableTests lists active tests with an open assignment for the employee.
func (s *userTestService) GetAvailableTests(ctx context.Context, employeeID uint) ([]dto.TestSummaryDTO, error) {
	assignments, err := s.assignmentRepo.FindOpenByUser(ctx, employeeID, s.now())
	if err != nil {
		log.Error().Err(err).Uint("employeeID", employeeID).Msg("Failed to load assignments")
		return nil, fmt.Errorf("error fetching assignments: %w", err)
	}

	ids := make([]uint, 0, len(assignments))
	deadlines := make(map[uint]*time.Time, len(assignments))
	for _, a := range assignments {
		if !a.Test.IsActive {
			continue
		}
		ids = append(ids, a.TestID)
		deadlines[a.TestID] = a.Deadline
	}
	tests, err := s.testRepo.FindByIDsWithQuestionCount(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("error fetching tests: %w", err)
	}

	out := testSummaries(tests)
	for i := range out {
		out[i].Deadline = deadlines[out[i].ID]
	}
	return out, nil
}

// GetTestDetails returns the test without option correctness.
func (s *userTestService) GetTestDetails(ctx context.Context, employeeID, testID uint) (*dto.TestViewDTO, error) {
	if s.enforceAssignment {
		if _, err := s.assignmentRepo.FindByUserAndTest(ctx, employeeID, testID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperror.NotFound("test %d is not assigned to you", testID)
			}
			return nil, fmt.Errorf("failed to load assignment: %w", err)
		}
	}
	test, err := s.testRepo.FindByIDWithQuestions(ctx, testID)
	if err != nil {
		return nil, lookupErr(err, "test", testID)
	}
	if !test.IsActive {
		return nil, apperror.Policy("test %d is not active", testID)
	}

	view := &dto.TestViewDTO{
		ID:               test.ID,
		Title:            test.Title,
		Description:      test.Description,
		TimeLimitMinutes: test.TimeLimitMinutes,
		PassingScore:     test.PassingScore,
		MaxPossibleScore: test.MaxPossibleScore(),
		Questions:        make([]dto.QuestionViewDTO, 0, len(test.Questions)),
	}
	for i := range test.Questions {
		view.Questions = append(view.Questions, questionView(&test.Questions[i]))
	}
	return view, nil
}
