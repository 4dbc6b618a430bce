package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/Legend8883/CompetencyTestingSystem/internal/apperror"
	"github.com/Legend8883/CompetencyTestingSystem/internal/dto"
	"github.com/Legend8883/CompetencyTestingSystem/internal/model"
	"github.com/Legend8883/CompetencyTestingSystem/internal/repository"
)

type AssignmentService interface {
	AssignTest(ctx context.Context, hrID, testID uint, req dto.AssignTestDTO) ([]dto.AssignmentDTO, error)
	GetTestAssignments(ctx context.Context, hrID, testID uint) ([]dto.AssignmentDTO, error)
}

type assignmentService struct {
	testRepo       repository.TestRepository
	assignmentRepo repository.AssignmentRepository
	attemptRepo    repository.AttemptRepository
	userRepo       repository.UserRepository
	db             *gorm.DB

	now func() time.Time
}

func NewAssignmentService(
	testRepo repository.TestRepository,
	assignmentRepo repository.AssignmentRepository,
	attemptRepo repository.AttemptRepository,
	userRepo repository.UserRepository,
	db *gorm.DB,
) AssignmentService {
	return &assignmentService{
		testRepo:       testRepo,
		assignmentRepo: assignmentRepo,
		attemptRepo:    attemptRepo,
		userRepo:       userRepo,
		db:             db,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// AssignTest grants the test to each employee. An existing assignment is
// reactivated with the new deadline unless the employee already has an attempt.
// The whole batch fails if any employee cannot be assigned.
func (s *assignmentService) AssignTest(ctx context.Context, hrID, testID uint, req dto.AssignTestDTO) ([]dto.AssignmentDTO, error) {
	now := s.now()
	if req.Deadline != nil && !req.Deadline.After(now) {
		return nil, apperror.Validation("deadline must be in the future")
	}

	users, err := s.userRepo.FindByIDs(ctx, req.UserIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load employees: %w", err)
	}
	byID := make(map[uint]model.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	var saved []model.TestAssignment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		test, err := s.testRepo.WithTx(tx).FindByID(ctx, testID)
		if err != nil {
			return lookupErr(err, "test", testID)
		}
		if test.CreatedByID != hrID {
			return apperror.Policy("test %d belongs to another HR user", testID)
		}
		if !test.IsActive {
			return apperror.Policy("test %d is not active", testID)
		}

		assignments := s.assignmentRepo.WithTx(tx)
		attempts := s.attemptRepo.WithTx(tx)
		seen := make(map[uint]bool, len(req.UserIDs))
		for _, userID := range req.UserIDs {
			if seen[userID] {
				continue
			}
			seen[userID] = true

			user, ok := byID[userID]
			if !ok {
				return apperror.NotFound("employee %d not found", userID)
			}
			if user.Role != model.RoleEmployee {
				return apperror.Validation("user %d is not an employee", userID)
			}

			a, err := assignments.FindByUserAndTest(ctx, userID, testID)
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				a = &model.TestAssignment{TestID: testID, UserID: userID}
			case err != nil:
				return fmt.Errorf("failed to load assignment: %w", err)
			default:
				started, err := attempts.ExistsForUserAndTest(ctx, userID, testID)
				if err != nil {
					return fmt.Errorf("failed to check attempts: %w", err)
				}
				if started {
					return apperror.Policy("employee %d has already started test %d", userID, testID)
				}
			}
			a.AssignedByID = hrID
			a.AssignedAt = now
			a.Deadline = req.Deadline
			a.IsActive = true
			a.IsCompleted = false
			if err := assignments.Save(ctx, a); err != nil {
				return fmt.Errorf("failed to save assignment: %w", err)
			}
			saved = append(saved, *a)
		}
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Uint("testID", testID).Uint("hrID", hrID).Msg("AssignTest failed")
		return nil, err
	}

	log.Info().Uint("testID", testID).Int("employees", len(saved)).Msg("Test assigned")
	return assignmentDTOs(saved)
}

func (s *assignmentService) GetTestAssignments(ctx context.Context, hrID, testID uint) ([]dto.AssignmentDTO, error) {
	test, err := s.testRepo.FindByID(ctx, testID)
	if err != nil {
		return nil, lookupErr(err, "test", testID)
	}
	if test.CreatedByID != hrID {
		return nil, apperror.Policy("test %d belongs to another HR user", testID)
	}
	assignments, err := s.assignmentRepo.FindByTest(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignments: %w", err)
	}
	return assignmentDTOs(assignments)
}

func assignmentDTOs(assignments []model.TestAssignment) ([]dto.AssignmentDTO, error) {
	out := make([]dto.AssignmentDTO, 0, len(assignments))
	if err := copier.Copy(&out, &assignments); err != nil {
		return nil, fmt.Errorf("error preparing assignments response: %w", err)
	}
	return out, nil
}
