package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/jinzhu/copier"

	"github.com/Legend8883/CompetencyTestingSystem/internal/dto"
	"github.com/Legend8883/CompetencyTestingSystem/internal/model"
	"github.com/Legend8883/CompetencyTestingSystem/internal/repository"
)

// UserService is the HR employee directory.
type UserService interface {
	ListEmployees(ctx context.Context) ([]dto.UserDTO, error)
	SearchEmployees(ctx context.Context, query string) ([]dto.UserDTO, error)
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) ListEmployees(ctx context.Context) ([]dto.UserDTO, error) {
	users, err := s.userRepo.FindByRole(ctx, model.RoleEmployee)
	if err != nil {
		return nil, fmt.Errorf("error fetching employees: %w", err)
	}
	return userDTOs(users)
}

// SearchEmployees falls back to the full list for a blank query.
func (s *userService) SearchEmployees(ctx context.Context, query string) ([]dto.UserDTO, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.ListEmployees(ctx)
	}
	users, err := s.userRepo.SearchByRole(ctx, model.RoleEmployee, query)
	if err != nil {
		return nil, fmt.Errorf("error searching employees: %w", err)
	}
	return userDTOs(users)
}

func userDTOs(users []model.User) ([]dto.UserDTO, error) {
	out := make([]dto.UserDTO, 0, len(users))
	if err := copier.Copy(&out, &users); err != nil {
		return nil, fmt.Errorf("error preparing users response: %w", err)
	}
	return out, nil
}
