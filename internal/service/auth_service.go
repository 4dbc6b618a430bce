package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/Legend8883/CompetencyTestingSystem/config"
	"github.com/Legend8883/CompetencyTestingSystem/internal/apperror"
	"github.com/Legend8883/CompetencyTestingSystem/internal/auth"
	"github.com/Legend8883/CompetencyTestingSystem/internal/dto"
	"github.com/Legend8883/CompetencyTestingSystem/internal/model"
	"github.com/Legend8883/CompetencyTestingSystem/internal/repository"
)

type AuthService interface {
	Register(ctx context.Context, req dto.RegisterDTO) (*dto.AuthResponseDTO, error)
	RegisterHR(ctx context.Context, req dto.RegisterDTO) (*dto.AuthResponseDTO, error)
	Login(ctx context.Context, req dto.LoginDTO) (*dto.AuthResponseDTO, error)
}

type authService struct {
	userRepo   repository.UserRepository
	tokens     *auth.TokenManager
	inviteCode string
}

func NewAuthService(userRepo repository.UserRepository, tokens *auth.TokenManager, cfg *config.Config) AuthService {
	return &authService{userRepo: userRepo, tokens: tokens, inviteCode: cfg.HRInvite}
}

// Register creates an employee account.
func (s *authService) Register(ctx context.Context, req dto.RegisterDTO) (*dto.AuthResponseDTO, error) {
	return s.register(ctx, req, model.RoleEmployee)
}

// RegisterHR creates an HR account. It is disabled unless an invite code is
// configured, and the request must carry that code.
func (s *authService) RegisterHR(ctx context.Context, req dto.RegisterDTO) (*dto.AuthResponseDTO, error) {
	if s.inviteCode == "" {
		return nil, apperror.Policy("HR registration is disabled")
	}
	if subtle.ConstantTimeCompare([]byte(req.InviteCode), []byte(s.inviteCode)) != 1 {
		return nil, apperror.Policy("invalid invite code")
	}
	return s.register(ctx, req, model.RoleHR)
}

func (s *authService) register(ctx context.Context, req dto.RegisterDTO, role model.Role) (*dto.AuthResponseDTO, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)
	if email == "" || firstName == "" || lastName == "" {
		return nil, apperror.Validation("email, first name and last name are required")
	}
	if len(req.Password) < 8 {
		return nil, apperror.Validation("password must be at least 8 characters")
	}

	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, apperror.Validation("email %s is already registered", email)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		Role:         role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Validation("email %s is already registered", email)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	log.Info().Uint("userID", user.ID).Str("role", string(role)).Msg("User registered")
	return s.authResponse(user)
}

// Login checks the credentials. Unknown email and wrong password give the
// same error.
func (s *authService) Login(ctx context.Context, req dto.LoginDTO) (*dto.AuthResponseDTO, error) {
	user, err := s.userRepo.FindByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Policy("invalid email or password")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		log.Warn().Uint("userID", user.ID).Msg("Failed login attempt")
		return nil, apperror.Policy("invalid email or password")
	}
	return s.authResponse(user)
}

func (s *authService) authResponse(user *model.User) (*dto.AuthResponseDTO, error) {
	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponseDTO{
		Token:     token,
		ExpiresAt: expiresAt,
		User: dto.UserDTO{
			ID:        user.ID,
			Email:     user.Email,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Role:      string(user.Role),
		},
	}, nil
}
