package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Legend8883/CompetencyTestingSystem/config"
	"github.com/Legend8883/CompetencyTestingSystem/internal/apperror"
	"github.com/Legend8883/CompetencyTestingSystem/internal/auth"
	"github.com/Legend8883/CompetencyTestingSystem/internal/dto"
	"github.com/Legend8883/CompetencyTestingSystem/internal/model"
	"github.com/Legend8883/CompetencyTestingSystem/internal/repository"
)

func newAuthService(t *testing.T, invite string) (AuthService, *auth.TokenManager) {
	t.Helper()
	db := newTestDB(t)
	cfg := &config.Config{JWT: config.JWT{Secret: "test-secret", Expiration: time.Hour}, HRInvite: invite}
	tokens := auth.NewTokenManager(cfg)
	return NewAuthService(repository.NewUserRepository(db), tokens, cfg), tokens
}

func registration(email string) dto.RegisterDTO {
	return dto.RegisterDTO{Email: email, Password: "correct horse", FirstName: "Ada", LastName: "Lovelace"}
}

func TestRegisterAndLogin(t *testing.T) {
	svc, tokens := newAuthService(t, "")

	resp, err := svc.Register(ctxBackground(), registration("  Ada@Example.com "))
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", resp.User.Email)
	assert.Equal(t, string(model.RoleEmployee), resp.User.Role)

	identity, err := tokens.Parse(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, identity.UserID)
	assert.Equal(t, model.RoleEmployee, identity.Role)

	_, err = svc.Register(ctxBackground(), registration("ada@example.com"))
	assert.True(t, apperror.Is(err, apperror.KindValidation), "got %v", err)

	login, err := svc.Login(ctxBackground(), dto.LoginDTO{Email: "ADA@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)

	_, err = svc.Login(ctxBackground(), dto.LoginDTO{Email: "ada@example.com", Password: "wrong password"})
	assert.True(t, apperror.Is(err, apperror.KindPolicy), "got %v", err)

	_, err = svc.Login(ctxBackground(), dto.LoginDTO{Email: "nobody@example.com", Password: "correct horse"})
	assert.True(t, apperror.Is(err, apperror.KindPolicy), "got %v", err)
}

func TestRegisterHR(t *testing.T) {
	t.Run("disabled without invite code", func(t *testing.T) {
		svc, _ := newAuthService(t, "")
		_, err := svc.RegisterHR(ctxBackground(), registration("hr@example.com"))
		assert.True(t, apperror.Is(err, apperror.KindPolicy), "got %v", err)
	})

	t.Run("requires matching code", func(t *testing.T) {
		svc, _ := newAuthService(t, "let-me-in")
		req := registration("hr@example.com")
		req.InviteCode = "guess"
		_, err := svc.RegisterHR(ctxBackground(), req)
		assert.True(t, apperror.Is(err, apperror.KindPolicy), "got %v", err)

		req.InviteCode = "let-me-in"
		resp, err := svc.RegisterHR(ctxBackground(), req)
		require.NoError(t, err)
		assert.Equal(t, string(model.RoleHR), resp.User.Role)
	})
}
