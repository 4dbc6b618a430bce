package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Legend8883/CompetencyTestingSystem/config"
	"github.com/Legend8883/CompetencyTestingSystem/internal/model"
)

func newManager(secret string) *TokenManager {
	cfg := &config.Config{}
	cfg.JWT.Secret = secret
	cfg.JWT.Expiration = time.Hour
	return NewTokenManager(cfg)
}

func TestIssueAndParse(t *testing.T) {
	m := newManager("s3cret")
	token, expiresAt, err := m.Issue(&model.User{ID: 42, Role: model.RoleHR})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	id, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), id.UserID)
	assert.Equal(t, model.RoleHR, id.Role)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, _, err := newManager("one").Issue(&model.User{ID: 1, Role: model.RoleEmployee})
	require.NoError(t, err)

	_, err = newManager("two").Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsExpired(t *testing.T) {
	m := newManager("s3cret")
	token, _, err := m.Issue(&model.User{ID: 1, Role: model.RoleEmployee})
	require.NoError(t, err)

	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = m.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
