package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Legend8883/CompetencyTestingSystem/config"
	"github.com/Legend8883/CompetencyTestingSystem/internal/auth"
	"github.com/Legend8883/CompetencyTestingSystem/internal/model"
)

func newRouter(tokens *auth.TokenManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	hr := r.Group("/hr", Authenticate(tokens), RequireRole(model.RoleHR))
	hr.GET("/whoami", func(c *gin.Context) {
		identity, ok := IdentityFrom(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": identity.UserID})
	})
	return r
}

func issue(t *testing.T, tokens *auth.TokenManager, id uint, role model.Role) string {
	t.Helper()
	token, _, err := tokens.Issue(&model.User{ID: id, Role: role})
	require.NoError(t, err)
	return token
}

func TestAuthenticateAndRequireRole(t *testing.T) {
	tokens := auth.NewTokenManager(&config.Config{JWT: config.JWT{Secret: "secret", Expiration: time.Hour}})
	router := newRouter(tokens)

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"employee role", "Bearer " + issue(t, tokens, 2, model.RoleEmployee), http.StatusForbidden},
		{"hr role", "Bearer " + issue(t, tokens, 1, model.RoleHR), http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/hr/whoami", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tc.want, w.Code)
			assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
		})
	}
}

func TestRequestID_ReusesIncomingHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDHeader)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "abc-123", w.Body.String())
}
