package admin

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Legend8883/CompetencyTestingSystem/config"
	"github.com/Legend8883/CompetencyTestingSystem/internal/apperror"
	"github.com/Legend8883/CompetencyTestingSystem/internal/auth"
	"github.com/Legend8883/CompetencyTestingSystem/internal/dto"
	"github.com/Legend8883/CompetencyTestingSystem/internal/middleware"
	"github.com/Legend8883/CompetencyTestingSystem/internal/model"
	"github.com/Legend8883/CompetencyTestingSystem/internal/service"
)

// stubEvaluationService answers by id: 1 succeeds, 2 is missing, 3 is
// blocked by policy, 4 is in the wrong state.
type stubEvaluationService struct {
	service.EvaluationService
	lastStatus model.AttemptStatus
}

func stubErr(id uint) error {
	switch id {
	case 2:
		return apperror.NotFound("answer %d not found", id)
	case 3:
		return apperror.Policy("not all open answers evaluated")
	case 4:
		return apperror.State("attempt is still in progress")
	case 5:
		return errors.New("database is locked")
	}
	return nil
}

func (s *stubEvaluationService) GradeAnswer(ctx context.Context, answerID uint, score int, graderID uint) (*dto.AnswerForEvaluationDTO, error) {
	if err := stubErr(answerID); err != nil {
		return nil, err
	}
	if score > 10 {
		return nil, apperror.Validation("score %d exceeds max 10", score)
	}
	return &dto.AnswerForEvaluationDTO{AnswerID: answerID}, nil
}

func (s *stubEvaluationService) CloseEvaluation(ctx context.Context, attemptID, graderID uint) (*dto.AttemptSummaryDTO, error) {
	if err := stubErr(attemptID); err != nil {
		return nil, err
	}
	return &dto.AttemptSummaryDTO{ID: attemptID, Status: string(model.AttemptStatusEvaluated)}, nil
}

func (s *stubEvaluationService) SuggestGrade(ctx context.Context, answerID uint) (*dto.GradeSuggestionDTO, error) {
	return nil, service.ErrAssistantUnavailable
}

func (s *stubEvaluationService) ListAttemptsByStatus(ctx context.Context, status model.AttemptStatus) ([]dto.AttemptSummaryDTO, error) {
	s.lastStatus = status
	return []dto.AttemptSummaryDTO{}, nil
}

func TestEvaluationController_StatusCodes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens := auth.NewTokenManager(&config.Config{JWT: config.JWT{Secret: "secret", Expiration: time.Hour}})
	token, _, err := tokens.Issue(&model.User{ID: 1, Role: model.RoleHR})
	require.NoError(t, err)

	stub := &stubEvaluationService{}
	ctrl := NewEvaluationController(stub)
	r := gin.New()
	hr := r.Group("/hr", middleware.Authenticate(tokens), middleware.RequireRole(model.RoleHR))
	hr.POST("/evaluation/answers/:answer_id", ctrl.GradeAnswer)
	hr.GET("/evaluation/answers/:answer_id/suggestion", ctrl.SuggestGrade)
	hr.POST("/evaluation/attempts/:attempt_id/complete", ctrl.CloseEvaluation)
	hr.GET("/attempts", ctrl.ListAttempts)

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"grade ok", http.MethodPost, "/hr/evaluation/answers/1", `{"score":7}`, http.StatusOK},
		{"grade zero", http.MethodPost, "/hr/evaluation/answers/1", `{"score":0}`, http.StatusOK},
		{"grade missing score", http.MethodPost, "/hr/evaluation/answers/1", `{}`, http.StatusBadRequest},
		{"grade malformed body", http.MethodPost, "/hr/evaluation/answers/1", `{"score":`, http.StatusBadRequest},
		{"grade over max", http.MethodPost, "/hr/evaluation/answers/1", `{"score":15}`, http.StatusBadRequest},
		{"grade bad id", http.MethodPost, "/hr/evaluation/answers/abc", `{"score":1}`, http.StatusBadRequest},
		{"grade unknown answer", http.MethodPost, "/hr/evaluation/answers/2", `{"score":1}`, http.StatusNotFound},
		{"grade in progress", http.MethodPost, "/hr/evaluation/answers/4", `{"score":1}`, http.StatusConflict},
		{"grade internal error", http.MethodPost, "/hr/evaluation/answers/5", `{"score":1}`, http.StatusInternalServerError},
		{"close ok", http.MethodPost, "/hr/evaluation/attempts/1/complete", "", http.StatusOK},
		{"close ungraded", http.MethodPost, "/hr/evaluation/attempts/3/complete", "", http.StatusForbidden},
		{"close wrong state", http.MethodPost, "/hr/evaluation/attempts/4/complete", "", http.StatusConflict},
		{"suggest unavailable", http.MethodGet, "/hr/evaluation/answers/1/suggestion", "", http.StatusServiceUnavailable},
		{"attempts default status", http.MethodGet, "/hr/attempts", "", http.StatusOK},
		{"attempts unknown status", http.MethodGet, "/hr/attempts?status=done", "", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			req.Header.Set("Authorization", "Bearer "+token)
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code, w.Body.String())
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/hr/attempts?status=evaluating", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.AttemptStatusEvaluating, stub.lastStatus)
}
