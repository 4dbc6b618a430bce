package admin

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Legend8883/CompetencyTestingSystem/internal/apperror"
	"github.com/Legend8883/CompetencyTestingSystem/internal/controller"
	"github.com/Legend8883/CompetencyTestingSystem/internal/dto"
	"github.com/Legend8883/CompetencyTestingSystem/internal/model"
	"github.com/Legend8883/CompetencyTestingSystem/internal/service"
)

type EvaluationController struct {
	evaluationService service.EvaluationService
}

func NewEvaluationController(evaluationService service.EvaluationService) *EvaluationController {
	return &EvaluationController{evaluationService: evaluationService}
}

// ListOpenAnswers godoc
// @Summary (HR) Open answers awaiting grading
// @Description Open-answer rows of attempts in EVALUATING, oldest answer first.
// @Tags HR - Evaluation
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.AnswerForEvaluationDTO
// @Router /hr/evaluation/open-answers [get]
func (c *EvaluationController) ListOpenAnswers(ctx *gin.Context) {
	answers, err := c.evaluationService.ListOpenAnswersForEvaluation(ctx.Request.Context())
	if err != nil {
		controller.RespondError(ctx, "ListOpenAnswers", err)
		return
	}
	ctx.JSON(http.StatusOK, answers)
}

// GradeAnswer godoc
// @Summary (HR) Grade an open answer
// @Tags HR - Evaluation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param answer_id path int true "Answer ID"
// @Param grade body dto.GradeAnswerDTO true "Score between 0 and the question's max score"
// @Success 200 {object} dto.AnswerForEvaluationDTO
// @Failure 400 {object} dto.ErrorResponse "Score out of range"
// @Failure 403 {object} dto.ErrorResponse "Not an open-answer question"
// @Failure 409 {object} dto.ErrorResponse "Attempt not in evaluation"
// @Router /hr/evaluation/answers/{answer_id} [post]
func (c *EvaluationController) GradeAnswer(ctx *gin.Context) {
	identity, ok := controller.CurrentIdentity(ctx)
	if !ok {
		return
	}
	answerID, ok := controller.ParseUintParam(ctx, "answer_id")
	if !ok {
		return
	}
	var req dto.GradeAnswerDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.RespondBindError(ctx, "GradeAnswer", err)
		return
	}
	resp, err := c.evaluationService.GradeAnswer(ctx.Request.Context(), answerID, *req.Score, identity.UserID)
	if err != nil {
		controller.RespondError(ctx, "GradeAnswer", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// SuggestGrade godoc
// @Summary (HR) AI grading suggestion for an open answer
// @Description Advisory only; nothing is persisted.
// @Tags HR - Evaluation
// @Produce json
// @Security BearerAuth
// @Param answer_id path int true "Answer ID"
// @Success 200 {object} dto.GradeSuggestionDTO
// @Failure 503 {object} dto.ErrorResponse "Assistant not configured"
// @Router /hr/evaluation/answers/{answer_id}/suggestion [get]
func (c *EvaluationController) SuggestGrade(ctx *gin.Context) {
	answerID, ok := controller.ParseUintParam(ctx, "answer_id")
	if !ok {
		return
	}
	resp, err := c.evaluationService.SuggestGrade(ctx.Request.Context(), answerID)
	if err != nil {
		controller.RespondError(ctx, "SuggestGrade", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// ListAttemptsForEvaluation godoc
// @Summary (HR) Attempts waiting for evaluation
// @Tags HR - Evaluation
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.AttemptSummaryDTO
// @Router /hr/evaluation/attempts [get]
func (c *EvaluationController) ListAttemptsForEvaluation(ctx *gin.Context) {
	attempts, err := c.evaluationService.ListAttemptsForEvaluation(ctx.Request.Context())
	if err != nil {
		controller.RespondError(ctx, "ListAttemptsForEvaluation", err)
		return
	}
	ctx.JSON(http.StatusOK, attempts)
}

// CloseEvaluation godoc
// @Summary (HR) Finish evaluating an attempt
// @Description Succeeds only when every open answer has been graded.
// @Tags HR - Evaluation
// @Produce json
// @Security BearerAuth
// @Param attempt_id path int true "Attempt ID"
// @Success 200 {object} dto.AttemptSummaryDTO
// @Failure 403 {object} dto.ErrorResponse "Ungraded answers remain"
// @Failure 409 {object} dto.ErrorResponse "Attempt not awaiting evaluation"
// @Router /hr/evaluation/attempts/{attempt_id}/complete [post]
func (c *EvaluationController) CloseEvaluation(ctx *gin.Context) {
	identity, ok := controller.CurrentIdentity(ctx)
	if !ok {
		return
	}
	attemptID, ok := controller.ParseUintParam(ctx, "attempt_id")
	if !ok {
		return
	}
	resp, err := c.evaluationService.CloseEvaluation(ctx.Request.Context(), attemptID, identity.UserID)
	if err != nil {
		controller.RespondError(ctx, "CloseEvaluation", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// ListAttempts godoc
// @Summary (HR) List attempts by status
// @Tags HR - Attempts
// @Produce json
// @Security BearerAuth
// @Param status query string false "IN_PROGRESS, COMPLETED, AUTO_SUBMITTED, EVALUATING or EVALUATED" default(COMPLETED)
// @Success 200 {array} dto.AttemptSummaryDTO
// @Failure 400 {object} dto.ErrorResponse "Unknown status"
// @Router /hr/attempts [get]
func (c *EvaluationController) ListAttempts(ctx *gin.Context) {
	status := model.AttemptStatus(strings.ToUpper(ctx.DefaultQuery("status", string(model.AttemptStatusCompleted))))
	if !status.Valid() {
		controller.RespondError(ctx, "ListAttempts", apperror.Validation("unknown attempt status %q", status))
		return
	}
	attempts, err := c.evaluationService.ListAttemptsByStatus(ctx.Request.Context(), status)
	if err != nil {
		controller.RespondError(ctx, "ListAttempts", err)
		return
	}
	ctx.JSON(http.StatusOK, attempts)
}

// GetAttemptReview godoc
// @Summary (HR) Review an attempt
// @Description Full attempt with per-answer scores, score sources and option correctness.
// @Tags HR - Attempts
// @Produce json
// @Security BearerAuth
// @Param attempt_id path int true "Attempt ID"
// @Success 200 {object} dto.AttemptReviewDTO
// @Failure 404 {object} dto.ErrorResponse
// @Router /hr/attempts/{attempt_id} [get]
func (c *EvaluationController) GetAttemptReview(ctx *gin.Context) {
	attemptID, ok := controller.ParseUintParam(ctx, "attempt_id")
	if !ok {
		return
	}
	resp, err := c.evaluationService.GetAttemptReview(ctx.Request.Context(), attemptID)
	if err != nil {
		controller.RespondError(ctx, "GetAttemptReview", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}
