package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Legend8883/CompetencyTestingSystem/internal/controller"
	"github.com/Legend8883/CompetencyTestingSystem/internal/dto"
	"github.com/Legend8883/CompetencyTestingSystem/internal/service"
)

type UserTestController struct {
	userTestService service.UserTestService
	attemptService  service.AttemptService
}

func NewUserTestController(uts service.UserTestService, as service.AttemptService) *UserTestController {
	return &UserTestController{
		userTestService: uts,
		attemptService:  as,
	}
}

// GetAvailableTests godoc
// @Summary (Employee) Tests assigned to me
// @Description Active tests with an open, unexpired assignment.
// @Tags Employee - Tests
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.TestSummaryDTO
// @Router /employee/tests/available [get]
func (c *UserTestController) GetAvailableTests(ctx *gin.Context) {
	identity, ok := controller.CurrentIdentity(ctx)
	if !ok {
		return
	}
	tests, err := c.userTestService.GetAvailableTests(ctx.Request.Context(), identity.UserID)
	if err != nil {
		controller.RespondError(ctx, "GetAvailableTests", err)
		return
	}
	ctx.JSON(http.StatusOK, tests)
}

// GetTestDetails godoc
// @Summary (Employee) Test details
// @Description Questions and options without correctness.
// @Tags Employee - Tests
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Success 200 {object} dto.TestViewDTO
// @Failure 404 {object} dto.ErrorResponse
// @Router /employee/tests/{test_id} [get]
func (c *UserTestController) GetTestDetails(ctx *gin.Context) {
	identity, ok := controller.CurrentIdentity(ctx)
	if !ok {
		return
	}
	testID, ok := controller.ParseUintParam(ctx, "test_id")
	if !ok {
		return
	}
	resp, err := c.userTestService.GetTestDetails(ctx.Request.Context(), identity.UserID, testID)
	if err != nil {
		controller.RespondError(ctx, "GetTestDetails", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// StartAttempt godoc
// @Summary (Employee) Start or resume a test
// @Description Returns the running attempt if there is one, otherwise starts a new one.
// @Tags Employee - Attempts
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Success 200 {object} dto.TestProgressDTO
// @Failure 403 {object} dto.ErrorResponse "Not assigned, deadline passed or test inactive"
// @Failure 404 {object} dto.ErrorResponse
// @Router /employee/tests/{test_id}/start [post]
func (c *UserTestController) StartAttempt(ctx *gin.Context) {
	identity, ok := controller.CurrentIdentity(ctx)
	if !ok {
		return
	}
	testID, ok := controller.ParseUintParam(ctx, "test_id")
	if !ok {
		return
	}
	log.Info().Uint("testID", testID).Uint("employeeID", identity.UserID).Msg("StartAttempt requested")
	resp, err := c.attemptService.StartAttempt(ctx.Request.Context(), identity.UserID, testID)
	if err != nil {
		controller.RespondError(ctx, "StartAttempt", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetMyAttempts godoc
// @Summary (Employee) My attempts
// @Tags Employee - Attempts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.AttemptSummaryDTO
// @Router /employee/attempts [get]
func (c *UserTestController) GetMyAttempts(ctx *gin.Context) {
	identity, ok := controller.CurrentIdentity(ctx)
	if !ok {
		return
	}
	attempts, err := c.attemptService.GetMyAttempts(ctx.Request.Context(), identity.UserID)
	if err != nil {
		controller.RespondError(ctx, "GetMyAttempts", err)
		return
	}
	ctx.JSON(http.StatusOK, attempts)
}

// GetProgress godoc
// @Summary (Employee) Attempt progress
// @Tags Employee - Attempts
// @Produce json
// @Security BearerAuth
// @Param attempt_id path int true "Attempt ID"
// @Success 200 {object} dto.TestProgressDTO
// @Failure 404 {object} dto.ErrorResponse
// @Router /employee/attempts/{attempt_id}/progress [get]
func (c *UserTestController) GetProgress(ctx *gin.Context) {
	identity, ok := controller.CurrentIdentity(ctx)
	if !ok {
		return
	}
	attemptID, ok := controller.ParseUintParam(ctx, "attempt_id")
	if !ok {
		return
	}
	resp, err := c.attemptService.GetProgress(ctx.Request.Context(), attemptID, identity.UserID)
	if err != nil {
		controller.RespondError(ctx, "GetProgress", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetAttemptQuestions godoc
// @Summary (Employee) All questions with my answers
// @Description Every question of the attempt in order, with the selection or text saved so far.
// @Tags Employee - Attempts
// @Produce json
// @Security BearerAuth
// @Param attempt_id path int true "Attempt ID"
// @Success 200 {object} dto.AttemptQuestionsDTO
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /employee/attempts/{attempt_id}/questions [get]
func (c *UserTestController) GetAttemptQuestions(ctx *gin.Context) {
	identity, ok := controller.CurrentIdentity(ctx)
	if !ok {
		return
	}
	attemptID, ok := controller.ParseUintParam(ctx, "attempt_id")
	if !ok {
		return
	}
	resp, err := c.attemptService.GetAttemptQuestions(ctx.Request.Context(), attemptID, identity.UserID)
	if err != nil {
		controller.RespondError(ctx, "GetAttemptQuestions", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetAttemptQuestion godoc
// @Summary (Employee) One question with my answer
// @Tags Employee - Attempts
// @Produce json
// @Security BearerAuth
// @Param attempt_id path int true "Attempt ID"
// @Param question_id path int true "Question ID"
// @Success 200 {object} dto.CurrentQuestionDTO
// @Failure 400 {object} dto.ErrorResponse "Question not in this test"
// @Failure 404 {object} dto.ErrorResponse
// @Router /employee/attempts/{attempt_id}/questions/{question_id} [get]
func (c *UserTestController) GetAttemptQuestion(ctx *gin.Context) {
	identity, ok := controller.CurrentIdentity(ctx)
	if !ok {
		return
	}
	attemptID, ok := controller.ParseUintParam(ctx, "attempt_id")
	if !ok {
		return
	}
	questionID, ok := controller.ParseUintParam(ctx, "question_id")
	if !ok {
		return
	}
	resp, err := c.attemptService.GetAttemptQuestion(ctx.Request.Context(), attemptID, identity.UserID, questionID)
	if err != nil {
		controller.RespondError(ctx, "GetAttemptQuestion", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// SubmitAnswer godoc
// @Summary (Employee) Answer a question
// @Description Replaces any earlier answer to the same question. Choice answers are scored at once.
// @Tags Employee - Attempts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param attempt_id path int true "Attempt ID"
// @Param answer body dto.SubmitAnswerDTO true "Answer"
// @Success 200 {object} dto.TestProgressDTO
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Attempt no longer in progress"
// @Router /employee/attempts/{attempt_id}/answers [post]
func (c *UserTestController) SubmitAnswer(ctx *gin.Context) {
	identity, ok := controller.CurrentIdentity(ctx)
	if !ok {
		return
	}
	attemptID, ok := controller.ParseUintParam(ctx, "attempt_id")
	if !ok {
		return
	}
	var req dto.SubmitAnswerDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.RespondBindError(ctx, "SubmitAnswer", err)
		return
	}
	resp, err := c.attemptService.SubmitAnswer(ctx.Request.Context(), attemptID, identity.UserID, req)
	if err != nil {
		controller.RespondError(ctx, "SubmitAnswer", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GoToQuestion godoc
// @Summary (Employee) Move to a question
// @Tags Employee - Attempts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param attempt_id path int true "Attempt ID"
// @Param target body dto.GoToQuestionDTO true "Question to show"
// @Success 200 {object} dto.TestProgressDTO
// @Router /employee/attempts/{attempt_id}/go-to-question [post]
func (c *UserTestController) GoToQuestion(ctx *gin.Context) {
	identity, ok := controller.CurrentIdentity(ctx)
	if !ok {
		return
	}
	attemptID, ok := controller.ParseUintParam(ctx, "attempt_id")
	if !ok {
		return
	}
	var req dto.GoToQuestionDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.RespondBindError(ctx, "GoToQuestion", err)
		return
	}
	resp, err := c.attemptService.GoToQuestion(ctx.Request.Context(), attemptID, identity.UserID, req.QuestionID)
	if err != nil {
		controller.RespondError(ctx, "GoToQuestion", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// CompleteAttempt godoc
// @Summary (Employee) Finish an attempt
// @Tags Employee - Attempts
// @Produce json
// @Security BearerAuth
// @Param attempt_id path int true "Attempt ID"
// @Success 200 {object} dto.TestProgressDTO
// @Failure 409 {object} dto.ErrorResponse "Attempt already finished"
// @Router /employee/attempts/{attempt_id}/complete [post]
func (c *UserTestController) CompleteAttempt(ctx *gin.Context) {
	identity, ok := controller.CurrentIdentity(ctx)
	if !ok {
		return
	}
	attemptID, ok := controller.ParseUintParam(ctx, "attempt_id")
	if !ok {
		return
	}
	resp, err := c.attemptService.CompleteAttempt(ctx.Request.Context(), attemptID, identity.UserID)
	if err != nil {
		controller.RespondError(ctx, "CompleteAttempt", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetAttemptResult godoc
// @Summary (Employee) Attempt result
// @Tags Employee - Attempts
// @Produce json
// @Security BearerAuth
// @Param attempt_id path int true "Attempt ID"
// @Success 200 {object} dto.TestResultDTO
// @Failure 409 {object} dto.ErrorResponse "Attempt still in progress"
// @Router /employee/attempts/{attempt_id}/results [get]
func (c *UserTestController) GetAttemptResult(ctx *gin.Context) {
	identity, ok := controller.CurrentIdentity(ctx)
	if !ok {
		return
	}
	attemptID, ok := controller.ParseUintParam(ctx, "attempt_id")
	if !ok {
		return
	}
	resp, err := c.attemptService.GetAttemptResult(ctx.Request.Context(), attemptID, identity.UserID)
	if err != nil {
		controller.RespondError(ctx, "GetAttemptResult", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}
