package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Legend8883/CompetencyTestingSystem/internal/controller"
	"github.com/Legend8883/CompetencyTestingSystem/internal/dto"
	"github.com/Legend8883/CompetencyTestingSystem/internal/service"
)

type AdminTestController struct {
	adminTestService  service.AdminTestService
	testService       service.TestService
	assignmentService service.AssignmentService
}

func NewAdminTestController(
	adminTestService service.AdminTestService,
	testService service.TestService,
	assignmentService service.AssignmentService,
) *AdminTestController {
	return &AdminTestController{
		adminTestService:  adminTestService,
		testService:       testService,
		assignmentService: assignmentService,
	}
}

// CreateTest godoc
// @Summary (HR) Create a test
// @Description Creates a test with its questions and options. Order indexes, when given, must cover 0..n-1.
// @Tags HR - Tests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param test_data body dto.TestCreateDTO true "Test definition"
// @Success 201 {object} dto.TestResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid test definition"
// @Failure 403 {object} dto.ErrorResponse "Not an HR user"
// @Router /hr/tests [post]
func (c *AdminTestController) CreateTest(ctx *gin.Context) {
	identity, ok := controller.CurrentIdentity(ctx)
	if !ok {
		return
	}
	var req dto.TestCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.RespondBindError(ctx, "CreateTest", err)
		return
	}
	resp, err := c.adminTestService.CreateTest(ctx.Request.Context(), identity.UserID, req)
	if err != nil {
		controller.RespondError(ctx, "CreateTest", err)
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// GetMyTests godoc
// @Summary (HR) List own tests
// @Tags HR - Tests
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.TestSummaryDTO
// @Router /hr/tests [get]
func (c *AdminTestController) GetMyTests(ctx *gin.Context) {
	identity, ok := controller.CurrentIdentity(ctx)
	if !ok {
		return
	}
	tests, err := c.testService.GetMyTests(ctx.Request.Context(), identity.UserID)
	if err != nil {
		controller.RespondError(ctx, "GetMyTests", err)
		return
	}
	ctx.JSON(http.StatusOK, tests)
}

// GetTest godoc
// @Summary (HR) View a test with correct options
// @Tags HR - Tests
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Success 200 {object} dto.TestResponseDTO
// @Failure 403 {object} dto.ErrorResponse "Test belongs to another HR user"
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Router /hr/tests/{test_id} [get]
func (c *AdminTestController) GetTest(ctx *gin.Context) {
	identity, ok := controller.CurrentIdentity(ctx)
	if !ok {
		return
	}
	testID, ok := controller.ParseUintParam(ctx, "test_id")
	if !ok {
		return
	}
	resp, err := c.testService.GetTest(ctx.Request.Context(), identity.UserID, testID)
	if err != nil {
		controller.RespondError(ctx, "GetTest", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// ActivateTest godoc
// @Summary (HR) Activate a test
// @Tags HR - Tests
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Success 200 {object} dto.TestResponseDTO
// @Router /hr/tests/{test_id}/activate [patch]
func (c *AdminTestController) ActivateTest(ctx *gin.Context) {
	c.setActive(ctx, true)
}

// DeactivateTest godoc
// @Summary (HR) Deactivate a test
// @Description New attempts are refused; attempts already in progress continue.
// @Tags HR - Tests
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Success 200 {object} dto.TestResponseDTO
// @Router /hr/tests/{test_id}/deactivate [patch]
func (c *AdminTestController) DeactivateTest(ctx *gin.Context) {
	c.setActive(ctx, false)
}

func (c *AdminTestController) setActive(ctx *gin.Context, active bool) {
	identity, ok := controller.CurrentIdentity(ctx)
	if !ok {
		return
	}
	testID, ok := controller.ParseUintParam(ctx, "test_id")
	if !ok {
		return
	}
	resp, err := c.testService.SetTestActive(ctx.Request.Context(), identity.UserID, testID, active)
	if err != nil {
		controller.RespondError(ctx, "SetTestActive", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// AddQuestion godoc
// @Summary (HR) Append a question to a test
// @Description Refused once the test has attempts.
// @Tags HR - Tests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Param question body dto.QuestionCreateDTO true "Question definition"
// @Success 201 {object} dto.QuestionResponseDTO
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /hr/tests/{test_id}/questions [post]
func (c *AdminTestController) AddQuestion(ctx *gin.Context) {
	identity, ok := controller.CurrentIdentity(ctx)
	if !ok {
		return
	}
	testID, ok := controller.ParseUintParam(ctx, "test_id")
	if !ok {
		return
	}
	var req dto.QuestionCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.RespondBindError(ctx, "AddQuestion", err)
		return
	}
	resp, err := c.testService.AddQuestionToTest(ctx.Request.Context(), identity.UserID, testID, req)
	if err != nil {
		controller.RespondError(ctx, "AddQuestion", err)
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// AssignTest godoc
// @Summary (HR) Assign a test to employees
// @Tags HR - Assignments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Param assignment body dto.AssignTestDTO true "Employees and optional deadline"
// @Success 200 {array} dto.AssignmentDTO
// @Failure 403 {object} dto.ErrorResponse "Employee already started the test"
// @Router /hr/tests/{test_id}/assign [post]
func (c *AdminTestController) AssignTest(ctx *gin.Context) {
	identity, ok := controller.CurrentIdentity(ctx)
	if !ok {
		return
	}
	testID, ok := controller.ParseUintParam(ctx, "test_id")
	if !ok {
		return
	}
	var req dto.AssignTestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.RespondBindError(ctx, "AssignTest", err)
		return
	}
	resp, err := c.assignmentService.AssignTest(ctx.Request.Context(), identity.UserID, testID, req)
	if err != nil {
		controller.RespondError(ctx, "AssignTest", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetTestAssignments godoc
// @Summary (HR) List assignments of a test
// @Tags HR - Assignments
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Success 200 {array} dto.AssignmentDTO
// @Router /hr/tests/{test_id}/assignments [get]
func (c *AdminTestController) GetTestAssignments(ctx *gin.Context) {
	identity, ok := controller.CurrentIdentity(ctx)
	if !ok {
		return
	}
	testID, ok := controller.ParseUintParam(ctx, "test_id")
	if !ok {
		return
	}
	resp, err := c.assignmentService.GetTestAssignments(ctx.Request.Context(), identity.UserID, testID)
	if err != nil {
		controller.RespondError(ctx, "GetTestAssignments", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}
