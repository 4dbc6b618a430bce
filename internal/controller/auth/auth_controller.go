package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Legend8883/CompetencyTestingSystem/internal/controller"
	"github.com/Legend8883/CompetencyTestingSystem/internal/dto"
	"github.com/Legend8883/CompetencyTestingSystem/internal/service"
)

type AuthController struct {
	authService service.AuthService
}

func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

// Register godoc
// @Summary Register an employee account
// @Tags Auth
// @Accept json
// @Produce json
// @Param account body dto.RegisterDTO true "Account data"
// @Success 201 {object} dto.AuthResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid data or email taken"
// @Router /auth/register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req dto.RegisterDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.RespondBindError(ctx, "Register", err)
		return
	}
	resp, err := c.authService.Register(ctx.Request.Context(), req)
	if err != nil {
		controller.RespondError(ctx, "Register", err)
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// RegisterHR godoc
// @Summary Register an HR account
// @Description Requires the configured invite code.
// @Tags Auth
// @Accept json
// @Produce json
// @Param account body dto.RegisterDTO true "Account data with invite_code"
// @Success 201 {object} dto.AuthResponseDTO
// @Failure 403 {object} dto.ErrorResponse "Invalid invite code"
// @Router /auth/register-hr [post]
func (c *AuthController) RegisterHR(ctx *gin.Context) {
	var req dto.RegisterDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.RespondBindError(ctx, "RegisterHR", err)
		return
	}
	resp, err := c.authService.RegisterHR(ctx.Request.Context(), req)
	if err != nil {
		controller.RespondError(ctx, "RegisterHR", err)
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// Login godoc
// @Summary Log in
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body dto.LoginDTO true "Email and password"
// @Success 200 {object} dto.AuthResponseDTO
// @Failure 403 {object} dto.ErrorResponse "Invalid credentials"
// @Router /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.RespondBindError(ctx, "Login", err)
		return
	}
	resp, err := c.authService.Login(ctx.Request.Context(), req)
	if err != nil {
		controller.RespondError(ctx, "Login", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}
