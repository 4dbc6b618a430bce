package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Legend8883/CompetencyTestingSystem/internal/controller"
	"github.com/Legend8883/CompetencyTestingSystem/internal/service"
)

type EmployeeController struct {
	userService service.UserService
}

func NewEmployeeController(userService service.UserService) *EmployeeController {
	return &EmployeeController{userService: userService}
}

// ListEmployees godoc
// @Summary (HR) List employees
// @Tags HR - Employees
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.UserDTO
// @Router /hr/employees [get]
func (c *EmployeeController) ListEmployees(ctx *gin.Context) {
	users, err := c.userService.ListEmployees(ctx.Request.Context())
	if err != nil {
		controller.RespondError(ctx, "ListEmployees", err)
		return
	}
	ctx.JSON(http.StatusOK, users)
}

// SearchEmployees godoc
// @Summary (HR) Search employees by name or email
// @Tags HR - Employees
// @Produce json
// @Security BearerAuth
// @Param q query string false "Search text"
// @Success 200 {array} dto.UserDTO
// @Router /hr/employees/search [get]
func (c *EmployeeController) SearchEmployees(ctx *gin.Context) {
	users, err := c.userService.SearchEmployees(ctx.Request.Context(), ctx.Query("q"))
	if err != nil {
		controller.RespondError(ctx, "SearchEmployees", err)
		return
	}
	ctx.JSON(http.StatusOK, users)
}
