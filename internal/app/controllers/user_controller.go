package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/codeatlas/codeatlas/internal/app/models/dto"
	"github.com/codeatlas/codeatlas/internal/app/services"
	"github.com/codeatlas/codeatlas/internal/middleware"
	"github.com/codeatlas/codeatlas/internal/pkg/helpers"
)

// UserController handles the admin API user endpoints
type UserController struct {
	userService services.UserService
}

// NewUserController creates a new UserController
func NewUserController(userService services.UserService) *UserController {
	return &UserController{userService: userService}
}

// Create handles POST /api/admin/users
func (c *UserController) Create(ctx *gin.Context) {
	var req dto.CreateUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid user data").WithDetails(err.Error())))
		return
	}

	user, err := c.userService.Create(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleCreateAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, user)
}

// List handles GET /api/admin/users
func (c *UserController) List(ctx *gin.Context) {
	skip, limit, loadEnrollments := helpers.ParseListParams(ctx)

	users, err := c.userService.List(ctx.Request.Context(), skip, limit, loadEnrollments)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, users)
}

// GetByID handles GET /api/admin/users/:id
func (c *UserController) GetByID(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	loadEnrollments, _ := strconv.ParseBool(ctx.DefaultQuery("load_enrollments", "false"))

	user, err := c.userService.GetByID(ctx.Request.Context(), id, loadEnrollments)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, user)
}

// GetByUsername handles GET /api/admin/users/username/:username
func (c *UserController) GetByUsername(ctx *gin.Context) {
	loadEnrollments, _ := strconv.ParseBool(ctx.DefaultQuery("load_enrollments", "false"))

	user, err := c.userService.GetByUsername(ctx.Request.Context(), ctx.Param("username"), loadEnrollments)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, user)
}

// GetByEmail handles GET /api/admin/users/email/:email
func (c *UserController) GetByEmail(ctx *gin.Context) {
	loadEnrollments, _ := strconv.ParseBool(ctx.DefaultQuery("load_enrollments", "false"))

	user, err := c.userService.GetByEmail(ctx.Request.Context(), ctx.Param("email"), loadEnrollments)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, user)
}

// Update handles PATCH /api/admin/users/:id
func (c *UserController) Update(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	var req dto.UpdateUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid user data").WithDetails(err.Error())))
		return
	}

	user, err := c.userService.Update(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, user)
}

// Delete handles DELETE /api/admin/users/:id
func (c *UserController) Delete(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	if err := c.userService.Delete(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

// parseID reads a positive integer path parameter, replying 400 on failure.
func parseID(ctx *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "ID must be a valid number")))
		return 0, false
	}
	return id, true
}
