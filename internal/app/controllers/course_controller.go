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

// CourseController handles the admin API course endpoints
type CourseController struct {
	courseService services.CourseService
}

// NewCourseController creates a new CourseController
func NewCourseController(courseService services.CourseService) *CourseController {
	return &CourseController{courseService: courseService}
}

// Create handles POST /api/admin/courses
func (c *CourseController) Create(ctx *gin.Context) {
	var req dto.CreateCourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid course data").WithDetails(err.Error())))
		return
	}

	course, err := c.courseService.Create(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleCreateAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, course)
}

// List handles GET /api/admin/courses
func (c *CourseController) List(ctx *gin.Context) {
	skip, limit, _ := helpers.ParseListParams(ctx)

	courses, err := c.courseService.List(ctx.Request.Context(), skip, limit)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, courses)
}

// GetByID handles GET /api/admin/courses/:id
func (c *CourseController) GetByID(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	loadEnrollments, _ := strconv.ParseBool(ctx.DefaultQuery("load_enrollments", "false"))

	course, err := c.courseService.GetByID(ctx.Request.Context(), id, loadEnrollments)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, course)
}

// Update handles PATCH /api/admin/courses/:id
func (c *CourseController) Update(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	var req dto.UpdateCourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid course data").WithDetails(err.Error())))
		return
	}

	course, err := c.courseService.Update(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, course)
}

// Delete handles DELETE /api/admin/courses/:id
func (c *CourseController) Delete(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	if err := c.courseService.Delete(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}
