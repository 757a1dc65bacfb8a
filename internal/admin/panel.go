package admin

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/codeatlas/codeatlas/internal/app/models"
	"github.com/codeatlas/codeatlas/internal/app/models/dto"
	"github.com/codeatlas/codeatlas/internal/app/repositories"
	"github.com/codeatlas/codeatlas/internal/middleware"
	"github.com/codeatlas/codeatlas/internal/pkg/auth"
)

const (
	defaultPageSize = 25
	maxPageSize     = 100

	// fallbackPassword is hashed for users created through the panel without
	// a password, mirroring the record browser's original behavior.
	fallbackPassword = "changeme"
)

// Panel is the password-gated record browser/editor. It binds directly to the
// persistence layer; the storage-level unique indexes are the backstop for
// concurrent edits.
type Panel struct {
	repos *repositories.Repositories
}

// NewPanel creates a new admin Panel over the given repositories
func NewPanel(repos *repositories.Repositories) *Panel {
	return &Panel{repos: repos}
}

// pageResponse is the common list envelope for panel browse endpoints.
type pageResponse struct {
	Items    interface{} `json:"items"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

// parsePageQuery reads search/sort/pagination parameters for a browse.
func parsePageQuery(c *gin.Context) (repositories.PageQuery, int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	if err != nil || pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}

	return repositories.PageQuery{
		Search:   c.Query("q"),
		SortBy:   c.Query("sort"),
		SortDesc: strings.EqualFold(c.DefaultQuery("order", "desc"), "desc"),
		Offset:   uint64((page - 1) * pageSize),
		Limit:    uint64(pageSize),
	}, page, pageSize
}

// ── Users ──

// adminUserForm carries user fields editable through the panel. The stored
// hash is never exposed; a plain password field is hashed before storage.
type adminUserForm struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

// ListUsers handles GET /admin/users
func (p *Panel) ListUsers(c *gin.Context) {
	q, page, pageSize := parsePageQuery(c)
	users, total, err := p.repos.UserRepository.Browse(c.Request.Context(), q)
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, pageResponse{Items: users, Total: total, Page: page, PageSize: pageSize})
}

// GetUser handles GET /admin/users/:id
func (p *Panel) GetUser(c *gin.Context) {
	id, ok := parsePanelID(c)
	if !ok {
		return
	}
	user, err := p.repos.UserRepository.GetByID(c.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// CreateUser handles POST /admin/users
func (p *Panel) CreateUser(c *gin.Context) {
	var form adminUserForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid user data").WithDetails(err.Error())))
		return
	}
	if form.Username == nil || form.Email == nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "username and email are required")))
		return
	}

	password := fallbackPassword
	if form.Password != nil && *form.Password != "" {
		password = *form.Password
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}

	user := &models.User{
		Username:       *form.Username,
		Email:          strings.ToLower(*form.Email),
		HashedPassword: hash,
		FirstName:      form.FirstName,
		LastName:       form.LastName,
	}
	if _, err := p.repos.UserRepository.Create(c.Request.Context(), user); err != nil {
		middleware.HandleAPIError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// UpdateUser handles PUT /admin/users/:id
func (p *Panel) UpdateUser(c *gin.Context) {
	id, ok := parsePanelID(c)
	if !ok {
		return
	}

	var form adminUserForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid user data").WithDetails(err.Error())))
		return
	}

	user, err := p.repos.UserRepository.GetByID(c.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}

	if form.Username != nil {
		user.Username = *form.Username
	}
	if form.Email != nil {
		user.Email = strings.ToLower(*form.Email)
	}
	if form.FirstName != nil {
		user.FirstName = form.FirstName
	}
	if form.LastName != nil {
		user.LastName = form.LastName
	}
	if form.Password != nil && *form.Password != "" {
		hash, err := auth.HashPassword(*form.Password)
		if err != nil {
			middleware.HandleAPIError(c, err)
			return
		}
		user.HashedPassword = hash
	}

	if err := p.repos.UserRepository.Update(c.Request.Context(), user); err != nil {
		middleware.HandleAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// DeleteUser handles DELETE /admin/users/:id
func (p *Panel) DeleteUser(c *gin.Context) {
	id, ok := parsePanelID(c)
	if !ok {
		return
	}
	if err := p.repos.UserRepository.Delete(c.Request.Context(), id); err != nil {
		middleware.HandleAPIError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ── Courses ──

type adminCourseForm struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// ListCourses handles GET /admin/courses
func (p *Panel) ListCourses(c *gin.Context) {
	q, page, pageSize := parsePageQuery(c)
	courses, total, err := p.repos.CourseRepository.Browse(c.Request.Context(), q)
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, pageResponse{Items: courses, Total: total, Page: page, PageSize: pageSize})
}

// GetCourse handles GET /admin/courses/:id
func (p *Panel) GetCourse(c *gin.Context) {
	id, ok := parsePanelID(c)
	if !ok {
		return
	}
	course, err := p.repos.CourseRepository.GetByID(c.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

// CreateCourse handles POST /admin/courses
func (p *Panel) CreateCourse(c *gin.Context) {
	var form adminCourseForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid course data").WithDetails(err.Error())))
		return
	}
	if form.Title == nil || *form.Title == "" {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "title is required")))
		return
	}

	course := &models.Course{Title: *form.Title, Description: form.Description}
	if _, err := p.repos.CourseRepository.Create(c.Request.Context(), course); err != nil {
		middleware.HandleAPIError(c, err)
		return
	}
	c.JSON(http.StatusCreated, course)
}

// UpdateCourse handles PUT /admin/courses/:id
func (p *Panel) UpdateCourse(c *gin.Context) {
	id, ok := parsePanelID(c)
	if !ok {
		return
	}

	var form adminCourseForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid course data").WithDetails(err.Error())))
		return
	}

	course, err := p.repos.CourseRepository.GetByID(c.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}

	if form.Title != nil {
		course.Title = *form.Title
	}
	if form.Description != nil {
		course.Description = form.Description
	}

	if err := p.repos.CourseRepository.Update(c.Request.Context(), course); err != nil {
		middleware.HandleAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

// DeleteCourse handles DELETE /admin/courses/:id
func (p *Panel) DeleteCourse(c *gin.Context) {
	id, ok := parsePanelID(c)
	if !ok {
		return
	}
	if err := p.repos.CourseRepository.Delete(c.Request.Context(), id); err != nil {
		middleware.HandleAPIError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ── Enrollments ──

type adminEnrollmentForm struct {
	UserID   *int64 `json:"user_id"`
	CourseID *int64 `json:"course_id"`
}

// ListEnrollments handles GET /admin/enrollments
func (p *Panel) ListEnrollments(c *gin.Context) {
	q, page, pageSize := parsePageQuery(c)
	enrollments, total, err := p.repos.EnrollmentRepository.Browse(c.Request.Context(), q)
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, pageResponse{Items: enrollments, Total: total, Page: page, PageSize: pageSize})
}

// GetEnrollment handles GET /admin/enrollments/:id
func (p *Panel) GetEnrollment(c *gin.Context) {
	id, ok := parsePanelID(c)
	if !ok {
		return
	}
	enrollment, err := p.repos.EnrollmentRepository.GetByID(c.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, enrollment)
}

// CreateEnrollment handles POST /admin/enrollments
func (p *Panel) CreateEnrollment(c *gin.Context) {
	var form adminEnrollmentForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid enrollment data").WithDetails(err.Error())))
		return
	}
	if form.UserID == nil || form.CourseID == nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "user_id and course_id are required")))
		return
	}

	enrollment := &models.Enrollment{UserID: *form.UserID, CourseID: *form.CourseID}
	if _, err := p.repos.EnrollmentRepository.Create(c.Request.Context(), enrollment); err != nil {
		middleware.HandleAPIError(c, err)
		return
	}
	c.JSON(http.StatusCreated, enrollment)
}

// UpdateEnrollment handles PUT /admin/enrollments/:id
func (p *Panel) UpdateEnrollment(c *gin.Context) {
	id, ok := parsePanelID(c)
	if !ok {
		return
	}

	var form adminEnrollmentForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid enrollment data").WithDetails(err.Error())))
		return
	}

	enrollment, err := p.repos.EnrollmentRepository.GetByID(c.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}

	if form.UserID != nil {
		enrollment.UserID = *form.UserID
	}
	if form.CourseID != nil {
		enrollment.CourseID = *form.CourseID
	}

	if err := p.repos.EnrollmentRepository.Update(c.Request.Context(), enrollment); err != nil {
		middleware.HandleAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, enrollment)
}

// DeleteEnrollment handles DELETE /admin/enrollments/:id
func (p *Panel) DeleteEnrollment(c *gin.Context) {
	id, ok := parsePanelID(c)
	if !ok {
		return
	}
	if err := p.repos.EnrollmentRepository.Delete(c.Request.Context(), id); err != nil {
		middleware.HandleAPIError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parsePanelID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "ID must be a valid number")))
		return 0, false
	}
	return id, true
}
