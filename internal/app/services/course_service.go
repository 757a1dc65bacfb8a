package services

import (
	"context"
	"fmt"

	"github.com/codeatlas/codeatlas/internal/app/models"
	"github.com/codeatlas/codeatlas/internal/app/models/dto"
	"github.com/codeatlas/codeatlas/internal/app/repositories"
	"github.com/codeatlas/codeatlas/internal/pkg/apperrors"
)

// CourseService defines the interface for course-related operations
type CourseService interface {
	Create(ctx context.Context, req *dto.CreateCourseRequest) (*models.Course, error)
	GetByID(ctx context.Context, id int64, loadEnrollments bool) (*models.Course, error)
	List(ctx context.Context, skip, limit int) ([]*models.Course, error)
	Update(ctx context.Context, id int64, req *dto.UpdateCourseRequest) (*models.Course, error)
	Delete(ctx context.Context, id int64) error
}

// courseServiceImpl implements the CourseService interface
type courseServiceImpl struct {
	courseRepo     repositories.CourseRepository
	enrollmentRepo repositories.EnrollmentRepository
}

// NewCourseService creates a new course service instance
func NewCourseService(courseRepo repositories.CourseRepository, enrollmentRepo repositories.EnrollmentRepository) CourseService {
	return &courseServiceImpl{
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
	}
}

// Create checks the title for a case-insensitive collision and persists a new
// course. The stored title keeps its submitted case.
func (s *courseServiceImpl) Create(ctx context.Context, req *dto.CreateCourseRequest) (*models.Course, error) {
	existing, err := s.courseRepo.FindByTitleInsensitive(ctx, req.Title)
	if err != nil {
		return nil, fmt.Errorf("error checking course uniqueness: %w", err)
	}
	if existing != nil {
		return nil, apperrors.NewConflictError(
			fmt.Sprintf("Course with title '%s' already exists", req.Title)).WithField("title")
	}

	course := &models.Course{
		Title:       req.Title,
		Description: req.Description,
	}
	if _, err := s.courseRepo.Create(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

// GetByID retrieves a course, optionally with its enrollments.
func (s *courseServiceImpl) GetByID(ctx context.Context, id int64, loadEnrollments bool) (*models.Course, error) {
	course, err := s.courseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if loadEnrollments {
		grouped, err := s.enrollmentRepo.ListByCourseIDs(ctx, []int64{course.ID})
		if err != nil {
			return nil, err
		}
		course.Enrollments = grouped[course.ID]
		if course.Enrollments == nil {
			course.Enrollments = []models.Enrollment{}
		}
	}
	return course, nil
}

// List retrieves courses with offset/limit pagination.
func (s *courseServiceImpl) List(ctx context.Context, skip, limit int) ([]*models.Course, error) {
	return s.courseRepo.List(ctx, skip, limit)
}

// Update applies a partial update with the same exclude-unset semantics as
// the user path; the title collision check skips the course being updated.
func (s *courseServiceImpl) Update(ctx context.Context, id int64, req *dto.UpdateCourseRequest) (*models.Course, error) {
	course, err := s.courseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.IsEmpty() {
		return nil, apperrors.NewValidationError("No fields provided for update")
	}

	if req.Title != nil {
		taken, err := s.courseRepo.TitleExists(ctx, *req.Title, id)
		if err != nil {
			return nil, fmt.Errorf("error checking title uniqueness: %w", err)
		}
		if taken {
			return nil, apperrors.NewConflictError(
				fmt.Sprintf("Course with title '%s' already exists", *req.Title)).WithField("title")
		}
		course.Title = *req.Title
	}

	if req.Description != nil {
		course.Description = req.Description
	}

	if err := s.courseRepo.Update(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

// Delete removes a course by id.
func (s *courseServiceImpl) Delete(ctx context.Context, id int64) error {
	return s.courseRepo.Delete(ctx, id)
}
