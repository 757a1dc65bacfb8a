package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/codeatlas/codeatlas/internal/app/models"
	"github.com/codeatlas/codeatlas/internal/app/models/dto"
	"github.com/codeatlas/codeatlas/internal/app/repositories"
	"github.com/codeatlas/codeatlas/internal/pkg/apperrors"
)

// UserService defines the interface for user-related operations
type UserService interface {
	Create(ctx context.Context, req *dto.CreateUserRequest) (*models.User, error)
	GetByID(ctx context.Context, id int64, loadEnrollments bool) (*models.User, error)
	GetByUsername(ctx context.Context, username string, loadEnrollments bool) (*models.User, error)
	GetByEmail(ctx context.Context, email string, loadEnrollments bool) (*models.User, error)
	List(ctx context.Context, skip, limit int, loadEnrollments bool) ([]*models.User, error)
	Update(ctx context.Context, id int64, req *dto.UpdateUserRequest) (*models.User, error)
	Delete(ctx context.Context, id int64) error
}

// userServiceImpl implements the UserService interface
type userServiceImpl struct {
	userRepo       repositories.UserRepository
	enrollmentRepo repositories.EnrollmentRepository
}

// NewUserService creates a new user service instance
func NewUserService(userRepo repositories.UserRepository, enrollmentRepo repositories.EnrollmentRepository) UserService {
	return &userServiceImpl{
		userRepo:       userRepo,
		enrollmentRepo: enrollmentRepo,
	}
}

// Create validates uniqueness case-insensitively and persists a new user.
// Username collisions are reported before email collisions, and the stored
// email is always lower-cased while the username keeps its submitted case.
func (s *userServiceImpl) Create(ctx context.Context, req *dto.CreateUserRequest) (*models.User, error) {
	existing, err := s.userRepo.FindConflict(ctx, req.Username, req.Email)
	if err != nil {
		return nil, fmt.Errorf("error checking user uniqueness: %w", err)
	}
	if existing != nil {
		if strings.EqualFold(existing.Username, req.Username) {
			return nil, apperrors.NewConflictError(
				fmt.Sprintf("Username '%s' already exists", req.Username)).WithField("username")
		}
		return nil, apperrors.NewConflictError(
			fmt.Sprintf("Email '%s' already exists", req.Email)).WithField("email")
	}

	user := &models.User{
		Username:  req.Username,
		Email:     strings.ToLower(req.Email),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		// No password travels on this path; the empty hash can never verify.
	}

	if _, err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetByID retrieves a user, optionally with its enrollments.
func (s *userServiceImpl) GetByID(ctx context.Context, id int64, loadEnrollments bool) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if loadEnrollments {
		if err := s.attachEnrollments(ctx, user); err != nil {
			return nil, err
		}
	}
	return user, nil
}

// GetByUsername retrieves a user by exact username.
func (s *userServiceImpl) GetByUsername(ctx context.Context, username string, loadEnrollments bool) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if loadEnrollments {
		if err := s.attachEnrollments(ctx, user); err != nil {
			return nil, err
		}
	}
	return user, nil
}

// GetByEmail retrieves a user by email, case-insensitively.
func (s *userServiceImpl) GetByEmail(ctx context.Context, email string, loadEnrollments bool) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if loadEnrollments {
		if err := s.attachEnrollments(ctx, user); err != nil {
			return nil, err
		}
	}
	return user, nil
}

// List retrieves users with pagination, optionally eager-loading enrollments.
func (s *userServiceImpl) List(ctx context.Context, skip, limit int, loadEnrollments bool) ([]*models.User, error) {
	users, err := s.userRepo.List(ctx, skip, limit)
	if err != nil {
		return nil, err
	}
	if loadEnrollments && len(users) > 0 {
		ids := make([]int64, len(users))
		for i, u := range users {
			ids[i] = u.ID
		}
		grouped, err := s.enrollmentRepo.ListByUserIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			u.Enrollments = grouped[u.ID]
			if u.Enrollments == nil {
				u.Enrollments = []models.Enrollment{}
			}
		}
	}
	return users, nil
}

// Update applies a partial update. Only fields the caller supplied are
// changed; an empty update set is rejected. Uniqueness is re-checked against
// all other rows before anything is written.
func (s *userServiceImpl) Update(ctx context.Context, id int64, req *dto.UpdateUserRequest) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.IsEmpty() {
		return nil, apperrors.NewValidationError("No fields provided for update")
	}

	if req.Username != nil {
		taken, err := s.userRepo.UsernameExists(ctx, *req.Username, id)
		if err != nil {
			return nil, fmt.Errorf("error checking username uniqueness: %w", err)
		}
		if taken {
			return nil, apperrors.NewConflictError(
				fmt.Sprintf("Username '%s' is already taken", *req.Username)).WithField("username")
		}
		user.Username = *req.Username
	}

	if req.Email != nil {
		email := strings.ToLower(*req.Email)
		taken, err := s.userRepo.EmailExists(ctx, email, id)
		if err != nil {
			return nil, fmt.Errorf("error checking email uniqueness: %w", err)
		}
		if taken {
			return nil, apperrors.NewConflictError(
				fmt.Sprintf("Email '%s' is already registered", email)).WithField("email")
		}
		user.Email = email
	}

	if req.FirstName != nil {
		user.FirstName = req.FirstName
	}
	if req.LastName != nil {
		user.LastName = req.LastName
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Delete removes a user by id.
func (s *userServiceImpl) Delete(ctx context.Context, id int64) error {
	return s.userRepo.Delete(ctx, id)
}

func (s *userServiceImpl) attachEnrollments(ctx context.Context, user *models.User) error {
	grouped, err := s.enrollmentRepo.ListByUserIDs(ctx, []int64{user.ID})
	if err != nil {
		return err
	}
	user.Enrollments = grouped[user.ID]
	if user.Enrollments == nil {
		user.Enrollments = []models.Enrollment{}
	}
	return nil
}
