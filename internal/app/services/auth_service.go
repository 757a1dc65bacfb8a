package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/codeatlas/codeatlas/internal/app/models"
	"github.com/codeatlas/codeatlas/internal/app/models/dto"
	"github.com/codeatlas/codeatlas/internal/app/repositories"
	"github.com/codeatlas/codeatlas/internal/pkg/apperrors"
	"github.com/codeatlas/codeatlas/internal/pkg/auth"
)

// AuthService defines the public signup/login operations
type AuthService interface {
	Signup(ctx context.Context, form *dto.SignupForm) (*models.User, error)
	Login(ctx context.Context, username, password string) (*models.User, error)
}

// authServiceImpl implements the AuthService interface
type authServiceImpl struct {
	userRepo repositories.UserRepository
}

// NewAuthService creates a new auth service instance
func NewAuthService(userRepo repositories.UserRepository) AuthService {
	return &authServiceImpl{userRepo: userRepo}
}

// Signup re-validates uniqueness the same way the admin create path does,
// hashes the password and persists the new identity.
func (s *authServiceImpl) Signup(ctx context.Context, form *dto.SignupForm) (*models.User, error) {
	existing, err := s.userRepo.FindConflict(ctx, form.Username, form.Email)
	if err != nil {
		return nil, fmt.Errorf("error checking signup uniqueness: %w", err)
	}
	if existing != nil {
		if strings.EqualFold(existing.Username, form.Username) {
			return nil, apperrors.NewConflictError(
				fmt.Sprintf("Username '%s' already exists", form.Username)).WithField("username")
		}
		return nil, apperrors.NewConflictError(
			fmt.Sprintf("Email '%s' already exists", form.Email)).WithField("email")
	}

	hash, err := auth.HashPassword(form.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Username:       form.Username,
		Email:          strings.ToLower(form.Email),
		HashedPassword: hash,
		FirstName:      optional(form.FirstName),
		LastName:       optional(form.LastName),
	}
	if _, err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login looks the user up by username and verifies the password. Failure is
// always ErrInvalidCredentials; callers must not learn which check failed.
func (s *authServiceImpl) Login(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.userRepo.GetByUsernameInsensitive(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPassword(password, user.HashedPassword) {
		return nil, apperrors.ErrInvalidCredentials
	}
	return user, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
