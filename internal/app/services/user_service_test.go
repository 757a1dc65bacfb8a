package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeatlas/codeatlas/internal/app/models"
	"github.com/codeatlas/codeatlas/internal/app/models/dto"
	"github.com/codeatlas/codeatlas/internal/pkg/apperrors"
)

func strPtr(s string) *string { return &s }

func newUserService() (UserService, *fakeUserRepo, *fakeEnrollmentRepo) {
	userRepo := newFakeUserRepo()
	enrollmentRepo := newFakeEnrollmentRepo()
	return NewUserService(userRepo, enrollmentRepo), userRepo, enrollmentRepo
}

func TestUserServiceCreate(t *testing.T) {
	svc, _, _ := newUserService()
	ctx := context.Background()

	user, err := svc.Create(ctx, &dto.CreateUserRequest{
		Username: "Alice",
		Email:    "Alice@Example.COM",
	})
	require.NoError(t, err)

	assert.Equal(t, "Alice", user.Username, "username keeps submitted case")
	assert.Equal(t, "alice@example.com", user.Email, "email is stored lower-cased")
	assert.Empty(t, user.HashedPassword)
	assert.NotZero(t, user.ID)
}

func TestUserServiceCreateUsernameConflictAnyCase(t *testing.T) {
	svc, _, _ := newUserService()
	ctx := context.Background()

	_, err := svc.Create(ctx, &dto.CreateUserRequest{Username: "alice", Email: "alice@example.com"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, &dto.CreateUserRequest{Username: "ALICE", Email: "other@example.com"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConflict))
	assert.Equal(t, "username", apperrors.FieldOf(err))
}

func TestUserServiceCreateUsernameConflictWinsOverEmail(t *testing.T) {
	svc, _, _ := newUserService()
	ctx := context.Background()

	_, err := svc.Create(ctx, &dto.CreateUserRequest{Username: "alice", Email: "alice@example.com"})
	require.NoError(t, err)

	// Both fields collide with the existing row; username is reported.
	_, err = svc.Create(ctx, &dto.CreateUserRequest{Username: "alice", Email: "alice@example.com"})
	require.Error(t, err)
	assert.Equal(t, "username", apperrors.FieldOf(err))
}

func TestUserServiceCreateEmailConflict(t *testing.T) {
	svc, _, _ := newUserService()
	ctx := context.Background()

	_, err := svc.Create(ctx, &dto.CreateUserRequest{Username: "alice", Email: "alice@example.com"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, &dto.CreateUserRequest{Username: "bob", Email: "ALICE@example.com"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConflict))
	assert.Equal(t, "email", apperrors.FieldOf(err))
}

func TestUserServiceGetByIDNotFound(t *testing.T) {
	svc, _, _ := newUserService()

	_, err := svc.GetByID(context.Background(), 42, false)
	assert.True(t, errors.Is(err, apperrors.ErrUserNotFound))
}

func TestUserServiceGetByIDLoadsEnrollments(t *testing.T) {
	svc, userRepo, enrollmentRepo := newUserService()
	ctx := context.Background()

	stored := userRepo.add(&models.User{Username: "alice", Email: "alice@example.com"})
	_, err := enrollmentRepo.Create(ctx, &models.Enrollment{UserID: stored.ID, CourseID: 7})
	require.NoError(t, err)

	user, err := svc.GetByID(ctx, stored.ID, true)
	require.NoError(t, err)
	require.Len(t, user.Enrollments, 1)
	assert.Equal(t, int64(7), user.Enrollments[0].CourseID)

	// Without the flag the collection stays nil and is omitted from JSON.
	user, err = svc.GetByID(ctx, stored.ID, false)
	require.NoError(t, err)
	assert.Nil(t, user.Enrollments)
}

func TestUserServiceGetByEmailInsensitive(t *testing.T) {
	svc, userRepo, _ := newUserService()
	userRepo.add(&models.User{Username: "alice", Email: "alice@example.com"})

	user, err := svc.GetByEmail(context.Background(), "ALICE@EXAMPLE.COM", false)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
}

func TestUserServiceListEagerLoad(t *testing.T) {
	svc, userRepo, enrollmentRepo := newUserService()
	ctx := context.Background()

	alice := userRepo.add(&models.User{Username: "alice", Email: "alice@example.com"})
	userRepo.add(&models.User{Username: "bob", Email: "bob@example.com"})
	_, err := enrollmentRepo.Create(ctx, &models.Enrollment{UserID: alice.ID, CourseID: 1})
	require.NoError(t, err)

	users, err := svc.List(ctx, 0, 100, true)
	require.NoError(t, err)
	require.Len(t, users, 2)

	assert.Len(t, users[0].Enrollments, 1)
	// Users without enrollments still get an empty slice, not nil.
	assert.NotNil(t, users[1].Enrollments)
	assert.Empty(t, users[1].Enrollments)
}

func TestUserServiceUpdatePartial(t *testing.T) {
	svc, userRepo, _ := newUserService()
	stored := userRepo.add(&models.User{
		Username:  "alice",
		Email:     "alice@example.com",
		FirstName: strPtr("Alice"),
	})

	user, err := svc.Update(context.Background(), stored.ID, &dto.UpdateUserRequest{
		Email: strPtr("New@Example.com"),
	})
	require.NoError(t, err)

	assert.Equal(t, "new@example.com", user.Email)
	// Unsupplied fields are untouched.
	assert.Equal(t, "alice", user.Username)
	require.NotNil(t, user.FirstName)
	assert.Equal(t, "Alice", *user.FirstName)
}

func TestUserServiceUpdateEmptyRejected(t *testing.T) {
	svc, userRepo, _ := newUserService()
	stored := userRepo.add(&models.User{Username: "alice", Email: "alice@example.com"})

	_, err := svc.Update(context.Background(), stored.ID, &dto.UpdateUserRequest{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidationFailed))
}

func TestUserServiceUpdateConflict(t *testing.T) {
	svc, userRepo, _ := newUserService()
	userRepo.add(&models.User{Username: "alice", Email: "alice@example.com"})
	bob := userRepo.add(&models.User{Username: "bob", Email: "bob@example.com"})

	_, err := svc.Update(context.Background(), bob.ID, &dto.UpdateUserRequest{
		Username: strPtr("ALICE"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConflict))
	assert.Equal(t, "username", apperrors.FieldOf(err))
}

func TestUserServiceUpdateKeepOwnValue(t *testing.T) {
	svc, userRepo, _ := newUserService()
	stored := userRepo.add(&models.User{Username: "alice", Email: "alice@example.com"})

	// Re-submitting the current username is not a conflict with yourself.
	user, err := svc.Update(context.Background(), stored.ID, &dto.UpdateUserRequest{
		Username: strPtr("alice"),
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
}

func TestUserServiceUpdateNotFound(t *testing.T) {
	svc, _, _ := newUserService()

	_, err := svc.Update(context.Background(), 42, &dto.UpdateUserRequest{Username: strPtr("x")})
	assert.True(t, errors.Is(err, apperrors.ErrUserNotFound))
}

func TestUserServiceDelete(t *testing.T) {
	svc, userRepo, _ := newUserService()
	stored := userRepo.add(&models.User{Username: "alice", Email: "alice@example.com"})

	require.NoError(t, svc.Delete(context.Background(), stored.ID))

	err := svc.Delete(context.Background(), stored.ID)
	assert.True(t, errors.Is(err, apperrors.ErrUserNotFound))
}
