package services

import (
	"context"
	"strings"
	"time"

	"github.com/codeatlas/codeatlas/internal/app/models"
	"github.com/codeatlas/codeatlas/internal/app/repositories"
	"github.com/codeatlas/codeatlas/internal/pkg/apperrors"
)

// fakeUserRepo is an in-memory UserRepository for service tests.
type fakeUserRepo struct {
	users  map[int64]*models.User
	nextID int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int64]*models.User{}, nextID: 1}
}

func (r *fakeUserRepo) add(user *models.User) *models.User {
	u := *user
	u.ID = r.nextID
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	r.users[u.ID] = &u
	r.nextID++
	return &u
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) (int64, error) {
	stored := r.add(user)
	*user = *stored
	return stored.ID, nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if u, ok := r.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, apperrors.ErrUserNotFound
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (r *fakeUserRepo) GetByUsernameInsensitive(ctx context.Context, username string) (*models.User, error) {
	for _, u := range r.users {
		if strings.EqualFold(u.Username, username) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (r *fakeUserRepo) FindConflict(ctx context.Context, username, email string) (*models.User, error) {
	for _, u := range r.users {
		if strings.EqualFold(u.Username, username) || strings.EqualFold(u.Email, email) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) UsernameExists(ctx context.Context, username string, excludeID int64) (bool, error) {
	for _, u := range r.users {
		if u.ID != excludeID && strings.EqualFold(u.Username, username) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) EmailExists(ctx context.Context, email string, excludeID int64) (bool, error) {
	for _, u := range r.users {
		if u.ID != excludeID && strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) List(ctx context.Context, skip, limit int) ([]*models.User, error) {
	users := []*models.User{}
	for id := int64(1); id < r.nextID; id++ {
		if u, ok := r.users[id]; ok {
			copied := *u
			users = append(users, &copied)
		}
	}
	if skip >= len(users) {
		return []*models.User{}, nil
	}
	users = users[skip:]
	if limit > 0 && limit < len(users) {
		users = users[:limit]
	}
	return users, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return apperrors.ErrUserNotFound
	}
	copied := *user
	copied.UpdatedAt = time.Now().UTC()
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.users[id]; !ok {
		return apperrors.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) Browse(ctx context.Context, q repositories.PageQuery) ([]*models.User, int64, error) {
	users, err := r.List(ctx, int(q.Offset), int(q.Limit))
	return users, int64(len(r.users)), err
}

// fakeCourseRepo is an in-memory CourseRepository for service tests.
type fakeCourseRepo struct {
	courses map[int64]*models.Course
	nextID  int64
}

func newFakeCourseRepo() *fakeCourseRepo {
	return &fakeCourseRepo{courses: map[int64]*models.Course{}, nextID: 1}
}

func (r *fakeCourseRepo) add(course *models.Course) *models.Course {
	c := *course
	c.ID = r.nextID
	c.CreatedAt = time.Now().UTC()
	c.UpdatedAt = c.CreatedAt
	r.courses[c.ID] = &c
	r.nextID++
	return &c
}

func (r *fakeCourseRepo) Create(ctx context.Context, course *models.Course) (int64, error) {
	stored := r.add(course)
	*course = *stored
	return stored.ID, nil
}

func (r *fakeCourseRepo) GetByID(ctx context.Context, id int64) (*models.Course, error) {
	if c, ok := r.courses[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, apperrors.ErrCourseNotFound
}

func (r *fakeCourseRepo) FindByTitleInsensitive(ctx context.Context, title string) (*models.Course, error) {
	for _, c := range r.courses {
		if strings.EqualFold(c.Title, title) {
			copied := *c
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeCourseRepo) TitleExists(ctx context.Context, title string, excludeID int64) (bool, error) {
	for _, c := range r.courses {
		if c.ID != excludeID && strings.EqualFold(c.Title, title) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeCourseRepo) List(ctx context.Context, skip, limit int) ([]*models.Course, error) {
	courses := []*models.Course{}
	for id := int64(1); id < r.nextID; id++ {
		if c, ok := r.courses[id]; ok {
			copied := *c
			courses = append(courses, &copied)
		}
	}
	if skip >= len(courses) {
		return []*models.Course{}, nil
	}
	courses = courses[skip:]
	if limit > 0 && limit < len(courses) {
		courses = courses[:limit]
	}
	return courses, nil
}

func (r *fakeCourseRepo) Update(ctx context.Context, course *models.Course) error {
	if _, ok := r.courses[course.ID]; !ok {
		return apperrors.ErrCourseNotFound
	}
	copied := *course
	copied.UpdatedAt = time.Now().UTC()
	r.courses[course.ID] = &copied
	return nil
}

func (r *fakeCourseRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.courses[id]; !ok {
		return apperrors.ErrCourseNotFound
	}
	delete(r.courses, id)
	return nil
}

func (r *fakeCourseRepo) Browse(ctx context.Context, q repositories.PageQuery) ([]*models.Course, int64, error) {
	courses, err := r.List(ctx, int(q.Offset), int(q.Limit))
	return courses, int64(len(r.courses)), err
}

// fakeEnrollmentRepo is an in-memory EnrollmentRepository for service tests.
type fakeEnrollmentRepo struct {
	enrollments map[int64]*models.Enrollment
	nextID      int64
}

func newFakeEnrollmentRepo() *fakeEnrollmentRepo {
	return &fakeEnrollmentRepo{enrollments: map[int64]*models.Enrollment{}, nextID: 1}
}

func (r *fakeEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) (int64, error) {
	e := *enrollment
	e.ID = r.nextID
	e.EnrolledAt = time.Now().UTC()
	r.enrollments[e.ID] = &e
	r.nextID++
	*enrollment = e
	return e.ID, nil
}

func (r *fakeEnrollmentRepo) GetByID(ctx context.Context, id int64) (*models.Enrollment, error) {
	if e, ok := r.enrollments[id]; ok {
		copied := *e
		return &copied, nil
	}
	return nil, apperrors.ErrEnrollmentNotFound
}

func (r *fakeEnrollmentRepo) ListByUserIDs(ctx context.Context, userIDs []int64) (map[int64][]models.Enrollment, error) {
	return r.group(userIDs, func(e *models.Enrollment) int64 { return e.UserID }), nil
}

func (r *fakeEnrollmentRepo) ListByCourseIDs(ctx context.Context, courseIDs []int64) (map[int64][]models.Enrollment, error) {
	return r.group(courseIDs, func(e *models.Enrollment) int64 { return e.CourseID }), nil
}

func (r *fakeEnrollmentRepo) group(ids []int64, key func(*models.Enrollment) int64) map[int64][]models.Enrollment {
	wanted := map[int64]bool{}
	for _, id := range ids {
		wanted[id] = true
	}
	grouped := map[int64][]models.Enrollment{}
	for id := int64(1); id < r.nextID; id++ {
		e, ok := r.enrollments[id]
		if !ok || !wanted[key(e)] {
			continue
		}
		grouped[key(e)] = append(grouped[key(e)], *e)
	}
	return grouped
}

func (r *fakeEnrollmentRepo) Update(ctx context.Context, enrollment *models.Enrollment) error {
	if _, ok := r.enrollments[enrollment.ID]; !ok {
		return apperrors.ErrEnrollmentNotFound
	}
	copied := *enrollment
	r.enrollments[enrollment.ID] = &copied
	return nil
}

func (r *fakeEnrollmentRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.enrollments[id]; !ok {
		return apperrors.ErrEnrollmentNotFound
	}
	delete(r.enrollments, id)
	return nil
}

func (r *fakeEnrollmentRepo) Browse(ctx context.Context, q repositories.PageQuery) ([]*models.Enrollment, int64, error) {
	enrollments := []*models.Enrollment{}
	for id := int64(1); id < r.nextID; id++ {
		if e, ok := r.enrollments[id]; ok {
			copied := *e
			enrollments = append(enrollments, &copied)
		}
	}
	return enrollments, int64(len(enrollments)), nil
}
