package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codeatlas/codeatlas/internal/app/models"
)

// PageQuery describes an admin-panel record browse: free-text search over the
// entity's searchable columns, a whitelisted sort column, and offset/limit.
type PageQuery struct {
	Search   string
	SortBy   string
	SortDesc bool
	Offset   uint64
	Limit    uint64
}

// UserRepository is the persistence surface for users.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByUsernameInsensitive(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	FindConflict(ctx context.Context, username, email string) (*models.User, error)
	UsernameExists(ctx context.Context, username string, excludeID int64) (bool, error)
	EmailExists(ctx context.Context, email string, excludeID int64) (bool, error)
	List(ctx context.Context, skip, limit int) ([]*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id int64) error
	Browse(ctx context.Context, q PageQuery) ([]*models.User, int64, error)
}

// CourseRepository is the persistence surface for courses.
type CourseRepository interface {
	Create(ctx context.Context, course *models.Course) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Course, error)
	FindByTitleInsensitive(ctx context.Context, title string) (*models.Course, error)
	TitleExists(ctx context.Context, title string, excludeID int64) (bool, error)
	List(ctx context.Context, skip, limit int) ([]*models.Course, error)
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id int64) error
	Browse(ctx context.Context, q PageQuery) ([]*models.Course, int64, error)
}

// EnrollmentRepository is the persistence surface for enrollments. The public
// API never deletes enrollments; create/edit/delete exist for the admin panel.
type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *models.Enrollment) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Enrollment, error)
	ListByUserIDs(ctx context.Context, userIDs []int64) (map[int64][]models.Enrollment, error)
	ListByCourseIDs(ctx context.Context, courseIDs []int64) (map[int64][]models.Enrollment, error)
	Update(ctx context.Context, enrollment *models.Enrollment) error
	Delete(ctx context.Context, id int64) error
	Browse(ctx context.Context, q PageQuery) ([]*models.Enrollment, int64, error)
}

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository       UserRepository
	CourseRepository     CourseRepository
	EnrollmentRepository EnrollmentRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		UserRepository:       NewUserRepository(db),
		CourseRepository:     NewCourseRepository(db),
		EnrollmentRepository: NewEnrollmentRepository(db),
	}
}
