package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codeatlas/codeatlas/internal/app/models"
	"github.com/codeatlas/codeatlas/internal/pkg/apperrors"
	"github.com/codeatlas/codeatlas/internal/pkg/dberrors"
	"github.com/codeatlas/codeatlas/internal/pkg/logger"
)

const courseColumns = "id, title, description, created_at, updated_at"

var courseSortColumns = map[string]string{
	"id":         "id",
	"title":      "title",
	"created_at": "created_at",
}

// PgCourseRepository handles course database operations
type PgCourseRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewCourseRepository creates a new course repository backed by postgres
func NewCourseRepository(db *pgxpool.Pool) *PgCourseRepository {
	return &PgCourseRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanCourse(row pgx.Row) (*models.Course, error) {
	course := &models.Course{}
	err := row.Scan(&course.ID, &course.Title, &course.Description, &course.CreatedAt, &course.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return course, nil
}

// Create inserts a new course and returns the generated id.
func (r *PgCourseRepository) Create(ctx context.Context, course *models.Course) (int64, error) {
	sql, args, err := r.sb.Insert("courses").
		Columns("title", "description").
		Values(course.Title, course.Description).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build create course query: %w", err)
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&course.ID, &course.CreatedAt, &course.UpdatedAt)
	if err != nil {
		if dberrors.IsDuplicateKeyError(err) {
			return 0, apperrors.NewConflictError(
				fmt.Sprintf("Course with title '%s' already exists", course.Title)).WithField("title")
		}
		logger.Error().Err(err).Msg("Error executing create course query")
		return 0, fmt.Errorf("error creating course: %w", err)
	}

	return course.ID, nil
}

// GetByID retrieves a course by primary key
func (r *PgCourseRepository) GetByID(ctx context.Context, id int64) (*models.Course, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// FindByTitleInsensitive retrieves a course by case-insensitive title match,
// or nil when there is none.
func (r *PgCourseRepository) FindByTitleInsensitive(ctx context.Context, title string) (*models.Course, error) {
	course, err := r.getOne(ctx, squirrel.Expr("LOWER(title) = LOWER(?)", title))
	if err != nil {
		if errors.Is(err, apperrors.ErrCourseNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return course, nil
}

func (r *PgCourseRepository) getOne(ctx context.Context, pred interface{}) (*models.Course, error) {
	sql, args, err := r.sb.Select(courseColumns).
		From("courses").
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get course query: %w", err)
	}

	course, err := scanCourse(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCourseNotFound
		}
		logger.Error().Err(err).Msg("Error scanning course row")
		return nil, fmt.Errorf("error getting course: %w", err)
	}
	return course, nil
}

// TitleExists checks case-insensitively whether another row holds the title.
// excludeID skips the row being updated; pass 0 on create.
func (r *PgCourseRepository) TitleExists(ctx context.Context, title string, excludeID int64) (bool, error) {
	sql, args, err := r.sb.Select("1").
		From("courses").
		Where(squirrel.And{
			squirrel.Expr("LOWER(title) = LOWER(?)", title),
			squirrel.NotEq{"id": excludeID},
		}).
		Prefix("SELECT EXISTS (").Suffix(")").
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build course existence query: %w", err)
	}

	var exists bool
	err = r.db.QueryRow(ctx, sql, args...).Scan(&exists)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		logger.Error().Err(err).Msg("Error checking course existence")
		return false, fmt.Errorf("error checking course existence: %w", err)
	}
	return exists, nil
}

// List retrieves courses with offset/limit pagination, ordered by id.
func (r *PgCourseRepository) List(ctx context.Context, skip, limit int) ([]*models.Course, error) {
	sql, args, err := r.sb.Select(courseColumns).
		From("courses").
		OrderBy("id ASC").
		Offset(uint64(skip)).
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list courses query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list courses query")
		return nil, fmt.Errorf("error querying courses: %w", err)
	}
	defer rows.Close()

	courses := []*models.Course{}
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning course row: %w", err)
		}
		courses = append(courses, course)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating course rows: %w", err)
	}
	return courses, nil
}

// Update persists the full course row.
func (r *PgCourseRepository) Update(ctx context.Context, course *models.Course) error {
	sql, args, err := r.sb.Update("courses").
		SetMap(map[string]interface{}{
			"title":       course.Title,
			"description": course.Description,
			"updated_at":  squirrel.Expr("NOW()"),
		}).
		Where(squirrel.Eq{"id": course.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update course query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsDuplicateKeyError(err) {
			return apperrors.NewConflictError(
				fmt.Sprintf("Course with title '%s' already exists", course.Title)).WithField("title")
		}
		logger.Error().Err(err).Int64("courseID", course.ID).Msg("Error executing update course query")
		return fmt.Errorf("error updating course: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrCourseNotFound
	}
	return nil
}

// Delete removes a course by id; dependent enrollments cascade.
func (r *PgCourseRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("courses").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete course query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("courseID", id).Msg("Error executing delete course query")
		return fmt.Errorf("error deleting course: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrCourseNotFound
	}
	return nil
}

// Browse serves the admin record browser for courses.
func (r *PgCourseRepository) Browse(ctx context.Context, q PageQuery) ([]*models.Course, int64, error) {
	base := r.sb.Select(courseColumns).From("courses")
	countQuery := r.sb.Select("COUNT(*)").From("courses")

	if q.Search != "" {
		pattern := "%" + strings.ToLower(q.Search) + "%"
		pred := squirrel.Or{
			squirrel.Expr("LOWER(title) LIKE ?", pattern),
			squirrel.Expr("LOWER(COALESCE(description, '')) LIKE ?", pattern),
		}
		base = base.Where(pred)
		countQuery = countQuery.Where(pred)
	}

	sortCol, ok := courseSortColumns[q.SortBy]
	if !ok {
		sortCol = "created_at"
	}
	direction := "ASC"
	if q.SortDesc {
		direction = "DESC"
	}
	base = base.OrderBy(sortCol + " " + direction).Offset(q.Offset)
	if q.Limit > 0 {
		base = base.Limit(q.Limit)
	}

	countSQL, countArgs, err := countQuery.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count courses query: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		logger.Error().Err(err).Msg("Error counting courses")
		return nil, 0, fmt.Errorf("error counting courses: %w", err)
	}

	sql, args, err := base.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build browse courses query: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing browse courses query")
		return nil, 0, fmt.Errorf("error browsing courses: %w", err)
	}
	defer rows.Close()

	courses := []*models.Course{}
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning course row: %w", err)
		}
		courses = append(courses, course)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating course rows: %w", err)
	}
	return courses, total, nil
}
