package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codeatlas/codeatlas/internal/app/models"
	"github.com/codeatlas/codeatlas/internal/pkg/apperrors"
	"github.com/codeatlas/codeatlas/internal/pkg/logger"
)

const enrollmentColumns = "id, user_id, course_id, enrolled_at"

var enrollmentSortColumns = map[string]string{
	"id":          "id",
	"user_id":     "user_id",
	"course_id":   "course_id",
	"enrolled_at": "enrolled_at",
}

// PgEnrollmentRepository handles enrollment database operations
type PgEnrollmentRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewEnrollmentRepository creates a new enrollment repository backed by postgres
func NewEnrollmentRepository(db *pgxpool.Pool) *PgEnrollmentRepository {
	return &PgEnrollmentRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanEnrollment(row pgx.Row) (*models.Enrollment, error) {
	e := &models.Enrollment{}
	if err := row.Scan(&e.ID, &e.UserID, &e.CourseID, &e.EnrolledAt); err != nil {
		return nil, err
	}
	return e, nil
}

// Create inserts a new enrollment. Duplicate (user, course) pairs are allowed;
// the schema carries no uniqueness constraint on the pair.
func (r *PgEnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) (int64, error) {
	sql, args, err := r.sb.Insert("enrollments").
		Columns("user_id", "course_id").
		Values(enrollment.UserID, enrollment.CourseID).
		Suffix("RETURNING id, enrolled_at").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build create enrollment query: %w", err)
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&enrollment.ID, &enrollment.EnrolledAt)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing create enrollment query")
		return 0, fmt.Errorf("error creating enrollment: %w", err)
	}
	return enrollment.ID, nil
}

// GetByID retrieves an enrollment by primary key
func (r *PgEnrollmentRepository) GetByID(ctx context.Context, id int64) (*models.Enrollment, error) {
	sql, args, err := r.sb.Select(enrollmentColumns).
		From("enrollments").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get enrollment query: %w", err)
	}

	enrollment, err := scanEnrollment(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrEnrollmentNotFound
		}
		logger.Error().Err(err).Msg("Error scanning enrollment row")
		return nil, fmt.Errorf("error getting enrollment: %w", err)
	}
	return enrollment, nil
}

// ListByUserIDs eager-loads enrollments for a set of users, keyed by user id.
func (r *PgEnrollmentRepository) ListByUserIDs(ctx context.Context, userIDs []int64) (map[int64][]models.Enrollment, error) {
	return r.listGrouped(ctx, "user_id", userIDs, func(e *models.Enrollment) int64 { return e.UserID })
}

// ListByCourseIDs eager-loads enrollments for a set of courses, keyed by course id.
func (r *PgEnrollmentRepository) ListByCourseIDs(ctx context.Context, courseIDs []int64) (map[int64][]models.Enrollment, error) {
	return r.listGrouped(ctx, "course_id", courseIDs, func(e *models.Enrollment) int64 { return e.CourseID })
}

func (r *PgEnrollmentRepository) listGrouped(
	ctx context.Context,
	column string,
	ids []int64,
	keyOf func(*models.Enrollment) int64,
) (map[int64][]models.Enrollment, error) {
	grouped := make(map[int64][]models.Enrollment, len(ids))
	if len(ids) == 0 {
		return grouped, nil
	}

	sql, args, err := r.sb.Select(enrollmentColumns).
		From("enrollments").
		Where(squirrel.Eq{column: ids}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list enrollments query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list enrollments query")
		return nil, fmt.Errorf("error querying enrollments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		enrollment, err := scanEnrollment(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning enrollment row: %w", err)
		}
		key := keyOf(enrollment)
		grouped[key] = append(grouped[key], *enrollment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating enrollment rows: %w", err)
	}
	return grouped, nil
}

// Update repoints an enrollment at a different user/course pair.
func (r *PgEnrollmentRepository) Update(ctx context.Context, enrollment *models.Enrollment) error {
	sql, args, err := r.sb.Update("enrollments").
		SetMap(map[string]interface{}{
			"user_id":   enrollment.UserID,
			"course_id": enrollment.CourseID,
		}).
		Where(squirrel.Eq{"id": enrollment.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update enrollment query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("enrollmentID", enrollment.ID).Msg("Error executing update enrollment query")
		return fmt.Errorf("error updating enrollment: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrEnrollmentNotFound
	}
	return nil
}

// Delete removes an enrollment by id.
func (r *PgEnrollmentRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("enrollments").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete enrollment query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("enrollmentID", id).Msg("Error executing delete enrollment query")
		return fmt.Errorf("error deleting enrollment: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrEnrollmentNotFound
	}
	return nil
}

// Browse serves the admin record browser for enrollments.
func (r *PgEnrollmentRepository) Browse(ctx context.Context, q PageQuery) ([]*models.Enrollment, int64, error) {
	base := r.sb.Select(enrollmentColumns).From("enrollments")
	countQuery := r.sb.Select("COUNT(*)").From("enrollments")

	if q.Search != "" {
		// Enrollments carry no text columns; search matches the numeric id.
		pred := squirrel.Expr("CAST(id AS TEXT) LIKE ?", "%"+q.Search+"%")
		base = base.Where(pred)
		countQuery = countQuery.Where(pred)
	}

	sortCol, ok := enrollmentSortColumns[q.SortBy]
	if !ok {
		sortCol = "enrolled_at"
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
		return nil, 0, fmt.Errorf("failed to build count enrollments query: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		logger.Error().Err(err).Msg("Error counting enrollments")
		return nil, 0, fmt.Errorf("error counting enrollments: %w", err)
	}

	sql, args, err := base.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build browse enrollments query: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing browse enrollments query")
		return nil, 0, fmt.Errorf("error browsing enrollments: %w", err)
	}
	defer rows.Close()

	enrollments := []*models.Enrollment{}
	for rows.Next() {
		enrollment, err := scanEnrollment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning enrollment row: %w", err)
		}
		enrollments = append(enrollments, enrollment)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating enrollment rows: %w", err)
	}
	return enrollments, total, nil
}
