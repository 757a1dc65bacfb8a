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

const userColumns = "id, username, email, hashed_password, first_name, last_name, created_at, updated_at"

// userSortColumns whitelists sortable columns for the admin record browser.
var userSortColumns = map[string]string{
	"id":         "id",
	"username":   "username",
	"email":      "email",
	"created_at": "created_at",
}

// PgUserRepository handles user database operations
type PgUserRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewUserRepository creates a new user repository backed by postgres
func NewUserRepository(db *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanUser(row pgx.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.HashedPassword,
		&user.FirstName, &user.LastName, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Create inserts a new user and returns the generated id. Email is expected
// to be lower-cased by the caller; the unique indexes are the backstop for the
// application-level pre-checks.
func (r *PgUserRepository) Create(ctx context.Context, user *models.User) (int64, error) {
	sql, args, err := r.sb.Insert("users").
		Columns("username", "email", "hashed_password", "first_name", "last_name").
		Values(user.Username, user.Email, user.HashedPassword, user.FirstName, user.LastName).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build create user query: %w", err)
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if dberrors.IsDuplicateKeyError(err) {
			return 0, duplicateUserError(err, user.Username, user.Email)
		}
		logger.Error().Err(err).Msg("Error executing create user query")
		return 0, fmt.Errorf("error creating user: %w", err)
	}

	return user.ID, nil
}

// duplicateUserError maps a unique violation to the offending field.
func duplicateUserError(err error, username, email string) error {
	if dberrors.IsDuplicateConstraintError(err, "users_email_lower_idx") {
		return apperrors.NewConflictError(fmt.Sprintf("Email '%s' already exists", email)).WithField("email")
	}
	return apperrors.NewConflictError(fmt.Sprintf("Username '%s' already exists", username)).WithField("username")
}

// GetByID retrieves a user by primary key
func (r *PgUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByUsername retrieves a user by exact username match
func (r *PgUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"username": username})
}

// GetByUsernameInsensitive retrieves a user by case-insensitive username match
func (r *PgUserRepository) GetByUsernameInsensitive(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, squirrel.Expr("LOWER(username) = LOWER(?)", username))
}

// GetByEmail retrieves a user by case-insensitive email match
func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, squirrel.Expr("LOWER(email) = LOWER(?)", email))
}

func (r *PgUserRepository) getOne(ctx context.Context, pred interface{}) (*models.User, error) {
	sql, args, err := r.sb.Select(userColumns).
		From("users").
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get user query: %w", err)
	}

	user, err := scanUser(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		logger.Error().Err(err).Msg("Error scanning user row")
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	return user, nil
}

// FindConflict returns a user whose username or email collides with the given
// values under case-insensitive comparison, or nil when there is none.
func (r *PgUserRepository) FindConflict(ctx context.Context, username, email string) (*models.User, error) {
	user, err := r.getOne(ctx, squirrel.Or{
		squirrel.Expr("LOWER(username) = LOWER(?)", username),
		squirrel.Expr("LOWER(email) = LOWER(?)", email),
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// UsernameExists checks case-insensitively whether another row holds the
// username. excludeID skips the row being updated; pass 0 on create.
func (r *PgUserRepository) UsernameExists(ctx context.Context, username string, excludeID int64) (bool, error) {
	return r.exists(ctx, squirrel.And{
		squirrel.Expr("LOWER(username) = LOWER(?)", username),
		squirrel.NotEq{"id": excludeID},
	})
}

// EmailExists checks case-insensitively whether another row holds the email.
func (r *PgUserRepository) EmailExists(ctx context.Context, email string, excludeID int64) (bool, error) {
	return r.exists(ctx, squirrel.And{
		squirrel.Expr("LOWER(email) = LOWER(?)", email),
		squirrel.NotEq{"id": excludeID},
	})
}

func (r *PgUserRepository) exists(ctx context.Context, pred interface{}) (bool, error) {
	sql, args, err := r.sb.Select("1").
		From("users").
		Where(pred).
		Prefix("SELECT EXISTS (").Suffix(")").
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build user existence query: %w", err)
	}

	var exists bool
	err = r.db.QueryRow(ctx, sql, args...).Scan(&exists)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		logger.Error().Err(err).Msg("Error checking user existence")
		return false, fmt.Errorf("error checking user existence: %w", err)
	}
	return exists, nil
}

// List retrieves users with offset/limit pagination, ordered by id.
func (r *PgUserRepository) List(ctx context.Context, skip, limit int) ([]*models.User, error) {
	sql, args, err := r.sb.Select(userColumns).
		From("users").
		OrderBy("id ASC").
		Offset(uint64(skip)).
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list users query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list users query")
		return nil, fmt.Errorf("error querying users: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning user row: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}

// Update persists the full user row. The service applies partial-update
// semantics before calling this.
func (r *PgUserRepository) Update(ctx context.Context, user *models.User) error {
	sql, args, err := r.sb.Update("users").
		SetMap(map[string]interface{}{
			"username":        user.Username,
			"email":           user.Email,
			"hashed_password": user.HashedPassword,
			"first_name":      user.FirstName,
			"last_name":       user.LastName,
			"updated_at":      squirrel.Expr("NOW()"),
		}).
		Where(squirrel.Eq{"id": user.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update user query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsDuplicateKeyError(err) {
			return duplicateUserError(err, user.Username, user.Email)
		}
		logger.Error().Err(err).Int64("userID", user.ID).Msg("Error executing update user query")
		return fmt.Errorf("error updating user: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// Delete removes a user by id. Enrollments referencing the user are removed
// by the ON DELETE CASCADE on the foreign key.
func (r *PgUserRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("users").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete user query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("userID", id).Msg("Error executing delete user query")
		return fmt.Errorf("error deleting user: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// Browse serves the admin record browser: free-text search across username,
// email and names, whitelisted sorting, and a total count for pagination.
func (r *PgUserRepository) Browse(ctx context.Context, q PageQuery) ([]*models.User, int64, error) {
	base := r.sb.Select(userColumns).From("users")
	countQuery := r.sb.Select("COUNT(*)").From("users")

	if q.Search != "" {
		pattern := "%" + strings.ToLower(q.Search) + "%"
		pred := squirrel.Or{
			squirrel.Expr("LOWER(username) LIKE ?", pattern),
			squirrel.Expr("LOWER(email) LIKE ?", pattern),
			squirrel.Expr("LOWER(COALESCE(first_name, '')) LIKE ?", pattern),
			squirrel.Expr("LOWER(COALESCE(last_name, '')) LIKE ?", pattern),
		}
		base = base.Where(pred)
		countQuery = countQuery.Where(pred)
	}

	sortCol, ok := userSortColumns[q.SortBy]
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
		return nil, 0, fmt.Errorf("failed to build count users query: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		logger.Error().Err(err).Msg("Error counting users")
		return nil, 0, fmt.Errorf("error counting users: %w", err)
	}

	sql, args, err := base.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build browse users query: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing browse users query")
		return nil, 0, fmt.Errorf("error browsing users: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning user row: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, total, nil
}
