package seed

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codeatlas/codeatlas/internal/app/models"
	"github.com/codeatlas/codeatlas/internal/app/repositories"
	"github.com/codeatlas/codeatlas/internal/config"
	"github.com/codeatlas/codeatlas/internal/pkg/apperrors"
	"github.com/codeatlas/codeatlas/internal/pkg/auth"
	"github.com/codeatlas/codeatlas/internal/pkg/logger"
)

// CreateDefaultAdmin ensures the configured admin account exists. Without a
// configured password no account is created; the panel would be unreachable
// otherwise, which is preferable to a known default credential.
func CreateDefaultAdmin(ctx context.Context, dbPool *pgxpool.Pool, cfg *config.Config) error {
	if cfg.Admin.Password == "" {
		logger.Warn().Msg("No admin password configured, skipping admin account seed")
		return nil
	}

	userRepo := repositories.NewUserRepository(dbPool)

	existing, err := userRepo.GetByUsernameInsensitive(ctx, cfg.Admin.Username)
	if err == nil && existing != nil {
		logger.Debug().Str("username", existing.Username).Msg("Admin account already present")
		return nil
	}
	if err != nil && !errors.Is(err, apperrors.ErrUserNotFound) {
		return err
	}

	hash, err := auth.HashPassword(cfg.Admin.Password)
	if err != nil {
		return err
	}

	admin := &models.User{
		Username:       cfg.Admin.Username,
		Email:          strings.ToLower(cfg.Admin.Email),
		HashedPassword: hash,
	}
	if _, err := userRepo.Create(ctx, admin); err != nil {
		logger.Error().Err(err).Msg("Error creating admin account")
		return err
	}

	logger.Info().Str("username", admin.Username).Msg("Admin account created")
	return nil
}
