package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codeatlas/codeatlas/internal/admin"
	appControllers "github.com/codeatlas/codeatlas/internal/app/controllers"
	appMigrations "github.com/codeatlas/codeatlas/internal/app/migrations"
	appRepos "github.com/codeatlas/codeatlas/internal/app/repositories"
	appRoutes "github.com/codeatlas/codeatlas/internal/app/routes"
	appServices "github.com/codeatlas/codeatlas/internal/app/services"
	"github.com/codeatlas/codeatlas/internal/config"
	"github.com/codeatlas/codeatlas/internal/db"
	appMiddleware "github.com/codeatlas/codeatlas/internal/middleware"
	pkgAuth "github.com/codeatlas/codeatlas/internal/pkg/auth"
	"github.com/codeatlas/codeatlas/internal/pkg/logger"
	"github.com/codeatlas/codeatlas/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	AuthService        appServices.AuthService
	UserService        appServices.UserService
	CourseService      appServices.CourseService
	AuthController     *appControllers.AuthController
	UserController     *appControllers.UserController
	CourseController   *appControllers.CourseController
	IdentityMiddleware *appMiddleware.IdentityMiddleware
	AdminAuth          *admin.AuthBackend
	AdminPanel         *admin.Panel
	Repos              *appRepos.Repositories
	TokenService       *pkgAuth.TokenService
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	logger.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, nil
}

// SetupDatabase establishes the database connection, runs migrations and
// seeds the admin account.
func SetupDatabase(cfg *config.Config) (*pgxpool.Pool, error) {
	logger.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	dbPool := database.Pool

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	migrationsDir := "migrations"
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		dbPool.Close()
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	migrator := appMigrations.NewMigrator(dbPool)
	if err := migrator.MigrateFromDirectory(ctx, migrationsDir); err != nil {
		logger.Error().Err(err).Msg("Database migration error")
		dbPool.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	logger.Info().Msg("Database migrations applied")

	if err := seed.CreateDefaultAdmin(ctx, dbPool, cfg); err != nil {
		// Seeding is best effort; the server still serves without an admin
		logger.Error().Err(err).Msg("Failed to seed admin account, proceeding anyway")
	}

	return dbPool, nil
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, dbPool *pgxpool.Pool) *Dependencies {
	deps := &Dependencies{}

	deps.Repos = appRepos.NewRepositories(dbPool)

	deps.TokenService = pkgAuth.NewTokenService(pkgAuth.TokenConfig{
		SecretKey:  cfg.Auth.Secret,
		Algorithm:  cfg.Auth.Algorithm,
		Expiration: cfg.SessionExpiration(),
		Issuer:     cfg.Auth.Issuer,
	})

	deps.AuthService = appServices.NewAuthService(deps.Repos.UserRepository)
	deps.UserService = appServices.NewUserService(deps.Repos.UserRepository, deps.Repos.EnrollmentRepository)
	deps.CourseService = appServices.NewCourseService(deps.Repos.CourseRepository, deps.Repos.EnrollmentRepository)

	deps.IdentityMiddleware = appMiddleware.NewIdentityMiddleware(deps.Repos.UserRepository)

	deps.AuthController = appControllers.NewAuthController(deps.AuthService)
	deps.UserController = appControllers.NewUserController(deps.UserService)
	deps.CourseController = appControllers.NewCourseController(deps.CourseService)

	deps.AdminAuth = admin.NewAuthBackend(deps.Repos.UserRepository, deps.TokenService)
	deps.AdminPanel = admin.NewPanel(deps.Repos)

	return deps
}

// SetupRouter configures the Gin engine with templates, middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.Default()
	router.LoadHTMLGlob(filepath.Join("web", "templates", "*.html"))

	appRoutes.SetupRouter(router,
		deps.AuthController,
		deps.UserController,
		deps.CourseController,
		deps.IdentityMiddleware,
		deps.AdminAuth,
		deps.AdminPanel,
	)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router
}
