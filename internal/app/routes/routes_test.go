package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/codeatlas/codeatlas/internal/admin"
	"github.com/codeatlas/codeatlas/internal/app/controllers"
	"github.com/codeatlas/codeatlas/internal/app/models"
	"github.com/codeatlas/codeatlas/internal/app/repositories"
	"github.com/codeatlas/codeatlas/internal/app/services"
	"github.com/codeatlas/codeatlas/internal/middleware"
	"github.com/codeatlas/codeatlas/internal/pkg/apperrors"
	"github.com/codeatlas/codeatlas/internal/pkg/auth"
)

type routesUserRepo struct {
	repositories.UserRepository
	user *models.User
}

func (r *routesUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if r.user != nil && r.user.ID == id {
		u := *r.user
		return &u, nil
	}
	return nil, apperrors.ErrUserNotFound
}

func newTestRouter(userRepo repositories.UserRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	tokens := auth.NewTokenService(auth.TokenConfig{
		SecretKey:  "routes-test-secret",
		Algorithm:  "HS256",
		Expiration: time.Hour,
		Issuer:     "codeatlas-test",
	})
	repos := &repositories.Repositories{UserRepository: userRepo}

	SetupRouter(
		router,
		controllers.NewAuthController(services.NewAuthService(userRepo)),
		controllers.NewUserController(services.NewUserService(userRepo, nil)),
		controllers.NewCourseController(services.NewCourseService(nil, nil)),
		middleware.NewIdentityMiddleware(userRepo),
		admin.NewAuthBackend(userRepo, tokens),
		admin.NewPanel(repos),
	)
	return router
}

// Identity resolution is registered engine-wide, so a route outside the page
// group still sees the user from the cookie.
func TestIdentityResolvedOnAllRoutes(t *testing.T) {
	repo := &routesUserRepo{user: &models.User{ID: 7, Username: "nadia", Email: "nadia@example.com"}}
	router := newTestRouter(repo)

	router.GET("/identity-check", func(c *gin.Context) {
		if user := middleware.CurrentUser(c); user != nil {
			c.String(http.StatusOK, user.Username)
			return
		}
		c.String(http.StatusOK, "anonymous")
	})

	req := httptest.NewRequest("GET", "/identity-check", nil)
	req.AddCookie(&http.Cookie{Name: middleware.IdentityCookieName, Value: "7"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nadia", w.Body.String())

	req = httptest.NewRequest("GET", "/identity-check", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "anonymous", w.Body.String())
}
