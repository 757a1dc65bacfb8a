package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/codeatlas/codeatlas/internal/app/models/dto"
	"github.com/codeatlas/codeatlas/internal/app/repositories"
	"github.com/codeatlas/codeatlas/internal/pkg/auth"
	"github.com/codeatlas/codeatlas/internal/pkg/logger"
)

// SessionCookieName is the admin-panel session cookie. It is distinct from the
// public site's identity cookie.
const SessionCookieName = "admin_session"

// adminUserKey is the gin context key the authenticated admin id is stored under.
const adminUserKey = "adminUserID"

// AuthBackend implements session-based authentication for the admin panel.
// Credentials are validated against the users table; the session itself is a
// signed token held client-side in a cookie.
type AuthBackend struct {
	userRepo repositories.UserRepository
	tokens   *auth.TokenService
}

// NewAuthBackend creates a new AuthBackend
func NewAuthBackend(userRepo repositories.UserRepository, tokens *auth.TokenService) *AuthBackend {
	return &AuthBackend{
		userRepo: userRepo,
		tokens:   tokens,
	}
}

// Login looks up the user by exact username and verifies the password. On
// success it returns a session token; on any failure it returns false without
// revealing which check failed.
func (b *AuthBackend) Login(ctx context.Context, username, password string) (string, bool) {
	user, err := b.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return "", false
	}

	if !auth.CheckPassword(password, user.HashedPassword) {
		return "", false
	}

	token, err := b.tokens.Issue(user.ID, 0)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to issue admin session token")
		return "", false
	}
	return token, true
}

// Authenticate reports whether the session token holds a valid user id.
func (b *AuthBackend) Authenticate(token string) (int64, bool) {
	claims, err := b.tokens.Verify(token)
	if err != nil {
		return 0, false
	}
	return claims.UserID, true
}

// SessionRequired gates every admin-panel action behind the session check.
func (b *AuthBackend) SessionRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(SessionCookieName)
		if err != nil || cookie == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(
				dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Admin session required")))
			return
		}

		userID, ok := b.Authenticate(cookie)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(
				dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Admin session required")))
			return
		}

		c.Set(adminUserKey, userID)
		c.Next()
	}
}

// LoginHandler handles POST /admin/login form submissions.
func (b *AuthBackend) LoginHandler(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	token, ok := b.Login(c.Request.Context(), username, password)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeInvalidCredentials, "Invalid username or password")))
		return
	}

	c.SetCookie(SessionCookieName, token, int((8 * time.Hour).Seconds()), "/admin", "", false, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// LogoutHandler handles GET /admin/logout: clearing the session always succeeds.
func (b *AuthBackend) LogoutHandler(c *gin.Context) {
	c.SetCookie(SessionCookieName, "", -1, "/admin", "", false, true)
	c.Redirect(http.StatusFound, "/admin/login")
}

// LoginPageHandler renders the admin login form.
func (b *AuthBackend) LoginPageHandler(c *gin.Context) {
	c.HTML(http.StatusOK, "admin_login.html", gin.H{"title": "Admin Login"})
}
