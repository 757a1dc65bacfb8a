package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/codeatlas/codeatlas/internal/app/models"
	"github.com/codeatlas/codeatlas/internal/app/repositories"
	"github.com/codeatlas/codeatlas/internal/pkg/logger"
)

// IdentityCookieName is the cookie the public site uses to re-identify the
// acting user between requests.
const IdentityCookieName = "user_id"

// currentUserKey is the gin context key the resolved user is stored under.
const currentUserKey = "currentUser"

// IdentityMiddleware resolves the acting user from the identity cookie
type IdentityMiddleware struct {
	userRepo repositories.UserRepository
}

// NewIdentityMiddleware creates a new IdentityMiddleware
func NewIdentityMiddleware(userRepo repositories.UserRepository) *IdentityMiddleware {
	return &IdentityMiddleware{userRepo: userRepo}
}

// Resolve reads the identity cookie on every request and attaches the matching
// user to the context. Every failure mode (missing cookie, non-integer value,
// no matching row, store error) leaves the request anonymous and lets it
// proceed.
func (m *IdentityMiddleware) Resolve() gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(IdentityCookieName)
		if err != nil || cookie == "" {
			c.Next()
			return
		}

		id, err := strconv.ParseInt(cookie, 10, 64)
		if err != nil {
			c.Next()
			return
		}

		user, err := m.userRepo.GetByID(c.Request.Context(), id)
		if err != nil {
			logger.Debug().Err(err).Int64("userID", id).Msg("Identity cookie did not resolve")
			c.Next()
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the user resolved by the identity middleware, or nil
// when the request is anonymous.
func CurrentUser(c *gin.Context) *models.User {
	value, exists := c.Get(currentUserKey)
	if !exists {
		return nil
	}
	user, ok := value.(*models.User)
	if !ok {
		return nil
	}
	return user
}
