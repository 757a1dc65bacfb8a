package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/codeatlas/codeatlas/internal/app/models/dto"
	"github.com/codeatlas/codeatlas/internal/app/services"
	"github.com/codeatlas/codeatlas/internal/middleware"
)

// AuthController handles the public signup/login flow and the rendered pages
type AuthController struct {
	authService services.AuthService
}

// NewAuthController creates a new AuthController
func NewAuthController(authService services.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

// Home handles GET /
func (c *AuthController) Home(ctx *gin.Context) {
	ctx.HTML(http.StatusOK, "base.html", gin.H{
		"user": middleware.CurrentUser(ctx),
	})
}

// LoginPage handles GET /login
func (c *AuthController) LoginPage(ctx *gin.Context) {
	ctx.HTML(http.StatusOK, "login.html", gin.H{
		"title": "Login",
		"user":  middleware.CurrentUser(ctx),
	})
}

// SignupPage handles GET /signup
func (c *AuthController) SignupPage(ctx *gin.Context) {
	ctx.HTML(http.StatusOK, "signup.html", gin.H{
		"title": "Sign Up",
		"user":  middleware.CurrentUser(ctx),
	})
}

// Signup handles the POST /signup form submission. On success the identity
// cookie is set so the new user is immediately recognized.
func (c *AuthController) Signup(ctx *gin.Context) {
	var form dto.SignupForm
	if err := ctx.ShouldBind(&form); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid signup data").WithDetails(err.Error())))
		return
	}

	user, err := c.authService.Signup(ctx.Request.Context(), &form)
	if err != nil {
		middleware.HandleCreateAPIError(ctx, err)
		return
	}

	setIdentityCookie(ctx, user.ID)
	ctx.JSON(http.StatusCreated, dto.IdentityResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	})
}

// Login handles the POST /login form submission. Failure is a single 401
// shape regardless of whether the username or the password was wrong.
func (c *AuthController) Login(ctx *gin.Context) {
	var form dto.LoginForm
	if err := ctx.ShouldBind(&form); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid login data").WithDetails(err.Error())))
		return
	}

	user, err := c.authService.Login(ctx.Request.Context(), form.Username, form.Password)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	setIdentityCookie(ctx, user.ID)
	ctx.JSON(http.StatusOK, dto.IdentityResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	})
}

// Signout handles GET /signout: clears the identity cookie and redirects home.
func (c *AuthController) Signout(ctx *gin.Context) {
	ctx.SetCookie(middleware.IdentityCookieName, "", -1, "/", "", false, true)
	ctx.Redirect(http.StatusFound, "/")
}

// Account handles GET /account. Anonymous visitors are redirected home.
func (c *AuthController) Account(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	if user == nil {
		ctx.Redirect(http.StatusFound, "/")
		return
	}

	ctx.HTML(http.StatusOK, "account.html", gin.H{
		"title": "Account",
		"user":  user,
	})
}

func setIdentityCookie(ctx *gin.Context, userID int64) {
	ctx.SetCookie(middleware.IdentityCookieName, strconv.FormatInt(userID, 10), 0, "/", "", false, true)
}
