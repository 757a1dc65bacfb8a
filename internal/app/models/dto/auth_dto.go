package dto

// SignupForm represents the public signup form submission
type SignupForm struct {
	Username  string `form:"username" binding:"required,min=3,max=100"`
	Email     string `form:"email" binding:"required,email,max=100"`
	Password  string `form:"password" binding:"required,min=8"`
	FirstName string `form:"first_name"`
	LastName  string `form:"last_name"`
}

// LoginForm represents the public login form submission
type LoginForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

// IdentityResponse is the minimal identity returned after signup/login
type IdentityResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}
