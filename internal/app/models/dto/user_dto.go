package dto

// CreateUserRequest represents the admin API payload for creating a user.
// No password travels on this path; accounts created here get an unusable
// hash until a password is set through the admin panel.
type CreateUserRequest struct {
	Username  string  `json:"username" binding:"required,min=3,max=100"`
	Email     string  `json:"email" binding:"required,email,max=100"`
	FirstName *string `json:"first_name,omitempty" binding:"omitempty,max=70"`
	LastName  *string `json:"last_name,omitempty" binding:"omitempty,max=100"`
}

// UpdateUserRequest represents a partial user update. Nil fields were not
// supplied by the caller and are left untouched.
type UpdateUserRequest struct {
	Username  *string `json:"username,omitempty" binding:"omitempty,min=1,max=50"`
	Email     *string `json:"email,omitempty" binding:"omitempty,email,max=120"`
	FirstName *string `json:"first_name,omitempty" binding:"omitempty,max=120"`
	LastName  *string `json:"last_name,omitempty" binding:"omitempty,max=120"`
}

// IsEmpty reports whether the caller supplied no fields at all.
func (r *UpdateUserRequest) IsEmpty() bool {
	return r.Username == nil && r.Email == nil && r.FirstName == nil && r.LastName == nil
}
