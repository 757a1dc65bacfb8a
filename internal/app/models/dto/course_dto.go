package dto

// CreateCourseRequest represents the admin API payload for creating a course.
type CreateCourseRequest struct {
	Title       string  `json:"title" binding:"required,min=1,max=300"`
	Description *string `json:"description,omitempty" binding:"omitempty,max=2000"`
}

// UpdateCourseRequest represents a partial course update. Nil fields were not
// supplied by the caller and are left untouched.
type UpdateCourseRequest struct {
	Title       *string `json:"title,omitempty" binding:"omitempty,min=1,max=300"`
	Description *string `json:"description,omitempty" binding:"omitempty,max=2000"`
}

// IsEmpty reports whether the caller supplied no fields at all.
func (r *UpdateCourseRequest) IsEmpty() bool {
	return r.Title == nil && r.Description == nil
}
