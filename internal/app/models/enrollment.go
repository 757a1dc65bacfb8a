package models

import (
	"time"
)

// Enrollment joins a user to a course. The schema deliberately carries no
// unique constraint on (user_id, course_id), so duplicate enrollments are
// representable.
type Enrollment struct {
	ID         int64     `json:"id" db:"id"`
	UserID     int64     `json:"user_id" db:"user_id"`
	CourseID   int64     `json:"course_id" db:"course_id"`
	EnrolledAt time.Time `json:"enrolled_at" db:"enrolled_at"`
}
