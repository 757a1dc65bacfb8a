package models

import (
	"time"
)

// Course represents a catalog record in the 'courses' table.
type Course struct {
	ID          int64        `json:"id" db:"id"`
	Title       string       `json:"title" db:"title"`
	Description *string      `json:"description,omitempty" db:"description"` // nullable
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`
	Enrollments []Enrollment `json:"enrollments,omitempty"` // relation, populated on demand
}
