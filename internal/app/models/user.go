package models

import (
	"time"
)

// User defines the user model based on the 'users' table
type User struct {
	ID             int64        `json:"id" db:"id"`
	Username       string       `json:"username" db:"username"`
	Email          string       `json:"email" db:"email"` // always stored lower-cased
	HashedPassword string       `json:"-" db:"hashed_password"`
	FirstName      *string      `json:"first_name,omitempty" db:"first_name"`
	LastName       *string      `json:"last_name,omitempty" db:"last_name"`
	CreatedAt      time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at" db:"updated_at"`
	Enrollments    []Enrollment `json:"enrollments,omitempty"` // relation, populated on demand
}
