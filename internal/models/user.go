package models

import "time"

// UserRole represents the available roles for zone routing.
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleFaculty UserRole = "faculty"
	RoleStudent UserRole = "student"
)

// Valid reports whether the role is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleFaculty, RoleStudent:
		return true
	default:
		return false
	}
}

// User represents a profile row stored in the users table.
type User struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	FullName  string    `db:"full_name" json:"full_name"`
	Role      UserRole  `db:"role" json:"role"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	AvatarURL *string   `db:"avatar_url" json:"avatar_url,omitempty"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// UserSummary is the user projection embedded in joined listings.
type UserSummary struct {
	ID        string  `db:"id" json:"id"`
	Email     string  `db:"email" json:"email"`
	FullName  string  `db:"full_name" json:"full_name"`
	Phone     *string `db:"phone" json:"phone,omitempty"`
	AvatarURL *string `db:"avatar_url" json:"avatar_url,omitempty"`
	IsActive  bool    `db:"is_active" json:"is_active"`
}

// Caller is the authenticated identity attached to a request by the access gate.
type Caller struct {
	ID    string   `json:"id"`
	Email string   `json:"email"`
	Role  UserRole `json:"role"`
}
