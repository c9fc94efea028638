package models

import (
	"time"

	"github.com/lib/pq"
)

// FacultyStatus is the employment state of a faculty member.
type FacultyStatus string

const (
	FacultyStatusActive   FacultyStatus = "active"
	FacultyStatusInactive FacultyStatus = "inactive"
	FacultyStatusOnLeave  FacultyStatus = "on_leave"
)

// Faculty represents a teaching staff record.
type Faculty struct {
	ID              string         `db:"id" json:"id"`
	UserID          string         `db:"user_id" json:"user_id"`
	EmployeeID      string         `db:"employee_id" json:"employee_id"`
	Department      string         `db:"department" json:"department"`
	Designation     string         `db:"designation" json:"designation"`
	Qualification   pq.StringArray `db:"qualification" json:"qualification"`
	Specialization  *string        `db:"specialization" json:"specialization,omitempty"`
	ExperienceYears int            `db:"experience_years" json:"experience_years"`
	JoiningDate     time.Time      `db:"joining_date" json:"joining_date"`
	Status          FacultyStatus  `db:"status" json:"status"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
}

// FacultyDetail is a faculty member joined with its profile row.
type FacultyDetail struct {
	Faculty
	User UserSummary `db:"user" json:"user"`
}
