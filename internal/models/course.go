package models

import "time"

// CourseStatus is the catalogue state of a course.
type CourseStatus string

const (
	CourseStatusActive   CourseStatus = "active"
	CourseStatusInactive CourseStatus = "inactive"
	CourseStatusArchived CourseStatus = "archived"
)

// DefaultMaxStudents is applied when a course is created without a capacity.
const DefaultMaxStudents = 60

// Course represents a catalogue entry taught in a semester.
type Course struct {
	ID          string       `db:"id" json:"id"`
	Code        string       `db:"code" json:"code"`
	Name        string       `db:"name" json:"name"`
	Description *string      `db:"description" json:"description,omitempty"`
	Credits     int          `db:"credits" json:"credits"`
	Department  string       `db:"department" json:"department"`
	Semester    int          `db:"semester" json:"semester"`
	Year        int          `db:"year" json:"year"`
	FacultyID   *string      `db:"faculty_id" json:"faculty_id,omitempty"`
	MaxStudents int          `db:"max_students" json:"max_students"`
	Syllabus    *string      `db:"syllabus" json:"syllabus,omitempty"`
	Status      CourseStatus `db:"status" json:"status"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
}

// CourseDetail adds the assigned instructor, when any.
type CourseDetail struct {
	Course
	FacultyEmployeeID *string `db:"faculty_employee_id" json:"faculty_employee_id,omitempty"`
	FacultyName       *string `db:"faculty_name" json:"faculty_name,omitempty"`
	FacultyEmail      *string `db:"faculty_email" json:"faculty_email,omitempty"`
}
