package models

import "time"

// EnrollmentStatus describes a student's standing in a course.
type EnrollmentStatus string

const (
	EnrollmentStatusEnrolled  EnrollmentStatus = "enrolled"
	EnrollmentStatusDropped   EnrollmentStatus = "dropped"
	EnrollmentStatusCompleted EnrollmentStatus = "completed"
)

// Enrollment links a student to a course.
type Enrollment struct {
	ID             string           `db:"id" json:"id"`
	StudentID      string           `db:"student_id" json:"student_id"`
	CourseID       string           `db:"course_id" json:"course_id"`
	EnrollmentDate time.Time        `db:"enrollment_date" json:"enrollment_date"`
	Status         EnrollmentStatus `db:"status" json:"status"`
	FinalGrade     *string          `db:"final_grade" json:"final_grade,omitempty"`
}

// EnrollmentDetail carries the course the enrollment points at.
type EnrollmentDetail struct {
	Enrollment
	CourseCode    string `db:"course_code" json:"course_code"`
	CourseName    string `db:"course_name" json:"course_name"`
	CourseCredits int    `db:"course_credits" json:"course_credits"`
}

// CourseRosterEntry is a student enrolled in a course, as seen by faculty.
type CourseRosterEntry struct {
	StudentID        string           `db:"student_id" json:"student_id"`
	EnrollmentNumber string           `db:"enrollment_number" json:"enrollment_number"`
	FullName         string           `db:"full_name" json:"full_name"`
	Email            string           `db:"email" json:"email"`
	Status           EnrollmentStatus `db:"status" json:"status"`
}
