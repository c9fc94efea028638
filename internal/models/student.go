package models

import "time"

// StudentStatus is the lifecycle state of a student record.
type StudentStatus string

const (
	StudentStatusActive    StudentStatus = "active"
	StudentStatusInactive  StudentStatus = "inactive"
	StudentStatusGraduated StudentStatus = "graduated"
	StudentStatusSuspended StudentStatus = "suspended"
)

// Student represents a learner registered in the institution.
type Student struct {
	ID               string        `db:"id" json:"id"`
	UserID           string        `db:"user_id" json:"user_id"`
	EnrollmentNumber string        `db:"enrollment_number" json:"enrollment_number"`
	Department       string        `db:"department" json:"department"`
	Year             int           `db:"year" json:"year"`
	Semester         int           `db:"semester" json:"semester"`
	Section          *string       `db:"section" json:"section,omitempty"`
	DateOfBirth      *time.Time    `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Address          *string       `db:"address" json:"address,omitempty"`
	GuardianName     *string       `db:"guardian_name" json:"guardian_name,omitempty"`
	GuardianPhone    *string       `db:"guardian_phone" json:"guardian_phone,omitempty"`
	BloodGroup       *string       `db:"blood_group" json:"blood_group,omitempty"`
	AdmissionDate    time.Time     `db:"admission_date" json:"admission_date"`
	Status           StudentStatus `db:"status" json:"status"`
	CreatedAt        time.Time     `db:"created_at" json:"created_at"`
}

// StudentDetail is a student joined with its profile row.
type StudentDetail struct {
	Student
	User UserSummary `db:"user" json:"user"`
}

// StudentProfile is the full student view including enrolled courses.
type StudentProfile struct {
	StudentDetail
	Enrollments []EnrollmentDetail `json:"enrollments"`
}
