package models

import "time"

// AttendanceStatus is the mark recorded for a student on a class day.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
	AttendanceExcused AttendanceStatus = "excused"
)

// Valid reports whether the status is a known mark.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceExcused:
		return true
	}
	return false
}

// AttendanceStanding buckets a percentage for display.
type AttendanceStanding string

const (
	StandingGood     AttendanceStanding = "good"
	StandingWarning  AttendanceStanding = "warning"
	StandingCritical AttendanceStanding = "critical"
)

// StandingFor returns the bucket of an attendance percentage: 75 and above is
// good, 60 and above a warning.
func StandingFor(percentage float64) AttendanceStanding {
	switch {
	case percentage >= 75:
		return StandingGood
	case percentage >= 60:
		return StandingWarning
	default:
		return StandingCritical
	}
}

// Attendance is one attendance mark.
type Attendance struct {
	ID        string           `db:"id" json:"id"`
	StudentID string           `db:"student_id" json:"student_id"`
	CourseID  string           `db:"course_id" json:"course_id"`
	Date      time.Time        `db:"date" json:"date"`
	Status    AttendanceStatus `db:"status" json:"status"`
	Remarks   *string          `db:"remarks" json:"remarks,omitempty"`
	MarkedBy  string           `db:"marked_by" json:"marked_by"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}

// AttendanceFilter narrows attendance listings for a course.
type AttendanceFilter struct {
	CourseID string
	From     *time.Time
	To       *time.Time
}

// AttendanceCount is the per course tally of marks by status.
type AttendanceCount struct {
	CourseID   string `db:"course_id" json:"course_id"`
	CourseName string `db:"course_name" json:"course_name"`
	CourseCode string `db:"course_code" json:"course_code"`
	Total      int    `db:"total" json:"total_classes"`
	Present    int    `db:"present" json:"present"`
	Absent     int    `db:"absent" json:"absent"`
	Late       int    `db:"late" json:"late"`
	Excused    int    `db:"excused" json:"excused"`
}

// AttendanceSummary is an AttendanceCount with its attendance percentage.
type AttendanceSummary struct {
	AttendanceCount
	Percentage float64            `json:"percentage"`
	Standing   AttendanceStanding `json:"standing"`
}

// AttendanceReport is a student's attendance across enrolled courses.
type AttendanceReport struct {
	Courses      []AttendanceSummary `json:"courses"`
	TotalClasses int                 `json:"total_classes"`
	Present      int                 `json:"present"`
	Absent       int                 `json:"absent"`
	Late         int                 `json:"late"`
	Overall      float64             `json:"overall_percentage"`
}
