package models

// AdminDashboard aggregates institution wide counters.
type AdminDashboard struct {
	TotalStudents    int            `json:"total_students"`
	TotalFaculty     int            `json:"total_faculty"`
	ActiveCourses    int            `json:"active_courses"`
	PendingApprovals int            `json:"pending_approvals"`
	RecentActivity   []ActivityLog  `json:"recent_activity"`
	Announcements    []Announcement `json:"announcements"`
}

// FacultyDashboard summarises a faculty member's teaching load.
type FacultyDashboard struct {
	FullName      string         `json:"full_name"`
	CourseCount   int            `json:"course_count"`
	StudentCount  int            `json:"student_count"`
	Courses       []CourseDetail `json:"courses"`
	Announcements []Announcement `json:"announcements"`
}

// StudentDashboard summarises a student's standing.
type StudentDashboard struct {
	FullName             string         `json:"full_name"`
	EnrollmentNumber     string         `json:"enrollment_number"`
	EnrolledCourses      int            `json:"enrolled_courses"`
	TotalCredits         int            `json:"total_credits"`
	AttendancePercentage float64        `json:"attendance_percentage"`
	CGPA                 float64        `json:"cgpa"`
	Announcements        []Announcement `json:"announcements"`
}
