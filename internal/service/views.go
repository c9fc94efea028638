package service

import (
	"context"
	"database/sql"
	"errors"
	"math"

	"github.com/noah-isme/osms-api/internal/models"
	appErrors "github.com/noah-isme/osms-api/pkg/errors"
)

// View paths whose cached payloads go stale after mutations.
const (
	viewAdminDashboard       = "/admin/dashboard"
	viewAdminStudents        = "/admin/students"
	viewAdminFaculty         = "/admin/faculty"
	viewAdminCourses         = "/admin/courses"
	viewAdminAnnouncements   = "/admin/announcements"
	viewFacultyDashboard     = "/faculty/dashboard"
	viewFacultyCourses       = "/faculty/courses"
	viewFacultyAnnouncements = "/faculty/announcements"
	viewStudentDashboard     = "/student/dashboard"
	viewStudentCourses       = "/student/courses"
	viewStudentAttendance    = "/student/attendance"
	viewStudentGrades        = "/student/grades"
	viewStudentProfile       = "/student/profile"
	viewStudentAnnouncements = "/student/announcements"
	// every student zone view, for changes that touch all of them
	viewStudentViews = "/student/"
)

// lookupError maps a repository read failure to an API error.
func lookupError(err error, notFound, failed string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, failed)
}

func internalError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func validationError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

// ownedCourse loads a course and checks it is taught by facultyID. An empty
// facultyID skips the check.
func ownedCourse(ctx context.Context, courses courseReader, facultyID, courseID string) (*models.CourseDetail, error) {
	course, err := courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, lookupError(err, "Course not found", "failed to load course")
	}
	if facultyID != "" && (course.FacultyID == nil || *course.FacultyID != facultyID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "You are not assigned to this course")
	}
	return course, nil
}

func percentOf(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return round2(part / whole * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
