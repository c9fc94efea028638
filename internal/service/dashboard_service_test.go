package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/osms-api/internal/models"
	appErrors "github.com/noah-isme/osms-api/pkg/errors"
)

type fakeCounter struct {
	n     int
	calls int
	err   error
}

func (f *fakeCounter) Count(context.Context) (int, error) {
	f.calls++
	return f.n, f.err
}

func (f *fakeCounter) CountActive(context.Context) (int, error) {
	f.calls++
	return f.n, f.err
}

func (f *fakeCounter) CountStudentsForFaculty(context.Context, string) (int, error) {
	return f.n, f.err
}

type fakeLookups struct {
	student *models.StudentDetail
	faculty *models.FacultyDetail
}

func (f fakeLookups) studentByUser(_ context.Context, userID string) (*models.StudentDetail, error) {
	if f.student == nil || f.student.UserID != userID {
		return nil, sql.ErrNoRows
	}
	return f.student, nil
}

func (f fakeLookups) facultyByUser(_ context.Context, userID string) (*models.FacultyDetail, error) {
	if f.faculty == nil || f.faculty.UserID != userID {
		return nil, sql.ErrNoRows
	}
	return f.faculty, nil
}

type studentLookupFunc func(context.Context, string) (*models.StudentDetail, error)

func (fn studentLookupFunc) FindByUserID(ctx context.Context, id string) (*models.StudentDetail, error) {
	return fn(ctx, id)
}

type facultyLookupFunc func(context.Context, string) (*models.FacultyDetail, error)

func (fn facultyLookupFunc) FindByUserID(ctx context.Context, id string) (*models.FacultyDetail, error) {
	return fn(ctx, id)
}

type fakeCourseLists struct {
	faculty []models.CourseDetail
	student []models.CourseDetail
}

func (f fakeCourseLists) ListByFaculty(context.Context, string) ([]models.CourseDetail, error) {
	return f.faculty, nil
}

func (f fakeCourseLists) ListByStudent(context.Context, string) ([]models.CourseDetail, error) {
	return f.student, nil
}

type fakeFeeds struct {
	roles []models.UserRole
	depts []string
}

func (f *fakeFeeds) Recent(context.Context, int) ([]models.ActivityLog, error) {
	return []models.ActivityLog{{ID: "log-1", Action: models.ActivityStudentCreated}}, nil
}

func (f *fakeFeeds) ListForAudience(_ context.Context, role models.UserRole, department string, _ int) ([]models.Announcement, error) {
	f.roles = append(f.roles, role)
	f.depts = append(f.depts, department)
	return []models.Announcement{{ID: "ann-1"}}, nil
}

type fakeSummaries struct{}

func (fakeSummaries) attendance(context.Context, string) (*models.AttendanceReport, error) {
	return &models.AttendanceReport{Overall: 87.5}, nil
}

func (fakeSummaries) grades(context.Context, string) (*models.GradeReport, error) {
	return &models.GradeReport{CGPA: 8.25}, nil
}

type attendanceSummaryFunc func(context.Context, string) (*models.AttendanceReport, error)

func (fn attendanceSummaryFunc) SummaryForStudent(ctx context.Context, id string) (*models.AttendanceReport, error) {
	return fn(ctx, id)
}

type gradeSummaryFunc func(context.Context, string) (*models.GradeReport, error)

func (fn gradeSummaryFunc) SummaryForStudent(ctx context.Context, id string) (*models.GradeReport, error) {
	return fn(ctx, id)
}

type dashboardFixture struct {
	svc      *DashboardService
	students *fakeCounter
	feeds    *fakeFeeds
}

func newDashboardFixture(cache *CacheService) dashboardFixture {
	lookups := fakeLookups{
		student: &models.StudentDetail{
			Student: models.Student{ID: "s1", UserID: "u-s1", EnrollmentNumber: "UU202400042", Department: "Computer Science"},
			User:    models.UserSummary{FullName: "Asha Rao"},
		},
		faculty: &models.FacultyDetail{
			Faculty: models.Faculty{ID: "f1", UserID: "u-f1", Department: "Mathematics"},
			User:    models.UserSummary{FullName: "Dr. Iyer"},
		},
	}
	students := &fakeCounter{n: 120}
	feeds := &fakeFeeds{}
	summaries := fakeSummaries{}
	svc := NewDashboardService(DashboardServiceParams{
		Students:      students,
		Faculty:       &fakeCounter{n: 14},
		Courses:       &fakeCounter{n: 32},
		CourseLists:   fakeCourseLists{faculty: []models.CourseDetail{{Course: models.Course{ID: "c1"}}}, student: []models.CourseDetail{{Course: models.Course{Credits: 4}}, {Course: models.Course{Credits: 3}}}},
		StudentLookup: studentLookupFunc(lookups.studentByUser),
		FacultyLookup: facultyLookupFunc(lookups.facultyByUser),
		Roster:        &fakeCounter{n: 57},
		Activity:      feeds,
		Announcements: feeds,
		Attendance:    attendanceSummaryFunc(summaries.attendance),
		Grades:        gradeSummaryFunc(summaries.grades),
		Cache:         cache,
		Logger:        zap.NewNop(),
	})
	return dashboardFixture{svc: svc, students: students, feeds: feeds}
}

func TestDashboardServiceAdminUsesCache(t *testing.T) {
	cacheRepo := newFakeCacheRepo()
	fx := newDashboardFixture(NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true))

	first, hit, err := fx.svc.Admin(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 120, first.TotalStudents)
	assert.Equal(t, 14, first.TotalFaculty)
	assert.Equal(t, 32, first.ActiveCourses)
	assert.Zero(t, first.PendingApprovals)
	assert.Len(t, first.RecentActivity, 1)
	assert.Equal(t, []models.UserRole{models.RoleAdmin}, fx.feeds.roles)

	second, hit, err := fx.svc.Admin(context.Background())
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first.TotalStudents, second.TotalStudents)
	assert.Equal(t, 1, fx.students.calls)
	assert.Contains(t, cacheRepo.keys(), "osms:view:/admin/dashboard")
}

func TestDashboardServiceAdminCountFailure(t *testing.T) {
	fx := newDashboardFixture(nil)
	fx.students.err = errors.New("db down")

	_, _, err := fx.svc.Admin(context.Background())
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInternal.Code, appErr.Code)
}

func TestDashboardServiceFaculty(t *testing.T) {
	fx := newDashboardFixture(nil)

	dash, hit, err := fx.svc.Faculty(context.Background(), "u-f1")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "Dr. Iyer", dash.FullName)
	assert.Equal(t, 1, dash.CourseCount)
	assert.Equal(t, 57, dash.StudentCount)
	assert.Equal(t, []string{"Mathematics"}, fx.feeds.depts)

	_, _, err = fx.svc.Faculty(context.Background(), "u-unknown")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestDashboardServiceStudent(t *testing.T) {
	fx := newDashboardFixture(nil)

	dash, _, err := fx.svc.Student(context.Background(), "u-s1")
	require.NoError(t, err)
	assert.Equal(t, "UU202400042", dash.EnrollmentNumber)
	assert.Equal(t, 2, dash.EnrolledCourses)
	assert.Equal(t, 7, dash.TotalCredits)
	assert.Equal(t, 87.5, dash.AttendancePercentage)
	assert.Equal(t, 8.25, dash.CGPA)
	assert.Equal(t, []models.UserRole{models.RoleStudent}, fx.feeds.roles)
}
