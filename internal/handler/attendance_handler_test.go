package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/osms-api/internal/middleware"
	"github.com/noah-isme/osms-api/internal/models"
	"github.com/noah-isme/osms-api/internal/service"
	appErrors "github.com/noah-isme/osms-api/pkg/errors"
)

type fakeAttendanceBook struct {
	markedBy   string
	markedFor  string
	listedFor  string
	listedReq  service.AttendanceListRequest
	summaryFor string
}

func (f *fakeAttendanceBook) Mark(_ context.Context, actorID, facultyID string, req service.MarkAttendanceRequest) (int, error) {
	f.markedBy, f.markedFor = actorID, facultyID
	return len(req.Records), nil
}

func (f *fakeAttendanceBook) ListForCourse(_ context.Context, facultyID string, req service.AttendanceListRequest) ([]models.Attendance, error) {
	f.listedFor, f.listedReq = facultyID, req
	if facultyID == "fac-other" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "course is not assigned to you")
	}
	return []models.Attendance{}, nil
}

func (f *fakeAttendanceBook) SummaryForStudent(_ context.Context, studentID string) (*models.AttendanceReport, error) {
	f.summaryFor = studentID
	return &models.AttendanceReport{}, nil
}

type fakeFacultyProfiles struct {
	byUser map[string]*models.FacultyDetail
}

func (f fakeFacultyProfiles) GetByUser(_ context.Context, userID string) (*models.FacultyDetail, error) {
	if detail, ok := f.byUser[userID]; ok {
		return detail, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "faculty profile not found")
}

type fakeStudentProfiles struct {
	byUser map[string]*models.StudentProfile
}

func (f fakeStudentProfiles) GetByUser(_ context.Context, userID string) (*models.StudentProfile, error) {
	if profile, ok := f.byUser[userID]; ok {
		return profile, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
}

func newAttendanceRouter(book attendanceBook, caller *models.Caller) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if caller != nil {
			c.Set(middleware.ContextCallerKey, caller)
		}
		c.Next()
	})

	faculty := fakeFacultyProfiles{byUser: map[string]*models.FacultyDetail{
		"user-grace": {Faculty: models.Faculty{ID: "fac-1", UserID: "user-grace"}},
		"user-alan":  {Faculty: models.Faculty{ID: "fac-other", UserID: "user-alan"}},
	}}
	profile := &models.StudentProfile{}
	profile.ID = "stu-1"
	students := fakeStudentProfiles{byUser: map[string]*models.StudentProfile{"user-ada": profile}}

	h := NewAttendanceHandler(book, faculty, students)
	r.POST("/faculty/attendance", h.Mark)
	r.GET("/faculty/courses/:id/attendance", h.FacultyList)
	r.GET("/admin/courses/:id/attendance", h.AdminList)
	r.GET("/student/attendance", h.Summary)
	return r
}

func TestAttendanceHandlerMark(t *testing.T) {
	book := &fakeAttendanceBook{}
	r := newAttendanceRouter(book, &models.Caller{ID: "user-grace", Role: models.RoleFaculty})

	body := `{"course_id":"course-1","date":"2026-03-02","records":[{"student_id":"stu-1","status":"present"},{"student_id":"stu-2","status":"absent"}]}`
	req := httptest.NewRequest(http.MethodPost, "/faculty/attendance", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-grace", book.markedBy)
	assert.Equal(t, "fac-1", book.markedFor)
	assert.Contains(t, rec.Body.String(), `"marked":2`)
}

func TestAttendanceHandlerMarkRejectsMalformedJSON(t *testing.T) {
	r := newAttendanceRouter(&fakeAttendanceBook{}, &models.Caller{ID: "user-grace", Role: models.RoleFaculty})

	req := httptest.NewRequest(http.MethodPost, "/faculty/attendance", strings.NewReader(`{"course_id":`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAttendanceHandlerListScopes(t *testing.T) {
	book := &fakeAttendanceBook{}

	rec := httptest.NewRecorder()
	newAttendanceRouter(book, &models.Caller{ID: "admin-1", Role: models.RoleAdmin}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/courses/course-1/attendance?from=2026-03-01", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, book.listedFor)
	assert.Equal(t, "course-1", book.listedReq.CourseID)
	assert.Equal(t, "2026-03-01", book.listedReq.From)

	rec = httptest.NewRecorder()
	newAttendanceRouter(book, &models.Caller{ID: "user-alan", Role: models.RoleFaculty}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/faculty/courses/course-1/attendance", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "fac-other", book.listedFor)
}

func TestAttendanceHandlerSummary(t *testing.T) {
	book := &fakeAttendanceBook{}

	rec := httptest.NewRecorder()
	newAttendanceRouter(book, &models.Caller{ID: "user-ada", Role: models.RoleStudent}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/student/attendance", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "stu-1", book.summaryFor)

	rec = httptest.NewRecorder()
	newAttendanceRouter(book, &models.Caller{ID: "user-unknown", Role: models.RoleStudent}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/student/attendance", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
