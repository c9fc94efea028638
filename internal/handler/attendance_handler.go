package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/osms-api/internal/models"
	"github.com/noah-isme/osms-api/internal/service"
	"github.com/noah-isme/osms-api/pkg/response"
)

type attendanceBook interface {
	Mark(ctx context.Context, actorID, facultyID string, req service.MarkAttendanceRequest) (int, error)
	ListForCourse(ctx context.Context, facultyID string, req service.AttendanceListRequest) ([]models.Attendance, error)
	SummaryForStudent(ctx context.Context, studentID string) (*models.AttendanceReport, error)
}

// AttendanceHandler exposes attendance marking and summaries.
type AttendanceHandler struct {
	attendance attendanceBook
	faculty    facultyProfiles
	students   studentProfiles
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(attendance attendanceBook, faculty facultyProfiles, students studentProfiles) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance, faculty: faculty, students: students}
}

// Mark godoc
// @Summary Mark attendance for a course session
// @Description Upserts one mark per student for the date
// @Tags Faculty
// @Accept json
// @Produce json
// @Param payload body service.MarkAttendanceRequest true "Attendance sheet"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /faculty/attendance [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	var req service.MarkAttendanceRequest
	if !bindJSON(c, &req) {
		return
	}
	faculty, ok := currentFaculty(c, h.faculty)
	if !ok {
		return
	}
	count, err := h.attendance.Mark(c.Request.Context(), faculty.UserID, faculty.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"success": true, "marked": count}, nil)
}

// FacultyList godoc
// @Summary Attendance sheet of one of the caller's courses
// @Tags Faculty
// @Produce json
// @Param id path string true "Course ID"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /faculty/courses/{id}/attendance [get]
func (h *AttendanceHandler) FacultyList(c *gin.Context) {
	faculty, ok := currentFaculty(c, h.faculty)
	if !ok {
		return
	}
	h.list(c, faculty.ID)
}

// AdminList godoc
// @Summary Attendance sheet of any course
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /admin/courses/{id}/attendance [get]
func (h *AttendanceHandler) AdminList(c *gin.Context) {
	h.list(c, "")
}

func (h *AttendanceHandler) list(c *gin.Context, facultyID string) {
	req := service.AttendanceListRequest{CourseID: c.Param("id"), From: c.Query("from"), To: c.Query("to")}
	records, err := h.attendance.ListForCourse(c.Request.Context(), facultyID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// Summary godoc
// @Summary Signed in student's attendance per course
// @Tags Student
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/attendance [get]
func (h *AttendanceHandler) Summary(c *gin.Context) {
	student, ok := currentStudent(c, h.students)
	if !ok {
		return
	}
	report, err := h.attendance.SummaryForStudent(c.Request.Context(), student.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}
