package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/osms-api/internal/models"
	"github.com/noah-isme/osms-api/internal/service"
	"github.com/noah-isme/osms-api/pkg/response"
)

type gradeBook interface {
	Record(ctx context.Context, actorID, facultyID string, req service.RecordGradesRequest) (int, error)
	ListForCourse(ctx context.Context, facultyID, courseID string) ([]models.Grade, error)
	SummaryForStudent(ctx context.Context, studentID string) (*models.GradeReport, error)
}

// GradeHandler exposes assessment marks and grade reports.
type GradeHandler struct {
	grades   gradeBook
	faculty  facultyProfiles
	students studentProfiles
}

// NewGradeHandler constructs GradeHandler.
func NewGradeHandler(grades gradeBook, faculty facultyProfiles, students studentProfiles) *GradeHandler {
	return &GradeHandler{grades: grades, faculty: faculty, students: students}
}

// Record godoc
// @Summary Record marks for an assessment
// @Tags Faculty
// @Accept json
// @Produce json
// @Param payload body service.RecordGradesRequest true "Assessment marks"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /faculty/grades [post]
func (h *GradeHandler) Record(c *gin.Context) {
	var req service.RecordGradesRequest
	if !bindJSON(c, &req) {
		return
	}
	faculty, ok := currentFaculty(c, h.faculty)
	if !ok {
		return
	}
	count, err := h.grades.Record(c.Request.Context(), faculty.UserID, faculty.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, gin.H{"success": true, "recorded": count}, nil)
}

// FacultyList godoc
// @Summary Marks recorded for one of the caller's courses
// @Tags Faculty
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /faculty/courses/{id}/grades [get]
func (h *GradeHandler) FacultyList(c *gin.Context) {
	faculty, ok := currentFaculty(c, h.faculty)
	if !ok {
		return
	}
	h.list(c, faculty.ID)
}

// AdminList godoc
// @Summary Marks recorded for any course
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /admin/courses/{id}/grades [get]
func (h *GradeHandler) AdminList(c *gin.Context) {
	h.list(c, "")
}

func (h *GradeHandler) list(c *gin.Context, facultyID string) {
	grades, err := h.grades.ListForCourse(c.Request.Context(), facultyID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grades, nil)
}

// Summary godoc
// @Summary Signed in student's grades and CGPA
// @Tags Student
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/grades [get]
func (h *GradeHandler) Summary(c *gin.Context) {
	student, ok := currentStudent(c, h.students)
	if !ok {
		return
	}
	report, err := h.grades.SummaryForStudent(c.Request.Context(), student.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}
