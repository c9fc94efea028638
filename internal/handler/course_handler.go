package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/osms-api/internal/service"
	"github.com/noah-isme/osms-api/pkg/response"
)

// CourseHandler exposes the course catalogue and per-role course lists.
type CourseHandler struct {
	courses     *service.CourseService
	enrollments *service.EnrollmentService
	faculty     facultyProfiles
	students    studentProfiles
}

// NewCourseHandler constructs CourseHandler.
func NewCourseHandler(courses *service.CourseService, enrollments *service.EnrollmentService, faculty facultyProfiles, students studentProfiles) *CourseHandler {
	return &CourseHandler{courses: courses, enrollments: enrollments, faculty: faculty, students: students}
}

// List godoc
// @Summary List courses
// @Tags Courses
// @Produce json
// @Param search query string false "Matches code or name"
// @Param department query string false "Filter by department"
// @Param status query string false "Filter by status"
// @Param semester query int false "Filter by semester"
// @Param page query int false "Page"
// @Param per_page query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /admin/courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	params, ok := bindListParams(c)
	if !ok {
		return
	}
	page, err := h.courses.List(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Page(c, page)
}

// Get godoc
// @Summary Get course
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /admin/courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.courses.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Create godoc
// @Summary Create course
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body service.CreateCourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Router /admin/courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	var req service.CreateCourseRequest
	if !bindJSON(c, &req) {
		return
	}
	course, err := h.courses.Create(c.Request.Context(), callerID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// Enroll godoc
// @Summary Enroll a student in a course
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body service.EnrollStudentRequest true "Enrollment"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/enrollments [post]
func (h *CourseHandler) Enroll(c *gin.Context) {
	var req service.EnrollStudentRequest
	if !bindJSON(c, &req) {
		return
	}
	enrollment, err := h.enrollments.Enroll(c.Request.Context(), callerID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// Drop godoc
// @Summary Drop a student from a course
// @Tags Courses
// @Produce json
// @Param studentId path string true "Student ID"
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /admin/enrollments/{studentId}/{courseId} [delete]
func (h *CourseHandler) Drop(c *gin.Context) {
	if err := h.enrollments.Drop(c.Request.Context(), callerID(c), c.Param("studentId"), c.Param("courseId")); err != nil {
		response.Error(c, err)
		return
	}
	response.Action(c, http.StatusOK, response.ActionResult{Message: "Enrollment dropped"})
}

// FacultyCourses godoc
// @Summary Courses taught by the signed in faculty member
// @Tags Faculty
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /faculty/courses [get]
func (h *CourseHandler) FacultyCourses(c *gin.Context) {
	faculty, ok := currentFaculty(c, h.faculty)
	if !ok {
		return
	}
	courses, err := h.courses.ListForFaculty(c.Request.Context(), faculty.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// Roster godoc
// @Summary Students enrolled in one of the caller's courses
// @Tags Faculty
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /faculty/courses/{id}/students [get]
func (h *CourseHandler) Roster(c *gin.Context) {
	faculty, ok := currentFaculty(c, h.faculty)
	if !ok {
		return
	}
	roster, err := h.courses.Roster(c.Request.Context(), faculty.ID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roster, nil)
}

// StudentCourses godoc
// @Summary Courses the signed in student is enrolled in
// @Tags Student
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/courses [get]
func (h *CourseHandler) StudentCourses(c *gin.Context) {
	student, ok := currentStudent(c, h.students)
	if !ok {
		return
	}
	courses, err := h.courses.ListForStudent(c.Request.Context(), student.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}
