package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/osms-api/internal/models"
	"github.com/noah-isme/osms-api/internal/service"
	"github.com/noah-isme/osms-api/pkg/response"
)

type announcementBoard interface {
	List(ctx context.Context, params models.AnnouncementListParams) (*models.Page[models.Announcement], error)
	ListForAudience(ctx context.Context, role models.UserRole, department string, limit int) ([]models.Announcement, error)
	Create(ctx context.Context, actorID string, req service.CreateAnnouncementRequest) (*models.Announcement, error)
}

type activityFeed interface {
	Recent(ctx context.Context, limit int) ([]models.ActivityLog, error)
}

// AnnouncementHandler exposes announcements and the activity log.
type AnnouncementHandler struct {
	announcements announcementBoard
	activity      activityFeed
	faculty       facultyProfiles
	students      studentProfiles
}

// NewAnnouncementHandler constructs AnnouncementHandler.
func NewAnnouncementHandler(announcements announcementBoard, activity activityFeed, faculty facultyProfiles, students studentProfiles) *AnnouncementHandler {
	return &AnnouncementHandler{announcements: announcements, activity: activity, faculty: faculty, students: students}
}

// List godoc
// @Summary List announcements, pinned first
// @Tags Announcements
// @Produce json
// @Param search query string false "Matches title or content"
// @Param audience query string false "Filter by audience"
// @Param priority query string false "Filter by priority"
// @Param page query int false "Page"
// @Param per_page query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /admin/announcements [get]
func (h *AnnouncementHandler) List(c *gin.Context) {
	var params models.AnnouncementListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		invalidPayload(c, err, "invalid query parameters")
		return
	}
	page, err := h.announcements.List(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Page(c, page)
}

// Create godoc
// @Summary Publish an announcement
// @Tags Announcements
// @Accept json
// @Produce json
// @Param payload body service.CreateAnnouncementRequest true "Announcement"
// @Success 201 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /admin/announcements [post]
func (h *AnnouncementHandler) Create(c *gin.Context) {
	var req service.CreateAnnouncementRequest
	if !bindJSON(c, &req) {
		return
	}
	announcement, err := h.announcements.Create(c.Request.Context(), callerID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, announcement)
}

// FacultyFeed godoc
// @Summary Announcements visible to the signed in faculty member
// @Tags Faculty
// @Produce json
// @Param limit query int false "Maximum entries"
// @Success 200 {object} response.Envelope
// @Router /faculty/announcements [get]
func (h *AnnouncementHandler) FacultyFeed(c *gin.Context) {
	faculty, ok := currentFaculty(c, h.faculty)
	if !ok {
		return
	}
	h.feed(c, models.RoleFaculty, faculty.Department)
}

// StudentFeed godoc
// @Summary Announcements visible to the signed in student
// @Tags Student
// @Produce json
// @Param limit query int false "Maximum entries"
// @Success 200 {object} response.Envelope
// @Router /student/announcements [get]
func (h *AnnouncementHandler) StudentFeed(c *gin.Context) {
	student, ok := currentStudent(c, h.students)
	if !ok {
		return
	}
	h.feed(c, models.RoleStudent, student.Department)
}

func (h *AnnouncementHandler) feed(c *gin.Context, role models.UserRole, department string) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	items, err := h.announcements.ListForAudience(c.Request.Context(), role, department, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Activity godoc
// @Summary Recent activity log
// @Tags Activity
// @Produce json
// @Param limit query int false "Maximum entries (default 10)"
// @Success 200 {object} response.Envelope
// @Router /admin/activity [get]
func (h *AnnouncementHandler) Activity(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	entries, err := h.activity.Recent(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}
