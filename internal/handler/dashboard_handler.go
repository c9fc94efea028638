package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/osms-api/internal/middleware"
	"github.com/noah-isme/osms-api/internal/models"
	appErrors "github.com/noah-isme/osms-api/pkg/errors"
	"github.com/noah-isme/osms-api/pkg/response"
)

type dashboardService interface {
	Admin(ctx context.Context) (*models.AdminDashboard, bool, error)
	Faculty(ctx context.Context, userID string) (*models.FacultyDashboard, bool, error)
	Student(ctx context.Context, userID string) (*models.StudentDashboard, bool, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Admin godoc
// @Summary Admin dashboard summary
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/dashboard [get]
func (h *DashboardHandler) Admin(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	data, hit, err := h.service.Admin(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respond(c, data, hit)
}

// Faculty godoc
// @Summary Faculty dashboard summary
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /faculty/dashboard [get]
func (h *DashboardHandler) Faculty(c *gin.Context) {
	caller := requireCaller(c)
	if caller == nil {
		return
	}
	data, hit, err := h.service.Faculty(c.Request.Context(), caller.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respond(c, data, hit)
}

// Student godoc
// @Summary Student dashboard summary
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/dashboard [get]
func (h *DashboardHandler) Student(c *gin.Context) {
	caller := requireCaller(c)
	if caller == nil {
		return
	}
	data, hit, err := h.service.Student(c.Request.Context(), caller.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respond(c, data, hit)
}

func (h *DashboardHandler) respond(c *gin.Context, data interface{}, hit bool) {
	middleware.RecordViewCache(c, c.FullPath(), hit)
	response.JSON(c, http.StatusOK, data, nil, middleware.ResponseMeta(c))
}
