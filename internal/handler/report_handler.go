package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/osms-api/internal/service"
	appErrors "github.com/noah-isme/osms-api/pkg/errors"
	"github.com/noah-isme/osms-api/pkg/response"
)

type rosterExporter interface {
	StudentRoster(ctx context.Context, format, department, status string) (*service.ExportFile, error)
}

// ReportHandler streams downloadable reports.
type ReportHandler struct {
	exports rosterExporter
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(exports rosterExporter) *ReportHandler {
	return &ReportHandler{exports: exports}
}

// Students godoc
// @Summary Download the student roster
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param report path string true "students.csv, students.pdf or students.xlsx"
// @Param department query string false "Filter by department"
// @Param status query string false "Filter by status"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /admin/reports/{report} [get]
func (h *ReportHandler) Students(c *gin.Context) {
	name, format, _ := strings.Cut(c.Param("report"), ".")
	if name != "students" {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "report not found"))
		return
	}
	file, err := h.exports.StudentRoster(c.Request.Context(), format, c.Query("department"), c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Body)
}
