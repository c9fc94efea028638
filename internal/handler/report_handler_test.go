package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/osms-api/internal/service"
	appErrors "github.com/noah-isme/osms-api/pkg/errors"
)

type fakeExporter struct {
	format     string
	department string
	status     string
}

func (f *fakeExporter) StudentRoster(_ context.Context, format, department, status string) (*service.ExportFile, error) {
	f.format, f.department, f.status = format, department, status
	if format != "csv" && format != "pdf" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
	return &service.ExportFile{
		Filename:    "students." + format,
		ContentType: "text/csv",
		Body:        []byte("enrollment_number,name\nCS2026001,Ada Lovelace\n"),
	}, nil
}

func newReportRouter(exports rosterExporter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin/reports/:report", NewReportHandler(exports).Students)
	return r
}

func TestReportHandlerStudentsCSV(t *testing.T) {
	exports := &fakeExporter{}
	r := newReportRouter(exports)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/reports/students.csv?department=CS&status=active", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "csv", exports.format)
	assert.Equal(t, "CS", exports.department)
	assert.Equal(t, "active", exports.status)
	assert.Equal(t, `attachment; filename="students.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "CS2026001,Ada Lovelace")
}

func TestReportHandlerRejectsUnknownReports(t *testing.T) {
	r := newReportRouter(&fakeExporter{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/reports/grades.csv", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/reports/students.docx", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
