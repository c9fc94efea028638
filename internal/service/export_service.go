package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/osms-api/internal/models"
	appErrors "github.com/noah-isme/osms-api/pkg/errors"
	"github.com/noah-isme/osms-api/pkg/export"
)

type rosterSource interface {
	ListAll(ctx context.Context, department, status string) ([]models.StudentDetail, error)
}

var studentExportHeaders = []string{
	"Enrollment Number", "Full Name", "Email", "Department", "Year", "Semester", "Section", "Status", "Admission Date",
}

// ExportFile is a rendered report ready to stream to the caller.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders report datasets into downloadable documents.
type ExportService struct {
	students rosterSource
	logger   *zap.Logger
	now      func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(students rosterSource, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{students: students, logger: logger, now: time.Now}
}

// StudentRoster renders the student roster as csv, pdf or xlsx, optionally narrowed
// by department and status.
func (s *ExportService) StudentRoster(ctx context.Context, format, department, status string) (*ExportFile, error) {
	exporter, ok := export.ForFormat(strings.ToLower(format))
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	students, err := s.students.ListAll(ctx, department, status)
	if err != nil {
		return nil, internalError(err, "failed to load students")
	}

	dataset := export.Dataset{
		Title:   "Student Roster",
		Headers: studentExportHeaders,
		Rows:    make([]map[string]string, 0, len(students)),
	}
	if department != "" {
		dataset.Title += " - " + department
	}
	for _, st := range students {
		section := ""
		if st.Section != nil {
			section = *st.Section
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Enrollment Number": st.EnrollmentNumber,
			"Full Name":         st.User.FullName,
			"Email":             st.User.Email,
			"Department":        st.Department,
			"Year":              strconv.Itoa(st.Year),
			"Semester":          strconv.Itoa(st.Semester),
			"Section":           section,
			"Status":            string(st.Status),
			"Admission Date":    st.AdmissionDate.Format(dateLayout),
		})
	}

	body, err := exporter.Render(dataset)
	if err != nil {
		return nil, internalError(err, "failed to render export")
	}
	s.logger.Info("student roster exported", zap.String("format", exporter.Extension()), zap.Int("rows", len(dataset.Rows)))
	return &ExportFile{
		Filename:    fmt.Sprintf("students-%s.%s", s.now().UTC().Format("20060102"), exporter.Extension()),
		ContentType: exporter.ContentType(),
		Body:        body,
	}, nil
}
