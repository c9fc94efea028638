package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/osms-api/internal/models"
	appErrors "github.com/noah-isme/osms-api/pkg/errors"
)

type rosterSourceStub struct {
	students   []models.StudentDetail
	department string
	status     string
	err        error
}

func (r *rosterSourceStub) ListAll(_ context.Context, department, status string) ([]models.StudentDetail, error) {
	r.department, r.status = department, status
	return r.students, r.err
}

func newExportServiceForTest() (*ExportService, *rosterSourceStub) {
	section := "A"
	stub := &rosterSourceStub{students: []models.StudentDetail{{
		Student: models.Student{
			EnrollmentNumber: "UU202400042",
			Department:       "Computer Science",
			Year:             2,
			Semester:         3,
			Section:          &section,
			Status:           models.StudentStatusActive,
			AdmissionDate:    time.Date(2023, 8, 1, 0, 0, 0, 0, time.UTC),
		},
		User: models.UserSummary{FullName: "Asha Rao", Email: "asha@example.edu"},
	}}}
	svc := NewExportService(stub, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2024, 9, 2, 10, 0, 0, 0, time.UTC) }
	return svc, stub
}

func TestExportServiceStudentRosterCSV(t *testing.T) {
	svc, stub := newExportServiceForTest()

	file, err := svc.StudentRoster(context.Background(), "CSV", "Computer Science", "active")
	require.NoError(t, err)
	assert.Equal(t, "students-20240902.csv", file.Filename)
	assert.Equal(t, "text/csv; charset=utf-8", file.ContentType)
	assert.Equal(t, "Computer Science", stub.department)
	assert.Equal(t, "active", stub.status)

	lines := strings.Split(strings.TrimSpace(string(file.Body)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Enrollment Number,Full Name,Email,Department,Year,Semester,Section,Status,Admission Date", lines[0])
	assert.Equal(t, "UU202400042,Asha Rao,asha@example.edu,Computer Science,2,3,A,active,2023-08-01", lines[1])
}

func TestExportServiceStudentRosterPDF(t *testing.T) {
	svc, _ := newExportServiceForTest()

	file, err := svc.StudentRoster(context.Background(), "pdf", "", "")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasPrefix(string(file.Body), "%PDF"))
}

func TestExportServiceStudentRosterErrors(t *testing.T) {
	svc, stub := newExportServiceForTest()

	_, err := svc.StudentRoster(context.Background(), "docx", "", "")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

	stub.err = errors.New("db down")
	_, err = svc.StudentRoster(context.Background(), "csv", "", "")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInternal.Code, appErr.Code)
}
