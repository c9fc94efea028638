package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/osms-api/internal/models"
	appErrors "github.com/noah-isme/osms-api/pkg/errors"
)

type attendanceStore interface {
	Upsert(ctx context.Context, records []models.Attendance) error
	ListByCourse(ctx context.Context, filter models.AttendanceFilter) ([]models.Attendance, error)
	CountsByStudent(ctx context.Context, studentID string) ([]models.AttendanceCount, error)
}

// AttendanceMark is one student's mark within a bulk request.
type AttendanceMark struct {
	StudentID string `json:"student_id" validate:"required"`
	Status    string `json:"status" validate:"required,attendance_status"`
	Remarks   string `json:"remarks"`
}

// MarkAttendanceRequest records a class day for a course.
type MarkAttendanceRequest struct {
	CourseID string           `json:"course_id" validate:"required"`
	Date     string           `json:"date" validate:"required,datetime=2006-01-02"`
	Records  []AttendanceMark `json:"records" validate:"required,min=1,dive"`
}

// AttendanceListRequest filters a course's attendance sheet.
type AttendanceListRequest struct {
	CourseID string `form:"course_id" validate:"required"`
	From     string `form:"from" validate:"omitempty,datetime=2006-01-02"`
	To       string `form:"to" validate:"omitempty,datetime=2006-01-02"`
}

// AttendanceService coordinates attendance workflows.
type AttendanceService struct {
	repo      attendanceStore
	courses   courseReader
	roster    rosterReader
	cache     *CacheService
	activity  *ActivityService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(repo attendanceStore, courses courseReader, roster rosterReader, cache *CacheService, activity *ActivityService, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &AttendanceService{repo: repo, courses: courses, roster: roster, cache: cache, activity: activity, validator: validate, logger: logger}
	svc.validator.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool {
		return models.AttendanceStatus(strings.ToLower(fl.Field().String())).Valid()
	})
	return svc
}

// Mark upserts a day of attendance for students enrolled in a course taught
// by facultyID.
func (s *AttendanceService) Mark(ctx context.Context, actorID, facultyID string, req MarkAttendanceRequest) (int, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, validationError(err, "invalid attendance payload")
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid date format")
	}
	course, err := ownedCourse(ctx, s.courses, facultyID, req.CourseID)
	if err != nil {
		return 0, err
	}
	roster, err := s.roster.Roster(ctx, course.ID)
	if err != nil {
		return 0, internalError(err, "failed to load roster")
	}
	enrolled := make(map[string]struct{}, len(roster))
	for _, entry := range roster {
		if entry.Status == models.EnrollmentStatusEnrolled {
			enrolled[entry.StudentID] = struct{}{}
		}
	}

	records := make([]models.Attendance, 0, len(req.Records))
	seen := make(map[string]struct{}, len(req.Records))
	for _, mark := range req.Records {
		if _, ok := enrolled[mark.StudentID]; !ok {
			return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s is not enrolled in this course", mark.StudentID))
		}
		if _, dup := seen[mark.StudentID]; dup {
			return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s is marked more than once", mark.StudentID))
		}
		seen[mark.StudentID] = struct{}{}
		records = append(records, models.Attendance{
			StudentID: mark.StudentID,
			CourseID:  course.ID,
			Date:      date,
			Status:    models.AttendanceStatus(strings.ToLower(mark.Status)),
			Remarks:   optionalString(mark.Remarks),
			MarkedBy:  actorID,
		})
	}

	if err := s.repo.Upsert(ctx, records); err != nil {
		return 0, internalError(err, "failed to save attendance")
	}

	s.cache.InvalidatePaths(ctx, viewStudentAttendance, viewStudentDashboard, viewFacultyDashboard)
	s.activity.Log(ctx, actorID, models.ActivityAttendanceMarked,
		fmt.Sprintf("Marked attendance for %s on %s", course.Code, req.Date),
		models.Metadata{"course_id": course.ID, "date": req.Date, "count": len(records)})
	return len(records), nil
}

// ListForCourse returns the attendance sheet of a course taught by facultyID.
// An empty facultyID skips the ownership check.
func (s *AttendanceService) ListForCourse(ctx context.Context, facultyID string, req AttendanceListRequest) ([]models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid attendance filter")
	}
	if _, err := ownedCourse(ctx, s.courses, facultyID, req.CourseID); err != nil {
		return nil, err
	}
	filter := models.AttendanceFilter{CourseID: req.CourseID}
	var err error
	if filter.From, err = parseOptionalDate(req.From); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid from date")
	}
	if filter.To, err = parseOptionalDate(req.To); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid to date")
	}
	records, err := s.repo.ListByCourse(ctx, filter)
	if err != nil {
		return nil, internalError(err, "failed to list attendance")
	}
	return records, nil
}

// SummaryForStudent tallies attendance per enrolled course.
func (s *AttendanceService) SummaryForStudent(ctx context.Context, studentID string) (*models.AttendanceReport, error) {
	report, _, err := readThrough(ctx, s.cache, ViewKey(viewStudentAttendance, studentID), 0, func(ctx context.Context) (*models.AttendanceReport, error) {
		counts, err := s.repo.CountsByStudent(ctx, studentID)
		if err != nil {
			return nil, err
		}
		return summarizeAttendance(counts), nil
	})
	if err != nil {
		return nil, internalError(err, "failed to load attendance")
	}
	return report, nil
}

// summarizeAttendance counts only present marks towards the percentage.
func summarizeAttendance(counts []models.AttendanceCount) *models.AttendanceReport {
	report := &models.AttendanceReport{Courses: make([]models.AttendanceSummary, 0, len(counts))}
	for _, c := range counts {
		pct := percentOf(float64(c.Present), float64(c.Total))
		report.Courses = append(report.Courses, models.AttendanceSummary{
			AttendanceCount: c,
			Percentage:      pct,
			Standing:        models.StandingFor(pct),
		})
		report.TotalClasses += c.Total
		report.Present += c.Present
		report.Absent += c.Absent
		report.Late += c.Late
	}
	report.Overall = percentOf(float64(report.Present), float64(report.TotalClasses))
	return report
}
