package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/osms-api/internal/models"
	appErrors "github.com/noah-isme/osms-api/pkg/errors"
)

type gradeStore interface {
	CreateBatch(ctx context.Context, grades []models.Grade) error
	ListByCourse(ctx context.Context, courseID string) ([]models.Grade, error)
	TotalsByStudent(ctx context.Context, studentID string) ([]models.GradeTotal, error)
}

// GradeEntry is one student's result within an assessment.
type GradeEntry struct {
	StudentID     string  `json:"student_id" validate:"required"`
	MarksObtained float64 `json:"marks_obtained" validate:"min=0"`
	Remarks       string  `json:"remarks"`
}

// RecordGradesRequest records an assessment for several students of a course.
type RecordGradesRequest struct {
	CourseID       string       `json:"course_id" validate:"required"`
	AssessmentType string       `json:"assessment_type" validate:"required,assessment_type"`
	AssessmentName string       `json:"assessment_name" validate:"required,max=120"`
	MaxMarks       float64      `json:"max_marks" validate:"gt=0"`
	Weightage      float64      `json:"weightage" validate:"min=0,max=100"`
	Entries        []GradeEntry `json:"entries" validate:"required,min=1,dive"`
}

// GradeService records assessments and derives letter grades.
type GradeService struct {
	repo      gradeStore
	courses   courseReader
	roster    rosterReader
	cache     *CacheService
	activity  *ActivityService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGradeService constructs the grade service.
func NewGradeService(repo gradeStore, courses courseReader, roster rosterReader, cache *CacheService, activity *ActivityService, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &GradeService{repo: repo, courses: courses, roster: roster, cache: cache, activity: activity, validator: validate, logger: logger}
	svc.validator.RegisterValidation("assessment_type", func(fl validator.FieldLevel) bool {
		return models.AssessmentType(strings.ToLower(fl.Field().String())).Valid()
	})
	return svc
}

// Record stores an assessment for students enrolled in a course taught by facultyID.
func (s *GradeService) Record(ctx context.Context, actorID, facultyID string, req RecordGradesRequest) (int, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, validationError(err, "invalid grade payload")
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
		if entry.Status != models.EnrollmentStatusDropped {
			enrolled[entry.StudentID] = struct{}{}
		}
	}

	grades := make([]models.Grade, 0, len(req.Entries))
	for _, entry := range req.Entries {
		if _, ok := enrolled[entry.StudentID]; !ok {
			return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s is not enrolled in this course", entry.StudentID))
		}
		if entry.MarksObtained > req.MaxMarks {
			return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("marks for student %s exceed the maximum of %g", entry.StudentID, req.MaxMarks))
		}
		grades = append(grades, models.Grade{
			StudentID:      entry.StudentID,
			CourseID:       course.ID,
			AssessmentType: models.AssessmentType(strings.ToLower(req.AssessmentType)),
			AssessmentName: req.AssessmentName,
			MarksObtained:  entry.MarksObtained,
			MaxMarks:       req.MaxMarks,
			Weightage:      req.Weightage,
			GradedBy:       actorID,
			Remarks:        optionalString(entry.Remarks),
		})
	}

	if err := s.repo.CreateBatch(ctx, grades); err != nil {
		return 0, internalError(err, "failed to record grades")
	}

	s.cache.InvalidatePaths(ctx, viewStudentGrades, viewStudentDashboard)
	s.activity.Log(ctx, actorID, models.ActivityGradeRecorded,
		fmt.Sprintf("Recorded %s for %s", req.AssessmentName, course.Code),
		models.Metadata{"course_id": course.ID, "assessment": req.AssessmentName, "count": len(grades)})
	return len(grades), nil
}

// ListForCourse returns every grade of a course taught by facultyID. An empty
// facultyID skips the ownership check.
func (s *GradeService) ListForCourse(ctx context.Context, facultyID, courseID string) ([]models.Grade, error) {
	if _, err := ownedCourse(ctx, s.courses, facultyID, courseID); err != nil {
		return nil, err
	}
	grades, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, internalError(err, "failed to list grades")
	}
	return grades, nil
}

// SummaryForStudent grades each course and computes the CGPA.
func (s *GradeService) SummaryForStudent(ctx context.Context, studentID string) (*models.GradeReport, error) {
	report, _, err := readThrough(ctx, s.cache, ViewKey(viewStudentGrades, studentID), 0, func(ctx context.Context) (*models.GradeReport, error) {
		totals, err := s.repo.TotalsByStudent(ctx, studentID)
		if err != nil {
			return nil, err
		}
		return gradeReport(totals), nil
	})
	if err != nil {
		return nil, internalError(err, "failed to load grades")
	}
	return report, nil
}

func gradeReport(totals []models.GradeTotal) *models.GradeReport {
	report := &models.GradeReport{Courses: make([]models.GradeSummary, 0, len(totals))}
	var weighted float64
	for _, total := range totals {
		pct := percentOf(total.ObtainedMarks, total.TotalMarks)
		letter, points := models.LetterGrade(pct)
		report.Courses = append(report.Courses, models.GradeSummary{
			GradeTotal:  total,
			Percentage:  pct,
			Grade:       letter,
			GradePoints: points,
		})
		weighted += points * float64(total.Credits)
		report.TotalCredits += total.Credits
	}
	if report.TotalCredits > 0 {
		report.CGPA = round2(weighted / float64(report.TotalCredits))
	}
	return report
}
