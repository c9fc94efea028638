package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/osms-api/internal/models"
	"github.com/noah-isme/osms-api/internal/repository"
	appErrors "github.com/noah-isme/osms-api/pkg/errors"
)

type enrollmentStore interface {
	Create(ctx context.Context, enrollment *models.Enrollment) error
	Find(ctx context.Context, studentID, courseID string) (*models.Enrollment, error)
	UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) error
	CountEnrolled(ctx context.Context, courseID string) (int, error)
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.CourseDetail, error)
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
}

// EnrollStudentRequest describes enrollment creation request.
type EnrollStudentRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	CourseID  string `json:"course_id" validate:"required"`
}

// EnrollmentService orchestrates enrollment workflows.
type EnrollmentService struct {
	repo      enrollmentStore
	students  studentReader
	courses   courseReader
	cache     *CacheService
	activity  *ActivityService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentStore, students studentReader, courses courseReader, cache *CacheService, activity *ActivityService, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, students: students, courses: courses, cache: cache, activity: activity, validator: validate, logger: logger}
}

// Enroll registers a student in an active course with free seats. A dropped
// enrollment is reactivated.
func (s *EnrollmentService) Enroll(ctx context.Context, actorID string, req EnrollStudentRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid enrollment payload")
	}
	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		return nil, lookupError(err, "Student not found", "failed to load student")
	}
	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		return nil, lookupError(err, "Course not found", "failed to load course")
	}
	if course.Status != models.CourseStatusActive {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course is not open for enrollment")
	}

	existing, err := s.repo.Find(ctx, req.StudentID, req.CourseID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, internalError(err, "failed to check enrollment")
	}
	if existing != nil && existing.Status == models.EnrollmentStatusEnrolled {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student already enrolled in this course")
	}

	seats, err := s.repo.CountEnrolled(ctx, req.CourseID)
	if err != nil {
		return nil, internalError(err, "failed to count enrollments")
	}
	if seats >= course.MaxStudents {
		return nil, appErrors.Clone(appErrors.ErrConflict, "course is full")
	}

	var enrollment *models.Enrollment
	if existing != nil {
		if err := s.repo.UpdateStatus(ctx, existing.ID, models.EnrollmentStatusEnrolled); err != nil {
			return nil, internalError(err, "failed to reactivate enrollment")
		}
		existing.Status = models.EnrollmentStatusEnrolled
		enrollment = existing
	} else {
		enrollment = &models.Enrollment{StudentID: req.StudentID, CourseID: req.CourseID, Status: models.EnrollmentStatusEnrolled}
		if err := s.repo.Create(ctx, enrollment); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return nil, appErrors.Clone(appErrors.ErrConflict, "student already enrolled in this course")
			}
			return nil, internalError(err, "failed to enroll student")
		}
	}

	s.invalidate(ctx)
	s.activity.Log(ctx, actorID, models.ActivityEnrollmentCreated,
		fmt.Sprintf("Enrolled %s in %s", student.EnrollmentNumber, course.Code),
		models.Metadata{"student_id": student.ID, "course_id": course.ID})
	return enrollment, nil
}

// Drop marks an enrollment as dropped.
func (s *EnrollmentService) Drop(ctx context.Context, actorID, studentID, courseID string) error {
	existing, err := s.repo.Find(ctx, studentID, courseID)
	if err != nil {
		return lookupError(err, "Enrollment not found", "failed to load enrollment")
	}
	if existing.Status != models.EnrollmentStatusEnrolled {
		return appErrors.Clone(appErrors.ErrValidation, "enrollment is not active")
	}
	if err := s.repo.UpdateStatus(ctx, existing.ID, models.EnrollmentStatusDropped); err != nil {
		return internalError(err, "failed to drop enrollment")
	}
	s.invalidate(ctx)
	s.activity.Log(ctx, actorID, models.ActivityEnrollmentDropped, "Dropped course enrollment",
		models.Metadata{"student_id": studentID, "course_id": courseID})
	return nil
}

func (s *EnrollmentService) invalidate(ctx context.Context) {
	s.cache.InvalidatePaths(ctx, viewAdminCourses, viewFacultyCourses, viewFacultyDashboard,
		viewStudentCourses, viewStudentDashboard, viewStudentProfile,
		viewStudentAttendance, viewStudentGrades)
}
