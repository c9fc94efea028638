package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/osms-api/internal/models"
	"github.com/noah-isme/osms-api/internal/repository"
	appErrors "github.com/noah-isme/osms-api/pkg/errors"
)

type courseStore interface {
	List(ctx context.Context, params models.ListParams) ([]models.CourseDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.CourseDetail, error)
	ListByFaculty(ctx context.Context, facultyID string) ([]models.CourseDetail, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.CourseDetail, error)
	Create(ctx context.Context, course *models.Course) error
}

type rosterReader interface {
	Roster(ctx context.Context, courseID string) ([]models.CourseRosterEntry, error)
}

// CreateCourseRequest holds payload for creating courses.
type CreateCourseRequest struct {
	Code        string `json:"code" validate:"required,max=20"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Credits     int    `json:"credits" validate:"required,min=1,max=10"`
	Department  string `json:"department" validate:"required"`
	Semester    int    `json:"semester" validate:"required,min=1,max=16"`
	Year        int    `json:"year" validate:"required,min=2000"`
	FacultyID   string `json:"faculty_id" validate:"omitempty,uuid"`
	MaxStudents int    `json:"max_students" validate:"min=0"`
	Syllabus    string `json:"syllabus"`
}

// CourseService handles the course catalogue.
type CourseService struct {
	courses   courseStore
	roster    rosterReader
	cache     *CacheService
	activity  *ActivityService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs the course service.
func NewCourseService(courses courseStore, roster rosterReader, cache *CacheService, activity *ActivityService, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{courses: courses, roster: roster, cache: cache, activity: activity, validator: validate, logger: logger}
}

// List returns a page of courses with their instructors.
func (s *CourseService) List(ctx context.Context, params models.ListParams) (*models.Page[models.CourseDetail], error) {
	params = params.Normalize(models.DefaultPerPage)
	page, _, err := readThrough(ctx, s.cache, ViewKey(viewAdminCourses, params.CacheScope()), 0, func(ctx context.Context) (*models.Page[models.CourseDetail], error) {
		rows, total, err := s.courses.List(ctx, params)
		if err != nil {
			return nil, err
		}
		return models.NewPage(rows, total, params), nil
	})
	if err != nil {
		return nil, internalError(err, "failed to list courses")
	}
	return page, nil
}

// Get returns a course by ID.
func (s *CourseService) Get(ctx context.Context, id string) (*models.CourseDetail, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "Course not found", "failed to load course")
	}
	return course, nil
}

// ListForFaculty returns the courses taught by a faculty member.
func (s *CourseService) ListForFaculty(ctx context.Context, facultyID string) ([]models.CourseDetail, error) {
	courses, err := s.courses.ListByFaculty(ctx, facultyID)
	if err != nil {
		return nil, internalError(err, "failed to list courses")
	}
	return courses, nil
}

// ListForStudent returns the courses a student is enrolled in.
func (s *CourseService) ListForStudent(ctx context.Context, studentID string) ([]models.CourseDetail, error) {
	courses, err := s.courses.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, internalError(err, "failed to list courses")
	}
	return courses, nil
}

// Roster returns the students enrolled in a course taught by facultyID.
// An empty facultyID skips the ownership check.
func (s *CourseService) Roster(ctx context.Context, facultyID, courseID string) ([]models.CourseRosterEntry, error) {
	if _, err := ownedCourse(ctx, s.courses, facultyID, courseID); err != nil {
		return nil, err
	}
	roster, err := s.roster.Roster(ctx, courseID)
	if err != nil {
		return nil, internalError(err, "failed to load roster")
	}
	return roster, nil
}

// Create adds a course to the catalogue.
func (s *CourseService) Create(ctx context.Context, actorID string, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid course payload")
	}
	maxStudents := req.MaxStudents
	if maxStudents <= 0 {
		maxStudents = models.DefaultMaxStudents
	}
	course := &models.Course{
		Code:        req.Code,
		Name:        req.Name,
		Description: optionalString(req.Description),
		Credits:     req.Credits,
		Department:  req.Department,
		Semester:    req.Semester,
		Year:        req.Year,
		FacultyID:   optionalString(req.FacultyID),
		MaxStudents: maxStudents,
		Syllabus:    optionalString(req.Syllabus),
		Status:      models.CourseStatusActive,
	}
	if err := s.courses.Create(ctx, course); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "course code already exists")
		}
		return nil, internalError(err, "failed to create course")
	}

	s.cache.InvalidatePaths(ctx, viewAdminCourses, viewAdminDashboard, viewFacultyCourses, viewFacultyDashboard)
	s.activity.Log(ctx, actorID, models.ActivityCourseCreated,
		fmt.Sprintf("Created course %s", course.Code),
		models.Metadata{"course_id": course.ID, "code": course.Code})
	return course, nil
}
