package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/osms-api/internal/identity"
	"github.com/noah-isme/osms-api/internal/models"
	"github.com/noah-isme/osms-api/internal/repository"
)

const dateLayout = "2006-01-02"

type studentStore interface {
	List(ctx context.Context, params models.ListParams) ([]models.StudentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	FindByUserID(ctx context.Context, userID string) (*models.StudentDetail, error)
	ExistsByEnrollmentNumber(ctx context.Context, number string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

type profileStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}

type identityAdmin interface {
	AdminCreateUser(ctx context.Context, email, password string, metadata models.Metadata) (*models.AuthIdentity, error)
	AdminDeleteUser(ctx context.Context, id string) error
}

type studentEnrollmentReader interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error)
}

// CreateStudentRequest holds payload for creating students.
type CreateStudentRequest struct {
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required,min=8"`
	FullName      string `json:"full_name" validate:"required"`
	Phone         string `json:"phone"`
	Department    string `json:"department" validate:"required"`
	Year          int    `json:"year" validate:"required,min=1,max=8"`
	Semester      int    `json:"semester" validate:"required,min=1,max=16"`
	Section       string `json:"section"`
	DateOfBirth   string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Address       string `json:"address"`
	GuardianName  string `json:"guardian_name"`
	GuardianPhone string `json:"guardian_phone"`
	BloodGroup    string `json:"blood_group"`
}

// UpdateStudentRequest holds payload for updating students.
type UpdateStudentRequest struct {
	FullName      string `json:"full_name" validate:"required"`
	Phone         string `json:"phone"`
	Department    string `json:"department" validate:"required"`
	Year          int    `json:"year" validate:"required,min=1,max=8"`
	Semester      int    `json:"semester" validate:"required,min=1,max=16"`
	Section       string `json:"section"`
	DateOfBirth   string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Address       string `json:"address"`
	GuardianName  string `json:"guardian_name"`
	GuardianPhone string `json:"guardian_phone"`
	BloodGroup    string `json:"blood_group"`
	Status        string `json:"status" validate:"required,oneof=active inactive graduated suspended"`
}

// StudentServiceParams groups constructor dependencies.
type StudentServiceParams struct {
	Students    studentStore
	Users       profileStore
	Identities  identityAdmin
	Enrollments studentEnrollmentReader
	Cache       *CacheService
	Activity    *ActivityService
	Metrics     *MetricsService
	Validator   *validator.Validate
	Logger      *zap.Logger
}

// StudentService handles student use-cases.
type StudentService struct {
	students    studentStore
	users       profileStore
	identities  identityAdmin
	enrollments studentEnrollmentReader
	cache       *CacheService
	activity    *ActivityService
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
	random      randomIntN
}

// NewStudentService constructs the student service.
func NewStudentService(params StudentServiceParams) *StudentService {
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{
		students:    params.Students,
		users:       params.Users,
		identities:  params.Identities,
		enrollments: params.Enrollments,
		cache:       params.Cache,
		activity:    params.Activity,
		metrics:     params.Metrics,
		validator:   validate,
		logger:      logger,
		now:         time.Now,
		random:      defaultRandom,
	}
}

// List returns a page of students.
func (s *StudentService) List(ctx context.Context, params models.ListParams) (*models.Page[models.StudentDetail], error) {
	params = params.Normalize(models.DefaultPerPage)
	key := ViewKey(viewAdminStudents, params.CacheScope())
	page, _, err := readThrough(ctx, s.cache, key, 0, func(ctx context.Context) (*models.Page[models.StudentDetail], error) {
		rows, total, err := s.students.List(ctx, params)
		if err != nil {
			return nil, err
		}
		return models.NewPage(rows, total, params), nil
	})
	if err != nil {
		return nil, internalError(err, "failed to list students")
	}
	return page, nil
}

// Get returns a student with their enrollments.
func (s *StudentService) Get(ctx context.Context, id string) (*models.StudentProfile, error) {
	detail, err := s.students.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "Student not found", "failed to load student")
	}
	return s.profile(ctx, detail)
}

// GetByUser returns the student record owned by a signed in profile.
func (s *StudentService) GetByUser(ctx context.Context, userID string) (*models.StudentProfile, error) {
	detail, err := s.students.FindByUserID(ctx, userID)
	if err != nil {
		return nil, lookupError(err, "Student profile not found", "failed to load student")
	}
	return s.profile(ctx, detail)
}

func (s *StudentService) profile(ctx context.Context, detail *models.StudentDetail) (*models.StudentProfile, error) {
	enrollments, err := s.enrollments.ListByStudent(ctx, detail.ID)
	if err != nil {
		return nil, internalError(err, "failed to load enrollments")
	}
	return &models.StudentProfile{StudentDetail: *detail, Enrollments: enrollments}, nil
}

// Create provisions the identity, profile and student row of a new
// student. Completed steps are undone when a later one fails.
func (s *StudentService) Create(ctx context.Context, actorID string, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid student payload")
	}
	dob, err := parseOptionalDate(req.DateOfBirth)
	if err != nil {
		return nil, validationError(err, "invalid date of birth")
	}

	now := s.now().UTC()
	var (
		account *models.AuthIdentity
		student *models.Student
	)
	workflow := newSaga("create_student", s.logger, s.metrics).
		Step("identity", func(ctx context.Context) error {
			var err error
			account, err = s.identities.AdminCreateUser(ctx, req.Email, req.Password, models.Metadata{
				"full_name": req.FullName,
				"role":      string(models.RoleStudent),
			})
			return err
		}, func(ctx context.Context) error {
			return s.identities.AdminDeleteUser(ctx, account.ID)
		}).
		Step("profile", func(ctx context.Context) error {
			return s.users.Create(ctx, &models.User{
				ID:       account.ID,
				Email:    account.Email,
				FullName: req.FullName,
				Role:     models.RoleStudent,
				Phone:    optionalString(req.Phone),
				IsActive: true,
			})
		}, func(ctx context.Context) error {
			return s.users.Delete(ctx, account.ID)
		}).
		Step("student", func(ctx context.Context) error {
			student = &models.Student{
				UserID:        account.ID,
				Department:    req.Department,
				Year:          req.Year,
				Semester:      req.Semester,
				Section:       optionalString(req.Section),
				DateOfBirth:   dob,
				Address:       optionalString(req.Address),
				GuardianName:  optionalString(req.GuardianName),
				GuardianPhone: optionalString(req.GuardianPhone),
				BloodGroup:    optionalString(req.BloodGroup),
				AdmissionDate: now,
				Status:        models.StudentStatusActive,
			}
			return s.insertWithEnrollmentNumber(ctx, student, now.Year())
		}, nil)

	if err := workflow.Run(ctx); err != nil {
		return nil, mapProvisionError(err, "failed to create student")
	}

	s.cache.InvalidatePaths(ctx, viewAdminStudents, viewAdminDashboard)
	s.activity.Log(ctx, actorID, models.ActivityStudentCreated,
		fmt.Sprintf("Created student %s", student.EnrollmentNumber),
		models.Metadata{"student_id": student.ID, "enrollment_number": student.EnrollmentNumber})
	return student, nil
}

// AttachToUser creates the student row of a self registered account.
// Missing academic details fall back to the registration defaults.
func (s *StudentService) AttachToUser(ctx context.Context, userID, department string, year, semester int) (*models.Student, error) {
	if department == "" {
		department = defaultDepartment
	}
	if year < 1 {
		year = 1
	}
	if semester < 1 {
		semester = 1
	}
	now := s.now().UTC()
	student := &models.Student{
		UserID:        userID,
		Department:    department,
		Year:          year,
		Semester:      semester,
		AdmissionDate: now,
		Status:        models.StudentStatusActive,
	}
	if err := s.insertWithEnrollmentNumber(ctx, student, now.Year()); err != nil {
		return nil, err
	}
	s.cache.InvalidatePaths(ctx, viewAdminStudents, viewAdminDashboard)
	return student, nil
}

// insertWithEnrollmentNumber allocates a number and inserts the row,
// drawing again when a concurrent insert claimed the same number.
func (s *StudentService) insertWithEnrollmentNumber(ctx context.Context, student *models.Student, year int) error {
	var err error
	for attempt := 0; attempt < maxIdentifierAttempts; attempt++ {
		student.EnrollmentNumber, err = allocateIdentifier(ctx, enrollmentNumberFormat, year, s.random, s.students.ExistsByEnrollmentNumber)
		if err != nil {
			return err
		}
		student.ID = ""
		if err = s.students.Create(ctx, student); !errors.Is(err, repository.ErrDuplicate) {
			return err
		}
	}
	return err
}

// Update modifies the profile row and then the student row.
func (s *StudentService) Update(ctx context.Context, actorID, id string, req UpdateStudentRequest) (*models.StudentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid student payload")
	}
	dob, err := parseOptionalDate(req.DateOfBirth)
	if err != nil {
		return nil, validationError(err, "invalid date of birth")
	}
	detail, err := s.students.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "Student not found", "failed to load student")
	}

	user, err := s.users.FindByID(ctx, detail.UserID)
	if err != nil {
		return nil, lookupError(err, "Student profile not found", "failed to load profile")
	}
	user.FullName = req.FullName
	user.Phone = optionalString(req.Phone)
	if err := s.users.Update(ctx, user); err != nil {
		return nil, internalError(err, "failed to update profile")
	}

	student := detail.Student
	student.Department = req.Department
	student.Year = req.Year
	student.Semester = req.Semester
	student.Section = optionalString(req.Section)
	student.DateOfBirth = dob
	student.Address = optionalString(req.Address)
	student.GuardianName = optionalString(req.GuardianName)
	student.GuardianPhone = optionalString(req.GuardianPhone)
	student.BloodGroup = optionalString(req.BloodGroup)
	student.Status = models.StudentStatus(req.Status)
	if err := s.students.Update(ctx, &student); err != nil {
		return nil, lookupError(err, "Student not found", "failed to update student")
	}

	s.cache.InvalidatePaths(ctx, viewAdminStudents, viewStudentProfile, viewStudentDashboard)
	s.activity.Log(ctx, actorID, models.ActivityStudentUpdated,
		fmt.Sprintf("Updated student %s", student.EnrollmentNumber),
		models.Metadata{"student_id": student.ID})

	detail.Student = student
	detail.User.FullName = user.FullName
	detail.User.Phone = user.Phone
	return detail, nil
}

// Delete removes the student row, then its profile and identity. Failures
// after the student row is gone are logged and do not fail the call.
func (s *StudentService) Delete(ctx context.Context, actorID, id string) error {
	detail, err := s.students.FindByID(ctx, id)
	if err != nil {
		return lookupError(err, "Student not found", "failed to load student")
	}
	if err := s.students.Delete(ctx, id); err != nil {
		return lookupError(err, "Student not found", "failed to delete student")
	}
	if err := s.users.Delete(ctx, detail.UserID); err != nil {
		s.logger.Warn("failed to delete student profile", zap.String("user_id", detail.UserID), zap.Error(err))
	}
	if err := s.identities.AdminDeleteUser(ctx, detail.UserID); err != nil && !errors.Is(err, identity.ErrIdentityNotFound) {
		s.logger.Warn("failed to delete student identity", zap.String("user_id", detail.UserID), zap.Error(err))
	}

	// the student's enrollments went with the row
	s.cache.InvalidatePaths(ctx, viewAdminStudents, viewAdminDashboard, viewAdminCourses,
		viewFacultyCourses, viewFacultyDashboard, viewStudentViews)
	s.activity.Log(ctx, actorID, models.ActivityStudentDeleted,
		fmt.Sprintf("Deleted student %s", detail.EnrollmentNumber),
		models.Metadata{"student_id": id})
	return nil
}

func parseOptionalDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
