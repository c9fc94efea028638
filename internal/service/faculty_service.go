package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/osms-api/internal/identity"
	"github.com/noah-isme/osms-api/internal/models"
	"github.com/noah-isme/osms-api/internal/repository"
	appErrors "github.com/noah-isme/osms-api/pkg/errors"
)

// Defaults applied to accounts created without academic details.
const (
	defaultDesignation = "Assistant Professor"
	defaultDepartment  = "Computer Science"
)

type facultyStore interface {
	List(ctx context.Context, params models.ListParams) ([]models.FacultyDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.FacultyDetail, error)
	FindByUserID(ctx context.Context, userID string) (*models.FacultyDetail, error)
	ExistsByEmployeeID(ctx context.Context, employeeID string) (bool, error)
	Create(ctx context.Context, faculty *models.Faculty) error
}

// CreateFacultyRequest holds payload for onboarding faculty.
type CreateFacultyRequest struct {
	Email           string   `json:"email" validate:"required,email"`
	Password        string   `json:"password" validate:"required,min=8"`
	FullName        string   `json:"full_name" validate:"required"`
	Phone           string   `json:"phone"`
	Department      string   `json:"department" validate:"required"`
	Designation     string   `json:"designation"`
	Qualification   []string `json:"qualification"`
	Specialization  string   `json:"specialization"`
	ExperienceYears int      `json:"experience_years" validate:"min=0,max=60"`
	JoiningDate     string   `json:"joining_date" validate:"omitempty,datetime=2006-01-02"`
}

// FacultyServiceParams groups constructor dependencies.
type FacultyServiceParams struct {
	Faculty    facultyStore
	Users      profileStore
	Identities identityAdmin
	Cache      *CacheService
	Activity   *ActivityService
	Metrics    *MetricsService
	Validator  *validator.Validate
	Logger     *zap.Logger
}

// FacultyService handles faculty use-cases.
type FacultyService struct {
	faculty    facultyStore
	users      profileStore
	identities identityAdmin
	cache      *CacheService
	activity   *ActivityService
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
	random     randomIntN
}

// NewFacultyService constructs the faculty service.
func NewFacultyService(params FacultyServiceParams) *FacultyService {
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FacultyService{
		faculty:    params.Faculty,
		users:      params.Users,
		identities: params.Identities,
		cache:      params.Cache,
		activity:   params.Activity,
		metrics:    params.Metrics,
		validator:  validate,
		logger:     logger,
		now:        time.Now,
		random:     defaultRandom,
	}
}

// List returns a page of faculty members.
func (s *FacultyService) List(ctx context.Context, params models.ListParams) (*models.Page[models.FacultyDetail], error) {
	params = params.Normalize(models.DefaultPerPage)
	page, _, err := readThrough(ctx, s.cache, ViewKey(viewAdminFaculty, params.CacheScope()), 0, func(ctx context.Context) (*models.Page[models.FacultyDetail], error) {
		rows, total, err := s.faculty.List(ctx, params)
		if err != nil {
			return nil, err
		}
		return models.NewPage(rows, total, params), nil
	})
	if err != nil {
		return nil, internalError(err, "failed to list faculty")
	}
	return page, nil
}

// Get returns a faculty member by ID.
func (s *FacultyService) Get(ctx context.Context, id string) (*models.FacultyDetail, error) {
	detail, err := s.faculty.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "Faculty not found", "failed to load faculty")
	}
	return detail, nil
}

// GetByUser returns the faculty record owned by a signed in profile.
func (s *FacultyService) GetByUser(ctx context.Context, userID string) (*models.FacultyDetail, error) {
	detail, err := s.faculty.FindByUserID(ctx, userID)
	if err != nil {
		return nil, lookupError(err, "Faculty profile not found", "failed to load faculty")
	}
	return detail, nil
}

// Create provisions the identity, profile and faculty row of a new
// faculty member, undoing completed steps on failure.
func (s *FacultyService) Create(ctx context.Context, actorID string, req CreateFacultyRequest) (*models.Faculty, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid faculty payload")
	}
	now := s.now().UTC()
	joining := now
	if req.JoiningDate != "" {
		parsed, err := time.Parse(dateLayout, req.JoiningDate)
		if err != nil {
			return nil, validationError(err, "invalid joining date")
		}
		joining = parsed
	}
	designation := req.Designation
	if designation == "" {
		designation = defaultDesignation
	}
	qualification := pq.StringArray(req.Qualification)
	if qualification == nil {
		qualification = pq.StringArray{}
	}

	var (
		account *models.AuthIdentity
		member  *models.Faculty
	)
	workflow := newSaga("create_faculty", s.logger, s.metrics).
		Step("identity", func(ctx context.Context) error {
			var err error
			account, err = s.identities.AdminCreateUser(ctx, req.Email, req.Password, models.Metadata{
				"full_name": req.FullName,
				"role":      string(models.RoleFaculty),
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
				Role:     models.RoleFaculty,
				Phone:    optionalString(req.Phone),
				IsActive: true,
			})
		}, func(ctx context.Context) error {
			return s.users.Delete(ctx, account.ID)
		}).
		Step("faculty", func(ctx context.Context) error {
			member = &models.Faculty{
				UserID:          account.ID,
				Department:      req.Department,
				Designation:     designation,
				Qualification:   qualification,
				Specialization:  optionalString(req.Specialization),
				ExperienceYears: req.ExperienceYears,
				JoiningDate:     joining,
				Status:          models.FacultyStatusActive,
			}
			return s.insertWithEmployeeID(ctx, member, now.Year())
		}, nil)

	if err := workflow.Run(ctx); err != nil {
		return nil, mapProvisionError(err, "failed to create faculty")
	}

	s.cache.InvalidatePaths(ctx, viewAdminFaculty, viewAdminDashboard)
	s.activity.Log(ctx, actorID, models.ActivityFacultyCreated,
		fmt.Sprintf("Added faculty %s", member.EmployeeID),
		models.Metadata{"faculty_id": member.ID, "employee_id": member.EmployeeID})
	return member, nil
}

// AttachToUser creates the faculty row of a self registered account.
func (s *FacultyService) AttachToUser(ctx context.Context, userID, department, designation string) (*models.Faculty, error) {
	if department == "" {
		department = defaultDepartment
	}
	if designation == "" {
		designation = defaultDesignation
	}
	now := s.now().UTC()
	member := &models.Faculty{
		UserID:        userID,
		Department:    department,
		Designation:   designation,
		Qualification: pq.StringArray{},
		JoiningDate:   now,
		Status:        models.FacultyStatusActive,
	}
	if err := s.insertWithEmployeeID(ctx, member, now.Year()); err != nil {
		return nil, err
	}
	s.cache.InvalidatePaths(ctx, viewAdminFaculty, viewAdminDashboard)
	return member, nil
}

func (s *FacultyService) insertWithEmployeeID(ctx context.Context, member *models.Faculty, year int) error {
	var err error
	for attempt := 0; attempt < maxIdentifierAttempts; attempt++ {
		member.EmployeeID, err = allocateIdentifier(ctx, employeeIDFormat, year, s.random, s.faculty.ExistsByEmployeeID)
		if err != nil {
			return err
		}
		member.ID = ""
		if err = s.faculty.Create(ctx, member); !errors.Is(err, repository.ErrDuplicate) {
			return err
		}
	}
	return err
}

// mapProvisionError translates account provisioning failures.
func mapProvisionError(err error, fallback string) error {
	var appErr *appErrors.Error
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, identity.ErrEmailTaken), errors.Is(err, repository.ErrDuplicate):
		return appErrors.Clone(appErrors.ErrConflict, "An account with this email already exists")
	case errors.Is(err, identity.ErrWeakPassword):
		return appErrors.Clone(appErrors.ErrValidation, "Password must be at least 8 characters")
	case errors.Is(err, errIdentifierExhausted):
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "could not allocate an identifier")
	default:
		return internalError(err, fallback)
	}
}
