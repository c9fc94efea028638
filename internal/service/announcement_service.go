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

// DefaultFeedLimit bounds dashboard announcement feeds.
const DefaultFeedLimit = 5

type announcementRepository interface {
	List(ctx context.Context, params models.AnnouncementListParams) ([]models.Announcement, int, error)
	ListForAudience(ctx context.Context, audience models.AnnouncementAudience, department string, limit int) ([]models.Announcement, error)
	Create(ctx context.Context, announcement *models.Announcement) error
}

// CreateAnnouncementRequest describes create payload.
type CreateAnnouncementRequest struct {
	Title      string     `json:"title" validate:"required,max=200"`
	Content    string     `json:"content" validate:"required"`
	Priority   string     `json:"priority" validate:"omitempty,priority"`
	Audience   string     `json:"audience" validate:"omitempty,audience"`
	Department string     `json:"department"`
	IsPinned   bool       `json:"is_pinned"`
	ExpiresAt  *time.Time `json:"expires_at"`
}

// AnnouncementService handles announcement workflows.
type AnnouncementService struct {
	repo      announcementRepository
	cache     *CacheService
	activity  *ActivityService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAnnouncementService constructs the service.
func NewAnnouncementService(repo announcementRepository, cache *CacheService, activity *ActivityService, validate *validator.Validate, logger *zap.Logger) *AnnouncementService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &AnnouncementService{repo: repo, cache: cache, activity: activity, validator: validate, logger: logger, now: time.Now}
	svc.validator.RegisterValidation("audience", func(fl validator.FieldLevel) bool {
		switch models.AnnouncementAudience(strings.ToLower(fl.Field().String())) {
		case models.AnnouncementAudienceAll, models.AnnouncementAudienceStudents, models.AnnouncementAudienceFaculty, models.AnnouncementAudienceDepartment:
			return true
		default:
			return false
		}
	})
	svc.validator.RegisterValidation("priority", func(fl validator.FieldLevel) bool {
		switch models.AnnouncementPriority(strings.ToLower(fl.Field().String())) {
		case models.AnnouncementPriorityLow, models.AnnouncementPriorityNormal, models.AnnouncementPriorityHigh, models.AnnouncementPriorityUrgent:
			return true
		default:
			return false
		}
	})
	return svc
}

// List returns announcements, pinned first then newest.
func (s *AnnouncementService) List(ctx context.Context, params models.AnnouncementListParams) (*models.Page[models.Announcement], error) {
	params.ListParams = params.ListParams.Normalize(models.DefaultAnnouncementsPerPage)
	page, _, err := readThrough(ctx, s.cache, ViewKey(viewAdminAnnouncements, params.CacheScope()), 0, func(ctx context.Context) (*models.Page[models.Announcement], error) {
		rows, total, err := s.repo.List(ctx, params)
		if err != nil {
			return nil, err
		}
		return models.NewPage(rows, total, params.ListParams), nil
	})
	if err != nil {
		return nil, internalError(err, "failed to list announcements")
	}
	return page, nil
}

// ListForAudience returns the unexpired feed a role sees on its dashboard:
// everything addressed to all, to the role's audience, or to its department.
func (s *AnnouncementService) ListForAudience(ctx context.Context, role models.UserRole, department string, limit int) ([]models.Announcement, error) {
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	audience := models.AudienceFor(role)
	path := viewAdminAnnouncements
	switch audience {
	case models.AnnouncementAudienceStudents:
		path = viewStudentAnnouncements
	case models.AnnouncementAudienceFaculty:
		path = viewFacultyAnnouncements
	}
	scope := fmt.Sprintf("feed&department=%s&limit=%d", department, limit)
	rows, _, err := readThrough(ctx, s.cache, ViewKey(path, scope), 0, func(ctx context.Context) ([]models.Announcement, error) {
		return s.repo.ListForAudience(ctx, audience, department, limit)
	})
	if err != nil {
		return nil, internalError(err, "failed to load announcements")
	}
	return rows, nil
}

// Create publishes an announcement authored by actorID.
func (s *AnnouncementService) Create(ctx context.Context, actorID string, req CreateAnnouncementRequest) (*models.Announcement, error) {
	if actorID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "You must be signed in to post announcements")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid announcement payload")
	}
	priority := models.AnnouncementPriority(strings.ToLower(req.Priority))
	if priority == "" {
		priority = models.AnnouncementPriorityNormal
	}
	audience := models.AnnouncementAudience(strings.ToLower(req.Audience))
	if audience == "" {
		audience = models.AnnouncementAudienceAll
	}
	if audience == models.AnnouncementAudienceDepartment && strings.TrimSpace(req.Department) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "department is required for department announcements")
	}
	if req.ExpiresAt != nil && !req.ExpiresAt.After(s.now()) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "expires_at must be in the future")
	}

	announcement := &models.Announcement{
		Title:      req.Title,
		Content:    req.Content,
		Priority:   priority,
		Audience:   audience,
		Department: optionalString(strings.TrimSpace(req.Department)),
		IsPinned:   req.IsPinned,
		ExpiresAt:  req.ExpiresAt,
		CreatedBy:  actorID,
	}
	if err := s.repo.Create(ctx, announcement); err != nil {
		return nil, internalError(err, "failed to create announcement")
	}

	s.cache.InvalidatePaths(ctx, viewAdminAnnouncements, viewFacultyAnnouncements, viewStudentAnnouncements,
		viewAdminDashboard, viewFacultyDashboard, viewStudentDashboard)
	s.activity.Log(ctx, actorID, models.ActivityAnnouncementCreated,
		fmt.Sprintf("Posted announcement %q", announcement.Title),
		models.Metadata{"announcement_id": announcement.ID, "audience": string(audience)})
	return announcement, nil
}
