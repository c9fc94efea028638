package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/osms-api/internal/models"
	appErrors "github.com/noah-isme/osms-api/pkg/errors"
)

type fakeAnnouncementRepo struct {
	created    []models.Announcement
	rows       []models.Announcement
	params     models.AnnouncementListParams
	audience   models.AnnouncementAudience
	department string
	limit      int
}

func (f *fakeAnnouncementRepo) List(_ context.Context, params models.AnnouncementListParams) ([]models.Announcement, int, error) {
	f.params = params
	return f.rows, len(f.rows), nil
}

func (f *fakeAnnouncementRepo) ListForAudience(_ context.Context, audience models.AnnouncementAudience, department string, limit int) ([]models.Announcement, error) {
	f.audience, f.department, f.limit = audience, department, limit
	return f.rows, nil
}

func (f *fakeAnnouncementRepo) Create(_ context.Context, a *models.Announcement) error {
	a.ID = "ann-1"
	f.created = append(f.created, *a)
	return nil
}

func TestAnnouncementServiceCreateAppliesDefaults(t *testing.T) {
	repo := &fakeAnnouncementRepo{}
	cacheRepo := newFakeCacheRepo()
	svc := NewAnnouncementService(repo, NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true), nil, nil, zap.NewNop())

	ann, err := svc.Create(context.Background(), "admin-1", CreateAnnouncementRequest{Title: "Exam week", Content: "Schedules posted"})
	require.NoError(t, err)
	assert.Equal(t, models.AnnouncementPriorityNormal, ann.Priority)
	assert.Equal(t, models.AnnouncementAudienceAll, ann.Audience)
	assert.Equal(t, "admin-1", ann.CreatedBy)
	assert.Nil(t, ann.Department)
	assert.Contains(t, cacheRepo.patterns, "osms:view:/student/dashboard*")
	assert.Contains(t, cacheRepo.patterns, "osms:view:/admin/announcements*")
}

func TestAnnouncementServiceCreateRequiresCaller(t *testing.T) {
	repo := &fakeAnnouncementRepo{}
	svc := NewAnnouncementService(repo, nil, nil, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), "", CreateAnnouncementRequest{Title: "x", Content: "y"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
	assert.Empty(t, repo.created)
}

func TestAnnouncementServiceCreateValidation(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	cases := map[string]CreateAnnouncementRequest{
		"missing title":         {Content: "y"},
		"unknown priority":      {Title: "x", Content: "y", Priority: "critical"},
		"unknown audience":      {Title: "x", Content: "y", Audience: "parents"},
		"department without id": {Title: "x", Content: "y", Audience: "department"},
		"already expired":       {Title: "x", Content: "y", ExpiresAt: &past},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			svc := NewAnnouncementService(&fakeAnnouncementRepo{}, nil, nil, nil, zap.NewNop())
			_, err := svc.Create(context.Background(), "admin-1", req)
			var appErr *appErrors.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
		})
	}
}

func TestAnnouncementServiceListForAudience(t *testing.T) {
	repo := &fakeAnnouncementRepo{rows: []models.Announcement{{ID: "a1"}}}
	svc := NewAnnouncementService(repo, nil, nil, nil, zap.NewNop())

	rows, err := svc.ListForAudience(context.Background(), models.RoleStudent, "Computer Science", 0)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, models.AnnouncementAudienceStudents, repo.audience)
	assert.Equal(t, "Computer Science", repo.department)
	assert.Equal(t, DefaultFeedLimit, repo.limit)
}

func TestAnnouncementServiceListNormalizesPaging(t *testing.T) {
	repo := &fakeAnnouncementRepo{}
	svc := NewAnnouncementService(repo, nil, nil, nil, zap.NewNop())

	page, err := svc.List(context.Background(), models.AnnouncementListParams{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, models.DefaultAnnouncementsPerPage, repo.params.PerPage)
}
