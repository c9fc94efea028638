package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/osms-api/internal/models"
)

var announcementColumns = []string{
	"a.id", "a.title", "a.content", "a.priority", "a.audience", "a.department", "a.is_pinned",
	"a.views", "a.expires_at", "a.created_by", "a.created_at", "u.full_name AS author_name",
}

var announcementOrder = []string{"a.is_pinned DESC", "a.created_at DESC"}

// AnnouncementRepository provides persistence for announcements.
type AnnouncementRepository struct {
	db *sqlx.DB
}

// NewAnnouncementRepository creates the repository.
func NewAnnouncementRepository(db *sqlx.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

func (r *AnnouncementRepository) base() squirrel.SelectBuilder {
	return psql.Select().From("announcements a").LeftJoin("users u ON u.id = a.created_by")
}

// List returns a page of announcements, pinned entries first.
func (r *AnnouncementRepository) List(ctx context.Context, params models.AnnouncementListParams) ([]models.Announcement, int, error) {
	q := r.base()
	if params.Search != "" {
		q = q.Where(searchAny(params.Search, "a.title", "a.content"))
	}
	q = whereEq(q, "a.audience", params.Audience)
	q = whereEq(q, "a.priority", params.Priority)
	q = whereEq(q, "a.department", params.Department)

	rows, total, err := selectPage[models.Announcement](ctx, r.db, q, announcementColumns, announcementOrder, params.ListParams)
	if err != nil {
		return nil, 0, fmt.Errorf("list announcements: %w", err)
	}
	return rows, total, nil
}

// ListForAudience returns unexpired announcements addressed to everyone, to
// audience, or to department.
func (r *AnnouncementRepository) ListForAudience(ctx context.Context, audience models.AnnouncementAudience, department string, limit int) ([]models.Announcement, error) {
	visible := squirrel.Or{squirrel.Eq{"a.audience": models.AnnouncementAudienceAll}}
	if audience != models.AnnouncementAudienceAll {
		visible = append(visible, squirrel.Eq{"a.audience": audience})
	}
	if department != "" {
		visible = append(visible, squirrel.And{
			squirrel.Eq{"a.audience": models.AnnouncementAudienceDepartment},
			squirrel.Eq{"a.department": department},
		})
	}
	q := r.base().Columns(announcementColumns...).
		Where(visible).
		Where("(a.expires_at IS NULL OR a.expires_at > ?)", time.Now().UTC()).
		OrderBy(announcementOrder...)
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build announcement feed: %w", err)
	}
	announcements := []models.Announcement{}
	if err := r.db.SelectContext(ctx, &announcements, query, args...); err != nil {
		return nil, fmt.Errorf("announcement feed: %w", err)
	}
	return announcements, nil
}

// Create persists a new announcement.
func (r *AnnouncementRepository) Create(ctx context.Context, announcement *models.Announcement) error {
	if announcement.ID == "" {
		announcement.ID = uuid.NewString()
	}
	if announcement.CreatedAt.IsZero() {
		announcement.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO announcements (id, title, content, priority, audience, department, is_pinned, views, expires_at, created_by, created_at)
        VALUES (:id, :title, :content, :priority, :audience, :department, :is_pinned, :views, :expires_at, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, announcement); err != nil {
		return fmt.Errorf("create announcement: %w", err)
	}
	return nil
}
