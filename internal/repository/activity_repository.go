package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/osms-api/internal/models"
)

// ActivityRepository persists the activity feed.
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository constructs an ActivityRepository.
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Create inserts an activity entry.
func (r *ActivityRepository) Create(ctx context.Context, entry *models.ActivityLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.Metadata == nil {
		entry.Metadata = models.Metadata{}
	}
	const query = `INSERT INTO activity_logs (id, user_id, action, description, metadata, created_at)
        VALUES (:id, :user_id, :action, :description, :metadata, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create activity log: %w", err)
	}
	return nil
}

// Recent returns the newest entries with their actor.
func (r *ActivityRepository) Recent(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	if limit <= 0 {
		limit = models.DefaultActivityLimit
	}
	const query = `SELECT l.id, l.user_id, l.action, l.description, l.metadata, l.created_at,
        u.full_name AS user_full_name, u.avatar_url AS user_avatar_url
        FROM activity_logs l LEFT JOIN users u ON u.id = l.user_id
        ORDER BY l.created_at DESC LIMIT $1`
	entries := []models.ActivityLog{}
	if err := r.db.SelectContext(ctx, &entries, query, limit); err != nil {
		return nil, fmt.Errorf("recent activity: %w", err)
	}
	return entries, nil
}
