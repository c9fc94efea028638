package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/osms-api/internal/models"
	appErrors "github.com/noah-isme/osms-api/pkg/errors"
	"github.com/noah-isme/osms-api/pkg/jobs"
)

// ActivityJobType identifies activity log writes on the job queue.
const ActivityJobType = "activity.log"

type activityRepository interface {
	Create(ctx context.Context, entry *models.ActivityLog) error
	Recent(ctx context.Context, limit int) ([]models.ActivityLog, error)
}

type activityEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// ActivityService records and lists the activity feed. Writes go through
// the job queue when one is attached.
type ActivityService struct {
	repo    activityRepository
	queue   activityEnqueuer
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewActivityService constructs an ActivityService.
func NewActivityService(repo activityRepository, metrics *MetricsService, logger *zap.Logger) *ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{repo: repo, metrics: metrics, logger: logger, now: time.Now}
}

// AttachQueue routes subsequent writes through queue.
func (s *ActivityService) AttachQueue(queue activityEnqueuer) {
	s.queue = queue
}

// HandleJob persists a queued activity entry.
func (s *ActivityService) HandleJob(ctx context.Context, job jobs.Job) error {
	entry, ok := job.Payload.(models.ActivityLog)
	if !ok {
		s.logger.Error("unexpected activity payload", zap.String("job_id", job.ID))
		return nil
	}
	return s.repo.Create(ctx, &entry)
}

// Log records an action performed by actorID. It never fails the caller:
// persistence problems are logged.
func (s *ActivityService) Log(ctx context.Context, actorID, action, description string, metadata models.Metadata) {
	if s == nil {
		return
	}
	s.metrics.RecordMutation(action)
	entry := models.ActivityLog{
		Action:      action,
		Description: description,
		Metadata:    metadata,
		CreatedAt:   s.now().UTC(),
	}
	if actorID != "" {
		entry.UserID = &actorID
	}
	if s.queue != nil {
		err := s.queue.Enqueue(jobs.Job{Type: ActivityJobType, Payload: entry})
		if err == nil {
			return
		}
		if !errors.Is(err, jobs.ErrQueueClosed) {
			s.logger.Warn("activity enqueue failed, writing inline", zap.String("action", action), zap.Error(err))
		}
	}
	if err := s.repo.Create(context.WithoutCancel(ctx), &entry); err != nil {
		s.logger.Warn("activity log write failed", zap.String("action", action), zap.Error(err))
	}
}

// Recent returns the newest activity entries.
func (s *ActivityService) Recent(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	if limit <= 0 {
		limit = models.DefaultActivityLimit
	}
	entries, err := s.repo.Recent(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity")
	}
	return entries, nil
}
