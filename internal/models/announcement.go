package models

import "time"

// AnnouncementAudience defines who can see an announcement.
type AnnouncementAudience string

const (
	AnnouncementAudienceAll        AnnouncementAudience = "all"
	AnnouncementAudienceStudents   AnnouncementAudience = "students"
	AnnouncementAudienceFaculty    AnnouncementAudience = "faculty"
	AnnouncementAudienceDepartment AnnouncementAudience = "department"
)

// AnnouncementPriority defines the urgency of an announcement.
type AnnouncementPriority string

const (
	AnnouncementPriorityLow    AnnouncementPriority = "low"
	AnnouncementPriorityNormal AnnouncementPriority = "normal"
	AnnouncementPriorityHigh   AnnouncementPriority = "high"
	AnnouncementPriorityUrgent AnnouncementPriority = "urgent"
)

// Announcement represents a persisted announcement row.
type Announcement struct {
	ID         string               `db:"id" json:"id"`
	Title      string               `db:"title" json:"title"`
	Content    string               `db:"content" json:"content"`
	Priority   AnnouncementPriority `db:"priority" json:"priority"`
	Audience   AnnouncementAudience `db:"audience" json:"audience"`
	Department *string              `db:"department" json:"department,omitempty"`
	IsPinned   bool                 `db:"is_pinned" json:"is_pinned"`
	Views      int                  `db:"views" json:"views"`
	ExpiresAt  *time.Time           `db:"expires_at" json:"expires_at,omitempty"`
	CreatedBy  string               `db:"created_by" json:"created_by"`
	CreatedAt  time.Time            `db:"created_at" json:"created_at"`
	AuthorName *string              `db:"author_name" json:"author_name,omitempty"`
}

// AnnouncementListParams extends ListParams with announcement filters.
type AnnouncementListParams struct {
	ListParams
	Audience string `form:"audience"`
	Priority string `form:"priority"`
}

// CacheScope renders the params as a stable cache key suffix.
func (p AnnouncementListParams) CacheScope() string {
	return p.ListParams.CacheScope() + "&audience=" + p.Audience + "&priority=" + p.Priority
}

// AudienceFor returns the announcement audience matching a role's dashboard.
func AudienceFor(role UserRole) AnnouncementAudience {
	switch role {
	case RoleFaculty:
		return AnnouncementAudienceFaculty
	case RoleStudent:
		return AnnouncementAudienceStudents
	default:
		return AnnouncementAudienceAll
	}
}
