package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Activity actions recorded by mutations.
const (
	ActivityStudentCreated      = "student_created"
	ActivityStudentUpdated      = "student_updated"
	ActivityStudentDeleted      = "student_deleted"
	ActivityFacultyCreated      = "faculty_created"
	ActivityCourseCreated       = "course_created"
	ActivityAnnouncementCreated = "announcement_created"
	ActivityEnrollmentCreated   = "enrollment_created"
	ActivityEnrollmentDropped   = "enrollment_dropped"
	ActivityAttendanceMarked    = "attendance_marked"
	ActivityGradeRecorded       = "grade_recorded"
	ActivityUserSignedIn        = "user_signed_in"
	ActivityUserSignedOut       = "user_signed_out"
)

// DefaultActivityLimit bounds the recent activity feed.
const DefaultActivityLimit = 10

// Metadata is a free-form JSON object stored in a jsonb column.
type Metadata map[string]interface{}

// Value implements driver.Valuer.
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *Metadata) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*m = Metadata{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("metadata: unsupported type %T", src)
	}
	if len(raw) == 0 {
		*m = Metadata{}
		return nil
	}
	out := Metadata{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*m = out
	return nil
}

// ActivityLog is a single entry of the audit feed.
type ActivityLog struct {
	ID          string    `db:"id" json:"id"`
	UserID      *string   `db:"user_id" json:"user_id,omitempty"`
	Action      string    `db:"action" json:"action"`
	Description string    `db:"description" json:"description"`
	Metadata    Metadata  `db:"metadata" json:"metadata"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UserName    *string   `db:"user_full_name" json:"user_full_name,omitempty"`
	UserAvatar  *string   `db:"user_avatar_url" json:"user_avatar_url,omitempty"`
}
