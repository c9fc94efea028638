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

// AttendanceRepository manages attendance marks.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs an AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Upsert records marks inside one transaction, replacing any existing mark
// for the same student, course and date.
func (r *AttendanceRepository) Upsert(ctx context.Context, records []models.Attendance) (err error) {
	if len(records) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin attendance tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO attendance (id, student_id, course_id, date, status, remarks, marked_by, created_at)
        VALUES (:id, :student_id, :course_id, :date, :status, :remarks, :marked_by, :created_at)
        ON CONFLICT (student_id, course_id, date) DO UPDATE SET status = EXCLUDED.status, remarks = EXCLUDED.remarks, marked_by = EXCLUDED.marked_by`
	now := time.Now().UTC()
	for i := range records {
		if records[i].ID == "" {
			records[i].ID = uuid.NewString()
		}
		if records[i].CreatedAt.IsZero() {
			records[i].CreatedAt = now
		}
		if _, err = tx.NamedExecContext(ctx, query, records[i]); err != nil {
			return fmt.Errorf("upsert attendance: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit attendance: %w", err)
	}
	return nil
}

// ListByCourse returns the marks of a course, newest first.
func (r *AttendanceRepository) ListByCourse(ctx context.Context, filter models.AttendanceFilter) ([]models.Attendance, error) {
	q := psql.Select("id", "student_id", "course_id", "date", "status", "remarks", "marked_by", "created_at").
		From("attendance").
		Where(squirrel.Eq{"course_id": filter.CourseID})
	if filter.From != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.From})
	}
	if filter.To != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.To})
	}
	query, args, err := q.OrderBy("date DESC", "student_id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build attendance query: %w", err)
	}
	records := []models.Attendance{}
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return records, nil
}

// CountsByStudent tallies a student's marks per enrolled course.
func (r *AttendanceRepository) CountsByStudent(ctx context.Context, studentID string) ([]models.AttendanceCount, error) {
	const query = `SELECT c.id AS course_id, c.name AS course_name, c.code AS course_code,
        COUNT(a.id) AS total,
        COUNT(a.id) FILTER (WHERE a.status = 'present') AS present,
        COUNT(a.id) FILTER (WHERE a.status = 'absent') AS absent,
        COUNT(a.id) FILTER (WHERE a.status = 'late') AS late,
        COUNT(a.id) FILTER (WHERE a.status = 'excused') AS excused
        FROM enrollments e
        JOIN courses c ON c.id = e.course_id
        LEFT JOIN attendance a ON a.course_id = c.id AND a.student_id = e.student_id
        WHERE e.student_id = $1 AND e.status = $2
        GROUP BY c.id, c.name, c.code
        ORDER BY c.code ASC`
	counts := []models.AttendanceCount{}
	if err := r.db.SelectContext(ctx, &counts, query, studentID, models.EnrollmentStatusEnrolled); err != nil {
		return nil, fmt.Errorf("attendance counts: %w", err)
	}
	return counts, nil
}
