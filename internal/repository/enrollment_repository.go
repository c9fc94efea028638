package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/osms-api/internal/models"
)

// EnrollmentRepository manages student course enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs an EnrollmentRepository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// Create inserts an enrollment.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.EnrollmentDate.IsZero() {
		enrollment.EnrollmentDate = time.Now().UTC()
	}
	if enrollment.Status == "" {
		enrollment.Status = models.EnrollmentStatusEnrolled
	}
	const query = `INSERT INTO enrollments (id, student_id, course_id, enrollment_date, status, final_grade)
        VALUES (:id, :student_id, :course_id, :enrollment_date, :status, :final_grade)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return mapWriteError(err, "create enrollment")
	}
	return nil
}

// Find returns the enrollment of a student in a course.
func (r *EnrollmentRepository) Find(ctx context.Context, studentID, courseID string) (*models.Enrollment, error) {
	const query = `SELECT id, student_id, course_id, enrollment_date, status, final_grade FROM enrollments WHERE student_id = $1 AND course_id = $2 LIMIT 1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, studentID, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find enrollment: %w", err)
	}
	return &enrollment, nil
}

// UpdateStatus changes the status of an enrollment.
func (r *EnrollmentRepository) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE enrollments SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update enrollment status: %w", err)
	}
	return requireAffected(res)
}

// CountEnrolled returns the number of active enrollments in a course.
func (r *EnrollmentRepository) CountEnrolled(ctx context.Context, courseID string) (int, error) {
	var total int
	const query = `SELECT COUNT(*) FROM enrollments WHERE course_id = $1 AND status = $2`
	if err := r.db.GetContext(ctx, &total, query, courseID, models.EnrollmentStatusEnrolled); err != nil {
		return 0, fmt.Errorf("count enrollments: %w", err)
	}
	return total, nil
}

// ListByStudent returns every enrollment of a student with its course.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.student_id, e.course_id, e.enrollment_date, e.status, e.final_grade,
        c.code AS course_code, c.name AS course_name, c.credits AS course_credits
        FROM enrollments e JOIN courses c ON c.id = e.course_id
        WHERE e.student_id = $1 ORDER BY e.enrollment_date DESC`
	enrollments := []models.EnrollmentDetail{}
	if err := r.db.SelectContext(ctx, &enrollments, query, studentID); err != nil {
		return nil, fmt.Errorf("list student enrollments: %w", err)
	}
	return enrollments, nil
}

// Roster returns the students enrolled in a course.
func (r *EnrollmentRepository) Roster(ctx context.Context, courseID string) ([]models.CourseRosterEntry, error) {
	const query = `SELECT s.id AS student_id, s.enrollment_number, u.full_name, u.email, e.status
        FROM enrollments e
        JOIN students s ON s.id = e.student_id
        JOIN users u ON u.id = s.user_id
        WHERE e.course_id = $1 AND e.status = $2
        ORDER BY s.enrollment_number ASC`
	roster := []models.CourseRosterEntry{}
	if err := r.db.SelectContext(ctx, &roster, query, courseID, models.EnrollmentStatusEnrolled); err != nil {
		return nil, fmt.Errorf("course roster: %w", err)
	}
	return roster, nil
}

// CountStudentsForFaculty returns distinct students enrolled in a faculty member's courses.
func (r *EnrollmentRepository) CountStudentsForFaculty(ctx context.Context, facultyID string) (int, error) {
	const query = `SELECT COUNT(DISTINCT e.student_id) FROM enrollments e JOIN courses c ON c.id = e.course_id WHERE c.faculty_id = $1 AND e.status = $2`
	var total int
	if err := r.db.GetContext(ctx, &total, query, facultyID, models.EnrollmentStatusEnrolled); err != nil {
		return 0, fmt.Errorf("count faculty students: %w", err)
	}
	return total, nil
}
