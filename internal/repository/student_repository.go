package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/osms-api/internal/models"
)

var studentDetailColumns = []string{
	"s.id", "s.user_id", "s.enrollment_number", "s.department", "s.year", "s.semester", "s.section",
	"s.date_of_birth", "s.address", "s.guardian_name", "s.guardian_phone", "s.blood_group",
	"s.admission_date", "s.status", "s.created_at",
	`u.id AS "user.id"`, `u.email AS "user.email"`, `u.full_name AS "user.full_name"`,
	`u.phone AS "user.phone"`, `u.avatar_url AS "user.avatar_url"`, `u.is_active AS "user.is_active"`,
}

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

func (r *StudentRepository) base() squirrel.SelectBuilder {
	return psql.Select().From("students s").Join("users u ON u.id = s.user_id")
}

// List returns a page of students matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, params models.ListParams) ([]models.StudentDetail, int, error) {
	q := r.base()
	if params.Search != "" {
		q = q.Where(searchAny(params.Search, "u.full_name", "u.email", "s.enrollment_number"))
	}
	q = whereEq(q, "s.department", params.Department)
	q = whereEq(q, "s.status", params.Status)
	if params.Semester > 0 {
		q = q.Where("s.semester = ?", params.Semester)
	}

	rows, total, err := selectPage[models.StudentDetail](ctx, r.db, q, studentDetailColumns, []string{"s.created_at DESC"}, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}
	return rows, total, nil
}

// ListAll returns every student ordered by enrollment number, for exports.
func (r *StudentRepository) ListAll(ctx context.Context, department, status string) ([]models.StudentDetail, error) {
	q := whereEq(whereEq(r.base(), "s.department", department), "s.status", status)
	query, args, err := q.Columns(studentDetailColumns...).OrderBy("s.enrollment_number ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build export query: %w", err)
	}
	students := []models.StudentDetail{}
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list all students: %w", err)
	}
	return students, nil
}

// FindByID fetches a student detail by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	return r.findOne(ctx, "s.id", id)
}

// FindByUserID fetches the student row owned by a profile.
func (r *StudentRepository) FindByUserID(ctx context.Context, userID string) (*models.StudentDetail, error) {
	return r.findOne(ctx, "s.user_id", userID)
}

func (r *StudentRepository) findOne(ctx context.Context, column, value string) (*models.StudentDetail, error) {
	query, args, err := r.base().Columns(studentDetailColumns...).Where(squirrel.Eq{column: value}).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build student query: %w", err)
	}
	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &detail, nil
}

// ExistsByEnrollmentNumber reports whether an enrollment number is taken.
func (r *StudentRepository) ExistsByEnrollmentNumber(ctx context.Context, number string) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, `SELECT 1 FROM students WHERE enrollment_number = $1 LIMIT 1`, number); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment number: %w", err)
	}
	return true, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	if student.CreatedAt.IsZero() {
		student.CreatedAt = time.Now().UTC()
	}
	if student.Status == "" {
		student.Status = models.StudentStatusActive
	}
	const query = `INSERT INTO students (id, user_id, enrollment_number, department, year, semester, section, date_of_birth, address, guardian_name, guardian_phone, blood_group, admission_date, status, created_at)
        VALUES (:id, :user_id, :enrollment_number, :department, :year, :semester, :section, :date_of_birth, :address, :guardian_name, :guardian_phone, :blood_group, :admission_date, :status, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return mapWriteError(err, "create student")
	}
	return nil
}

// Update modifies the academic columns of a student.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	const query = `UPDATE students SET department = :department, year = :year, semester = :semester, section = :section, date_of_birth = :date_of_birth, address = :address, guardian_name = :guardian_name, guardian_phone = :guardian_phone, blood_group = :blood_group, status = :status WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, student)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return requireAffected(res)
}

// Delete removes a student row.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return requireAffected(res)
}

// Count returns the number of student rows.
func (r *StudentRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM students`); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return total, nil
}
