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

var facultyDetailColumns = []string{
	"f.id", "f.user_id", "f.employee_id", "f.department", "f.designation", "f.qualification",
	"f.specialization", "f.experience_years", "f.joining_date", "f.status", "f.created_at",
	`u.id AS "user.id"`, `u.email AS "user.email"`, `u.full_name AS "user.full_name"`,
	`u.phone AS "user.phone"`, `u.avatar_url AS "user.avatar_url"`, `u.is_active AS "user.is_active"`,
}

// FacultyRepository manages persistence for faculty records.
type FacultyRepository struct {
	db *sqlx.DB
}

// NewFacultyRepository constructs a FacultyRepository.
func NewFacultyRepository(db *sqlx.DB) *FacultyRepository {
	return &FacultyRepository{db: db}
}

func (r *FacultyRepository) base() squirrel.SelectBuilder {
	return psql.Select().From("faculty f").Join("users u ON u.id = f.user_id")
}

// List returns a page of faculty matching the provided filters.
func (r *FacultyRepository) List(ctx context.Context, params models.ListParams) ([]models.FacultyDetail, int, error) {
	q := r.base()
	if params.Search != "" {
		q = q.Where(searchAny(params.Search, "u.full_name", "u.email", "f.employee_id"))
	}
	q = whereEq(q, "f.department", params.Department)
	q = whereEq(q, "f.status", params.Status)

	rows, total, err := selectPage[models.FacultyDetail](ctx, r.db, q, facultyDetailColumns, []string{"f.created_at DESC"}, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list faculty: %w", err)
	}
	return rows, total, nil
}

// FindByID fetches a faculty detail by ID.
func (r *FacultyRepository) FindByID(ctx context.Context, id string) (*models.FacultyDetail, error) {
	return r.findOne(ctx, "f.id", id)
}

// FindByUserID fetches the faculty row owned by a profile.
func (r *FacultyRepository) FindByUserID(ctx context.Context, userID string) (*models.FacultyDetail, error) {
	return r.findOne(ctx, "f.user_id", userID)
}

func (r *FacultyRepository) findOne(ctx context.Context, column, value string) (*models.FacultyDetail, error) {
	query, args, err := r.base().Columns(facultyDetailColumns...).Where(squirrel.Eq{column: value}).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build faculty query: %w", err)
	}
	var detail models.FacultyDetail
	if err := r.db.GetContext(ctx, &detail, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find faculty: %w", err)
	}
	return &detail, nil
}

// ExistsByEmployeeID reports whether an employee ID is taken.
func (r *FacultyRepository) ExistsByEmployeeID(ctx context.Context, employeeID string) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, `SELECT 1 FROM faculty WHERE employee_id = $1 LIMIT 1`, employeeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check employee id: %w", err)
	}
	return true, nil
}

// Create inserts a new faculty record.
func (r *FacultyRepository) Create(ctx context.Context, faculty *models.Faculty) error {
	if faculty.ID == "" {
		faculty.ID = uuid.NewString()
	}
	if faculty.CreatedAt.IsZero() {
		faculty.CreatedAt = time.Now().UTC()
	}
	if faculty.Status == "" {
		faculty.Status = models.FacultyStatusActive
	}
	const query = `INSERT INTO faculty (id, user_id, employee_id, department, designation, qualification, specialization, experience_years, joining_date, status, created_at)
        VALUES (:id, :user_id, :employee_id, :department, :designation, :qualification, :specialization, :experience_years, :joining_date, :status, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, faculty); err != nil {
		return mapWriteError(err, "create faculty")
	}
	return nil
}

// Count returns the number of faculty rows.
func (r *FacultyRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM faculty`); err != nil {
		return 0, fmt.Errorf("count faculty: %w", err)
	}
	return total, nil
}
