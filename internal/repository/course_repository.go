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

var courseDetailColumns = []string{
	"c.id", "c.code", "c.name", "c.description", "c.credits", "c.department", "c.semester", "c.year",
	"c.faculty_id", "c.max_students", "c.syllabus", "c.status", "c.created_at",
	"f.employee_id AS faculty_employee_id", "fu.full_name AS faculty_name", "fu.email AS faculty_email",
}

// CourseRepository manages persistence for courses.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

func (r *CourseRepository) base() squirrel.SelectBuilder {
	return psql.Select().From("courses c").
		LeftJoin("faculty f ON f.id = c.faculty_id").
		LeftJoin("users fu ON fu.id = f.user_id")
}

// List returns a page of courses with their instructor.
func (r *CourseRepository) List(ctx context.Context, params models.ListParams) ([]models.CourseDetail, int, error) {
	q := r.base()
	if params.Search != "" {
		q = q.Where(searchAny(params.Search, "c.name", "c.code"))
	}
	q = whereEq(q, "c.department", params.Department)
	q = whereEq(q, "c.status", params.Status)
	if params.Semester > 0 {
		q = q.Where("c.semester = ?", params.Semester)
	}

	rows, total, err := selectPage[models.CourseDetail](ctx, r.db, q, courseDetailColumns, []string{"c.created_at DESC"}, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}
	return rows, total, nil
}

// FindByID fetches a course with its instructor.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.CourseDetail, error) {
	query, args, err := r.base().Columns(courseDetailColumns...).Where(squirrel.Eq{"c.id": id}).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build course query: %w", err)
	}
	var detail models.CourseDetail
	if err := r.db.GetContext(ctx, &detail, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	return &detail, nil
}

// ListByFaculty returns the courses taught by a faculty member.
func (r *CourseRepository) ListByFaculty(ctx context.Context, facultyID string) ([]models.CourseDetail, error) {
	return r.selectCourses(ctx, r.base().Where(squirrel.Eq{"c.faculty_id": facultyID}).OrderBy("c.code ASC"))
}

// ListByStudent returns the courses a student is currently enrolled in.
func (r *CourseRepository) ListByStudent(ctx context.Context, studentID string) ([]models.CourseDetail, error) {
	q := r.base().
		Join("enrollments e ON e.course_id = c.id").
		Where(squirrel.Eq{"e.student_id": studentID, "e.status": models.EnrollmentStatusEnrolled}).
		OrderBy("c.code ASC")
	return r.selectCourses(ctx, q)
}

func (r *CourseRepository) selectCourses(ctx context.Context, q squirrel.SelectBuilder) ([]models.CourseDetail, error) {
	query, args, err := q.Columns(courseDetailColumns...).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build course query: %w", err)
	}
	courses := []models.CourseDetail{}
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, fmt.Errorf("select courses: %w", err)
	}
	return courses, nil
}

// Create inserts a new course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	if course.CreatedAt.IsZero() {
		course.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO courses (id, code, name, description, credits, department, semester, year, faculty_id, max_students, syllabus, status, created_at)
        VALUES (:id, :code, :name, :description, :credits, :department, :semester, :year, :faculty_id, :max_students, :syllabus, :status, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return mapWriteError(err, "create course")
	}
	return nil
}

// CountActive returns the number of active courses.
func (r *CourseRepository) CountActive(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM courses WHERE status = $1`, models.CourseStatusActive); err != nil {
		return 0, fmt.Errorf("count active courses: %w", err)
	}
	return total, nil
}
