package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/osms-api/internal/models"
)

// GradeRepository manages assessment results.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs a GradeRepository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// CreateBatch inserts grades inside one transaction.
func (r *GradeRepository) CreateBatch(ctx context.Context, grades []models.Grade) (err error) {
	if len(grades) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin grade tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO grades (id, student_id, course_id, assessment_type, assessment_name, marks_obtained, max_marks, weightage, graded_by, graded_at, remarks)
        VALUES (:id, :student_id, :course_id, :assessment_type, :assessment_name, :marks_obtained, :max_marks, :weightage, :graded_by, :graded_at, :remarks)`
	now := time.Now().UTC()
	for i := range grades {
		if grades[i].ID == "" {
			grades[i].ID = uuid.NewString()
		}
		if grades[i].GradedAt.IsZero() {
			grades[i].GradedAt = now
		}
		if _, err = tx.NamedExecContext(ctx, query, grades[i]); err != nil {
			return mapWriteError(err, "create grade")
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit grades: %w", err)
	}
	return nil
}

// ListByCourse returns every grade of a course.
func (r *GradeRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Grade, error) {
	const query = `SELECT id, student_id, course_id, assessment_type, assessment_name, marks_obtained, max_marks, weightage, graded_by, graded_at, remarks
        FROM grades WHERE course_id = $1 ORDER BY graded_at DESC, student_id ASC`
	grades := []models.Grade{}
	if err := r.db.SelectContext(ctx, &grades, query, courseID); err != nil {
		return nil, fmt.Errorf("list grades: %w", err)
	}
	return grades, nil
}

// TotalsByStudent sums a student's marks per graded course.
func (r *GradeRepository) TotalsByStudent(ctx context.Context, studentID string) ([]models.GradeTotal, error) {
	const query = `SELECT c.id AS course_id, c.code AS course_code, c.name AS course_name, c.credits,
        COALESCE(SUM(g.max_marks), 0) AS total_marks,
        COALESCE(SUM(g.marks_obtained), 0) AS obtained_marks
        FROM grades g JOIN courses c ON c.id = g.course_id
        WHERE g.student_id = $1
        GROUP BY c.id, c.code, c.name, c.credits
        ORDER BY c.code ASC`
	totals := []models.GradeTotal{}
	if err := r.db.SelectContext(ctx, &totals, query, studentID); err != nil {
		return nil, fmt.Errorf("grade totals: %w", err)
	}
	return totals, nil
}
