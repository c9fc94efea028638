package models

import "time"

// AssessmentType classifies a graded piece of work.
type AssessmentType string

const (
	AssessmentQuiz       AssessmentType = "quiz"
	AssessmentAssignment AssessmentType = "assignment"
	AssessmentMidterm    AssessmentType = "midterm"
	AssessmentFinal      AssessmentType = "final"
	AssessmentProject    AssessmentType = "project"
	AssessmentPractical  AssessmentType = "practical"
)

// Grade is a single assessment result.
type Grade struct {
	ID             string         `db:"id" json:"id"`
	StudentID      string         `db:"student_id" json:"student_id"`
	CourseID       string         `db:"course_id" json:"course_id"`
	AssessmentType AssessmentType `db:"assessment_type" json:"assessment_type"`
	AssessmentName string         `db:"assessment_name" json:"assessment_name"`
	MarksObtained  float64        `db:"marks_obtained" json:"marks_obtained"`
	MaxMarks       float64        `db:"max_marks" json:"max_marks"`
	Weightage      float64        `db:"weightage" json:"weightage"`
	GradedBy       string         `db:"graded_by" json:"graded_by"`
	GradedAt       time.Time      `db:"graded_at" json:"graded_at"`
	Remarks        *string        `db:"remarks" json:"remarks,omitempty"`
}

// GradeTotal is the per course sum of marks for a student.
type GradeTotal struct {
	CourseID      string  `db:"course_id" json:"course_id"`
	CourseCode    string  `db:"course_code" json:"course_code"`
	CourseName    string  `db:"course_name" json:"course_name"`
	Credits       int     `db:"credits" json:"credits"`
	TotalMarks    float64 `db:"total_marks" json:"total_marks"`
	ObtainedMarks float64 `db:"obtained_marks" json:"obtained_marks"`
}

// GradeSummary is a GradeTotal graded on the letter scale.
type GradeSummary struct {
	GradeTotal
	Percentage  float64 `json:"percentage"`
	Grade       string  `json:"grade"`
	GradePoints float64 `json:"grade_points"`
}

// GradeReport aggregates course summaries with a credit weighted CGPA.
type GradeReport struct {
	Courses      []GradeSummary `json:"courses"`
	TotalCredits int            `json:"total_credits"`
	CGPA         float64        `json:"cgpa"`
}

// Valid reports whether the assessment type is known.
func (t AssessmentType) Valid() bool {
	switch t {
	case AssessmentQuiz, AssessmentAssignment, AssessmentMidterm, AssessmentFinal, AssessmentProject, AssessmentPractical:
		return true
	}
	return false
}

var letterScale = []struct {
	min    float64
	letter string
	points float64
}{
	{90, "A+", 10},
	{80, "A", 9},
	{70, "B+", 8},
	{60, "B", 7},
	{50, "C", 6},
	{40, "D", 5},
}

// LetterGrade maps a percentage onto the letter scale and its grade points.
func LetterGrade(percentage float64) (string, float64) {
	for _, step := range letterScale {
		if percentage >= step.min {
			return step.letter, step.points
		}
	}
	return "F", 0
}
