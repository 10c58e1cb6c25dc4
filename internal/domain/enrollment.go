package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Enrollment is the read-only view of a student's course enrollment,
// joined with the student and course it refers to.
type Enrollment struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	StudentID      uuid.UUID       `json:"student_id" db:"student_id"`
	StudentCode    string          `json:"student_code" db:"student_code"`
	StudentName    string          `json:"student_name" db:"student_name"`
	StudentEmail   string          `json:"student_email" db:"student_email"`
	ParentEmail    string          `json:"parent_email" db:"parent_email"`
	CourseID       uuid.UUID       `json:"course_id" db:"course_id"`
	CourseCode     string          `json:"course_code" db:"course_code"`
	CourseName     string          `json:"course_name" db:"course_name"`
	CourseFee      decimal.Decimal `json:"course_fee" db:"course_fee"`
	Batch          string          `json:"batch" db:"batch"`
	StartDate      time.Time       `json:"start_date" db:"start_date"`
	EndDate        time.Time       `json:"end_date" db:"end_date"`
	DurationMonths int             `json:"duration_months" db:"duration_months"`
}

// Recipients lists the addresses fee notices go to
func (e *Enrollment) Recipients() []string {
	out := make([]string, 0, 2)
	if e.StudentEmail != "" {
		out = append(out, e.StudentEmail)
	}
	if e.ParentEmail != "" && e.ParentEmail != e.StudentEmail {
		out = append(out, e.ParentEmail)
	}
	return out
}
