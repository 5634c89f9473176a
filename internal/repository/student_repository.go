package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/sma-leave-api/internal/models"
)

const studentSelect = `SELECT s.id, u.email, u.full_name, s.roll_number, s.class_name, s.attendance_percentage, u.approved, s.created_at, s.updated_at
	FROM students s
	JOIN users u ON u.id = s.id`

// StudentRepository manages persistence for student profiles.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID returns a student profile joined with its account.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	var student models.Student
	if err := r.db.GetContext(ctx, &student, studentSelect+` WHERE s.id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &student, nil
}

// ListByClass returns the students of a class ordered by roll number.
func (r *StudentRepository) ListByClass(ctx context.Context, filter models.StudentFilter) ([]models.Student, error) {
	args := []interface{}{strings.TrimSpace(filter.ClassName)}
	conditions := []string{"LOWER(s.class_name) = LOWER($1)"}
	if filter.Approved != nil {
		args = append(args, *filter.Approved)
		conditions = append(conditions, fmt.Sprintf("u.approved = $%d", len(args)))
	}
	query := fmt.Sprintf("%s WHERE %s ORDER BY s.roll_number", studentSelect, strings.Join(conditions, " AND "))

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list class students: %w", err)
	}
	return students, nil
}

// Approve marks the student's account as approved.
func (r *StudentRepository) Approve(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE users SET approved = TRUE, updated_at = $2 WHERE id = $1 AND role = 'STUDENT'`
	res, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("approve student: %w", err)
	}
	return requireAffected(res)
}

// UpdateAttendance stores a new attendance percentage.
func (r *StudentRepository) UpdateAttendance(ctx context.Context, id string, percentage decimal.Decimal, at time.Time) error {
	const query = `UPDATE students SET attendance_percentage = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, percentage, at)
	if err != nil {
		return fmt.Errorf("update attendance: %w", err)
	}
	return requireAffected(res)
}

// Create inserts the student profile row. The account must already exist.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	const query = `INSERT INTO students (id, roll_number, class_name, attendance_percentage, created_at, updated_at)
	VALUES (:id, :roll_number, :class_name, :attendance_percentage, :created_at, :updated_at)
	ON CONFLICT (id) DO NOTHING`
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

func requireAffected(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
