package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-leave-api/internal/models"
)

const leaveSelect = `SELECT lr.id, lr.student_id, u.full_name AS student_name, s.class_name, lr.start_date, lr.end_date,
       lr.reason, lr.emergency, lr.status, lr.coordinator_id, lr.coordinator_comment, lr.admin_id, lr.admin_comment,
       lr.created_at, lr.decided_at
	FROM leave_requests lr
	JOIN students s ON s.id = lr.student_id
	JOIN users u ON u.id = s.id`

// LeaveRequestRepository persists leave requests.
type LeaveRequestRepository struct {
	db *sqlx.DB
}

// NewLeaveRequestRepository constructs the repository.
func NewLeaveRequestRepository(db *sqlx.DB) *LeaveRequestRepository {
	return &LeaveRequestRepository{db: db}
}

// Create inserts a new leave request row.
func (r *LeaveRequestRepository) Create(ctx context.Context, leave *models.LeaveRequest) error {
	if leave.ID == "" {
		leave.ID = uuid.NewString()
	}
	if leave.Status == "" {
		leave.Status = models.LeaveStatusPending
	}
	if leave.CreatedAt.IsZero() {
		leave.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO leave_requests
	(id, student_id, start_date, end_date, reason, emergency, status, coordinator_id, coordinator_comment, admin_id, admin_comment, created_at, decided_at)
	VALUES (:id, :student_id, :start_date, :end_date, :reason, :emergency, :status, :coordinator_id, :coordinator_comment, :admin_id, :admin_comment, :created_at, :decided_at)`
	if _, err := r.db.NamedExecContext(ctx, query, leave); err != nil {
		return fmt.Errorf("create leave request: %w", err)
	}
	return nil
}

// GetByID fetches a leave request with its student context.
func (r *LeaveRequestRepository) GetByID(ctx context.Context, id string) (*models.LeaveRequest, error) {
	var leave models.LeaveRequest
	if err := r.db.GetContext(ctx, &leave, leaveSelect+` WHERE lr.id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get leave request: %w", err)
	}
	return &leave, nil
}

// ListByStudent returns a student's requests, newest first.
func (r *LeaveRequestRepository) ListByStudent(ctx context.Context, studentID string) ([]models.LeaveRequest, error) {
	var leaves []models.LeaveRequest
	if err := r.db.SelectContext(ctx, &leaves, leaveSelect+` WHERE lr.student_id = $1 ORDER BY lr.created_at DESC`, studentID); err != nil {
		return nil, fmt.Errorf("list student leave requests: %w", err)
	}
	return leaves, nil
}

// ListByClass returns requests of students in a class, newest first.
func (r *LeaveRequestRepository) ListByClass(ctx context.Context, filter models.LeaveClassFilter) ([]models.LeaveRequest, error) {
	args := []interface{}{filter.ClassName}
	conditions := []string{"LOWER(s.class_name) = LOWER($1)"}
	conditions, args = appendStatusCondition(conditions, args, filter.Status)
	if filter.SubmittedOn != nil {
		dayStart := truncateDay(*filter.SubmittedOn)
		args = append(args, dayStart, dayStart.AddDate(0, 0, 1))
		conditions = append(conditions, fmt.Sprintf("lr.created_at >= $%d AND lr.created_at < $%d", len(args)-1, len(args)))
	}

	query := leaveSelect + " WHERE " + strings.Join(conditions, " AND ") + " ORDER BY lr.created_at DESC"
	var leaves []models.LeaveRequest
	if err := r.db.SelectContext(ctx, &leaves, query, args...); err != nil {
		return nil, fmt.Errorf("list class leave requests: %w", err)
	}
	return leaves, nil
}

// List returns requests across the institution matching the filter. A zero Limit returns every match.
func (r *LeaveRequestRepository) List(ctx context.Context, filter models.LeaveFilter) ([]models.LeaveRequest, error) {
	where, args := leaveFilterWhere(filter)
	query := leaveSelect + where + " ORDER BY lr.created_at DESC"
	if filter.Limit > 0 {
		limit := filter.Limit
		if limit > maxLeavePageSize {
			limit = maxLeavePageSize
		}
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
	}

	var leaves []models.LeaveRequest
	if err := r.db.SelectContext(ctx, &leaves, query, args...); err != nil {
		return nil, fmt.Errorf("list leave requests: %w", err)
	}
	return leaves, nil
}

// Count returns how many requests match the filter, ignoring Limit and Offset.
func (r *LeaveRequestRepository) Count(ctx context.Context, filter models.LeaveFilter) (int, error) {
	where, args := leaveFilterWhere(filter)
	query := `SELECT COUNT(*) FROM leave_requests lr JOIN students s ON s.id = lr.student_id` + where
	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("count leave requests: %w", err)
	}
	return total, nil
}

const maxLeavePageSize = 500

func leaveFilterWhere(filter models.LeaveFilter) (string, []interface{}) {
	args := make([]interface{}, 0, 6)
	conditions := make([]string, 0, 4)
	if section := strings.TrimSpace(filter.Section); section != "" {
		args = append(args, "%"+strings.ToLower(section)+"%")
		conditions = append(conditions, fmt.Sprintf("LOWER(s.class_name) LIKE $%d", len(args)))
	}
	if filter.Date != nil {
		args = append(args, truncateDay(*filter.Date))
		conditions = append(conditions, fmt.Sprintf("$%d BETWEEN lr.start_date AND lr.end_date", len(args)))
	}
	conditions, args = appendStatusCondition(conditions, args, filter.Status)
	if filter.Emergency != nil {
		args = append(args, *filter.Emergency)
		conditions = append(conditions, fmt.Sprintf("lr.emergency = $%d", len(args)))
	}
	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// LeaveDecisionParams groups the columns written by a decision.
type LeaveDecisionParams struct {
	ID                 string
	ExpectedStatus     models.LeaveStatus
	Status             models.LeaveStatus
	DecidedAt          time.Time
	CoordinatorID      *string
	CoordinatorComment *string
	AdminID            *string
	AdminComment       *string
}

// UpdateDecision writes a decision only while the row is still in ExpectedStatus.
// It returns sql.ErrNoRows when another writer got there first or the row does not exist.
func (r *LeaveRequestRepository) UpdateDecision(ctx context.Context, params LeaveDecisionParams) error {
	setParts := []string{"status = :status", "decided_at = :decided_at"}
	if params.CoordinatorID != nil {
		setParts = append(setParts, "coordinator_id = :coordinator_id", "coordinator_comment = :coordinator_comment")
	}
	if params.AdminID != nil {
		setParts = append(setParts, "admin_id = :admin_id", "admin_comment = :admin_comment")
	}
	query := fmt.Sprintf("UPDATE leave_requests SET %s WHERE id = :id AND status = :expected_status", strings.Join(setParts, ", "))
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":                  params.ID,
		"expected_status":     params.ExpectedStatus,
		"status":              params.Status,
		"decided_at":          params.DecidedAt,
		"coordinator_id":      params.CoordinatorID,
		"coordinator_comment": params.CoordinatorComment,
		"admin_id":            params.AdminID,
		"admin_comment":       params.AdminComment,
	})
	if err != nil {
		return fmt.Errorf("update leave decision: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check leave decision rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SummaryByClass counts request outcomes per student of a class.
func (r *LeaveRequestRepository) SummaryByClass(ctx context.Context, className string) ([]models.StudentLeaveSummary, error) {
	const query = `SELECT s.id AS student_id, u.full_name, s.roll_number,
       COUNT(lr.id) FILTER (WHERE lr.status = 'APPROVED') AS approved,
       COUNT(lr.id) FILTER (WHERE lr.status IN ('PENDING', 'PENDING_ADMIN')) AS pending,
       COUNT(lr.id) FILTER (WHERE lr.status = 'DECLINED') AS declined
	FROM students s
	JOIN users u ON u.id = s.id
	LEFT JOIN leave_requests lr ON lr.student_id = s.id
	WHERE LOWER(s.class_name) = LOWER($1)
	GROUP BY s.id, u.full_name, s.roll_number
	ORDER BY s.roll_number`
	var summary []models.StudentLeaveSummary
	if err := r.db.SelectContext(ctx, &summary, query, className); err != nil {
		return nil, fmt.Errorf("summarise class leave requests: %w", err)
	}
	return summary, nil
}

func appendStatusCondition(conditions []string, args []interface{}, statuses []models.LeaveStatus) ([]string, []interface{}) {
	if len(statuses) == 0 {
		return conditions, args
	}
	placeholders := make([]string, len(statuses))
	for i, status := range statuses {
		args = append(args, status)
		placeholders[i] = fmt.Sprintf("$%d", len(args))
	}
	return append(conditions, fmt.Sprintf("lr.status IN (%s)", strings.Join(placeholders, ","))), args
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
