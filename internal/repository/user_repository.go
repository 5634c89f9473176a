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

const userColumns = `id, email, full_name, role, assigned_class, approved, created_at, updated_at`

// UserRepository provides database access for accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// ListIDsByRole returns the ids of every account holding the role.
func (r *UserRepository) ListIDsByRole(ctx context.Context, role models.UserRole) ([]string, error) {
	const query = `SELECT id FROM users WHERE role = $1 ORDER BY created_at`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, role); err != nil {
		return nil, fmt.Errorf("list users by role: %w", err)
	}
	return ids, nil
}

// ListCoordinatorIDsByClass returns approved coordinators supervising the class.
func (r *UserRepository) ListCoordinatorIDsByClass(ctx context.Context, className string) ([]string, error) {
	const query = `SELECT id FROM users WHERE role = 'COORDINATOR' AND approved = TRUE AND LOWER(TRIM(assigned_class)) = LOWER(TRIM($1)) ORDER BY created_at`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, className); err != nil {
		return nil, fmt.Errorf("list class coordinators: %w", err)
	}
	return ids, nil
}

// ListCoordinators returns coordinator accounts matching the filter.
func (r *UserRepository) ListCoordinators(ctx context.Context, filter models.CoordinatorFilter) ([]models.User, error) {
	args := []interface{}{models.RoleCoordinator}
	conditions := []string{"role = $1"}
	if filter.Approved != nil {
		args = append(args, *filter.Approved)
		conditions = append(conditions, fmt.Sprintf("approved = $%d", len(args)))
	}
	if class := strings.TrimSpace(filter.Class); class != "" {
		args = append(args, class)
		conditions = append(conditions, fmt.Sprintf("LOWER(TRIM(assigned_class)) = LOWER($%d)", len(args)))
	}
	query := fmt.Sprintf("SELECT %s FROM users WHERE %s ORDER BY full_name", userColumns, strings.Join(conditions, " AND "))

	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, fmt.Errorf("list coordinators: %w", err)
	}
	return users, nil
}

// ApproveCoordinator marks a coordinator account as approved.
func (r *UserRepository) ApproveCoordinator(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE users SET approved = TRUE, updated_at = $2 WHERE id = $1 AND role = 'COORDINATOR'`
	res, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("approve coordinator: %w", err)
	}
	return requireAffected(res)
}

// Upsert inserts or refreshes an account keyed by email.
func (r *UserRepository) Upsert(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	const query = `INSERT INTO users (` + userColumns + `)
	VALUES (:id, :email, :full_name, :role, :assigned_class, :approved, :created_at, :updated_at)
	ON CONFLICT (email) DO UPDATE SET full_name = EXCLUDED.full_name, role = EXCLUDED.role,
		assigned_class = EXCLUDED.assigned_class, approved = EXCLUDED.approved, updated_at = EXCLUDED.updated_at
	RETURNING id`
	rows, err := r.db.NamedQueryContext(ctx, query, user)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&user.ID); err != nil {
			return fmt.Errorf("scan upserted user: %w", err)
		}
	}
	return rows.Err()
}
