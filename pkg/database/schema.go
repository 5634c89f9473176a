package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema is applied in order; every statement is idempotent.
var schema = []struct {
	name  string
	query string
}{
	{"users", `CREATE TABLE IF NOT EXISTS users (
		id             TEXT PRIMARY KEY,
		email          TEXT NOT NULL UNIQUE,
		full_name      TEXT NOT NULL,
		role           TEXT NOT NULL CHECK (role IN ('STUDENT', 'COORDINATOR', 'ADMIN')),
		assigned_class TEXT,
		approved       BOOLEAN NOT NULL DEFAULT FALSE,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`},
	{"students", `CREATE TABLE IF NOT EXISTS students (
		id                    TEXT PRIMARY KEY REFERENCES users (id),
		roll_number           TEXT NOT NULL UNIQUE,
		class_name            TEXT NOT NULL,
		attendance_percentage NUMERIC(5, 2) CHECK (attendance_percentage BETWEEN 0 AND 100),
		created_at            TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at            TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`},
	{"leave_requests", `CREATE TABLE IF NOT EXISTS leave_requests (
		id                  TEXT PRIMARY KEY,
		student_id          TEXT NOT NULL REFERENCES students (id),
		start_date          DATE NOT NULL,
		end_date            DATE NOT NULL,
		reason              TEXT NOT NULL,
		emergency           BOOLEAN NOT NULL DEFAULT FALSE,
		status              TEXT NOT NULL CHECK (status IN ('PENDING', 'APPROVED', 'DECLINED', 'PENDING_ADMIN')),
		coordinator_id      TEXT REFERENCES users (id),
		coordinator_comment TEXT,
		admin_id            TEXT REFERENCES users (id),
		admin_comment       TEXT,
		created_at          TIMESTAMPTZ NOT NULL,
		decided_at          TIMESTAMPTZ,
		CHECK (end_date >= start_date)
	)`},
	{"leave_requests_student_idx", `CREATE INDEX IF NOT EXISTS leave_requests_student_idx ON leave_requests (student_id, created_at DESC)`},
	{"leave_requests_status_idx", `CREATE INDEX IF NOT EXISTS leave_requests_status_idx ON leave_requests (status)`},
	{"notifications", `CREATE TABLE IF NOT EXISTS notifications (
		id                TEXT PRIMARY KEY,
		recipient_user_id TEXT NOT NULL REFERENCES users (id),
		leave_request_id  TEXT REFERENCES leave_requests (id),
		message           TEXT NOT NULL,
		read              BOOLEAN NOT NULL DEFAULT FALSE,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`},
	{"notifications_recipient_idx", `CREATE INDEX IF NOT EXISTS notifications_recipient_idx ON notifications (recipient_user_id, created_at DESC)`},
}

// Migrate creates the tables backing the leave workflow when they are missing.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, step := range schema {
		if _, err := db.ExecContext(ctx, step.query); err != nil {
			return fmt.Errorf("migrate %s: %w", step.name, err)
		}
	}
	return nil
}
