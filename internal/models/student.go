package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Student is the learner profile attached to a STUDENT account.
type Student struct {
	ID                   string              `db:"id" json:"id"`
	Email                string              `db:"email" json:"email"`
	FullName             string              `db:"full_name" json:"full_name"`
	RollNumber           string              `db:"roll_number" json:"roll_number"`
	ClassName            string              `db:"class_name" json:"class_name"`
	AttendancePercentage decimal.NullDecimal `db:"attendance_percentage" json:"attendance_percentage"`
	Approved             bool                `db:"approved" json:"approved"`
	CreatedAt            time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time           `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students of a class.
type StudentFilter struct {
	ClassName string
	Approved  *bool
}
