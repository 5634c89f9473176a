package models

import "time"

// UserRole represents the closed set of roles known to the leave workflow.
type UserRole string

const (
	RoleStudent     UserRole = "STUDENT"
	RoleCoordinator UserRole = "COORDINATOR"
	RoleAdmin       UserRole = "ADMIN"
)

// Valid reports whether the role is one of the known variants.
func (r UserRole) Valid() bool {
	switch r {
	case RoleStudent, RoleCoordinator, RoleAdmin:
		return true
	}
	return false
}

// User represents an account stored in the users table. Coordinators carry the class they supervise.
type User struct {
	ID            string    `db:"id" json:"id"`
	Email         string    `db:"email" json:"email"`
	FullName      string    `db:"full_name" json:"full_name"`
	Role          UserRole  `db:"role" json:"role"`
	AssignedClass *string   `db:"assigned_class" json:"assigned_class,omitempty"`
	Approved      bool      `db:"approved" json:"approved"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// CoordinatorFilter narrows coordinator listings.
type CoordinatorFilter struct {
	Approved *bool
	Class    string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
