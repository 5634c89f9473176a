package models

import "time"

// LeaveStatus captures the lifecycle states of a leave request.
type LeaveStatus string

const (
	LeaveStatusPending      LeaveStatus = "PENDING"
	LeaveStatusApproved     LeaveStatus = "APPROVED"
	LeaveStatusDeclined     LeaveStatus = "DECLINED"
	LeaveStatusPendingAdmin LeaveStatus = "PENDING_ADMIN"
)

// Valid reports whether the status is a known lifecycle state.
func (s LeaveStatus) Valid() bool {
	switch s {
	case LeaveStatusPending, LeaveStatusApproved, LeaveStatusDeclined, LeaveStatusPendingAdmin:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s LeaveStatus) Terminal() bool {
	return s == LeaveStatusApproved || s == LeaveStatusDeclined
}

// LeaveDateLayout is the wire format for leave calendar dates.
const LeaveDateLayout = "2006-01-02"

// LeaveRequest is a student's request for absence. Requests are never deleted.
type LeaveRequest struct {
	ID                 string      `db:"id" json:"id"`
	StudentID          string      `db:"student_id" json:"student_id"`
	StudentName        string      `db:"student_name" json:"student_name,omitempty"`
	ClassName          string      `db:"class_name" json:"class_name,omitempty"`
	StartDate          time.Time   `db:"start_date" json:"start_date"`
	EndDate            time.Time   `db:"end_date" json:"end_date"`
	Reason             string      `db:"reason" json:"reason"`
	Emergency          bool        `db:"emergency" json:"emergency"`
	Status             LeaveStatus `db:"status" json:"status"`
	CoordinatorID      *string     `db:"coordinator_id" json:"coordinator_id,omitempty"`
	CoordinatorComment *string     `db:"coordinator_comment" json:"coordinator_comment,omitempty"`
	AdminID            *string     `db:"admin_id" json:"admin_id,omitempty"`
	AdminComment       *string     `db:"admin_comment" json:"admin_comment,omitempty"`
	CreatedAt          time.Time   `db:"created_at" json:"created_at"`
	DecidedAt          *time.Time  `db:"decided_at" json:"decided_at,omitempty"`
}

// LeaveFilter constrains institution-wide listing queries.
type LeaveFilter struct {
	Section   string
	Date      *time.Time
	Status    []LeaveStatus
	Emergency *bool
	Limit     int
	Offset    int
}

// LeaveClassFilter constrains class-scoped listing queries. SubmittedOn matches the creation day, not the leave period.
type LeaveClassFilter struct {
	ClassName   string
	Status      []LeaveStatus
	SubmittedOn *time.Time
}

// LeaveStats summarises quota usage and eligibility for one student.
type LeaveStats struct {
	StudentID                string   `json:"student_id"`
	MonthlyQuota             int      `json:"monthly_quota"`
	LeavesUsedThisMonth      int      `json:"leaves_used_this_month"`
	LeavesRemainingThisMonth int      `json:"leaves_remaining_this_month"`
	TotalApproved            int      `json:"total_approved"`
	TotalPending             int      `json:"total_pending"`
	AttendancePercentage     *float64 `json:"attendance_percentage"`
	LowAttendance            bool     `json:"low_attendance"`
}

// StudentLeaveSummary aggregates request outcomes for one student of a class.
type StudentLeaveSummary struct {
	StudentID  string `db:"student_id" json:"student_id"`
	FullName   string `db:"full_name" json:"full_name"`
	RollNumber string `db:"roll_number" json:"roll_number"`
	Approved   int    `db:"approved" json:"approved"`
	Pending    int    `db:"pending" json:"pending"`
	Declined   int    `db:"declined" json:"declined"`
}
