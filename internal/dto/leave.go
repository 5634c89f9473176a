package dto

import "github.com/noah-isme/sma-leave-api/internal/models"

// ApplyLeaveRequest is the payload a student submits to request leave.
type ApplyLeaveRequest struct {
	StartDate string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"endDate" validate:"required,datetime=2006-01-02"`
	Reason    string `json:"reason" validate:"required,max=1000"`
	Emergency bool   `json:"emergency"`
}

// DecideLeaveRequest captures a coordinator or admin decision.
type DecideLeaveRequest struct {
	Outcome models.LeaveStatus `json:"outcome" validate:"required,oneof=APPROVED DECLINED"`
	Comment string             `json:"comment" validate:"max=1000"`
}

// LeaveClassQuery mirrors the class listing filters.
type LeaveClassQuery struct {
	Status      []models.LeaveStatus
	SubmittedOn string
}

// LeaveListQuery mirrors the institution-wide listing filters.
type LeaveListQuery struct {
	Section   string
	Date      string
	Status    []models.LeaveStatus
	Emergency *bool
	Page      int
	PageSize  int
}
