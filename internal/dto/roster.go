package dto

import "github.com/shopspring/decimal"

// UpdateAttendanceRequest sets a student's attendance percentage (0-100).
type UpdateAttendanceRequest struct {
	AttendancePercentage *decimal.Decimal `json:"attendancePercentage" validate:"required"`
}
