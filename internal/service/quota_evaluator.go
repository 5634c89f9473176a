package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/sma-leave-api/internal/models"
)

// QuotaPolicy holds the institution limits applied when computing leave stats.
type QuotaPolicy struct {
	MonthlyQuota           int
	LowAttendanceThreshold float64
	Location               *time.Location
}

func (p QuotaPolicy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// EvaluateQuota computes a student's monthly usage and attendance flag from their requests.
// Only APPROVED requests starting in the month of now consume quota.
func EvaluateQuota(student *models.Student, requests []models.LeaveRequest, now time.Time, policy QuotaPolicy) models.LeaveStats {
	local := now.In(policy.location())
	year, month := local.Year(), local.Month()

	stats := models.LeaveStats{
		StudentID:    student.ID,
		MonthlyQuota: policy.MonthlyQuota,
	}
	for _, req := range requests {
		switch req.Status {
		case models.LeaveStatusApproved:
			stats.TotalApproved++
			// start_date is a calendar date; compare its own year and month.
			if req.StartDate.Year() == year && req.StartDate.Month() == month {
				stats.LeavesUsedThisMonth++
			}
		case models.LeaveStatusPending, models.LeaveStatusPendingAdmin:
			stats.TotalPending++
		}
	}

	stats.LeavesRemainingThisMonth = policy.MonthlyQuota - stats.LeavesUsedThisMonth
	if stats.LeavesRemainingThisMonth < 0 {
		stats.LeavesRemainingThisMonth = 0
	}

	if student.AttendancePercentage.Valid {
		attendance := student.AttendancePercentage.Decimal
		value := attendance.InexactFloat64()
		stats.AttendancePercentage = &value
		stats.LowAttendance = attendance.LessThan(decimal.NewFromFloat(policy.LowAttendanceThreshold))
	}
	return stats
}

// quotaExhausted reports whether the student has no approved leave left this month.
func quotaExhausted(stats models.LeaveStats) bool {
	return stats.LeavesUsedThisMonth >= stats.MonthlyQuota
}
