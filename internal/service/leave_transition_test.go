package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-leave-api/internal/models"
	appErrors "github.com/noah-isme/sma-leave-api/pkg/errors"
)

func TestNextLeaveStatusTable(t *testing.T) {
	cases := []struct {
		name      string
		current   models.LeaveStatus
		role      models.UserRole
		outcome   models.LeaveStatus
		emergency bool
		want      models.LeaveStatus
		err       *appErrors.Error
	}{
		{"coordinator approves regular", models.LeaveStatusPending, models.RoleCoordinator, models.LeaveStatusApproved, false, models.LeaveStatusApproved, nil},
		{"coordinator approves emergency", models.LeaveStatusPending, models.RoleCoordinator, models.LeaveStatusApproved, true, models.LeaveStatusPendingAdmin, nil},
		{"coordinator declines emergency", models.LeaveStatusPending, models.RoleCoordinator, models.LeaveStatusDeclined, true, models.LeaveStatusDeclined, nil},
		{"coordinator declines regular", models.LeaveStatusPending, models.RoleCoordinator, models.LeaveStatusDeclined, false, models.LeaveStatusDeclined, nil},
		{"admin approves escalated", models.LeaveStatusPendingAdmin, models.RoleAdmin, models.LeaveStatusApproved, true, models.LeaveStatusApproved, nil},
		{"admin declines escalated", models.LeaveStatusPendingAdmin, models.RoleAdmin, models.LeaveStatusDeclined, true, models.LeaveStatusDeclined, nil},
		{"admin on pending", models.LeaveStatusPending, models.RoleAdmin, models.LeaveStatusApproved, true, "", appErrors.ErrInvalidStateTransition},
		{"coordinator on escalated", models.LeaveStatusPendingAdmin, models.RoleCoordinator, models.LeaveStatusApproved, true, "", appErrors.ErrInvalidStateTransition},
		{"coordinator on approved", models.LeaveStatusApproved, models.RoleCoordinator, models.LeaveStatusDeclined, false, "", appErrors.ErrInvalidStateTransition},
		{"admin on declined", models.LeaveStatusDeclined, models.RoleAdmin, models.LeaveStatusApproved, true, "", appErrors.ErrInvalidStateTransition},
		{"student", models.LeaveStatusPending, models.RoleStudent, models.LeaveStatusApproved, false, "", appErrors.ErrForbidden},
		{"bad outcome", models.LeaveStatusPending, models.RoleCoordinator, models.LeaveStatusPending, false, "", appErrors.ErrValidation},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := nextLeaveStatus(tc.current, tc.role, tc.outcome, tc.emergency)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNextLeaveStatusOnlyEmergencyReachesAdmin(t *testing.T) {
	roles := []models.UserRole{models.RoleCoordinator, models.RoleAdmin}
	outcomes := []models.LeaveStatus{models.LeaveStatusApproved, models.LeaveStatusDeclined}
	states := []models.LeaveStatus{models.LeaveStatusPending, models.LeaveStatusPendingAdmin, models.LeaveStatusApproved, models.LeaveStatusDeclined}
	for _, state := range states {
		for _, role := range roles {
			for _, outcome := range outcomes {
				got, err := nextLeaveStatus(state, role, outcome, false)
				if err == nil {
					assert.NotEqual(t, models.LeaveStatusPendingAdmin, got)
				}
				if outcome == models.LeaveStatusDeclined && err == nil {
					assert.Equal(t, models.LeaveStatusDeclined, got)
				}
			}
		}
	}
}
