package service

import (
	"fmt"

	"github.com/noah-isme/sma-leave-api/internal/models"
	appErrors "github.com/noah-isme/sma-leave-api/pkg/errors"
)

// nextLeaveStatus resolves the status a decision moves a request to.
//
//	PENDING       + coordinator APPROVED (emergency)     -> PENDING_ADMIN
//	PENDING       + coordinator APPROVED (non-emergency) -> APPROVED
//	PENDING       + coordinator DECLINED                 -> DECLINED
//	PENDING_ADMIN + admin APPROVED/DECLINED              -> APPROVED/DECLINED
//
// Everything else is rejected without touching the request.
func nextLeaveStatus(current models.LeaveStatus, role models.UserRole, outcome models.LeaveStatus, emergency bool) (models.LeaveStatus, error) {
	if outcome != models.LeaveStatusApproved && outcome != models.LeaveStatusDeclined {
		return "", appErrors.Clone(appErrors.ErrValidation, "outcome must be APPROVED or DECLINED")
	}

	switch role {
	case models.RoleCoordinator:
		if current != models.LeaveStatusPending {
			return "", invalidTransition(current, role)
		}
		if outcome == models.LeaveStatusApproved && emergency {
			return models.LeaveStatusPendingAdmin, nil
		}
		return outcome, nil
	case models.RoleAdmin:
		if current != models.LeaveStatusPendingAdmin {
			return "", invalidTransition(current, role)
		}
		return outcome, nil
	default:
		return "", appErrors.Clone(appErrors.ErrForbidden, "only coordinators and admins can decide leave requests")
	}
}

func invalidTransition(current models.LeaveStatus, role models.UserRole) error {
	return appErrors.Clone(appErrors.ErrInvalidStateTransition,
		fmt.Sprintf("leave request in status %s cannot be decided by %s", current, role))
}
