package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/noah-isme/sma-leave-api/internal/models"
	appErrors "github.com/noah-isme/sma-leave-api/pkg/errors"
)

type userLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// classAccess centralises the per-class authorization rules shared by the leave, roster and report services.
type classAccess struct {
	users userLookup
}

func sameClass(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// coordinator loads the acting coordinator and checks that the account is usable.
func (a classAccess) coordinator(ctx context.Context, actor models.Actor) (*models.User, error) {
	user, err := a.users.FindByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "coordinator not found")
		}
		return nil, appErrors.Internal(err, "failed to load coordinator")
	}
	if user.Role != models.RoleCoordinator {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "account is not a coordinator")
	}
	if !user.Approved {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "coordinator account is awaiting approval")
	}
	return user, nil
}

// admin loads the acting admin and verifies the stored role.
func (a classAccess) admin(ctx context.Context, actor models.Actor) (*models.User, error) {
	user, err := a.users.FindByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "admin not found")
		}
		return nil, appErrors.Internal(err, "failed to load admin")
	}
	if user.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "account is not an admin")
	}
	return user, nil
}

// requireAdmin rejects non-admin actors.
func (a classAccess) requireAdmin(ctx context.Context, actor models.Actor) error {
	if actor.Role != models.RoleAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "admin role required")
	}
	_, err := a.admin(ctx, actor)
	return err
}

// authorizeClass allows admins and the coordinator assigned to className.
func (a classAccess) authorizeClass(ctx context.Context, actor models.Actor, className string) error {
	switch actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleCoordinator:
		coordinator, err := a.coordinator(ctx, actor)
		if err != nil {
			return err
		}
		if coordinator.AssignedClass == nil || !sameClass(*coordinator.AssignedClass, className) {
			return appErrors.Clone(appErrors.ErrForbidden, "coordinator is not assigned to this class")
		}
		return nil
	default:
		return appErrors.Clone(appErrors.ErrForbidden, "class access requires coordinator or admin role")
	}
}

// authorizeStudent allows the student themself, the coordinator of their class and admins.
func (a classAccess) authorizeStudent(ctx context.Context, actor models.Actor, student *models.Student) error {
	if actor.Role == models.RoleStudent {
		if actor.UserID != student.ID {
			return appErrors.Clone(appErrors.ErrForbidden, "students may only access their own records")
		}
		return nil
	}
	return a.authorizeClass(ctx, actor, student.ClassName)
}
