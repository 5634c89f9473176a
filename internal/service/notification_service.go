package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-leave-api/internal/models"
	appErrors "github.com/noah-isme/sma-leave-api/pkg/errors"
)

type notificationStore interface {
	ListByRecipient(ctx context.Context, userID string) ([]models.Notification, error)
	GetByID(ctx context.Context, id string) (*models.Notification, error)
	MarkRead(ctx context.Context, id string) error
	DeleteByRecipient(ctx context.Context, userID string) (int64, error)
	CountUnread(ctx context.Context, userID string) (int, error)
}

// NotificationService exposes the pull-based inbox of the acting user.
type NotificationService struct {
	repo   notificationStore
	logger *zap.Logger
}

// NewNotificationService constructs the service.
func NewNotificationService(repo notificationStore, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, logger: logger}
}

// List returns the actor's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, actor models.Actor) ([]models.Notification, error) {
	items, err := s.repo.ListByRecipient(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list notifications")
	}
	return items, nil
}

// MarkRead flags one of the actor's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, actor models.Actor, id string) (*models.Notification, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return nil, appErrors.Internal(err, "failed to load notification")
	}
	if n.RecipientUserID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "notification belongs to another user")
	}
	if n.Read {
		return n, nil
	}
	if err := s.repo.MarkRead(ctx, id); err != nil {
		return nil, appErrors.Internal(err, "failed to mark notification read")
	}
	n.Read = true
	return n, nil
}

// ClearAll deletes every notification of the actor and returns how many were removed.
func (s *NotificationService) ClearAll(ctx context.Context, actor models.Actor) (int64, error) {
	removed, err := s.repo.DeleteByRecipient(ctx, actor.UserID)
	if err != nil {
		return 0, appErrors.Internal(err, "failed to clear notifications")
	}
	s.logger.Debug("notifications cleared", zap.String("user_id", actor.UserID), zap.Int64("removed", removed))
	return removed, nil
}

// UnreadCount returns the actor's unread total.
func (s *NotificationService) UnreadCount(ctx context.Context, actor models.Actor) (int, error) {
	count, err := s.repo.CountUnread(ctx, actor.UserID)
	if err != nil {
		return 0, appErrors.Internal(err, "failed to count notifications")
	}
	return count, nil
}
