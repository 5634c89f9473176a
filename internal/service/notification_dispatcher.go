package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-leave-api/internal/models"
)

type notificationWriter interface {
	Create(ctx context.Context, n *models.Notification) error
}

type recipientDirectory interface {
	ListIDsByRole(ctx context.Context, role models.UserRole) ([]string, error)
	ListCoordinatorIDsByClass(ctx context.Context, className string) ([]string, error)
}

// NotificationDelivery pushes a stored notification to live clients.
type NotificationDelivery interface {
	Deliver(ctx context.Context, n models.Notification)
}

type notificationRecorder interface {
	RecordNotification()
	RecordNotificationFailure(stage string)
}

// NotificationDispatcher turns committed leave transitions into notification rows.
// Failures are logged and counted; they never reach the caller.
type NotificationDispatcher struct {
	store     notificationWriter
	directory recipientDirectory
	delivery  NotificationDelivery
	metrics   notificationRecorder
	logger    *zap.Logger
}

// NewNotificationDispatcher constructs the dispatcher. delivery and metrics may be nil.
func NewNotificationDispatcher(store notificationWriter, directory recipientDirectory, delivery NotificationDelivery, metrics *MetricsService, logger *zap.Logger) *NotificationDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &NotificationDispatcher{
		store:     store,
		directory: directory,
		delivery:  delivery,
		metrics:   noopNotificationRecorder{},
		logger:    logger,
	}
	if metrics != nil {
		d.metrics = metrics
	}
	return d
}

// LeaveSubmitted notifies the approved coordinators of the student's class.
func (d *NotificationDispatcher) LeaveSubmitted(ctx context.Context, leave *models.LeaveRequest) {
	coordinators, err := d.directory.ListCoordinatorIDsByClass(ctx, leave.ClassName)
	if err != nil {
		d.metrics.RecordNotificationFailure("store")
		d.logger.Warn("resolve class coordinators failed", zap.String("leave_id", leave.ID), zap.Error(err))
		return
	}
	message := fmt.Sprintf("New %sleave request from %s (%s) for %s: %s",
		emergencyLabel(leave.Emergency), displayName(leave), leave.ClassName, leaveDates(leave), leave.Reason)
	for _, id := range coordinators {
		d.send(ctx, id, leave.ID, message)
	}
}

// LeaveDecided notifies the student of the new status and fans escalations out to every admin.
func (d *NotificationDispatcher) LeaveDecided(ctx context.Context, leave *models.LeaveRequest, from models.LeaveStatus) {
	switch leave.Status {
	case models.LeaveStatusApproved, models.LeaveStatusDeclined, models.LeaveStatusPendingAdmin:
	default:
		return
	}
	d.send(ctx, leave.StudentID, leave.ID, studentMessage(leave))

	if from != models.LeaveStatusPending || leave.Status != models.LeaveStatusPendingAdmin {
		return
	}
	admins, err := d.directory.ListIDsByRole(ctx, models.RoleAdmin)
	if err != nil {
		d.metrics.RecordNotificationFailure("store")
		d.logger.Warn("resolve admins failed", zap.String("leave_id", leave.ID), zap.Error(err))
		return
	}
	message := fmt.Sprintf("Emergency leave request from %s (%s) for %s needs admin approval: %s",
		displayName(leave), leave.ClassName, leaveDates(leave), leave.Reason)
	for _, id := range admins {
		d.send(ctx, id, leave.ID, message)
	}
}

func (d *NotificationDispatcher) send(ctx context.Context, recipientID, leaveID, message string) {
	n := &models.Notification{RecipientUserID: recipientID, Message: message}
	if leaveID != "" {
		id := leaveID
		n.LeaveRequestID = &id
	}
	if err := d.store.Create(ctx, n); err != nil {
		d.metrics.RecordNotificationFailure("store")
		d.logger.Warn("store notification failed",
			zap.String("recipient_id", recipientID),
			zap.String("leave_id", leaveID),
			zap.Error(err),
		)
		return
	}
	d.metrics.RecordNotification()
	if d.delivery != nil {
		d.delivery.Deliver(ctx, *n)
	}
}

func studentMessage(leave *models.LeaveRequest) string {
	dates := leaveDates(leave)
	switch leave.Status {
	case models.LeaveStatusPendingAdmin:
		return withComment(fmt.Sprintf("Your emergency leave request for %s was approved by your coordinator and is awaiting admin approval.", dates), leave.CoordinatorComment)
	case models.LeaveStatusApproved:
		return withComment(fmt.Sprintf("Your leave request for %s was approved by %s.", dates, decider(leave)), latestComment(leave))
	default:
		return withComment(fmt.Sprintf("Your leave request for %s was declined by %s.", dates, decider(leave)), latestComment(leave))
	}
}

func decider(leave *models.LeaveRequest) string {
	if leave.AdminID != nil {
		return "the administration"
	}
	return "your coordinator"
}

func latestComment(leave *models.LeaveRequest) *string {
	if leave.AdminID != nil {
		return leave.AdminComment
	}
	return leave.CoordinatorComment
}

func withComment(message string, comment *string) string {
	if comment == nil || strings.TrimSpace(*comment) == "" {
		return message
	}
	return fmt.Sprintf("%s Comment: %s", message, *comment)
}

func leaveDates(leave *models.LeaveRequest) string {
	start := leave.StartDate.Format(models.LeaveDateLayout)
	end := leave.EndDate.Format(models.LeaveDateLayout)
	if start == end {
		return start
	}
	return start + " to " + end
}

func displayName(leave *models.LeaveRequest) string {
	if leave.StudentName != "" {
		return leave.StudentName
	}
	return "student " + leave.StudentID
}

func emergencyLabel(emergency bool) string {
	if emergency {
		return "emergency "
	}
	return ""
}

type noopNotificationRecorder struct{}

func (noopNotificationRecorder) RecordNotification() {}
func (noopNotificationRecorder) RecordNotificationFailure(string) {}
