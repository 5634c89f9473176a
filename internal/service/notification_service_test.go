package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-leave-api/internal/models"
	appErrors "github.com/noah-isme/sma-leave-api/pkg/errors"
)

type inboxStub struct {
	items  map[string]*models.Notification
	marked []string
}

func (s *inboxStub) ListByRecipient(ctx context.Context, userID string) ([]models.Notification, error) {
	var result []models.Notification
	for _, n := range s.items {
		if n.RecipientUserID == userID {
			result = append(result, *n)
		}
	}
	return result, nil
}

func (s *inboxStub) GetByID(ctx context.Context, id string) (*models.Notification, error) {
	n, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *n
	return &copy, nil
}

func (s *inboxStub) MarkRead(ctx context.Context, id string) error {
	s.items[id].Read = true
	s.marked = append(s.marked, id)
	return nil
}

func (s *inboxStub) DeleteByRecipient(ctx context.Context, userID string) (int64, error) {
	var removed int64
	for id, n := range s.items {
		if n.RecipientUserID == userID {
			delete(s.items, id)
			removed++
		}
	}
	return removed, nil
}

func (s *inboxStub) CountUnread(ctx context.Context, userID string) (int, error) {
	count := 0
	for _, n := range s.items {
		if n.RecipientUserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func newInbox() *inboxStub {
	return &inboxStub{items: map[string]*models.Notification{
		"n-1": {ID: "n-1", RecipientUserID: "stu-1", Message: "approved"},
		"n-2": {ID: "n-2", RecipientUserID: "stu-1", Message: "declined", Read: true},
		"n-3": {ID: "n-3", RecipientUserID: "admin-1", Message: "escalated"},
	}}
}

func TestNotificationServiceMarkRead(t *testing.T) {
	inbox := newInbox()
	svc := NewNotificationService(inbox, nil)
	ctx := context.Background()
	student := models.Actor{UserID: "stu-1", Role: models.RoleStudent}

	n, err := svc.MarkRead(ctx, student, "n-1")
	require.NoError(t, err)
	assert.True(t, n.Read)

	_, err = svc.MarkRead(ctx, student, "n-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"n-1"}, inbox.marked)

	_, err = svc.MarkRead(ctx, student, "n-3")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = svc.MarkRead(ctx, student, "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestNotificationServiceCountAndClear(t *testing.T) {
	inbox := newInbox()
	svc := NewNotificationService(inbox, nil)
	ctx := context.Background()
	student := models.Actor{UserID: "stu-1", Role: models.RoleStudent}

	unread, err := svc.UnreadCount(ctx, student)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	items, err := svc.List(ctx, student)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	removed, err := svc.ClearAll(ctx, student)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
	assert.Len(t, inbox.items, 1)
}
