package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-leave-api/internal/dto"
	"github.com/noah-isme/sma-leave-api/internal/models"
	appErrors "github.com/noah-isme/sma-leave-api/pkg/errors"
)

func newRosterFixture(t *testing.T) (*RosterService, *leaveFixture) {
	t.Helper()
	f := newLeaveFixture(t, LeaveServiceConfig{})
	return NewRosterService(f.students, f.users, nil, nil), f
}

func TestRosterApproveStudent(t *testing.T) {
	svc, f := newRosterFixture(t)
	ctx := context.Background()

	pending, err := svc.ClassStudents(ctx, coordinatorActor, "Class A", true)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "stu-new", pending[0].ID)

	_, err = svc.ApproveStudent(ctx, otherCoordinator, "stu-new")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = svc.ApproveStudent(ctx, adminActor, "stu-new")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	student, err := svc.ApproveStudent(ctx, coordinatorActor, "stu-new")
	require.NoError(t, err)
	assert.True(t, student.Approved)
	assert.Equal(t, []string{"stu-new"}, f.students.approved)

	_, err = f.svc.Apply(ctx, models.Actor{UserID: "stu-new", Role: models.RoleStudent},
		dto.ApplyLeaveRequest{StartDate: "2024-05-20", EndDate: "2024-05-20", Reason: "exam prep"})
	require.NoError(t, err)
}

func TestRosterUpdateAttendance(t *testing.T) {
	svc, f := newRosterFixture(t)
	ctx := context.Background()
	value := decimal.RequireFromString("72.456")

	student, err := svc.UpdateAttendance(ctx, coordinatorActor, "stu-high", dto.UpdateAttendanceRequest{AttendancePercentage: &value})
	require.NoError(t, err)
	assert.Equal(t, "72.46", student.AttendancePercentage.Decimal.StringFixed(2))

	stats, err := f.svc.GetStats(ctx, adminActor, "stu-high")
	require.NoError(t, err)
	assert.True(t, stats.LowAttendance)

	tooHigh := decimal.NewFromInt(101)
	_, err = svc.UpdateAttendance(ctx, adminActor, "stu-high", dto.UpdateAttendanceRequest{AttendancePercentage: &tooHigh})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.UpdateAttendance(ctx, adminActor, "stu-high", dto.UpdateAttendanceRequest{})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.UpdateAttendance(ctx, highStudentActor, "stu-high", dto.UpdateAttendanceRequest{AttendancePercentage: &value})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestRosterCoordinatorApproval(t *testing.T) {
	svc, f := newRosterFixture(t)
	ctx := context.Background()

	_, err := svc.Coordinators(ctx, coordinatorActor, true)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	pending, err := svc.Coordinators(ctx, adminActor, true)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "coord-pending", pending[0].ID)

	approved, err := svc.ApproveCoordinator(ctx, adminActor, "coord-pending")
	require.NoError(t, err)
	assert.True(t, approved.Approved)
	assert.True(t, f.users.items["coord-pending"].Approved)

	_, err = svc.ApproveCoordinator(ctx, adminActor, "stu-low")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	roster, err := svc.CoordinatorStudents(ctx, adminActor, "coord-b")
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, "stu-b", roster[0].ID)
}
