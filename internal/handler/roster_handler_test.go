package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-leave-api/internal/dto"
	"github.com/noah-isme/sma-leave-api/internal/models"
)

type rosterServiceMock struct {
	pendingOnly bool
	attendance  dto.UpdateAttendanceRequest
	studentID   string
}

func (m *rosterServiceMock) ClassStudents(ctx context.Context, actor models.Actor, className string, pendingOnly bool) ([]models.Student, error) {
	m.pendingOnly = pendingOnly
	return []models.Student{}, nil
}

func (m *rosterServiceMock) ApproveStudent(ctx context.Context, actor models.Actor, studentID string) (*models.Student, error) {
	m.studentID = studentID
	return &models.Student{ID: studentID, Approved: true}, nil
}

func (m *rosterServiceMock) UpdateAttendance(ctx context.Context, actor models.Actor, studentID string, req dto.UpdateAttendanceRequest) (*models.Student, error) {
	m.studentID = studentID
	m.attendance = req
	return &models.Student{ID: studentID}, nil
}

func (m *rosterServiceMock) Coordinators(ctx context.Context, actor models.Actor, pendingOnly bool) ([]models.User, error) {
	m.pendingOnly = pendingOnly
	return []models.User{}, nil
}

func (m *rosterServiceMock) ApproveCoordinator(ctx context.Context, actor models.Actor, coordinatorID string) (*models.User, error) {
	return &models.User{ID: coordinatorID, Approved: true}, nil
}

func (m *rosterServiceMock) CoordinatorStudents(ctx context.Context, actor models.Actor, coordinatorID string) ([]models.Student, error) {
	return []models.Student{}, nil
}

func TestRosterHandlerPendingStudents(t *testing.T) {
	mockSvc := &rosterServiceMock{}
	h := NewRosterHandler(mockSvc)
	c, w := newTestContext(http.MethodGet, "/classes/Class%20A/students?pending=true", nil, coordinatorClaims)
	c.Params = gin.Params{{Key: "class", Value: "Class A"}}

	h.ClassStudents(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.pendingOnly)
}

func TestRosterHandlerUpdateAttendance(t *testing.T) {
	mockSvc := &rosterServiceMock{}
	h := NewRosterHandler(mockSvc)
	c, w := newTestContext(http.MethodPut, "/students/stu-1/attendance", []byte(`{"attendancePercentage":82.5}`), coordinatorClaims)
	c.Params = gin.Params{{Key: "id", Value: "stu-1"}}

	h.UpdateAttendance(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "stu-1", mockSvc.studentID)
	require.NotNil(t, mockSvc.attendance.AttendancePercentage)
	assert.Equal(t, "82.5", mockSvc.attendance.AttendancePercentage.String())
}

func TestRosterHandlerCoordinatorsRejectsBadFlag(t *testing.T) {
	h := NewRosterHandler(&rosterServiceMock{})
	c, w := newTestContext(http.MethodGet, "/admin/coordinators?pending=soon", nil, adminClaims)

	h.Coordinators(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
