package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-leave-api/internal/dto"
	"github.com/noah-isme/sma-leave-api/internal/models"
	appErrors "github.com/noah-isme/sma-leave-api/pkg/errors"
	"github.com/noah-isme/sma-leave-api/pkg/response"
)

type rosterService interface {
	ClassStudents(ctx context.Context, actor models.Actor, className string, pendingOnly bool) ([]models.Student, error)
	ApproveStudent(ctx context.Context, actor models.Actor, studentID string) (*models.Student, error)
	UpdateAttendance(ctx context.Context, actor models.Actor, studentID string, req dto.UpdateAttendanceRequest) (*models.Student, error)
	Coordinators(ctx context.Context, actor models.Actor, pendingOnly bool) ([]models.User, error)
	ApproveCoordinator(ctx context.Context, actor models.Actor, coordinatorID string) (*models.User, error)
	CoordinatorStudents(ctx context.Context, actor models.Actor, coordinatorID string) ([]models.Student, error)
}

// RosterHandler exposes account approvals and attendance upkeep.
type RosterHandler struct {
	service rosterService
}

// NewRosterHandler builds a new handler.
func NewRosterHandler(service rosterService) *RosterHandler {
	return &RosterHandler{service: service}
}

// ClassStudents godoc
// @Summary List students of a class
// @Tags Roster
// @Produce json
// @Param class path string true "Class name"
// @Param pending query bool false "Only students awaiting approval"
// @Success 200 {object} response.Envelope
// @Router /classes/{class}/students [get]
func (h *RosterHandler) ClassStudents(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	pending, err := boolQuery(c, "pending")
	if err != nil {
		response.Error(c, err)
		return
	}
	students, err := h.service.ClassStudents(c.Request.Context(), actor, c.Param("class"), pending != nil && *pending)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}

// ApproveStudent godoc
// @Summary Approve a student account
// @Tags Roster
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/approve [post]
func (h *RosterHandler) ApproveStudent(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	student, err := h.service.ApproveStudent(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// UpdateAttendance godoc
// @Summary Set a student's attendance percentage
// @Tags Roster
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body dto.UpdateAttendanceRequest true "Attendance payload"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/attendance [put]
func (h *RosterHandler) UpdateAttendance(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid attendance payload"))
		return
	}
	student, err := h.service.UpdateAttendance(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Coordinators godoc
// @Summary List coordinator accounts
// @Tags Roster
// @Produce json
// @Param pending query bool false "Only coordinators awaiting approval"
// @Success 200 {object} response.Envelope
// @Router /admin/coordinators [get]
func (h *RosterHandler) Coordinators(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	pending, err := boolQuery(c, "pending")
	if err != nil {
		response.Error(c, err)
		return
	}
	users, err := h.service.Coordinators(c.Request.Context(), actor, pending != nil && *pending)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, nil)
}

// ApproveCoordinator godoc
// @Summary Approve a coordinator account
// @Tags Roster
// @Produce json
// @Param id path string true "Coordinator ID"
// @Success 200 {object} response.Envelope
// @Router /admin/coordinators/{id}/approve [post]
func (h *RosterHandler) ApproveCoordinator(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	user, err := h.service.ApproveCoordinator(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// CoordinatorStudents godoc
// @Summary List the roster supervised by a coordinator
// @Tags Roster
// @Produce json
// @Param id path string true "Coordinator ID"
// @Success 200 {object} response.Envelope
// @Router /admin/coordinators/{id}/students [get]
func (h *RosterHandler) CoordinatorStudents(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	students, err := h.service.CoordinatorStudents(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}
