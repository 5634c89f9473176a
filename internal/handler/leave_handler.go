package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-leave-api/internal/dto"
	"github.com/noah-isme/sma-leave-api/internal/models"
	"github.com/noah-isme/sma-leave-api/internal/service"
	appErrors "github.com/noah-isme/sma-leave-api/pkg/errors"
	"github.com/noah-isme/sma-leave-api/pkg/response"
)

type leaveService interface {
	Apply(ctx context.Context, actor models.Actor, req dto.ApplyLeaveRequest) (*models.LeaveRequest, error)
	Decide(ctx context.Context, actor models.Actor, leaveID string, req dto.DecideLeaveRequest) (*models.LeaveRequest, error)
	ListForStudent(ctx context.Context, actor models.Actor, studentID string) ([]models.LeaveRequest, error)
	ListForClass(ctx context.Context, actor models.Actor, className string, query dto.LeaveClassQuery) ([]models.LeaveRequest, error)
	ListAll(ctx context.Context, actor models.Actor, query dto.LeaveListQuery) ([]models.LeaveRequest, *models.Pagination, error)
	EmergencyQueue(ctx context.Context, actor models.Actor) ([]models.LeaveRequest, error)
	GetStats(ctx context.Context, actor models.Actor, studentID string) (*models.LeaveStats, error)
	ClassSummary(ctx context.Context, actor models.Actor, className string) ([]models.StudentLeaveSummary, error)
}

type leaveReportService interface {
	ExportClassSummary(ctx context.Context, actor models.Actor, className, format string) (*service.ExportFile, error)
}

// LeaveHandler exposes the leave request workflow.
type LeaveHandler struct {
	service leaveService
	reports leaveReportService
}

// NewLeaveHandler builds a new handler.
func NewLeaveHandler(service leaveService, reports leaveReportService) *LeaveHandler {
	return &LeaveHandler{service: service, reports: reports}
}

// Apply godoc
// @Summary Submit a leave request
// @Tags Leaves
// @Accept json
// @Produce json
// @Param payload body dto.ApplyLeaveRequest true "Leave payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /leaves [post]
func (h *LeaveHandler) Apply(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.ApplyLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid leave payload"))
		return
	}
	leave, err := h.service.Apply(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, leave)
}

// Decide godoc
// @Summary Approve or decline a leave request
// @Tags Leaves
// @Accept json
// @Produce json
// @Param id path string true "Leave request ID"
// @Param payload body dto.DecideLeaveRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /leaves/{id}/decision [post]
func (h *LeaveHandler) Decide(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.DecideLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid decision payload"))
		return
	}
	leave, err := h.service.Decide(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leave, nil)
}

// Mine godoc
// @Summary List the caller's own leave requests
// @Tags Leaves
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /leaves/mine [get]
func (h *LeaveHandler) Mine(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.listForStudent(c, actor, actor.UserID)
}

// ForStudent godoc
// @Summary List a student's leave requests
// @Tags Leaves
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/leaves [get]
func (h *LeaveHandler) ForStudent(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.listForStudent(c, actor, c.Param("id"))
}

func (h *LeaveHandler) listForStudent(c *gin.Context, actor models.Actor, studentID string) {
	leaves, err := h.service.ListForStudent(c.Request.Context(), actor, studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leaves, nil)
}

// ForClass godoc
// @Summary List leave requests of a class
// @Tags Leaves
// @Produce json
// @Param class path string true "Class name"
// @Param status query string false "Comma separated statuses"
// @Param submittedOn query string false "Submission date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /classes/{class}/leaves [get]
func (h *LeaveHandler) ForClass(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	query := dto.LeaveClassQuery{Status: statusQuery(c), SubmittedOn: c.Query("submittedOn")}
	leaves, err := h.service.ListForClass(c.Request.Context(), actor, c.Param("class"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leaves, nil)
}

// List godoc
// @Summary List leave requests across all classes
// @Tags Leaves
// @Produce json
// @Param section query string false "Class name fragment"
// @Param date query string false "Day covered by the leave (YYYY-MM-DD)"
// @Param status query string false "Comma separated statuses"
// @Param emergency query bool false "Emergency flag"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /leaves [get]
func (h *LeaveHandler) List(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	query := dto.LeaveListQuery{Section: c.Query("section"), Date: c.Query("date"), Status: statusQuery(c)}
	if query.Emergency, err = boolQuery(c, "emergency"); err != nil {
		response.Error(c, err)
		return
	}
	if query.Page, err = intQuery(c, "page"); err != nil {
		response.Error(c, err)
		return
	}
	if query.PageSize, err = intQuery(c, "pageSize"); err != nil {
		response.Error(c, err)
		return
	}
	leaves, pagination, err := h.service.ListAll(c.Request.Context(), actor, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leaves, pagination, map[string]interface{}{"count": len(leaves)})
}

// EmergencyQueue godoc
// @Summary List emergency requests awaiting an admin
// @Tags Leaves
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/emergency-queue [get]
func (h *LeaveHandler) EmergencyQueue(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	leaves, err := h.service.EmergencyQueue(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leaves, nil)
}

// Stats godoc
// @Summary Monthly quota usage of a student
// @Tags Leaves
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/leave-stats [get]
func (h *LeaveHandler) Stats(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.stats(c, actor, c.Param("id"))
}

// MyStats godoc
// @Summary Monthly quota usage of the caller
// @Tags Leaves
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /leaves/stats [get]
func (h *LeaveHandler) MyStats(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.stats(c, actor, actor.UserID)
}

func (h *LeaveHandler) stats(c *gin.Context, actor models.Actor, studentID string) {
	stats, err := h.service.GetStats(c.Request.Context(), actor, studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// ClassSummary godoc
// @Summary Per-student leave counts of a class
// @Tags Leaves
// @Produce json
// @Param class path string true "Class name"
// @Success 200 {object} response.Envelope
// @Router /classes/{class}/leave-summary [get]
func (h *LeaveHandler) ClassSummary(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	summary, err := h.service.ClassSummary(c.Request.Context(), actor, c.Param("class"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// ExportClassSummary godoc
// @Summary Download the per-student leave counts of a class
// @Tags Leaves
// @Produce octet-stream
// @Param class path string true "Class name"
// @Param format query string false "csv, pdf or xlsx"
// @Success 200 {file} file
// @Router /classes/{class}/leave-summary/export [get]
func (h *LeaveHandler) ExportClassSummary(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.reports.ExportClassSummary(c.Request.Context(), actor, c.Param("class"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}
