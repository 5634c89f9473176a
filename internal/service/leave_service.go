package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-leave-api/internal/dto"
	"github.com/noah-isme/sma-leave-api/internal/models"
	"github.com/noah-isme/sma-leave-api/internal/repository"
	appErrors "github.com/noah-isme/sma-leave-api/pkg/errors"
)

type leaveStore interface {
	Create(ctx context.Context, leave *models.LeaveRequest) error
	GetByID(ctx context.Context, id string) (*models.LeaveRequest, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.LeaveRequest, error)
	ListByClass(ctx context.Context, filter models.LeaveClassFilter) ([]models.LeaveRequest, error)
	List(ctx context.Context, filter models.LeaveFilter) ([]models.LeaveRequest, error)
	Count(ctx context.Context, filter models.LeaveFilter) (int, error)
	UpdateDecision(ctx context.Context, params repository.LeaveDecisionParams) error
	SummaryByClass(ctx context.Context, className string) ([]models.StudentLeaveSummary, error)
}

type studentLookup interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// LeaveNotifier receives committed leave transitions.
type LeaveNotifier interface {
	LeaveSubmitted(ctx context.Context, leave *models.LeaveRequest)
	LeaveDecided(ctx context.Context, leave *models.LeaveRequest, from models.LeaveStatus)
}

type leaveRecorder interface {
	RecordLeaveApplication(emergency bool)
	RecordLeaveTransition(from, to models.LeaveStatus)
}

// LeaveServiceConfig carries the policy applied by the leave engine.
type LeaveServiceConfig struct {
	Policy       QuotaPolicy
	EnforceQuota bool
}

// LeaveService owns the leave request lifecycle.
type LeaveService struct {
	leaves    leaveStore
	students  studentLookup
	access    classAccess
	notifier  LeaveNotifier
	metrics   leaveRecorder
	validator *validator.Validate
	logger    *zap.Logger
	config    LeaveServiceConfig
	now       func() time.Time
}

// LeaveServiceOption configures optional collaborators.
type LeaveServiceOption func(*LeaveService)

// WithLeaveNotifier attaches the transition listener.
func WithLeaveNotifier(notifier LeaveNotifier) LeaveServiceOption {
	return func(s *LeaveService) {
		if notifier != nil {
			s.notifier = notifier
		}
	}
}

// WithLeaveMetrics attaches transition counters.
func WithLeaveMetrics(metrics *MetricsService) LeaveServiceOption {
	return func(s *LeaveService) {
		if metrics != nil {
			s.metrics = metrics
		}
	}
}

// WithLeaveClock overrides the time source.
func WithLeaveClock(now func() time.Time) LeaveServiceOption {
	return func(s *LeaveService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewLeaveService constructs the service with defaults.
func NewLeaveService(leaves leaveStore, students studentLookup, users userLookup, validate *validator.Validate, logger *zap.Logger, cfg LeaveServiceConfig, opts ...LeaveServiceOption) *LeaveService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	svc := &LeaveService{
		leaves:    leaves,
		students:  students,
		access:    classAccess{users: users},
		notifier:  noopNotifier{},
		metrics:   noopRecorder{},
		validator: validate,
		logger:    logger,
		config:    cfg,
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Apply creates a PENDING leave request for the acting student.
func (s *LeaveService) Apply(ctx context.Context, actor models.Actor, req dto.ApplyLeaveRequest) (*models.LeaveRequest, error) {
	if actor.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students can apply for leave")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid leave request payload")
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "reason is required")
	}
	start, err := parseLeaveDate(req.StartDate, "startDate")
	if err != nil {
		return nil, err
	}
	end, err := parseLeaveDate(req.EndDate, "endDate")
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "endDate must not be before startDate")
	}

	student, err := s.loadStudent(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if !student.Approved {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "student account is awaiting approval")
	}

	now := s.now().UTC()
	if s.config.EnforceQuota {
		history, err := s.leaves.ListByStudent(ctx, student.ID)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to load leave history")
		}
		if quotaExhausted(EvaluateQuota(student, history, now, s.config.Policy)) {
			return nil, appErrors.Clone(appErrors.ErrQuotaExceeded, "")
		}
	}

	leave := &models.LeaveRequest{
		StudentID:   student.ID,
		StudentName: student.FullName,
		ClassName:   student.ClassName,
		StartDate:   start,
		EndDate:     end,
		Reason:      reason,
		Emergency:   req.Emergency,
		Status:      models.LeaveStatusPending,
		CreatedAt:   now,
	}
	if err := s.leaves.Create(ctx, leave); err != nil {
		return nil, appErrors.Internal(err, "failed to create leave request")
	}

	s.metrics.RecordLeaveApplication(leave.Emergency)
	s.logger.Info("leave request submitted",
		zap.String("leave_id", leave.ID),
		zap.String("student_id", leave.StudentID),
		zap.Bool("emergency", leave.Emergency),
	)
	s.notifier.LeaveSubmitted(context.WithoutCancel(ctx), leave)
	return leave, nil
}

// Decide applies a coordinator or admin decision to a leave request.
func (s *LeaveService) Decide(ctx context.Context, actor models.Actor, leaveID string, req dto.DecideLeaveRequest) (*models.LeaveRequest, error) {
	if actor.Role != models.RoleCoordinator && actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only coordinators and admins can decide leave requests")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "outcome must be APPROVED or DECLINED")
	}

	leave, err := s.loadLeave(ctx, leaveID)
	if err != nil {
		return nil, err
	}

	if actor.Role == models.RoleCoordinator {
		coordinator, err := s.access.coordinator(ctx, actor)
		if err != nil {
			return nil, err
		}
		if coordinator.AssignedClass == nil || !sameClass(*coordinator.AssignedClass, leave.ClassName) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "coordinator is not assigned to the student's class")
		}
	} else if _, err := s.access.admin(ctx, actor); err != nil {
		return nil, err
	}

	from := leave.Status
	to, err := nextLeaveStatus(from, actor.Role, req.Outcome, leave.Emergency)
	if err != nil {
		return nil, err
	}

	comment := strings.TrimSpace(req.Comment)
	decidedAt := s.now().UTC()
	params := repository.LeaveDecisionParams{
		ID:             leave.ID,
		ExpectedStatus: from,
		Status:         to,
		DecidedAt:      decidedAt,
	}
	deciderID := actor.UserID
	if actor.Role == models.RoleCoordinator {
		params.CoordinatorID = &deciderID
		params.CoordinatorComment = &comment
	} else {
		params.AdminID = &deciderID
		params.AdminComment = &comment
	}

	if err := s.leaves.UpdateDecision(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidStateTransition, "leave request was already decided")
		}
		return nil, appErrors.Internal(err, "failed to record decision")
	}

	leave.Status = to
	leave.DecidedAt = &decidedAt
	if actor.Role == models.RoleCoordinator {
		leave.CoordinatorID = params.CoordinatorID
		leave.CoordinatorComment = params.CoordinatorComment
	} else {
		leave.AdminID = params.AdminID
		leave.AdminComment = params.AdminComment
	}

	s.metrics.RecordLeaveTransition(from, to)
	s.logger.Info("leave request decided",
		zap.String("leave_id", leave.ID),
		zap.String("actor_id", actor.UserID),
		zap.String("actor_role", string(actor.Role)),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	s.notifier.LeaveDecided(context.WithoutCancel(ctx), leave, from)
	return leave, nil
}

// ListForStudent returns a student's requests, newest first.
func (s *LeaveService) ListForStudent(ctx context.Context, actor models.Actor, studentID string) ([]models.LeaveRequest, error) {
	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if err := s.access.authorizeStudent(ctx, actor, student); err != nil {
		return nil, err
	}
	leaves, err := s.leaves.ListByStudent(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list leave requests")
	}
	return leaves, nil
}

// ListForClass returns requests of a class filtered by status and submission day.
func (s *LeaveService) ListForClass(ctx context.Context, actor models.Actor, className string, query dto.LeaveClassQuery) ([]models.LeaveRequest, error) {
	className = strings.TrimSpace(className)
	if className == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class is required")
	}
	if err := s.access.authorizeClass(ctx, actor, className); err != nil {
		return nil, err
	}
	statuses, err := normalizeStatuses(query.Status)
	if err != nil {
		return nil, err
	}
	filter := models.LeaveClassFilter{ClassName: className, Status: statuses}
	if query.SubmittedOn != "" {
		day, err := parseDayIn(query.SubmittedOn, "submittedOn", s.config.Policy.location())
		if err != nil {
			return nil, err
		}
		filter.SubmittedOn = &day
	}
	leaves, err := s.leaves.ListByClass(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list class leave requests")
	}
	return leaves, nil
}

// ListAll returns requests across every class. Admin only. Without a page size
// every match is returned and the pagination is nil.
func (s *LeaveService) ListAll(ctx context.Context, actor models.Actor, query dto.LeaveListQuery) ([]models.LeaveRequest, *models.Pagination, error) {
	if err := s.access.requireAdmin(ctx, actor); err != nil {
		return nil, nil, err
	}
	statuses, err := normalizeStatuses(query.Status)
	if err != nil {
		return nil, nil, err
	}
	filter := models.LeaveFilter{
		Section:   query.Section,
		Status:    statuses,
		Emergency: query.Emergency,
	}
	if query.Date != "" {
		day, err := parseLeaveDate(query.Date, "date")
		if err != nil {
			return nil, nil, err
		}
		filter.Date = &day
	}

	var pagination *models.Pagination
	if query.PageSize > 0 {
		page := query.Page
		if page < 1 {
			page = 1
		}
		filter.Limit = query.PageSize
		filter.Offset = (page - 1) * query.PageSize
		total, err := s.leaves.Count(ctx, filter)
		if err != nil {
			return nil, nil, appErrors.Internal(err, "failed to count leave requests")
		}
		pagination = &models.Pagination{Page: page, PageSize: query.PageSize, TotalCount: total}
	}

	leaves, err := s.leaves.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list leave requests")
	}
	return leaves, pagination, nil
}

// EmergencyQueue lists every request escalated to admins.
func (s *LeaveService) EmergencyQueue(ctx context.Context, actor models.Actor) ([]models.LeaveRequest, error) {
	leaves, _, err := s.ListAll(ctx, actor, dto.LeaveListQuery{Status: []models.LeaveStatus{models.LeaveStatusPendingAdmin}})
	return leaves, err
}

// GetStats evaluates quota usage for a student at the current time.
func (s *LeaveService) GetStats(ctx context.Context, actor models.Actor, studentID string) (*models.LeaveStats, error) {
	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if err := s.access.authorizeStudent(ctx, actor, student); err != nil {
		return nil, err
	}
	history, err := s.leaves.ListByStudent(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load leave history")
	}
	stats := EvaluateQuota(student, history, s.now(), s.config.Policy)
	return &stats, nil
}

// ClassSummary counts request outcomes per student of a class.
func (s *LeaveService) ClassSummary(ctx context.Context, actor models.Actor, className string) ([]models.StudentLeaveSummary, error) {
	className = strings.TrimSpace(className)
	if className == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class is required")
	}
	if err := s.access.authorizeClass(ctx, actor, className); err != nil {
		return nil, err
	}
	summary, err := s.leaves.SummaryByClass(ctx, className)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to summarise class leave requests")
	}
	return summary, nil
}

func (s *LeaveService) loadStudent(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Internal(err, "failed to load student")
	}
	return student, nil
}

func (s *LeaveService) loadLeave(ctx context.Context, id string) (*models.LeaveRequest, error) {
	leave, err := s.leaves.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "leave request not found")
		}
		return nil, appErrors.Internal(err, "failed to load leave request")
	}
	return leave, nil
}

func parseLeaveDate(raw, field string) (time.Time, error) {
	return parseDayIn(raw, field, time.UTC)
}

func parseDayIn(raw, field string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(models.LeaveDateLayout, strings.TrimSpace(raw), loc)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s must be a date in YYYY-MM-DD format", field))
	}
	return t, nil
}

func normalizeStatuses(raw []models.LeaveStatus) ([]models.LeaveStatus, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	statuses := make([]models.LeaveStatus, 0, len(raw))
	for _, st := range raw {
		status := models.LeaveStatus(strings.ToUpper(strings.TrimSpace(string(st))))
		if status == "" {
			continue
		}
		if !status.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", st))
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

type noopNotifier struct{}

func (noopNotifier) LeaveSubmitted(context.Context, *models.LeaveRequest) {}
func (noopNotifier) LeaveDecided(context.Context, *models.LeaveRequest, models.LeaveStatus) {}

type noopRecorder struct{}

func (noopRecorder) RecordLeaveApplication(bool) {}
func (noopRecorder) RecordLeaveTransition(models.LeaveStatus, models.LeaveStatus) {}
