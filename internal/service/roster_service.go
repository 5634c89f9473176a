package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-leave-api/internal/dto"
	"github.com/noah-isme/sma-leave-api/internal/models"
	appErrors "github.com/noah-isme/sma-leave-api/pkg/errors"
)

type rosterStudentStore interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ListByClass(ctx context.Context, filter models.StudentFilter) ([]models.Student, error)
	Approve(ctx context.Context, id string, at time.Time) error
	UpdateAttendance(ctx context.Context, id string, percentage decimal.Decimal, at time.Time) error
}

type rosterUserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	ListCoordinators(ctx context.Context, filter models.CoordinatorFilter) ([]models.User, error)
	ApproveCoordinator(ctx context.Context, id string, at time.Time) error
}

var (
	attendanceMin = decimal.Zero
	attendanceMax = decimal.NewFromInt(100)
)

// RosterService handles account approvals and attendance upkeep around the leave workflow.
type RosterService struct {
	students  rosterStudentStore
	users     rosterUserStore
	access    classAccess
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRosterService constructs the service.
func NewRosterService(students rosterStudentStore, users rosterUserStore, validate *validator.Validate, logger *zap.Logger) *RosterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &RosterService{
		students:  students,
		users:     users,
		access:    classAccess{users: users},
		validator: validate,
		logger:    logger,
	}
}

// ClassStudents lists a class roster, optionally only students awaiting approval.
func (s *RosterService) ClassStudents(ctx context.Context, actor models.Actor, className string, pendingOnly bool) ([]models.Student, error) {
	className = strings.TrimSpace(className)
	if className == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class is required")
	}
	if err := s.access.authorizeClass(ctx, actor, className); err != nil {
		return nil, err
	}
	filter := models.StudentFilter{ClassName: className}
	if pendingOnly {
		approved := false
		filter.Approved = &approved
	}
	students, err := s.students.ListByClass(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list students")
	}
	return students, nil
}

// ApproveStudent activates a student account. Only the coordinator of the student's class may approve.
func (s *RosterService) ApproveStudent(ctx context.Context, actor models.Actor, studentID string) (*models.Student, error) {
	if actor.Role != models.RoleCoordinator {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only coordinators approve students")
	}
	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if err := s.access.authorizeClass(ctx, actor, student.ClassName); err != nil {
		return nil, err
	}
	if student.Approved {
		return student, nil
	}
	now := time.Now().UTC()
	if err := s.students.Approve(ctx, student.ID, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Internal(err, "failed to approve student")
	}
	student.Approved = true
	student.UpdatedAt = now
	s.logger.Info("student approved", zap.String("student_id", student.ID), zap.String("approved_by", actor.UserID))
	return student, nil
}

// UpdateAttendance records a new attendance percentage for a student.
func (s *RosterService) UpdateAttendance(ctx context.Context, actor models.Actor, studentID string, req dto.UpdateAttendanceRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "attendancePercentage is required")
	}
	value := req.AttendancePercentage.Round(2)
	if value.LessThan(attendanceMin) || value.GreaterThan(attendanceMax) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "attendancePercentage must be between 0 and 100")
	}
	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "students cannot change attendance")
	}
	if err := s.access.authorizeClass(ctx, actor, student.ClassName); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if err := s.students.UpdateAttendance(ctx, student.ID, value, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Internal(err, "failed to update attendance")
	}
	student.AttendancePercentage = decimal.NewNullDecimal(value)
	student.UpdatedAt = now
	return student, nil
}

// Coordinators lists coordinator accounts. Admin only.
func (s *RosterService) Coordinators(ctx context.Context, actor models.Actor, pendingOnly bool) ([]models.User, error) {
	if err := s.access.requireAdmin(ctx, actor); err != nil {
		return nil, err
	}
	var filter models.CoordinatorFilter
	if pendingOnly {
		approved := false
		filter.Approved = &approved
	}
	users, err := s.users.ListCoordinators(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list coordinators")
	}
	return users, nil
}

// ApproveCoordinator activates a coordinator account. Admin only.
func (s *RosterService) ApproveCoordinator(ctx context.Context, actor models.Actor, coordinatorID string) (*models.User, error) {
	if err := s.access.requireAdmin(ctx, actor); err != nil {
		return nil, err
	}
	coordinator, err := s.loadCoordinator(ctx, coordinatorID)
	if err != nil {
		return nil, err
	}
	if coordinator.Approved {
		return coordinator, nil
	}
	now := time.Now().UTC()
	if err := s.users.ApproveCoordinator(ctx, coordinator.ID, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "coordinator not found")
		}
		return nil, appErrors.Internal(err, "failed to approve coordinator")
	}
	coordinator.Approved = true
	coordinator.UpdatedAt = now
	s.logger.Info("coordinator approved", zap.String("coordinator_id", coordinator.ID), zap.String("approved_by", actor.UserID))
	return coordinator, nil
}

// CoordinatorStudents lists the roster of the class a coordinator supervises. Admin only.
func (s *RosterService) CoordinatorStudents(ctx context.Context, actor models.Actor, coordinatorID string) ([]models.Student, error) {
	if err := s.access.requireAdmin(ctx, actor); err != nil {
		return nil, err
	}
	coordinator, err := s.loadCoordinator(ctx, coordinatorID)
	if err != nil {
		return nil, err
	}
	if coordinator.AssignedClass == nil || strings.TrimSpace(*coordinator.AssignedClass) == "" {
		return []models.Student{}, nil
	}
	students, err := s.students.ListByClass(ctx, models.StudentFilter{ClassName: *coordinator.AssignedClass})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list students")
	}
	return students, nil
}

func (s *RosterService) loadStudent(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Internal(err, "failed to load student")
	}
	return student, nil
}

func (s *RosterService) loadCoordinator(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "coordinator not found")
		}
		return nil, appErrors.Internal(err, "failed to load coordinator")
	}
	if user.Role != models.RoleCoordinator {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "coordinator not found")
	}
	return user, nil
}
