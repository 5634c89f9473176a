package seed

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/sma-leave-api/internal/models"
)

// Fixture lists the accounts loaded into a fresh database.
type Fixture struct {
	Users []UserFixture `yaml:"users"`
}

// UserFixture describes one account. Students carry a student block.
type UserFixture struct {
	Email         string          `yaml:"email"`
	FullName      string          `yaml:"full_name"`
	Role          models.UserRole `yaml:"role"`
	AssignedClass string          `yaml:"assigned_class"`
	Approved      *bool           `yaml:"approved"`
	Student       *StudentFixture `yaml:"student"`
}

// StudentFixture holds the learner profile of a STUDENT fixture.
type StudentFixture struct {
	RollNumber string `yaml:"roll_number"`
	ClassName  string `yaml:"class_name"`
	Attendance string `yaml:"attendance"`
}

type userWriter interface {
	Upsert(ctx context.Context, user *models.User) error
}

type studentWriter interface {
	Create(ctx context.Context, student *models.Student) error
}

// Decode parses and validates a YAML fixture.
func Decode(r io.Reader) (*Fixture, error) {
	var fixture Fixture
	if err := yaml.NewDecoder(r).Decode(&fixture); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	for i := range fixture.Users {
		if err := fixture.Users[i].validate(); err != nil {
			return nil, fmt.Errorf("user %d: %w", i, err)
		}
	}
	return &fixture, nil
}

// LoadFile reads a fixture from disk.
func LoadFile(path string) (*Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

func (u *UserFixture) validate() error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.Role = models.UserRole(strings.ToUpper(string(u.Role)))
	if u.Email == "" {
		return fmt.Errorf("email is required")
	}
	if !u.Role.Valid() {
		return fmt.Errorf("%s: unknown role %q", u.Email, u.Role)
	}
	switch u.Role {
	case models.RoleStudent:
		if u.Student == nil || strings.TrimSpace(u.Student.ClassName) == "" {
			return fmt.Errorf("%s: students need a class", u.Email)
		}
		if u.Student.Attendance != "" {
			value, err := decimal.NewFromString(u.Student.Attendance)
			if err != nil || value.IsNegative() || value.GreaterThan(decimal.NewFromInt(100)) {
				return fmt.Errorf("%s: attendance must be between 0 and 100", u.Email)
			}
		}
	case models.RoleCoordinator:
		if strings.TrimSpace(u.AssignedClass) == "" {
			return fmt.Errorf("%s: coordinators need an assigned class", u.Email)
		}
	}
	return nil
}

// Seeder writes fixtures through the repositories.
type Seeder struct {
	users    userWriter
	students studentWriter
	logger   *zap.Logger
}

// NewSeeder constructs a Seeder.
func NewSeeder(users userWriter, students studentWriter, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{users: users, students: students, logger: logger}
}

// Apply upserts every fixture account and returns them with their stored ids.
func (s *Seeder) Apply(ctx context.Context, fixture *Fixture) ([]models.User, error) {
	seeded := make([]models.User, 0, len(fixture.Users))
	for _, item := range fixture.Users {
		user := models.User{
			Email:    item.Email,
			FullName: item.FullName,
			Role:     item.Role,
			Approved: item.Approved == nil || *item.Approved,
		}
		if item.Role == models.RoleCoordinator {
			class := strings.TrimSpace(item.AssignedClass)
			user.AssignedClass = &class
		}
		if err := s.users.Upsert(ctx, &user); err != nil {
			return nil, fmt.Errorf("seed %s: %w", item.Email, err)
		}
		if item.Role == models.RoleStudent {
			student := models.Student{
				ID:         user.ID,
				RollNumber: item.Student.RollNumber,
				ClassName:  strings.TrimSpace(item.Student.ClassName),
			}
			if item.Student.Attendance != "" {
				student.AttendancePercentage = decimal.NewNullDecimal(decimal.RequireFromString(item.Student.Attendance))
			}
			if err := s.students.Create(ctx, &student); err != nil {
				return nil, fmt.Errorf("seed student %s: %w", item.Email, err)
			}
		}
		s.logger.Info("account seeded", zap.String("email", user.Email), zap.String("role", string(user.Role)))
		seeded = append(seeded, user)
	}
	return seeded, nil
}
