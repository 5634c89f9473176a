package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-leave-api/internal/models"
)

const sampleFixture = `
users:
  - email: Admin@School.test
    full_name: Head Admin
    role: admin
  - email: coord@school.test
    full_name: Class A Coordinator
    role: COORDINATOR
    assigned_class: "Class A "
  - email: good@school.test
    full_name: Good Attendance
    role: STUDENT
    student:
      roll_number: A-01
      class_name: Class A
      attendance: "80"
  - email: new@school.test
    full_name: Awaiting Approval
    role: STUDENT
    approved: false
    student:
      roll_number: A-02
      class_name: Class A
`

type userWriterStub struct {
	users []models.User
	err   error
}

func (s *userWriterStub) Upsert(ctx context.Context, user *models.User) error {
	if s.err != nil {
		return s.err
	}
	user.ID = fmt.Sprintf("u-%d", len(s.users)+1)
	s.users = append(s.users, *user)
	return nil
}

type studentWriterStub struct {
	students []models.Student
}

func (s *studentWriterStub) Create(ctx context.Context, student *models.Student) error {
	s.students = append(s.students, *student)
	return nil
}

func TestDecodeNormalisesFixture(t *testing.T) {
	fixture, err := Decode(strings.NewReader(sampleFixture))
	require.NoError(t, err)
	require.Len(t, fixture.Users, 4)
	assert.Equal(t, "admin@school.test", fixture.Users[0].Email)
	assert.Equal(t, models.RoleAdmin, fixture.Users[0].Role)
	assert.Equal(t, "80", fixture.Users[2].Student.Attendance)
}

func TestDecodeRejectsInvalidAccounts(t *testing.T) {
	cases := map[string]string{
		"unknown role":         "users:\n  - email: x@school.test\n    role: TEACHER\n",
		"student no class":     "users:\n  - email: x@school.test\n    role: STUDENT\n",
		"coordinator no class": "users:\n  - email: x@school.test\n    role: COORDINATOR\n",
		"bad attendance":       "users:\n  - email: x@school.test\n    role: STUDENT\n    student:\n      class_name: A\n      attendance: \"140\"\n",
		"missing email":        "users:\n  - role: ADMIN\n",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(raw))
			assert.Error(t, err)
		})
	}
}

func TestSeederApply(t *testing.T) {
	fixture, err := Decode(strings.NewReader(sampleFixture))
	require.NoError(t, err)
	users := &userWriterStub{}
	students := &studentWriterStub{}

	seeded, err := NewSeeder(users, students, nil).Apply(context.Background(), fixture)
	require.NoError(t, err)
	require.Len(t, seeded, 4)

	coordinator := users.users[1]
	require.NotNil(t, coordinator.AssignedClass)
	assert.Equal(t, "Class A", *coordinator.AssignedClass)
	assert.True(t, coordinator.Approved)
	assert.False(t, users.users[3].Approved)

	require.Len(t, students.students, 2)
	assert.Equal(t, "u-3", students.students[0].ID)
	assert.True(t, students.students[0].AttendancePercentage.Valid)
	assert.Equal(t, "80", students.students[0].AttendancePercentage.Decimal.String())
	assert.False(t, students.students[1].AttendancePercentage.Valid)
}

func TestSeederStopsOnWriteError(t *testing.T) {
	fixture, err := Decode(strings.NewReader(sampleFixture))
	require.NoError(t, err)

	_, err = NewSeeder(&userWriterStub{err: errors.New("db down")}, &studentWriterStub{}, nil).Apply(context.Background(), fixture)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "admin@school.test")
}
