package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStudentStanding(t *testing.T) {
	undergrad := &Student{Type: StudentTypeUndergraduate, GPA: 2.0}
	assert.InDelta(t, 2.0, undergrad.GoodStandingThreshold(), 1e-9)
	assert.True(t, undergrad.InGoodStanding())
	undergrad.GPA = 1.99
	assert.False(t, undergrad.InGoodStanding())

	grad := &Student{Type: StudentTypeGraduate, GPA: 2.5}
	assert.InDelta(t, 3.0, grad.GoodStandingThreshold(), 1e-9)
	assert.False(t, grad.InGoodStanding())
	grad.GPA = 3.0
	assert.True(t, grad.InGoodStanding())
}

func TestStudentCanGraduate(t *testing.T) {
	s := &Student{Type: StudentTypeGraduate, GPA: 3.4, Semester: 4}
	assert.False(t, s.CanGraduate())

	s.Graduate = &GraduateProfile{ThesisCompleted: true}
	assert.True(t, s.CanGraduate())

	s.Semester = 3
	assert.False(t, s.CanGraduate())
	s.Semester = 4
	s.GPA = 2.9
	assert.False(t, s.CanGraduate())
}

func TestStudentEnrollmentRefs(t *testing.T) {
	s := &Student{StudentID: "S1"}
	s.AddEnrollmentRef("E1")
	s.AddEnrollmentRef("E2")
	s.AddEnrollmentRef("E3")

	s.RemoveEnrollmentRef("E2")
	assert.Equal(t, []string{"E1", "E3"}, s.EnrollmentIDs)

	// removing an id that is not present is a no-op
	s.RemoveEnrollmentRef("E9")
	assert.Equal(t, []string{"E1", "E3"}, s.EnrollmentIDs)
}

func TestStudentMatchesName(t *testing.T) {
	s := &Student{FirstName: "Ada", LastName: "Lovelace"}
	assert.Equal(t, "Ada Lovelace", s.FullName())
	assert.True(t, s.MatchesName("ada"))
	assert.True(t, s.MatchesName("love"))
	assert.True(t, s.MatchesName("da Lov"))
	assert.False(t, s.MatchesName("babbage"))
}
