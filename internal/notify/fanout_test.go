package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/academix/registrar-api/internal/models"
)

type orderObserver struct {
	name  string
	calls *[]string
}

func (o *orderObserver) OnGradeUpdated(_ context.Context, _ GradeUpdate) {
	*o.calls = append(*o.calls, o.name)
}

type panickyObserver struct{}

func (panickyObserver) OnGradeUpdated(_ context.Context, _ GradeUpdate) {
	panic("notification channel down")
}

func sampleUpdate(oldGrade, newGrade float64) GradeUpdate {
	grade := newGrade
	return GradeUpdate{
		Student:    &models.Student{StudentID: "S1", FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.edu", GPA: 3.0},
		Enrollment: &models.Enrollment{EnrollmentID: "E1", StudentID: "S1", CourseID: "C1", Status: models.EnrollmentStatusActive, Grade: &grade},
		Course:     &models.Course{CourseID: "C1", CourseCode: "CS101", CourseName: "Intro to Programming"},
		OldGrade:   oldGrade,
		NewGrade:   newGrade,
	}
}

func TestFanoutPreservesOrder(t *testing.T) {
	var calls []string
	fanout := NewFanout([]GradeObserver{
		&orderObserver{name: "first", calls: &calls},
		&orderObserver{name: "second", calls: &calls},
	}, zap.NewNop())
	fanout.Register(&orderObserver{name: "third", calls: &calls})

	fanout.Notify(context.Background(), sampleUpdate(0, 80))
	assert.Equal(t, []string{"first", "second", "third"}, calls)
}

func TestFanoutIsolatesPanics(t *testing.T) {
	var calls []string
	fanout := NewFanout([]GradeObserver{
		&orderObserver{name: "before", calls: &calls},
		panickyObserver{},
		&orderObserver{name: "after", calls: &calls},
	}, zap.NewNop())

	assert.NotPanics(t, func() {
		fanout.Notify(context.Background(), sampleUpdate(0, 80))
	})
	assert.Equal(t, []string{"before", "after"}, calls)
}

func TestDefaultObserverOrder(t *testing.T) {
	recorder := NewAuditRecorder(zap.NewNop(), nil, 0)
	observers := DefaultObservers(zap.NewNop(), recorder, 60.0)
	require.Len(t, observers, 4)
	assert.IsType(t, &EmailNotifier{}, observers[0])
	assert.IsType(t, &SMSNotifier{}, observers[1])
	assert.IsType(t, &AuditRecorder{}, observers[2])
	assert.IsType(t, &ParentNotifier{}, observers[3])
}
