package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/academix/registrar-api/internal/models"
)

type memorySink struct {
	records []models.GradeChangeRecord
	err     error
}

func (s *memorySink) Record(_ context.Context, record models.GradeChangeRecord) error {
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, record)
	return nil
}

func TestAuditRecorderFlagsLargeSwing(t *testing.T) {
	recorder := NewAuditRecorder(zap.NewNop(), nil, 0)

	// first grade: no previous value, never flagged regardless of magnitude
	recorder.OnGradeUpdated(context.Background(), sampleUpdate(0, 95))
	// 21-point drop from an existing grade
	recorder.OnGradeUpdated(context.Background(), sampleUpdate(95, 74))
	// exactly 20 points is not "more than" the threshold
	recorder.OnGradeUpdated(context.Background(), sampleUpdate(74, 94))

	records := recorder.Recent(0)
	require.Len(t, records, 3)
	assert.False(t, records[0].Flagged)
	assert.True(t, records[1].Flagged)
	assert.InDelta(t, -21.0, records[1].Delta, 1e-9)
	assert.False(t, records[2].Flagged)
	assert.NotEmpty(t, records[0].ID)
}

func TestAuditRecorderBoundAndRecent(t *testing.T) {
	recorder := NewAuditRecorder(zap.NewNop(), nil, 3)
	for i := 0; i < 5; i++ {
		recorder.OnGradeUpdated(context.Background(), sampleUpdate(0, float64(50+i)))
	}

	records := recorder.Recent(0)
	require.Len(t, records, 3)
	assert.InDelta(t, 52.0, records[0].NewGrade, 1e-9)
	assert.InDelta(t, 54.0, records[2].NewGrade, 1e-9)

	last := recorder.Recent(1)
	require.Len(t, last, 1)
	assert.InDelta(t, 54.0, last[0].NewGrade, 1e-9)
}

func TestAuditRecorderForwardsToSink(t *testing.T) {
	sink := &memorySink{}
	recorder := NewAuditRecorder(zap.NewNop(), sink, 0)
	recorder.OnGradeUpdated(context.Background(), sampleUpdate(50, 80))

	require.Len(t, sink.records, 1)
	assert.Equal(t, "S1", sink.records[0].StudentID)
	assert.True(t, sink.records[0].Flagged)

	// a failing sink must not lose the in-memory record
	failing := NewAuditRecorder(zap.NewNop(), &memorySink{err: errors.New("db down")}, 0)
	failing.OnGradeUpdated(context.Background(), sampleUpdate(50, 80))
	assert.Len(t, failing.Recent(0), 1)
}

func TestAuditRecorderTimesSinkWrites(t *testing.T) {
	var observed []time.Duration
	recorder := NewAuditRecorder(zap.NewNop(), &memorySink{}, 0)
	recorder.SetWriteObserver(func(d time.Duration) { observed = append(observed, d) })

	recorder.OnGradeUpdated(context.Background(), sampleUpdate(0, 70))
	recorder.OnGradeUpdated(context.Background(), sampleUpdate(70, 85))
	require.Len(t, observed, 2)
	assert.GreaterOrEqual(t, observed[0], time.Duration(0))

	// failed writes are still timed
	failing := NewAuditRecorder(zap.NewNop(), &memorySink{err: errors.New("db down")}, 0)
	var failedWrites int
	failing.SetWriteObserver(func(time.Duration) { failedWrites++ })
	failing.OnGradeUpdated(context.Background(), sampleUpdate(0, 70))
	assert.Equal(t, 1, failedWrites)

	// no sink means no timing callback
	bare := NewAuditRecorder(zap.NewNop(), nil, 0)
	var bareWrites int
	bare.SetWriteObserver(func(time.Duration) { bareWrites++ })
	bare.OnGradeUpdated(context.Background(), sampleUpdate(0, 70))
	assert.Zero(t, bareWrites)
}

func TestParentNotifierConditions(t *testing.T) {
	cases := []struct {
		name     string
		newGrade float64
		gpa      float64
		notified bool
	}{
		{"passing grade, healthy gpa", 75, 3.0, false},
		{"failing grade", 45, 3.0, true},
		{"low gpa despite passing grade", 75, 1.9, true},
		{"boundary grade passes", 60, 2.0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			core, logs := observer.New(zap.InfoLevel)
			notifier := NewParentNotifier(zap.New(core), 60.0)

			update := sampleUpdate(0, tc.newGrade)
			update.Student.GPA = tc.gpa
			notifier.OnGradeUpdated(context.Background(), update)

			notified := logs.FilterMessage("parent notification").Len() > 0
			assert.Equal(t, tc.notified, notified)
		})
	}
}

func TestEmailNotifierIncludesPreviousGrade(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	notifier := NewEmailNotifier(zap.New(core))

	notifier.OnGradeUpdated(context.Background(), sampleUpdate(0, 85))
	notifier.OnGradeUpdated(context.Background(), sampleUpdate(85, 90))

	entries := logs.FilterMessage("grade notification").All()
	require.Len(t, entries, 2)
	assert.NotContains(t, entries[0].ContextMap(), "previous_grade")
	assert.Contains(t, entries[1].ContextMap(), "previous_grade")
}
