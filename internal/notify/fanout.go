// Package notify implements the grade-update notification fan-out: an
// explicit, ordered list of observer implementations invoked synchronously
// whenever a grade flows through the sanctioned update path.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/academix/registrar-api/internal/models"
)

// GradeUpdate carries the full context of one grade change. Observers read
// it; they must not mutate the referenced entities.
type GradeUpdate struct {
	Student    *models.Student
	Enrollment *models.Enrollment
	Course     *models.Course
	OldGrade   float64
	NewGrade   float64
}

// GradeObserver is notified after a grade has been written.
type GradeObserver interface {
	OnGradeUpdated(ctx context.Context, update GradeUpdate)
}

// Fanout invokes observers sequentially in registration order. A panicking
// observer is logged and skipped so one broken notification channel cannot
// block grade recording; the grade mutation has already committed by the
// time observers run.
type Fanout struct {
	observers []GradeObserver
	logger    *zap.Logger
}

// NewFanout constructs a fan-out over the given observers. Order is
// preserved and is the invocation order.
func NewFanout(observers []GradeObserver, logger *zap.Logger) *Fanout {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fanout{observers: observers, logger: logger}
}

// Register appends an observer after the existing ones.
func (f *Fanout) Register(observer GradeObserver) {
	if observer != nil {
		f.observers = append(f.observers, observer)
	}
}

// Notify delivers the update to every observer in order.
func (f *Fanout) Notify(ctx context.Context, update GradeUpdate) {
	for _, observer := range f.observers {
		f.deliver(ctx, observer, update)
	}
}

func (f *Fanout) deliver(ctx context.Context, observer GradeObserver, update GradeUpdate) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("grade observer panicked",
				zap.Any("panic", r),
				zap.String("enrollment_id", update.Enrollment.EnrollmentID),
			)
		}
	}()
	observer.OnGradeUpdated(ctx, update)
}
