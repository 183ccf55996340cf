package notify

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/academix/registrar-api/internal/models"
)

// significantSwing is the absolute grade delta above which the audit
// recorder flags a change for review.
const significantSwing = 20.0

// parentNoticeGPAFloor triggers the parent notice when the student's GPA,
// read at fan-out time, is below it.
const parentNoticeGPAFloor = 2.0

// DefaultObservers returns the stock observer set in its contractual order:
// email, SMS, audit recorder, parent notice.
func DefaultObservers(logger *zap.Logger, recorder *AuditRecorder, passingGrade float64) []GradeObserver {
	return []GradeObserver{
		NewEmailNotifier(logger),
		NewSMSNotifier(logger),
		recorder,
		NewParentNotifier(logger, passingGrade),
	}
}

// EmailNotifier formats a grade-update email. Delivery is a structured log
// entry; the notifier is a pure sink.
type EmailNotifier struct {
	logger *zap.Logger
}

// NewEmailNotifier constructs the email sink.
func NewEmailNotifier(logger *zap.Logger) *EmailNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailNotifier{logger: logger}
}

// OnGradeUpdated implements GradeObserver.
func (n *EmailNotifier) OnGradeUpdated(_ context.Context, update GradeUpdate) {
	body := fmt.Sprintf("Dear %s, your grade for %s is now %.2f%% (%s).",
		update.Student.FullName(), update.Course.CourseCode, update.NewGrade, update.Enrollment.LetterGrade())
	fields := []zap.Field{
		zap.String("channel", "email"),
		zap.String("to", update.Student.Email),
		zap.String("subject", "Grade update for "+update.Course.CourseName),
		zap.String("body", body),
		zap.Bool("passed", update.Enrollment.HasPassed()),
	}
	if update.OldGrade > 0 {
		fields = append(fields, zap.Float64("previous_grade", update.OldGrade))
	}
	n.logger.Info("grade notification", fields...)
}

// SMSNotifier formats a short grade-update text message.
type SMSNotifier struct {
	logger *zap.Logger
}

// NewSMSNotifier constructs the SMS sink.
func NewSMSNotifier(logger *zap.Logger) *SMSNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SMSNotifier{logger: logger}
}

// OnGradeUpdated implements GradeObserver.
func (n *SMSNotifier) OnGradeUpdated(_ context.Context, update GradeUpdate) {
	n.logger.Info("grade notification",
		zap.String("channel", "sms"),
		zap.String("to", update.Student.Phone),
		zap.String("message", fmt.Sprintf("Grade updated for %s: %.2f%% (%s)",
			update.Course.CourseCode, update.NewGrade, update.Enrollment.LetterGrade())),
	)
}

// AuditSink receives grade-change records for durable storage.
type AuditSink interface {
	Record(ctx context.Context, record models.GradeChangeRecord) error
}

// AuditRecorder keeps a bounded in-memory log of grade changes, flags swings
// whose absolute magnitude exceeds 20 points, and forwards each record to an
// optional durable sink.
type AuditRecorder struct {
	logger       *zap.Logger
	sink         AuditSink
	limit        int
	observeWrite func(time.Duration)

	mu      sync.Mutex
	records []models.GradeChangeRecord
}

// NewAuditRecorder constructs the audit observer. sink may be nil.
func NewAuditRecorder(logger *zap.Logger, sink AuditSink, limit int) *AuditRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limit <= 0 {
		limit = 256
	}
	return &AuditRecorder{logger: logger, sink: sink, limit: limit}
}

// SetWriteObserver installs a callback timing each durable sink write.
func (r *AuditRecorder) SetWriteObserver(fn func(time.Duration)) {
	r.observeWrite = fn
}

// OnGradeUpdated implements GradeObserver.
func (r *AuditRecorder) OnGradeUpdated(ctx context.Context, update GradeUpdate) {
	delta := update.NewGrade - update.OldGrade
	// A swing is only meaningful when there was a previous grade.
	flagged := update.OldGrade > 0 && math.Abs(delta) > significantSwing

	record := models.GradeChangeRecord{
		ID:           uuid.NewString(),
		StudentID:    update.Student.StudentID,
		CourseID:     update.Course.CourseID,
		EnrollmentID: update.Enrollment.EnrollmentID,
		OldGrade:     update.OldGrade,
		NewGrade:     update.NewGrade,
		Delta:        delta,
		Flagged:      flagged,
		RecordedAt:   time.Now().UTC(),
	}

	r.mu.Lock()
	r.records = append(r.records, record)
	if len(r.records) > r.limit {
		r.records = r.records[len(r.records)-r.limit:]
	}
	r.mu.Unlock()

	fields := []zap.Field{
		zap.String("channel", "audit"),
		zap.String("student_id", record.StudentID),
		zap.String("enrollment_id", record.EnrollmentID),
		zap.Float64("old_grade", record.OldGrade),
		zap.Float64("new_grade", record.NewGrade),
	}
	if flagged {
		fields = append(fields, zap.Float64("delta", delta))
		r.logger.Warn("significant grade change", fields...)
	} else {
		r.logger.Info("grade change recorded", fields...)
	}

	if r.sink != nil {
		started := time.Now()
		err := r.sink.Record(ctx, record)
		if r.observeWrite != nil {
			r.observeWrite(time.Since(started))
		}
		if err != nil {
			r.logger.Error("audit sink write failed", zap.Error(err), zap.String("record_id", record.ID))
		}
	}
}

// Recent returns up to limit most recent records, newest last.
func (r *AuditRecorder) Recent(limit int) []models.GradeChangeRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit <= 0 || limit > len(r.records) {
		limit = len(r.records)
	}
	out := make([]models.GradeChangeRecord, limit)
	copy(out, r.records[len(r.records)-limit:])
	return out
}

// ParentNotifier fires only for failing grades or students already below the
// probation GPA floor. The GPA it reads is the value current at fan-out
// time, which precedes this grade change's own GPA recompute.
type ParentNotifier struct {
	logger       *zap.Logger
	passingGrade float64
}

// NewParentNotifier constructs the conditional parent sink.
func NewParentNotifier(logger *zap.Logger, passingGrade float64) *ParentNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if passingGrade <= 0 {
		passingGrade = models.DefaultPassingGrade
	}
	return &ParentNotifier{logger: logger, passingGrade: passingGrade}
}

// OnGradeUpdated implements GradeObserver.
func (n *ParentNotifier) OnGradeUpdated(_ context.Context, update GradeUpdate) {
	if update.NewGrade >= n.passingGrade && update.Student.GPA >= parentNoticeGPAFloor {
		return
	}
	fields := []zap.Field{
		zap.String("channel", "parent"),
		zap.String("student", update.Student.FullName()),
		zap.String("course", update.Course.CourseName),
		zap.Float64("grade", update.NewGrade),
		zap.String("letter_grade", update.Enrollment.LetterGrade()),
	}
	if !update.Enrollment.HasPassed() {
		fields = append(fields, zap.String("advice", "schedule a meeting with the academic advisor"))
	}
	n.logger.Info("parent notification", fields...)
}
