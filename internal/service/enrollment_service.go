package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/academix/registrar-api/internal/models"
	"github.com/academix/registrar-api/internal/notify"
	"github.com/academix/registrar-api/internal/store"
	appErrors "github.com/academix/registrar-api/pkg/errors"
)

const enrollmentIDPrefix = "ENR"

// EnrollRequest describes an enrollment creation request.
type EnrollRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	CourseID  string `json:"course_id" validate:"required"`
}

// EnrollmentService owns admission control and the grade pipeline. All
// read-decide-write sequences (capacity check + insert, old/new grade
// capture) run under a single mutex so the capacity invariant and the
// notification contract hold under concurrent callers.
type EnrollmentService struct {
	enrollments *store.Store[*models.Enrollment]
	students    *store.Store[*models.Student]
	courses     *store.Store[*models.Course]
	fanout      *notify.Fanout
	validator   *validator.Validate
	logger      *zap.Logger
	metrics     *MetricsService

	defaultCapacity int
	passingGrade    float64

	mu      sync.Mutex
	nextSeq int
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(
	enrollments *store.Store[*models.Enrollment],
	students *store.Store[*models.Student],
	courses *store.Store[*models.Course],
	fanout *notify.Fanout,
	validate *validator.Validate,
	logger *zap.Logger,
	defaultCapacity int,
	passingGrade float64,
) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultCapacity <= 0 {
		defaultCapacity = 30
	}
	if passingGrade <= 0 {
		passingGrade = models.DefaultPassingGrade
	}
	return &EnrollmentService{
		enrollments:     enrollments,
		students:        students,
		courses:         courses,
		fanout:          fanout,
		validator:       validate,
		logger:          logger,
		defaultCapacity: defaultCapacity,
		passingGrade:    passingGrade,
		nextSeq:         1,
	}
}

// SetMetrics attaches the optional Prometheus instrumentation. A nil
// receiver-safe MetricsService keeps the hot paths free of nil checks.
func (s *EnrollmentService) SetMetrics(m *MetricsService) {
	s.metrics = m
}

// Enroll registers a student into a course after the duplicate-active and
// capacity checks pass. The capacity count is recomputed live from the store
// on every call.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidRequest.Code, appErrors.ErrInvalidRequest.Status, "student and course references are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	student, ok := s.students.Get(req.StudentID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found: "+req.StudentID)
	}
	course, ok := s.courses.Get(req.CourseID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found: "+req.CourseID)
	}

	for _, e := range s.enrollments.Values() {
		if e.StudentID == req.StudentID && e.CourseID == req.CourseID && e.IsActive() {
			s.metrics.RecordEnrollment("duplicate")
			return nil, appErrors.ErrDuplicateEnrollment
		}
	}

	capacity := s.capacityFor(course)
	if s.activeCountLocked(course.CourseID) >= capacity {
		s.metrics.RecordEnrollment("capacity")
		return nil, appErrors.Clone(appErrors.ErrCapacityExceeded, fmt.Sprintf("course is full, max capacity %d", capacity))
	}

	enrollment := &models.Enrollment{
		EnrollmentID: s.nextIDLocked(),
		StudentID:    student.StudentID,
		CourseID:     course.CourseID,
		EnrolledAt:   time.Now().UTC(),
		Status:       models.EnrollmentStatusActive,
	}
	if err := s.enrollments.Put(enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store enrollment")
	}
	student.AddEnrollmentRef(enrollment.EnrollmentID)
	s.metrics.RecordEnrollment("accepted")

	s.logger.Info("student enrolled",
		zap.String("enrollment_id", enrollment.EnrollmentID),
		zap.String("student_id", student.StudentID),
		zap.String("course_id", course.CourseID),
	)
	return enrollment, nil
}

// Drop transitions an active enrollment to DROPPED and removes it from the
// student's back-reference list. The enrollment itself stays in the store.
func (s *EnrollmentService) Drop(ctx context.Context, enrollmentID string) (*models.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	enrollment, ok := s.enrollments.Get(enrollmentID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found: "+enrollmentID)
	}
	if enrollment.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "enrollment already "+strings.ToLower(string(enrollment.Status)))
	}

	enrollment.Status = models.EnrollmentStatusDropped
	if student, ok := s.students.Get(enrollment.StudentID); ok {
		student.RemoveEnrollmentRef(enrollmentID)
	}
	return enrollment, nil
}

// Withdraw transitions an active enrollment to WITHDRAWN, keeping the
// student's back-reference intact.
func (s *EnrollmentService) Withdraw(ctx context.Context, enrollmentID string) (*models.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	enrollment, ok := s.enrollments.Get(enrollmentID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found: "+enrollmentID)
	}
	if enrollment.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "enrollment already "+strings.ToLower(string(enrollment.Status)))
	}

	enrollment.Status = models.EnrollmentStatusWithdrawn
	return enrollment, nil
}

// Complete records the final grade and transitions the enrollment to
// COMPLETED. Completion bypasses the notification fan-out; only AssignGrade
// triggers observers.
func (s *EnrollmentService) Complete(ctx context.Context, enrollmentID string, finalGrade float64) (*models.Enrollment, error) {
	if finalGrade < 0 || finalGrade > 100 {
		return nil, appErrors.ErrInvalidGrade
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	enrollment, ok := s.enrollments.Get(enrollmentID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found: "+enrollmentID)
	}
	if enrollment.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "enrollment already "+strings.ToLower(string(enrollment.Status)))
	}

	grade := finalGrade
	enrollment.Grade = &grade
	enrollment.Status = models.EnrollmentStatusCompleted

	if student, ok := s.students.Get(enrollment.StudentID); ok {
		s.recomputeGPALocked(student)
	}
	return enrollment, nil
}

// AssignGrade is the sanctioned grade update path: it writes the grade,
// notifies observers with the old and new values, and then recomputes the
// student's GPA. Observers deliberately run before the recompute, so the
// GPA they read is the one preceding this change.
func (s *EnrollmentService) AssignGrade(ctx context.Context, enrollmentID string, newGrade float64) (*models.Enrollment, error) {
	if newGrade < 0 || newGrade > 100 {
		return nil, appErrors.ErrInvalidGrade
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	enrollment, ok := s.enrollments.Get(enrollmentID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found: "+enrollmentID)
	}

	oldGrade := enrollment.NumericGrade()
	grade := newGrade
	enrollment.Grade = &grade

	student, studentOK := s.students.Get(enrollment.StudentID)
	course, courseOK := s.courses.Get(enrollment.CourseID)
	if studentOK && courseOK && s.fanout != nil {
		started := time.Now()
		s.fanout.Notify(ctx, notify.GradeUpdate{
			Student:    student,
			Enrollment: enrollment,
			Course:     course,
			OldGrade:   oldGrade,
			NewGrade:   newGrade,
		})
		s.metrics.ObserveNotificationFanout(time.Since(started))
	}
	if studentOK {
		s.recomputeGPALocked(student)
	}
	s.metrics.RecordGradeUpdate()
	return enrollment, nil
}

// MarkAttendance records one held class for the enrollment.
func (s *EnrollmentService) MarkAttendance(ctx context.Context, enrollmentID string, present bool) (*models.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	enrollment, ok := s.enrollments.Get(enrollmentID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found: "+enrollmentID)
	}
	enrollment.MarkAttendance(present)
	return enrollment, nil
}

// SetFeedback attaches free-text feedback to the enrollment.
func (s *EnrollmentService) SetFeedback(ctx context.Context, enrollmentID, feedback string) (*models.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	enrollment, ok := s.enrollments.Get(enrollmentID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found: "+enrollmentID)
	}
	enrollment.Feedback = feedback
	return enrollment, nil
}

// Get returns the enrollment by id.
func (s *EnrollmentService) Get(ctx context.Context, enrollmentID string) (*models.Enrollment, error) {
	enrollment, ok := s.enrollments.Get(enrollmentID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found: "+enrollmentID)
	}
	return enrollment, nil
}

// List returns a snapshot of all enrollments.
func (s *EnrollmentService) List(ctx context.Context) []*models.Enrollment {
	return s.enrollments.Values()
}

// ForStudent returns a student's enrollments ordered by enrollment date.
func (s *EnrollmentService) ForStudent(ctx context.Context, studentID string) []*models.Enrollment {
	var out []*models.Enrollment
	for _, e := range s.enrollments.Values() {
		if e.StudentID == studentID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EnrolledAt.Before(out[j].EnrolledAt)
	})
	return out
}

// ActiveForStudent returns a student's active enrollments.
func (s *EnrollmentService) ActiveForStudent(ctx context.Context, studentID string) []*models.Enrollment {
	var out []*models.Enrollment
	for _, e := range s.enrollments.Values() {
		if e.StudentID == studentID && e.IsActive() {
			out = append(out, e)
		}
	}
	return out
}

// ForCourse returns a course's enrollments ordered by student name.
func (s *EnrollmentService) ForCourse(ctx context.Context, courseID string) []*models.Enrollment {
	var out []*models.Enrollment
	for _, e := range s.enrollments.Values() {
		if e.CourseID == courseID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return s.studentName(out[i].StudentID) < s.studentName(out[j].StudentID)
	})
	return out
}

// ByGradeRange returns graded enrollments within [minGrade, maxGrade],
// highest grade first.
func (s *EnrollmentService) ByGradeRange(ctx context.Context, minGrade, maxGrade float64) []*models.Enrollment {
	var out []*models.Enrollment
	for _, e := range s.enrollments.Values() {
		if e.Graded() && e.NumericGrade() >= minGrade && e.NumericGrade() <= maxGrade {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].NumericGrade() > out[j].NumericGrade()
	})
	return out
}

// ByStatus returns all enrollments currently in the given status.
func (s *EnrollmentService) ByStatus(ctx context.Context, status models.EnrollmentStatus) []*models.Enrollment {
	var out []*models.Enrollment
	for _, e := range s.enrollments.Values() {
		if e.Status == status {
			out = append(out, e)
		}
	}
	return out
}

// ActiveCount returns the number of active enrollments for a course.
func (s *EnrollmentService) ActiveCount(ctx context.Context, courseID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeCountLocked(courseID)
}

// ActiveTotal returns the number of active enrollments across all courses.
func (s *EnrollmentService) ActiveTotal() int {
	count := 0
	for _, e := range s.enrollments.Values() {
		if e.IsActive() {
			count++
		}
	}
	return count
}

// AverageGrade returns the mean grade over a course's graded enrollments,
// 0.0 when none exist.
func (s *EnrollmentService) AverageGrade(ctx context.Context, courseID string) float64 {
	var sum float64
	var count int
	for _, e := range s.enrollments.Values() {
		if e.CourseID == courseID && e.Graded() {
			sum += e.NumericGrade()
			count++
		}
	}
	if count == 0 {
		return 0.0
	}
	return sum / float64(count)
}

// PassRate returns 100 × passed / graded for a course, 0.0 when no
// enrollment has a grade.
func (s *EnrollmentService) PassRate(ctx context.Context, courseID string) float64 {
	var graded, passed int
	for _, e := range s.enrollments.Values() {
		if e.CourseID != courseID || !e.Graded() {
			continue
		}
		graded++
		if e.PassedWith(s.passingGrade) {
			passed++
		}
	}
	if graded == 0 {
		return 0.0
	}
	return float64(passed) * 100.0 / float64(graded)
}

// CourseStatistics aggregates enrollment counts and grade metrics for a
// course at call time.
func (s *EnrollmentService) CourseStatistics(ctx context.Context, courseID string) (*models.CourseStatistics, error) {
	if !s.courses.Exists(courseID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found: "+courseID)
	}

	stats := &models.CourseStatistics{CourseID: courseID}
	var gradeSum float64
	var graded, passed int
	for _, e := range s.enrollments.Values() {
		if e.CourseID != courseID {
			continue
		}
		stats.TotalEnrollments++
		switch e.Status {
		case models.EnrollmentStatusActive:
			stats.ActiveEnrollments++
		case models.EnrollmentStatusCompleted:
			stats.CompletedEnrollments++
		}
		if !e.Graded() {
			continue
		}
		grade := e.NumericGrade()
		gradeSum += grade
		graded++
		if e.PassedWith(s.passingGrade) {
			passed++
		}
		if stats.HighestGrade == nil || grade > *stats.HighestGrade {
			g := grade
			stats.HighestGrade = &g
		}
		if stats.LowestGrade == nil || grade < *stats.LowestGrade {
			g := grade
			stats.LowestGrade = &g
		}
	}
	if graded > 0 {
		stats.AverageGrade = gradeSum / float64(graded)
		stats.PassRate = float64(passed) * 100.0 / float64(graded)
	}
	return stats, nil
}

// SyncIDCounter re-seeds the enrollment id sequence from the highest id in
// the store. Called after a snapshot load.
func (s *EnrollmentService) SyncIDCounter() {
	s.mu.Lock()
	defer s.mu.Unlock()
	max := 0
	for _, e := range s.enrollments.Values() {
		if n, ok := parseSequence(e.EnrollmentID, enrollmentIDPrefix); ok && n > max {
			max = n
		}
	}
	s.nextSeq = max + 1
}

func (s *EnrollmentService) capacityFor(course *models.Course) int {
	if course.MaxCapacity > 0 {
		return course.MaxCapacity
	}
	return s.defaultCapacity
}

func (s *EnrollmentService) activeCountLocked(courseID string) int {
	count := 0
	for _, e := range s.enrollments.Values() {
		if e.CourseID == courseID && e.IsActive() {
			count++
		}
	}
	return count
}

func (s *EnrollmentService) nextIDLocked() string {
	id := fmt.Sprintf("%s%06d", enrollmentIDPrefix, s.nextSeq)
	s.nextSeq++
	return id
}

// recomputeGPALocked rebuilds the student's GPA from scratch: the average of
// all graded enrollment grades for the student, scaled to the 4.0 system.
// No graded enrollments means exactly 0.0.
func (s *EnrollmentService) recomputeGPALocked(student *models.Student) {
	var sum float64
	var count int
	for _, e := range s.enrollments.Values() {
		if e.StudentID == student.StudentID && e.Graded() {
			sum += e.NumericGrade()
			count++
		}
	}
	if count == 0 {
		student.GPA = 0.0
		return
	}
	student.GPA = sum / float64(count) / 25.0
}

func (s *EnrollmentService) studentName(studentID string) string {
	if student, ok := s.students.Get(studentID); ok {
		return student.FullName()
	}
	return studentID
}

func parseSequence(id, prefix string) (int, bool) {
	if !strings.HasPrefix(id, prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(id[len(prefix):])
	if err != nil {
		return 0, false
	}
	return n, true
}
