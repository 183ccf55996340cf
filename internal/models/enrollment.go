package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses. ACTIVE is the sole initial state; the other
// three are terminal.
const (
	EnrollmentStatusActive    EnrollmentStatus = "ACTIVE"
	EnrollmentStatusCompleted EnrollmentStatus = "COMPLETED"
	EnrollmentStatusDropped   EnrollmentStatus = "DROPPED"
	EnrollmentStatusWithdrawn EnrollmentStatus = "WITHDRAWN"
)

// Terminal reports whether the status permits no further transitions.
func (s EnrollmentStatus) Terminal() bool {
	switch s {
	case EnrollmentStatusCompleted, EnrollmentStatusDropped, EnrollmentStatusWithdrawn:
		return true
	}
	return false
}

// Valid reports whether the status is one of the four known values.
func (s EnrollmentStatus) Valid() bool {
	return s == EnrollmentStatusActive || s.Terminal()
}

// DefaultPassingGrade is the grade floor for passing a course.
const DefaultPassingGrade = 60.0

// attendanceGradeWeight scales the attendance percentage into the estimated
// grade used when no grade has been assigned yet.
const attendanceGradeWeight = 0.3

// Enrollment joins a student to a course. The student and course references
// are immutable after creation; enrollments are never deleted, only
// status-transitioned.
type Enrollment struct {
	EnrollmentID string           `json:"enrollment_id"`
	StudentID    string           `json:"student_id"`
	CourseID     string           `json:"course_id"`
	EnrolledAt   time.Time        `json:"enrolled_at"`
	Status       EnrollmentStatus `json:"status"`

	// Grade is the percentage grade in [0,100], absent until assigned.
	Grade *float64 `json:"grade,omitempty"`

	AttendanceCount int    `json:"attendance_count"`
	TotalClasses    int    `json:"total_classes"`
	Feedback        string `json:"feedback,omitempty"`
}

// Key returns the store key for the enrollment.
func (e *Enrollment) Key() string { return e.EnrollmentID }

// IsActive reports whether the enrollment counts against course capacity.
func (e *Enrollment) IsActive() bool {
	return e.Status == EnrollmentStatusActive
}

// Graded reports whether a grade has been assigned.
func (e *Enrollment) Graded() bool {
	return e.Grade != nil
}

// NumericGrade returns the assigned grade, or 0 when none has been set.
func (e *Enrollment) NumericGrade() float64 {
	if e.Grade != nil {
		return *e.Grade
	}
	return 0
}

// MarkAttendance records one held class and whether the student was present.
func (e *Enrollment) MarkAttendance(present bool) {
	e.TotalClasses++
	if present {
		e.AttendanceCount++
	}
}

// AttendancePercentage returns attended/held as a percentage, 100 when no
// classes have been recorded yet.
func (e *Enrollment) AttendancePercentage() float64 {
	if e.TotalClasses == 0 {
		return 100.0
	}
	return float64(e.AttendanceCount) * 100.0 / float64(e.TotalClasses)
}

// EffectiveGrade returns the assigned grade, falling back to an estimate
// derived from attendance when none has been set. The fallback never writes
// back to the stored grade.
func (e *Enrollment) EffectiveGrade() float64 {
	if e.Grade != nil {
		return *e.Grade
	}
	return e.AttendancePercentage() * attendanceGradeWeight
}

// LetterGrade maps the effective grade onto the fixed A–F scale.
func (e *Enrollment) LetterGrade() string {
	grade := e.EffectiveGrade()
	switch {
	case grade >= 90:
		return "A"
	case grade >= 80:
		return "B"
	case grade >= 70:
		return "C"
	case grade >= 60:
		return "D"
	default:
		return "F"
	}
}

// HasPassed applies the default passing threshold to the effective grade.
func (e *Enrollment) HasPassed() bool {
	return e.PassedWith(DefaultPassingGrade)
}

// PassedWith applies a configured passing threshold to the effective grade.
func (e *Enrollment) PassedWith(threshold float64) bool {
	return e.EffectiveGrade() >= threshold
}
