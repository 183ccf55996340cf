package models

import "time"

// CourseStatistics summarises enrollment outcomes for a single course.
// Grade aggregates cover graded enrollments only; the min/max pointers are
// nil when no enrollment has a grade.
type CourseStatistics struct {
	CourseID             string   `json:"course_id"`
	TotalEnrollments     int      `json:"total_enrollments"`
	ActiveEnrollments    int      `json:"active_enrollments"`
	CompletedEnrollments int      `json:"completed_enrollments"`
	AverageGrade         float64  `json:"average_grade"`
	PassRate             float64  `json:"pass_rate"`
	HighestGrade         *float64 `json:"highest_grade,omitempty"`
	LowestGrade          *float64 `json:"lowest_grade,omitempty"`
}

// StudentStatistics summarises the student body.
type StudentStatistics struct {
	TotalStudents    int            `json:"total_students"`
	AverageGPA       float64        `json:"average_gpa"`
	GoodStanding     int            `json:"good_standing"`
	OnProbation      int            `json:"on_probation"`
	GraduateStudents int            `json:"graduate_students"`
	ByProgram        map[string]int `json:"by_program"`
}

// SystemMetrics is a lightweight aggregate of process and request metrics
// for the admin API, derived from the Prometheus collectors.
type SystemMetrics struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	GradeUpdatesTotal        uint64    `json:"grade_updates_total"`
	EnrollmentsTotal         uint64    `json:"enrollments_total"`
	EnrollmentsRejected      uint64    `json:"enrollments_rejected"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// GradeChangeRecord is one entry in the grade-change audit trail.
type GradeChangeRecord struct {
	ID           string    `db:"id" json:"id"`
	StudentID    string    `db:"student_id" json:"student_id"`
	CourseID     string    `db:"course_id" json:"course_id"`
	EnrollmentID string    `db:"enrollment_id" json:"enrollment_id"`
	OldGrade     float64   `db:"old_grade" json:"old_grade"`
	NewGrade     float64   `db:"new_grade" json:"new_grade"`
	Delta        float64   `db:"delta" json:"delta"`
	Flagged      bool      `db:"flagged" json:"flagged"`
	RecordedAt   time.Time `db:"recorded_at" json:"recorded_at"`
}
