package models

import "time"

// StudentType discriminates the academic standing rule applied to a student.
type StudentType string

// Supported student types.
const (
	StudentTypeUndergraduate StudentType = "UNDERGRADUATE"
	StudentTypeGraduate      StudentType = "GRADUATE"
)

// Good-standing GPA thresholds per student type.
const (
	undergraduateStandingThreshold = 2.0
	graduateStandingThreshold      = 3.0
)

// GraduateProfile carries the fields that only exist for graduate students.
type GraduateProfile struct {
	ThesisTitle        string     `json:"thesis_title,omitempty"`
	Advisor            string     `json:"advisor,omitempty"`
	ResearchArea       string     `json:"research_area,omitempty"`
	ThesisCompleted    bool       `json:"thesis_completed"`
	ExpectedGraduation *time.Time `json:"expected_graduation,omitempty"`
}

// Student represents a learner registered with the institution. GPA is a
// cached derived value kept consistent with the average of graded enrollment
// grades; only the snapshot load path writes it directly.
type Student struct {
	StudentID   string      `json:"student_id"`
	FirstName   string      `json:"first_name"`
	LastName    string      `json:"last_name"`
	Email       string      `json:"email"`
	Phone       string      `json:"phone,omitempty"`
	DateOfBirth *time.Time  `json:"date_of_birth,omitempty"`
	Program     string      `json:"program"`
	Semester    int         `json:"semester"`
	GPA         float64     `json:"gpa"`
	Type        StudentType `json:"type"`
	EnrolledAt  time.Time   `json:"enrolled_at"`

	// EnrollmentIDs is the non-owning back-reference list, kept in sync with
	// the enrollment store on every enroll/drop.
	EnrollmentIDs []string `json:"enrollment_ids,omitempty"`

	Graduate *GraduateProfile `json:"graduate,omitempty"`
}

// Key returns the store key for the student.
func (s *Student) Key() string { return s.StudentID }

// FullName joins first and last name.
func (s *Student) FullName() string {
	if s.FirstName == "" {
		return s.LastName
	}
	if s.LastName == "" {
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}

// GoodStandingThreshold returns the GPA floor below which the student is on
// probation. Graduate students are held to a stricter bar.
func (s *Student) GoodStandingThreshold() float64 {
	if s.Type == StudentTypeGraduate {
		return graduateStandingThreshold
	}
	return undergraduateStandingThreshold
}

// InGoodStanding reports whether the student's GPA meets their type's
// threshold.
func (s *Student) InGoodStanding() bool {
	return s.GPA >= s.GoodStandingThreshold()
}

// CanGraduate reports whether a graduate student has met all graduation
// requirements. Always false for undergraduates.
func (s *Student) CanGraduate() bool {
	if s.Graduate == nil {
		return false
	}
	return s.Graduate.ThesisCompleted && s.GPA >= graduateStandingThreshold && s.Semester >= 4
}

// AddEnrollmentRef appends an enrollment id to the back-reference list.
func (s *Student) AddEnrollmentRef(enrollmentID string) {
	s.EnrollmentIDs = append(s.EnrollmentIDs, enrollmentID)
}

// RemoveEnrollmentRef drops an enrollment id from the back-reference list.
func (s *Student) RemoveEnrollmentRef(enrollmentID string) {
	for i, id := range s.EnrollmentIDs {
		if id == enrollmentID {
			s.EnrollmentIDs = append(s.EnrollmentIDs[:i], s.EnrollmentIDs[i+1:]...)
			return
		}
	}
}

// MatchesName reports whether the full name contains the query,
// case-insensitively.
func (s *Student) MatchesName(name string) bool {
	return containsFold(s.FullName(), name)
}
