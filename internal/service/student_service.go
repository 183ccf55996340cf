package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/academix/registrar-api/internal/models"
	"github.com/academix/registrar-api/internal/store"
	appErrors "github.com/academix/registrar-api/pkg/errors"
)

const studentIDPrefix = "STU"

// CreateStudentRequest carries the fields accepted on student creation.
type CreateStudentRequest struct {
	FirstName   string             `json:"first_name" validate:"required,min=1,max=100"`
	LastName    string             `json:"last_name" validate:"required,min=1,max=100"`
	Email       string             `json:"email" validate:"required,email"`
	Phone       string             `json:"phone" validate:"omitempty,min=7,max=20"`
	DateOfBirth string             `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Program     string             `json:"program" validate:"required"`
	Semester    int                `json:"semester" validate:"required,min=1,max=12"`
	Type        models.StudentType `json:"type" validate:"omitempty,oneof=UNDERGRADUATE GRADUATE"`
}

// UpdateStudentRequest carries the mutable student fields. Nil pointers mean
// "leave unchanged".
type UpdateStudentRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,min=1,max=100"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Phone     *string `json:"phone" validate:"omitempty,min=7,max=20"`
	Program   *string `json:"program" validate:"omitempty"`
	Semester  *int    `json:"semester" validate:"omitempty,min=1,max=12"`
}

// StudentService owns the student collection.
type StudentService struct {
	students  *store.Store[*models.Student]
	validator *validator.Validate
	logger    *zap.Logger

	mu      sync.Mutex
	nextSeq int
}

// NewStudentService constructs StudentService.
func NewStudentService(students *store.Store[*models.Student], validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{
		students:  students,
		validator: validate,
		logger:    logger,
		nextSeq:   1,
	}
}

// Create registers a new student. The id is generated, GPA starts at 0.0 and
// the type defaults to UNDERGRADUATE.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	for _, existing := range s.students.Values() {
		if strings.EqualFold(existing.Email, req.Email) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered: "+req.Email)
		}
	}

	studentType := req.Type
	if studentType == "" {
		studentType = models.StudentTypeUndergraduate
	}
	student := &models.Student{
		StudentID:  s.nextID(),
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Phone:      req.Phone,
		Program:    req.Program,
		Semester:   req.Semester,
		GPA:        0.0,
		Type:       studentType,
		EnrolledAt: time.Now().UTC(),
	}
	if req.DateOfBirth != "" {
		dob, parseErr := time.Parse("2006-01-02", req.DateOfBirth)
		if parseErr != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "date_of_birth must be YYYY-MM-DD")
		}
		student.DateOfBirth = &dob
	}
	if studentType == models.StudentTypeGraduate {
		student.Graduate = &models.GraduateProfile{}
	}
	if err := s.students.Put(student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store student")
	}

	s.logger.Info("student created",
		zap.String("student_id", student.StudentID),
		zap.String("program", student.Program),
	)
	return student, nil
}

// Get returns the student by id.
func (s *StudentService) Get(ctx context.Context, studentID string) (*models.Student, error) {
	student, ok := s.students.Get(studentID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found: "+studentID)
	}
	return student, nil
}

// Update applies the non-nil fields of req to the student.
func (s *StudentService) Update(ctx context.Context, studentID string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student, ok := s.students.Get(studentID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found: "+studentID)
	}

	if req.Email != nil && !strings.EqualFold(student.Email, *req.Email) {
		for _, existing := range s.students.Values() {
			if existing.StudentID != studentID && strings.EqualFold(existing.Email, *req.Email) {
				return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered: "+*req.Email)
			}
		}
		student.Email = *req.Email
	}
	if req.FirstName != nil {
		student.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		student.LastName = *req.LastName
	}
	if req.Phone != nil {
		student.Phone = *req.Phone
	}
	if req.Program != nil {
		student.Program = *req.Program
	}
	if req.Semester != nil {
		student.Semester = *req.Semester
	}
	return student, nil
}

// Delete removes the student record. Enrollments referencing the student are
// left in place; consumers resolve dangling references defensively.
func (s *StudentService) Delete(ctx context.Context, studentID string) error {
	if _, ok := s.students.Remove(studentID); !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "student not found: "+studentID)
	}
	s.logger.Info("student deleted", zap.String("student_id", studentID))
	return nil
}

// List returns a snapshot of all students.
func (s *StudentService) List(ctx context.Context) []*models.Student {
	return s.students.Values()
}

// SearchByName returns students whose first, last or full name contains the
// query, case-insensitively.
func (s *StudentService) SearchByName(ctx context.Context, query string) []*models.Student {
	var out []*models.Student
	for _, student := range s.students.Values() {
		if student.MatchesName(query) {
			out = append(out, student)
		}
	}
	return out
}

// ByProgram returns students registered in the given program.
func (s *StudentService) ByProgram(ctx context.Context, program string) []*models.Student {
	var out []*models.Student
	for _, student := range s.students.Values() {
		if strings.EqualFold(student.Program, program) {
			out = append(out, student)
		}
	}
	return out
}

// BySemester returns students in the given semester.
func (s *StudentService) BySemester(ctx context.Context, semester int) []*models.Student {
	var out []*models.Student
	for _, student := range s.students.Values() {
		if student.Semester == semester {
			out = append(out, student)
		}
	}
	return out
}

// TopPerformers returns up to limit students ordered by GPA descending. Ties
// keep insertion order.
func (s *StudentService) TopPerformers(ctx context.Context, limit int) []*models.Student {
	students := s.students.Values()
	sort.SliceStable(students, func(i, j int) bool {
		return students[i].GPA > students[j].GPA
	})
	if limit > 0 && limit < len(students) {
		students = students[:limit]
	}
	return students
}

// Probation returns students below their good-standing threshold, lowest GPA
// first. The threshold depends on the student type.
func (s *StudentService) Probation(ctx context.Context) []*models.Student {
	var out []*models.Student
	for _, student := range s.students.Values() {
		if !student.InGoodStanding() {
			out = append(out, student)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].GPA < out[j].GPA
	})
	return out
}

// AverageGPA returns the mean GPA over all students, 0.0 when none exist.
func (s *StudentService) AverageGPA(ctx context.Context) float64 {
	students := s.students.Values()
	if len(students) == 0 {
		return 0.0
	}
	var sum float64
	for _, student := range students {
		sum += student.GPA
	}
	return sum / float64(len(students))
}

// CountByProgram returns the number of students per program.
func (s *StudentService) CountByProgram(ctx context.Context) map[string]int {
	counts := make(map[string]int)
	for _, student := range s.students.Values() {
		counts[student.Program]++
	}
	return counts
}

// Statistics summarises the student collection.
func (s *StudentService) Statistics(ctx context.Context) *models.StudentStatistics {
	stats := &models.StudentStatistics{
		TotalStudents: s.students.Len(),
		ByProgram:     s.CountByProgram(ctx),
		AverageGPA:    s.AverageGPA(ctx),
	}
	for _, student := range s.students.Values() {
		if student.InGoodStanding() {
			stats.GoodStanding++
		} else {
			stats.OnProbation++
		}
		if student.Type == models.StudentTypeGraduate {
			stats.GraduateStudents++
		}
	}
	return stats
}

// MarkThesisCompleted records that a graduate student finished their thesis.
func (s *StudentService) MarkThesisCompleted(ctx context.Context, studentID string, advisor string) (*models.Student, error) {
	student, ok := s.students.Get(studentID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found: "+studentID)
	}
	if student.Type != models.StudentTypeGraduate {
		return nil, appErrors.Clone(appErrors.ErrInvalidRequest, "thesis tracking applies to graduate students only")
	}
	if student.Graduate == nil {
		student.Graduate = &models.GraduateProfile{}
	}
	student.Graduate.ThesisCompleted = true
	if advisor != "" {
		student.Graduate.Advisor = advisor
	}
	return student, nil
}

// SyncIDCounter re-seeds the student id sequence from the highest id in the
// store. Called after a snapshot load.
func (s *StudentService) SyncIDCounter() {
	s.mu.Lock()
	defer s.mu.Unlock()
	max := 0
	for _, student := range s.students.Values() {
		if n, ok := parseSequence(student.StudentID, studentIDPrefix); ok && n > max {
			max = n
		}
	}
	s.nextSeq = max + 1
}

func (s *StudentService) nextID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := fmt.Sprintf("%s%05d", studentIDPrefix, s.nextSeq)
	s.nextSeq++
	return id
}
