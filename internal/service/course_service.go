package service

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/academix/registrar-api/internal/models"
	"github.com/academix/registrar-api/internal/store"
	appErrors "github.com/academix/registrar-api/pkg/errors"
)

// courseCodePattern matches codes like CS101 or MATH2010.
var courseCodePattern = regexp.MustCompile(`^[A-Z]{2,4}[0-9]{3,4}$`)

// CreateCourseRequest carries the fields accepted on course creation.
type CreateCourseRequest struct {
	CourseID      string   `json:"course_id" validate:"required,min=2,max=20"`
	CourseCode    string   `json:"course_code" validate:"required"`
	CourseName    string   `json:"course_name" validate:"required,min=3,max=200"`
	Department    string   `json:"department" validate:"required"`
	Instructor    string   `json:"instructor" validate:"omitempty,max=100"`
	Credits       int      `json:"credits" validate:"required,min=1,max=10"`
	MaxCapacity   int      `json:"max_capacity" validate:"omitempty,min=1,max=500"`
	Description   string   `json:"description" validate:"omitempty,max=2000"`
	Prerequisites []string `json:"prerequisites" validate:"omitempty,dive,required"`
}

// UpdateCourseRequest carries the mutable course fields. Nil pointers mean
// "leave unchanged".
type UpdateCourseRequest struct {
	CourseName  *string `json:"course_name" validate:"omitempty,min=3,max=200"`
	Instructor  *string `json:"instructor" validate:"omitempty,max=100"`
	Credits     *int    `json:"credits" validate:"omitempty,min=1,max=10"`
	MaxCapacity *int    `json:"max_capacity" validate:"omitempty,min=1,max=500"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

// CourseService owns the course catalog.
type CourseService struct {
	courses   *store.Store[*models.Course]
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs CourseService.
func NewCourseService(courses *store.Store[*models.Course], validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{
		courses:   courses,
		validator: validate,
		logger:    logger,
	}
}

// Create adds a course to the catalog. The caller supplies the course id.
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	code := strings.ToUpper(strings.TrimSpace(req.CourseCode))
	if !courseCodePattern.MatchString(code) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course code must be 2-4 letters followed by 3-4 digits")
	}

	course := &models.Course{
		CourseID:      req.CourseID,
		CourseCode:    code,
		CourseName:    req.CourseName,
		Department:    req.Department,
		Instructor:    req.Instructor,
		Credits:       req.Credits,
		MaxCapacity:   req.MaxCapacity,
		Description:   req.Description,
		Prerequisites: append([]string(nil), req.Prerequisites...),
	}
	if err := s.courses.Put(course); err != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "course already exists: "+req.CourseID)
	}

	s.logger.Info("course created",
		zap.String("course_id", course.CourseID),
		zap.String("course_code", course.CourseCode),
	)
	return course, nil
}

// Get returns the course by id.
func (s *CourseService) Get(ctx context.Context, courseID string) (*models.Course, error) {
	course, ok := s.courses.Get(courseID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found: "+courseID)
	}
	return course, nil
}

// Update applies the non-nil fields of req to the course.
func (s *CourseService) Update(ctx context.Context, courseID string, req UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course, ok := s.courses.Get(courseID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found: "+courseID)
	}

	if req.CourseName != nil {
		course.CourseName = *req.CourseName
	}
	if req.Instructor != nil {
		course.Instructor = *req.Instructor
	}
	if req.Credits != nil {
		course.Credits = *req.Credits
	}
	if req.MaxCapacity != nil {
		course.MaxCapacity = *req.MaxCapacity
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	return course, nil
}

// Delete removes the course from the catalog. Enrollments referencing the
// course are left in place.
func (s *CourseService) Delete(ctx context.Context, courseID string) error {
	if _, ok := s.courses.Remove(courseID); !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "course not found: "+courseID)
	}
	s.logger.Info("course deleted", zap.String("course_id", courseID))
	return nil
}

// List returns a snapshot of the whole catalog.
func (s *CourseService) List(ctx context.Context) []*models.Course {
	return s.courses.Values()
}

// SearchByName returns courses whose name or code contains the query,
// case-insensitively.
func (s *CourseService) SearchByName(ctx context.Context, query string) []*models.Course {
	var out []*models.Course
	for _, course := range s.courses.Values() {
		if course.MatchesName(query) {
			out = append(out, course)
		}
	}
	return out
}

// ByDepartment returns courses offered by the given department.
func (s *CourseService) ByDepartment(ctx context.Context, department string) []*models.Course {
	var out []*models.Course
	for _, course := range s.courses.Values() {
		if strings.EqualFold(course.Department, department) {
			out = append(out, course)
		}
	}
	return out
}

// ByInstructor returns courses taught by the given instructor.
func (s *CourseService) ByInstructor(ctx context.Context, instructor string) []*models.Course {
	var out []*models.Course
	for _, course := range s.courses.Values() {
		if strings.EqualFold(course.Instructor, instructor) {
			out = append(out, course)
		}
	}
	return out
}

// AddPrerequisite appends a prerequisite course id, ignoring duplicates. The
// prerequisite must itself exist in the catalog.
func (s *CourseService) AddPrerequisite(ctx context.Context, courseID, prerequisiteID string) (*models.Course, error) {
	course, ok := s.courses.Get(courseID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found: "+courseID)
	}
	if !s.courses.Exists(prerequisiteID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "prerequisite course not found: "+prerequisiteID)
	}
	if courseID == prerequisiteID {
		return nil, appErrors.Clone(appErrors.ErrInvalidRequest, "a course cannot be its own prerequisite")
	}
	course.AddPrerequisite(prerequisiteID)
	return course, nil
}

// Departments returns the sorted distinct department names.
func (s *CourseService) Departments(ctx context.Context) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, course := range s.courses.Values() {
		if _, ok := seen[course.Department]; ok {
			continue
		}
		seen[course.Department] = struct{}{}
		out = append(out, course.Department)
	}
	sort.Strings(out)
	return out
}

// CountByDepartment returns the number of courses per department.
func (s *CourseService) CountByDepartment(ctx context.Context) map[string]int {
	counts := make(map[string]int)
	for _, course := range s.courses.Values() {
		counts[course.Department]++
	}
	return counts
}
