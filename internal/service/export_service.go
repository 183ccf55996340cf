package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/academix/registrar-api/pkg/errors"
	"github.com/academix/registrar-api/pkg/export"
	"github.com/academix/registrar-api/pkg/storage"
)

// ExportResult describes a generated export file.
type ExportResult struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Rows     int    `json:"rows"`
}

// ExportService renders collection snapshots to CSV and PDF files on local
// storage.
type ExportService struct {
	students    *StudentService
	courses     *CourseService
	enrollments *EnrollmentService
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	storage     *storage.LocalStorage
	logger      *zap.Logger
}

// NewExportService constructs ExportService.
func NewExportService(
	students *StudentService,
	courses *CourseService,
	enrollments *EnrollmentService,
	store *storage.LocalStorage,
	logger *zap.Logger,
) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		students:    students,
		courses:     courses,
		enrollments: enrollments,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		storage:     store,
		logger:      logger,
	}
}

// StudentsCSV writes all students to a CSV file and returns its location.
func (s *ExportService) StudentsCSV(ctx context.Context) (*ExportResult, error) {
	table := export.Table{
		Headers: []string{"student_id", "first_name", "last_name", "email", "program", "semester", "gpa", "type"},
	}
	for _, student := range s.students.List(ctx) {
		table.Rows = append(table.Rows, []string{
			student.StudentID,
			student.FirstName,
			student.LastName,
			student.Email,
			student.Program,
			strconv.Itoa(student.Semester),
			formatGPA(student.GPA),
			string(student.Type),
		})
	}
	return s.writeCSV(ctx, "students", table)
}

// CoursesCSV writes the course catalog to a CSV file.
func (s *ExportService) CoursesCSV(ctx context.Context) (*ExportResult, error) {
	table := export.Table{
		Headers: []string{"course_id", "course_code", "course_name", "department", "instructor", "credits", "max_capacity"},
	}
	for _, course := range s.courses.List(ctx) {
		table.Rows = append(table.Rows, []string{
			course.CourseID,
			course.CourseCode,
			course.CourseName,
			course.Department,
			course.Instructor,
			strconv.Itoa(course.Credits),
			strconv.Itoa(course.MaxCapacity),
		})
	}
	return s.writeCSV(ctx, "courses", table)
}

// EnrollmentsCSV writes all enrollments to a CSV file.
func (s *ExportService) EnrollmentsCSV(ctx context.Context) (*ExportResult, error) {
	table := export.Table{
		Headers: []string{"enrollment_id", "student_id", "course_id", "status", "grade", "letter_grade", "attendance_pct", "enrolled_at"},
	}
	for _, e := range s.enrollments.List(ctx) {
		grade := ""
		if e.Graded() {
			grade = formatGrade(e.NumericGrade())
		}
		table.Rows = append(table.Rows, []string{
			e.EnrollmentID,
			e.StudentID,
			e.CourseID,
			string(e.Status),
			grade,
			e.LetterGrade(),
			formatGrade(e.AttendancePercentage()),
			e.EnrolledAt.Format(time.RFC3339),
		})
	}
	return s.writeCSV(ctx, "enrollments", table)
}

// TranscriptPDF renders a student's transcript: identity lead-in lines plus
// one row per enrollment.
func (s *ExportService) TranscriptPDF(ctx context.Context, studentID string) (*ExportResult, error) {
	student, err := s.students.Get(ctx, studentID)
	if err != nil {
		return nil, err
	}

	enrollments := s.enrollments.ForStudent(ctx, studentID)
	table := export.Table{
		Headers: []string{"Enrollment", "Course", "Status", "Grade", "Letter"},
	}
	for _, e := range enrollments {
		courseName := e.CourseID
		if course, courseErr := s.courses.Get(ctx, e.CourseID); courseErr == nil {
			courseName = course.CourseName
		}
		grade := "-"
		if e.Graded() {
			grade = formatGrade(e.NumericGrade())
		}
		table.Rows = append(table.Rows, []string{
			e.EnrollmentID,
			courseName,
			string(e.Status),
			grade,
			e.LetterGrade(),
		})
	}

	lines := []string{
		"Student: " + student.FullName() + " (" + student.StudentID + ")",
		"Program: " + student.Program + ", semester " + strconv.Itoa(student.Semester),
		"GPA: " + formatGPA(student.GPA),
		"Generated: " + time.Now().UTC().Format(time.RFC3339),
	}
	data, err := s.pdf.Render(table, "Academic Transcript", lines)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render transcript")
	}

	filename := fmt.Sprintf("transcript_%s_%s.pdf", studentID, uuid.NewString())
	return s.save(filename, data, len(table.Rows))
}

func (s *ExportService) writeCSV(ctx context.Context, prefix string, table export.Table) (*ExportResult, error) {
	data, err := s.csv.Render(table)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	filename := fmt.Sprintf("%s_%s.csv", prefix, uuid.NewString())
	return s.save(filename, data, len(table.Rows))
}

func (s *ExportService) save(filename string, data []byte, rows int) (*ExportResult, error) {
	if _, err := s.storage.Save(filename, data); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}
	path, err := s.storage.Path(filename)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve export path")
	}
	s.logger.Info("export written", zap.String("filename", filename), zap.Int("rows", rows))
	return &ExportResult{Filename: filename, Path: path, Rows: rows}, nil
}

func formatGrade(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func formatGPA(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
