package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/academix/registrar-api/internal/models"
	"github.com/academix/registrar-api/internal/store"
	appErrors "github.com/academix/registrar-api/pkg/errors"
)

func newStudentService() (*StudentService, *store.Store[*models.Student]) {
	students := store.New[*models.Student]()
	return NewStudentService(students, nil, zap.NewNop()), students
}

func validCreateRequest() CreateStudentRequest {
	return CreateStudentRequest{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.edu",
		Program:   "Computer Science",
		Semester:  3,
	}
}

func TestStudentServiceCreate(t *testing.T) {
	svc, _ := newStudentService()

	student, err := svc.Create(context.Background(), validCreateRequest())
	require.NoError(t, err)
	assert.Equal(t, "STU00001", student.StudentID)
	assert.Equal(t, models.StudentTypeUndergraduate, student.Type)
	assert.InDelta(t, 0.0, student.GPA, 1e-9)
	assert.Empty(t, student.EnrollmentIDs)

	second, err := svc.Create(context.Background(), CreateStudentRequest{
		FirstName: "Grace", LastName: "Hopper", Email: "grace@example.edu",
		Program: "Mathematics", Semester: 1, Type: models.StudentTypeGraduate,
	})
	require.NoError(t, err)
	assert.Equal(t, "STU00002", second.StudentID)
	require.NotNil(t, second.Graduate)
}

func TestStudentServiceCreateValidation(t *testing.T) {
	svc, _ := newStudentService()

	req := validCreateRequest()
	req.Email = "not-an-email"
	_, err := svc.Create(context.Background(), req)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	req = validCreateRequest()
	req.Semester = 13
	_, err = svc.Create(context.Background(), req)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = svc.Create(context.Background(), validCreateRequest())
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), validCreateRequest())
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func TestStudentServiceUpdate(t *testing.T) {
	svc, _ := newStudentService()
	student, err := svc.Create(context.Background(), validCreateRequest())
	require.NoError(t, err)

	name := "Augusta"
	semester := 4
	updated, err := svc.Update(context.Background(), student.StudentID, UpdateStudentRequest{
		FirstName: &name,
		Semester:  &semester,
	})
	require.NoError(t, err)
	assert.Equal(t, "Augusta", updated.FirstName)
	assert.Equal(t, 4, updated.Semester)
	assert.Equal(t, "Lovelace", updated.LastName)

	_, err = svc.Update(context.Background(), "missing", UpdateStudentRequest{FirstName: &name})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestStudentServiceDelete(t *testing.T) {
	svc, students := newStudentService()
	student, err := svc.Create(context.Background(), validCreateRequest())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), student.StudentID))
	assert.False(t, students.Exists(student.StudentID))
	assert.True(t, appErrors.Is(svc.Delete(context.Background(), student.StudentID), appErrors.ErrNotFound))
}

func TestStudentServiceSearch(t *testing.T) {
	svc, students := newStudentService()
	require.NoError(t, students.Put(&models.Student{StudentID: "S1", FirstName: "John", LastName: "Smith", Program: "Physics", Semester: 2}))
	require.NoError(t, students.Put(&models.Student{StudentID: "S2", FirstName: "Jane", LastName: "Johnson", Program: "Physics", Semester: 5}))
	require.NoError(t, students.Put(&models.Student{StudentID: "S3", FirstName: "Mary", LastName: "Major", Program: "History", Semester: 2}))

	assert.Len(t, svc.SearchByName(context.Background(), "john"), 2)
	assert.Len(t, svc.SearchByName(context.Background(), "jane smith"), 0)
	assert.Len(t, svc.ByProgram(context.Background(), "physics"), 2)
	assert.Len(t, svc.BySemester(context.Background(), 2), 2)
}

func TestStudentServiceTopPerformersAndProbation(t *testing.T) {
	svc, students := newStudentService()
	require.NoError(t, students.Put(&models.Student{StudentID: "S1", GPA: 3.9, Type: models.StudentTypeUndergraduate}))
	require.NoError(t, students.Put(&models.Student{StudentID: "S2", GPA: 2.1, Type: models.StudentTypeUndergraduate}))
	require.NoError(t, students.Put(&models.Student{StudentID: "S3", GPA: 3.5, Type: models.StudentTypeUndergraduate}))
	require.NoError(t, students.Put(&models.Student{StudentID: "S4", GPA: 2.8, Type: models.StudentTypeGraduate}))

	top := svc.TopPerformers(context.Background(), 2)
	require.Len(t, top, 2)
	assert.Equal(t, "S1", top[0].StudentID)
	assert.Equal(t, "S3", top[1].StudentID)

	// a graduate at 2.8 is below the 3.0 graduate threshold
	probation := svc.Probation(context.Background())
	require.Len(t, probation, 1)
	assert.Equal(t, "S4", probation[0].StudentID)
}

func TestStudentServiceStatistics(t *testing.T) {
	svc, students := newStudentService()
	require.NoError(t, students.Put(&models.Student{StudentID: "S1", GPA: 3.0, Program: "CS", Type: models.StudentTypeUndergraduate}))
	require.NoError(t, students.Put(&models.Student{StudentID: "S2", GPA: 1.0, Program: "CS", Type: models.StudentTypeUndergraduate}))
	require.NoError(t, students.Put(&models.Student{StudentID: "S3", GPA: 3.5, Program: "Math", Type: models.StudentTypeGraduate}))

	stats := svc.Statistics(context.Background())
	assert.Equal(t, 3, stats.TotalStudents)
	assert.InDelta(t, 2.5, stats.AverageGPA, 1e-9)
	assert.Equal(t, 2, stats.GoodStanding)
	assert.Equal(t, 1, stats.OnProbation)
	assert.Equal(t, 1, stats.GraduateStudents)
	assert.Equal(t, 2, stats.ByProgram["CS"])

	empty, _ := newStudentService()
	assert.InDelta(t, 0.0, empty.AverageGPA(context.Background()), 1e-9)
}

func TestStudentServiceThesis(t *testing.T) {
	svc, students := newStudentService()
	require.NoError(t, students.Put(&models.Student{StudentID: "G1", Type: models.StudentTypeGraduate}))
	require.NoError(t, students.Put(&models.Student{StudentID: "U1", Type: models.StudentTypeUndergraduate}))

	student, err := svc.MarkThesisCompleted(context.Background(), "G1", "Dr. Knuth")
	require.NoError(t, err)
	require.NotNil(t, student.Graduate)
	assert.True(t, student.Graduate.ThesisCompleted)
	assert.Equal(t, "Dr. Knuth", student.Graduate.Advisor)

	_, err = svc.MarkThesisCompleted(context.Background(), "U1", "")
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidRequest))
}

func TestStudentServiceSyncIDCounter(t *testing.T) {
	svc, students := newStudentService()
	require.NoError(t, students.Put(&models.Student{StudentID: "STU00017"}))

	svc.SyncIDCounter()
	student, err := svc.Create(context.Background(), validCreateRequest())
	require.NoError(t, err)
	assert.Equal(t, "STU00018", student.StudentID)
}
