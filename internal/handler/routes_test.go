package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/academix/registrar-api/internal/models"
	"github.com/academix/registrar-api/internal/notify"
	"github.com/academix/registrar-api/internal/service"
	"github.com/academix/registrar-api/internal/store"
	"github.com/academix/registrar-api/pkg/storage"
)

func buildRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	students := store.New[*models.Student]()
	courses := store.New[*models.Course]()
	enrollments := store.New[*models.Enrollment]()

	recorder := notify.NewAuditRecorder(zap.NewNop(), nil, 0)
	fanout := notify.NewFanout(notify.DefaultObservers(zap.NewNop(), recorder, 60.0), zap.NewNop())

	studentSvc := service.NewStudentService(students, nil, zap.NewNop())
	courseSvc := service.NewCourseService(courses, nil, zap.NewNop())
	enrollmentSvc := service.NewEnrollmentService(enrollments, students, courses, fanout, nil, zap.NewNop(), 30, 60.0)

	exportsDir, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	exportSvc := service.NewExportService(studentSvc, courseSvc, enrollmentSvc, exportsDir, zap.NewNop())

	metricsSvc := service.NewMetricsService(students.Len, courses.Len, enrollmentSvc.ActiveTotal)
	enrollmentSvc.SetMetrics(metricsSvc)

	router := gin.New()
	api := router.Group("/api/v1")
	RegisterRoutes(api, Handlers{
		Students:    NewStudentHandler(studentSvc, enrollmentSvc),
		Courses:     NewCourseHandler(courseSvc, enrollmentSvc),
		Enrollments: NewEnrollmentHandler(enrollmentSvc),
		Reports:     NewReportHandler(studentSvc, enrollmentSvc, exportSvc, recorder, nil),
		Admin:       NewAdminHandler(metricsSvc, nil, studentSvc, enrollmentSvc),
	})
	return router
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func dataField(t *testing.T, resp *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var envelope struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	return envelope.Data
}

func TestRegistrarFlow(t *testing.T) {
	router := buildRouter(t)

	resp := doJSON(router, http.MethodPost, "/api/v1/students", gin.H{
		"first_name": "Ada", "last_name": "Lovelace", "email": "ada@example.edu",
		"program": "Computer Science", "semester": 3,
	})
	require.Equal(t, http.StatusCreated, resp.Code)
	studentID := dataField(t, resp)["student_id"].(string)
	assert.Equal(t, "STU00001", studentID)

	resp = doJSON(router, http.MethodPost, "/api/v1/courses", gin.H{
		"course_id": "C1", "course_code": "CS101", "course_name": "Intro to Programming",
		"department": "Computer Science", "credits": 3, "max_capacity": 2,
	})
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = doJSON(router, http.MethodPost, "/api/v1/enrollments", gin.H{
		"student_id": studentID, "course_id": "C1",
	})
	require.Equal(t, http.StatusCreated, resp.Code)
	enrollmentID := dataField(t, resp)["enrollment_id"].(string)

	// duplicate active enrollment is rejected with a conflict
	resp = doJSON(router, http.MethodPost, "/api/v1/enrollments", gin.H{
		"student_id": studentID, "course_id": "C1",
	})
	require.Equal(t, http.StatusConflict, resp.Code)
	assert.Contains(t, resp.Body.String(), "DUPLICATE_ENROLLMENT")

	resp = doJSON(router, http.MethodPut, fmt.Sprintf("/api/v1/enrollments/%s/grade", enrollmentID), gin.H{"grade": 88.0})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = doJSON(router, http.MethodGet, "/api/v1/students/"+studentID, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.InDelta(t, 3.52, dataField(t, resp)["gpa"].(float64), 1e-9)

	resp = doJSON(router, http.MethodGet, "/api/v1/courses/C1/statistics", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	stats := dataField(t, resp)
	assert.EqualValues(t, 1, stats["total_enrollments"])
	assert.InDelta(t, 100.0, stats["pass_rate"].(float64), 1e-9)

	resp = doJSON(router, http.MethodGet, "/api/v1/reports/audit-trail", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), enrollmentID)
}

func TestRegistrarCapacityOverHTTP(t *testing.T) {
	router := buildRouter(t)

	for i := 1; i <= 3; i++ {
		resp := doJSON(router, http.MethodPost, "/api/v1/students", gin.H{
			"first_name": "Student", "last_name": fmt.Sprintf("N%d", i),
			"email": fmt.Sprintf("s%d@example.edu", i), "program": "CS", "semester": 1,
		})
		require.Equal(t, http.StatusCreated, resp.Code)
	}
	resp := doJSON(router, http.MethodPost, "/api/v1/courses", gin.H{
		"course_id": "C1", "course_code": "CS101", "course_name": "Intro to Programming",
		"department": "CS", "credits": 3, "max_capacity": 2,
	})
	require.Equal(t, http.StatusCreated, resp.Code)

	for i := 1; i <= 2; i++ {
		resp = doJSON(router, http.MethodPost, "/api/v1/enrollments", gin.H{
			"student_id": fmt.Sprintf("STU%05d", i), "course_id": "C1",
		})
		require.Equal(t, http.StatusCreated, resp.Code)
	}
	resp = doJSON(router, http.MethodPost, "/api/v1/enrollments", gin.H{
		"student_id": "STU00003", "course_id": "C1",
	})
	require.Equal(t, http.StatusConflict, resp.Code)
	assert.Contains(t, resp.Body.String(), "CAPACITY_EXCEEDED")

	// dropping one seat lets the third student in
	resp = doJSON(router, http.MethodPost, "/api/v1/enrollments/ENR000001/drop", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	resp = doJSON(router, http.MethodPost, "/api/v1/enrollments", gin.H{
		"student_id": "STU00003", "course_id": "C1",
	})
	require.Equal(t, http.StatusCreated, resp.Code)
}

func TestRegistrarErrorsOverHTTP(t *testing.T) {
	router := buildRouter(t)

	resp := doJSON(router, http.MethodGet, "/api/v1/students/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Contains(t, resp.Body.String(), "NOT_FOUND")

	resp = doJSON(router, http.MethodPost, "/api/v1/students", gin.H{
		"first_name": "Bad", "last_name": "Email", "email": "nope",
		"program": "CS", "semester": 1,
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "VALIDATION_ERROR")

	resp = doJSON(router, http.MethodPut, "/api/v1/enrollments/ENR999999/grade", gin.H{"grade": 50.0})
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = doJSON(router, http.MethodGet, "/api/v1/admin/metrics", nil)
	assert.Equal(t, http.StatusOK, resp.Code)

	// persistence is not configured in this router
	resp = doJSON(router, http.MethodPost, "/api/v1/admin/snapshot/save", nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestRegistrarCompleteWithZeroGrade(t *testing.T) {
	router := buildRouter(t)

	resp := doJSON(router, http.MethodPost, "/api/v1/students", gin.H{
		"first_name": "Ada", "last_name": "Lovelace", "email": "ada@example.edu",
		"program": "CS", "semester": 3,
	})
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = doJSON(router, http.MethodPost, "/api/v1/courses", gin.H{
		"course_id": "C1", "course_code": "CS101", "course_name": "Intro to Programming",
		"department": "CS", "credits": 3, "max_capacity": 10,
	})
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = doJSON(router, http.MethodPost, "/api/v1/enrollments", gin.H{
		"student_id": "STU00001", "course_id": "C1",
	})
	require.Equal(t, http.StatusCreated, resp.Code)
	enrollmentID := dataField(t, resp)["enrollment_id"].(string)

	// zero is a legal final grade; only values outside [0,100] are invalid
	resp = doJSON(router, http.MethodPost, fmt.Sprintf("/api/v1/enrollments/%s/complete", enrollmentID), gin.H{"grade": 0.0})
	require.Equal(t, http.StatusOK, resp.Code)
	completed := dataField(t, resp)
	assert.Equal(t, "COMPLETED", completed["status"])
	assert.InDelta(t, 0.0, completed["grade"].(float64), 1e-9)

	// a missing grade field is still rejected
	resp = doJSON(router, http.MethodPost, "/api/v1/enrollments/ENR000001/complete", gin.H{})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestRegistrarStatusFilterOverHTTP(t *testing.T) {
	router := buildRouter(t)

	for i := 1; i <= 2; i++ {
		resp := doJSON(router, http.MethodPost, "/api/v1/students", gin.H{
			"first_name": "Student", "last_name": fmt.Sprintf("N%d", i),
			"email": fmt.Sprintf("s%d@example.edu", i), "program": "CS", "semester": 1,
		})
		require.Equal(t, http.StatusCreated, resp.Code)
	}
	resp := doJSON(router, http.MethodPost, "/api/v1/courses", gin.H{
		"course_id": "C1", "course_code": "CS101", "course_name": "Intro to Programming",
		"department": "CS", "credits": 3, "max_capacity": 10,
	})
	require.Equal(t, http.StatusCreated, resp.Code)

	for i := 1; i <= 2; i++ {
		resp = doJSON(router, http.MethodPost, "/api/v1/enrollments", gin.H{
			"student_id": fmt.Sprintf("STU%05d", i), "course_id": "C1",
		})
		require.Equal(t, http.StatusCreated, resp.Code)
	}
	resp = doJSON(router, http.MethodPost, "/api/v1/enrollments/ENR000001/drop", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	listIDs := func(path string) []string {
		resp := doJSON(router, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, resp.Code)
		var envelope struct {
			Data []struct {
				EnrollmentID string `json:"enrollment_id"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
		ids := make([]string, 0, len(envelope.Data))
		for _, e := range envelope.Data {
			ids = append(ids, e.EnrollmentID)
		}
		return ids
	}

	// status values are matched case-insensitively
	assert.Equal(t, []string{"ENR000001"}, listIDs("/api/v1/enrollments?status=dropped"))
	assert.Equal(t, []string{"ENR000002"}, listIDs("/api/v1/enrollments?status=ACTIVE"))
	assert.Empty(t, listIDs("/api/v1/enrollments?status=WITHDRAWN"))

	resp = doJSON(router, http.MethodGet, "/api/v1/enrollments?status=GRADUATED", nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "VALIDATION_ERROR")
}

func TestRegistrarExportsOverHTTP(t *testing.T) {
	router := buildRouter(t)

	resp := doJSON(router, http.MethodPost, "/api/v1/students", gin.H{
		"first_name": "Ada", "last_name": "Lovelace", "email": "ada@example.edu",
		"program": "CS", "semester": 3,
	})
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = doJSON(router, http.MethodPost, "/api/v1/exports/students", nil)
	require.Equal(t, http.StatusCreated, resp.Code)
	result := dataField(t, resp)
	assert.EqualValues(t, 1, result["rows"])
	assert.Contains(t, result["filename"].(string), "students_")

	resp = doJSON(router, http.MethodPost, "/api/v1/students/STU00001/transcript", nil)
	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Contains(t, dataField(t, resp)["filename"].(string), "transcript_STU00001_")
}
