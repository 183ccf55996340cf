package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/academix/registrar-api/internal/service"
	appErrors "github.com/academix/registrar-api/pkg/errors"
	"github.com/academix/registrar-api/pkg/response"
)

// StudentHandler exposes student endpoints.
type StudentHandler struct {
	students    *service.StudentService
	enrollments *service.EnrollmentService
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students *service.StudentService, enrollments *service.EnrollmentService) *StudentHandler {
	return &StudentHandler{students: students, enrollments: enrollments}
}

// List returns all students, optionally filtered by name, program or semester.
func (h *StudentHandler) List(c *gin.Context) {
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		response.JSON(c, http.StatusOK, h.students.SearchByName(c.Request.Context(), search))
		return
	}
	if program := strings.TrimSpace(c.Query("program")); program != "" {
		response.JSON(c, http.StatusOK, h.students.ByProgram(c.Request.Context(), program))
		return
	}
	if semester := c.Query("semester"); semester != "" {
		n, err := strconv.Atoi(semester)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "semester must be an integer"))
			return
		}
		response.JSON(c, http.StatusOK, h.students.BySemester(c.Request.Context(), n))
		return
	}
	response.JSON(c, http.StatusOK, h.students.List(c.Request.Context()))
}

// Get returns one student by id.
func (h *StudentHandler) Get(c *gin.Context) {
	student, err := h.students.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student)
}

// Create registers a new student.
func (h *StudentHandler) Create(c *gin.Context) {
	var req service.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	student, err := h.students.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Update applies a partial update to a student.
func (h *StudentHandler) Update(c *gin.Context) {
	var req service.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	student, err := h.students.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student)
}

// Delete removes a student record.
func (h *StudentHandler) Delete(c *gin.Context) {
	if err := h.students.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Enrollments returns a student's enrollments in chronological order.
func (h *StudentHandler) Enrollments(c *gin.Context) {
	studentID := c.Param("id")
	if _, err := h.students.Get(c.Request.Context(), studentID); err != nil {
		response.Error(c, err)
		return
	}
	if c.Query("active") == "true" {
		response.JSON(c, http.StatusOK, h.enrollments.ActiveForStudent(c.Request.Context(), studentID))
		return
	}
	response.JSON(c, http.StatusOK, h.enrollments.ForStudent(c.Request.Context(), studentID))
}

// Thesis marks a graduate student's thesis as submitted.
func (h *StudentHandler) Thesis(c *gin.Context) {
	var req struct {
		Advisor string `json:"advisor"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	student, err := h.students.MarkThesisCompleted(c.Request.Context(), c.Param("id"), req.Advisor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student)
}
