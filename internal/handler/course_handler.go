package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/academix/registrar-api/internal/service"
	appErrors "github.com/academix/registrar-api/pkg/errors"
	"github.com/academix/registrar-api/pkg/response"
)

// CourseHandler exposes course catalog endpoints.
type CourseHandler struct {
	courses     *service.CourseService
	enrollments *service.EnrollmentService
}

// NewCourseHandler constructs CourseHandler.
func NewCourseHandler(courses *service.CourseService, enrollments *service.EnrollmentService) *CourseHandler {
	return &CourseHandler{courses: courses, enrollments: enrollments}
}

// List returns courses, optionally filtered by name, department or instructor.
func (h *CourseHandler) List(c *gin.Context) {
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		response.JSON(c, http.StatusOK, h.courses.SearchByName(c.Request.Context(), search))
		return
	}
	if department := strings.TrimSpace(c.Query("department")); department != "" {
		response.JSON(c, http.StatusOK, h.courses.ByDepartment(c.Request.Context(), department))
		return
	}
	if instructor := strings.TrimSpace(c.Query("instructor")); instructor != "" {
		response.JSON(c, http.StatusOK, h.courses.ByInstructor(c.Request.Context(), instructor))
		return
	}
	response.JSON(c, http.StatusOK, h.courses.List(c.Request.Context()))
}

// Get returns one course by id.
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.courses.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course)
}

// Create adds a course to the catalog.
func (h *CourseHandler) Create(c *gin.Context) {
	var req service.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	course, err := h.courses.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// Update applies a partial update to a course.
func (h *CourseHandler) Update(c *gin.Context) {
	var req service.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	course, err := h.courses.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course)
}

// Delete removes a course from the catalog.
func (h *CourseHandler) Delete(c *gin.Context) {
	if err := h.courses.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Roster returns a course's enrollments ordered by student name.
func (h *CourseHandler) Roster(c *gin.Context) {
	courseID := c.Param("id")
	if _, err := h.courses.Get(c.Request.Context(), courseID); err != nil {
		response.Error(c, err)
		return
	}
	enrollments := h.enrollments.ForCourse(c.Request.Context(), courseID)
	meta := map[string]interface{}{
		"active_count": h.enrollments.ActiveCount(c.Request.Context(), courseID),
	}
	response.JSON(c, http.StatusOK, enrollments, meta)
}

// Statistics returns aggregated enrollment metrics for a course.
func (h *CourseHandler) Statistics(c *gin.Context) {
	stats, err := h.enrollments.CourseStatistics(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats)
}

// AddPrerequisite registers a prerequisite course id. Prerequisites are
// informational; enrollment does not enforce them.
func (h *CourseHandler) AddPrerequisite(c *gin.Context) {
	var req struct {
		PrerequisiteID string `json:"prerequisite_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	course, err := h.courses.AddPrerequisite(c.Request.Context(), c.Param("id"), req.PrerequisiteID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course)
}

// Departments returns the distinct department names with course counts.
func (h *CourseHandler) Departments(c *gin.Context) {
	meta := map[string]interface{}{
		"counts": h.courses.CountByDepartment(c.Request.Context()),
	}
	response.JSON(c, http.StatusOK, h.courses.Departments(c.Request.Context()), meta)
}
