package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/academix/registrar-api/internal/models"
	"github.com/academix/registrar-api/internal/service"
	appErrors "github.com/academix/registrar-api/pkg/errors"
	"github.com/academix/registrar-api/pkg/response"
)

// EnrollmentHandler exposes enrollment lifecycle endpoints.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// List returns enrollments, optionally filtered by grade range or status.
func (h *EnrollmentHandler) List(c *gin.Context) {
	minQ, maxQ := c.Query("min_grade"), c.Query("max_grade")
	if minQ != "" || maxQ != "" {
		min, err := parseGradeQuery(minQ, 0)
		if err != nil {
			response.Error(c, err)
			return
		}
		max, err := parseGradeQuery(maxQ, 100)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, h.enrollments.ByGradeRange(c.Request.Context(), min, max))
		return
	}
	if raw := c.Query("status"); raw != "" {
		status := models.EnrollmentStatus(strings.ToUpper(raw))
		if !status.Valid() {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown enrollment status: "+raw))
			return
		}
		response.JSON(c, http.StatusOK, h.enrollments.ByStatus(c.Request.Context(), status))
		return
	}
	response.JSON(c, http.StatusOK, h.enrollments.List(c.Request.Context()))
}

// Get returns one enrollment by id.
func (h *EnrollmentHandler) Get(c *gin.Context) {
	enrollment, err := h.enrollments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment)
}

// Create enrolls a student into a course.
func (h *EnrollmentHandler) Create(c *gin.Context) {
	var req service.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enrollment, err := h.enrollments.Enroll(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// Drop transitions an enrollment to DROPPED.
func (h *EnrollmentHandler) Drop(c *gin.Context) {
	enrollment, err := h.enrollments.Drop(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment)
}

// Withdraw transitions an enrollment to WITHDRAWN.
func (h *EnrollmentHandler) Withdraw(c *gin.Context) {
	enrollment, err := h.enrollments.Withdraw(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment)
}

// Complete records a final grade and closes out the enrollment.
func (h *EnrollmentHandler) Complete(c *gin.Context) {
	var req struct {
		Grade *float64 `json:"grade" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enrollment, err := h.enrollments.Complete(c.Request.Context(), c.Param("id"), *req.Grade)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment)
}

// Grade runs the grade update pipeline: write, notify observers, recompute GPA.
func (h *EnrollmentHandler) Grade(c *gin.Context) {
	var req struct {
		Grade *float64 `json:"grade" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enrollment, err := h.enrollments.AssignGrade(c.Request.Context(), c.Param("id"), *req.Grade)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment)
}

// Attendance records one held class for the enrollment.
func (h *EnrollmentHandler) Attendance(c *gin.Context) {
	var req struct {
		Present *bool `json:"present" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enrollment, err := h.enrollments.MarkAttendance(c.Request.Context(), c.Param("id"), *req.Present)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment)
}

// Feedback attaches free-text feedback to the enrollment.
func (h *EnrollmentHandler) Feedback(c *gin.Context) {
	var req struct {
		Feedback string `json:"feedback" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enrollment, err := h.enrollments.SetFeedback(c.Request.Context(), c.Param("id"), req.Feedback)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment)
}

func parseGradeQuery(raw string, fallback float64) (float64, error) {
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, "grade bounds must be numeric")
	}
	return v, nil
}
