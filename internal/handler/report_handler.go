package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/academix/registrar-api/internal/notify"
	"github.com/academix/registrar-api/internal/repository"
	"github.com/academix/registrar-api/internal/service"
	appErrors "github.com/academix/registrar-api/pkg/errors"
	"github.com/academix/registrar-api/pkg/response"
)

// ReportHandler exposes reporting, ranking and export endpoints. Every report
// is computed from the live stores at request time.
type ReportHandler struct {
	students    *service.StudentService
	enrollments *service.EnrollmentService
	exports     *service.ExportService
	audit       *notify.AuditRecorder
	auditRepo   *repository.AuditRepository
}

// NewReportHandler constructs ReportHandler. auditRepo may be nil when the
// audit database is disabled; the in-memory recorder still serves reads.
func NewReportHandler(
	students *service.StudentService,
	enrollments *service.EnrollmentService,
	exports *service.ExportService,
	audit *notify.AuditRecorder,
	auditRepo *repository.AuditRepository,
) *ReportHandler {
	return &ReportHandler{
		students:    students,
		enrollments: enrollments,
		exports:     exports,
		audit:       audit,
		auditRepo:   auditRepo,
	}
}

// TopPerformers returns the highest-GPA students, default 10.
func (h *ReportHandler) TopPerformers(c *gin.Context) {
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit must be a positive integer"))
			return
		}
		limit = n
	}
	response.JSON(c, http.StatusOK, h.students.TopPerformers(c.Request.Context(), limit))
}

// Probation returns students below their good-standing threshold.
func (h *ReportHandler) Probation(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.students.Probation(c.Request.Context()))
}

// StudentStatistics summarises the student body.
func (h *ReportHandler) StudentStatistics(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.students.Statistics(c.Request.Context()))
}

// AuditTrail returns recent grade-change records. With the audit database
// enabled the persisted trail is served, otherwise the in-memory recorder.
func (h *ReportHandler) AuditTrail(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit must be a positive integer"))
			return
		}
		limit = n
	}
	if h.auditRepo != nil {
		records, err := h.auditRepo.ListRecent(c.Request.Context(), limit)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, records)
		return
	}
	response.JSON(c, http.StatusOK, h.audit.Recent(limit))
}

// FlaggedChanges returns a student's flagged grade swings from the audit
// database.
func (h *ReportHandler) FlaggedChanges(c *gin.Context) {
	if h.auditRepo == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInvalidRequest, "audit database is not enabled"))
		return
	}
	records, err := h.auditRepo.ListFlagged(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records)
}

// ExportStudents writes the student roster to a CSV file.
func (h *ReportHandler) ExportStudents(c *gin.Context) {
	h.export(c, h.exports.StudentsCSV)
}

// ExportCourses writes the course catalog to a CSV file.
func (h *ReportHandler) ExportCourses(c *gin.Context) {
	h.export(c, h.exports.CoursesCSV)
}

// ExportEnrollments writes all enrollments to a CSV file.
func (h *ReportHandler) ExportEnrollments(c *gin.Context) {
	h.export(c, h.exports.EnrollmentsCSV)
}

// Transcript renders a student's transcript as PDF and returns its location.
func (h *ReportHandler) Transcript(c *gin.Context) {
	result, err := h.exports.TranscriptPDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

func (h *ReportHandler) export(c *gin.Context, fn func(ctx context.Context) (*service.ExportResult, error)) {
	result, err := fn(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}
