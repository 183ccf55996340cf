package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/academix/registrar-api/internal/persist"
	"github.com/academix/registrar-api/internal/service"
	appErrors "github.com/academix/registrar-api/pkg/errors"
	"github.com/academix/registrar-api/pkg/response"
)

// AdminHandler exposes health, metrics snapshot and persistence endpoints.
type AdminHandler struct {
	metrics     *service.MetricsService
	snapshot    *persist.Snapshot
	students    *service.StudentService
	enrollments *service.EnrollmentService
	startedAt   time.Time
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(metrics *service.MetricsService, snapshot *persist.Snapshot, students *service.StudentService, enrollments *service.EnrollmentService) *AdminHandler {
	return &AdminHandler{
		metrics:     metrics,
		snapshot:    snapshot,
		students:    students,
		enrollments: enrollments,
		startedAt:   time.Now().UTC(),
	}
}

// Health reports liveness and uptime.
func (h *AdminHandler) Health(c *gin.Context) {
	response.JSON(c, http.StatusOK, gin.H{
		"status":    "ok",
		"uptime":    time.Since(h.startedAt).String(),
		"timestamp": time.Now().UTC(),
	})
}

// Metrics returns the aggregated metrics snapshot.
func (h *AdminHandler) Metrics(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.metrics.Snapshot())
}

// PrometheusHandler exposes the scrape endpoint.
func (h *AdminHandler) PrometheusHandler() gin.HandlerFunc {
	return gin.WrapH(h.metrics.Handler())
}

// Save persists the current in-memory state to the data directory.
func (h *AdminHandler) Save(c *gin.Context) {
	if h.snapshot == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInvalidRequest, "persistence is not configured"))
		return
	}
	if err := h.snapshot.Save(); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "snapshot save failed"))
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"saved": true})
}

// Load replaces the in-memory state with the snapshot on disk and re-seeds the
// id sequences. A failed load leaves the in-memory state untouched.
func (h *AdminHandler) Load(c *gin.Context) {
	if h.snapshot == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInvalidRequest, "persistence is not configured"))
		return
	}
	if err := h.snapshot.Load(); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "snapshot load failed"))
		return
	}
	h.students.SyncIDCounter()
	h.enrollments.SyncIDCounter()
	response.JSON(c, http.StatusOK, gin.H{"loaded": true})
}
