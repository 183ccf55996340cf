package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/academix/registrar-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation and provides a
// lightweight snapshot for the admin API.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	enrollTotal     *prometheus.CounterVec
	gradeUpdates    prometheus.Counter
	notifyDuration  prometheus.Observer
	auditDBDuration prometheus.Observer

	requestCount         uint64
	requestDurationTotal uint64
	gradeUpdateCount     uint64
	enrollmentCount      uint64
	enrollmentRejected   uint64
}

// NewMetricsService registers the collectors. The gauges read live counts
// from the provided callbacks on every scrape.
func NewMetricsService(studentCount, courseCount, activeEnrollmentCount func() int) *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	enrollTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "registrar_enrollment_attempts_total",
		Help: "Enrollment attempts by outcome",
	}, []string{"outcome"})

	gradeUpdates := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "registrar_grade_updates_total",
		Help: "Total grade assignments through the update pipeline",
	})

	notifyDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "registrar_notification_fanout_seconds",
		Help:    "Duration of grade-change observer fan-out",
		Buckets: prometheus.DefBuckets,
	})

	auditDBDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "registrar_audit_db_seconds",
		Help:    "Duration of audit trail database writes",
		Buckets: prometheus.DefBuckets,
	})

	students := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "registrar_students",
		Help: "Registered students",
	}, func() float64 { return float64(studentCount()) })

	courses := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "registrar_courses",
		Help: "Courses in the catalog",
	}, func() float64 { return float64(courseCount()) })

	activeEnrollments := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "registrar_active_enrollments",
		Help: "Enrollments currently in ACTIVE status",
	}, func() float64 { return float64(activeEnrollmentCount()) })

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 { return float64(runtime.NumGoroutine()) })

	registry.MustRegister(requestDuration, requestTotal, enrollTotal, gradeUpdates,
		notifyDuration, auditDBDuration, students, courses, activeEnrollments, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		enrollTotal:     enrollTotal,
		gradeUpdates:    gradeUpdates,
		notifyDuration:  notifyDuration,
		auditDBDuration: auditDBDuration,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for
// snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordEnrollment counts an enrollment attempt. Outcome is "accepted" or a
// rejection reason label.
func (m *MetricsService) RecordEnrollment(outcome string) {
	if m == nil {
		return
	}
	m.enrollTotal.WithLabelValues(outcome).Inc()
	if outcome == "accepted" {
		atomic.AddUint64(&m.enrollmentCount, 1)
	} else {
		atomic.AddUint64(&m.enrollmentRejected, 1)
	}
}

// RecordGradeUpdate counts a grade assignment.
func (m *MetricsService) RecordGradeUpdate() {
	if m == nil {
		return
	}
	m.gradeUpdates.Inc()
	atomic.AddUint64(&m.gradeUpdateCount, 1)
}

// ObserveNotificationFanout records the duration of one observer fan-out.
func (m *MetricsService) ObserveNotificationFanout(duration time.Duration) {
	if m == nil || m.notifyDuration == nil {
		return
	}
	m.notifyDuration.Observe(duration.Seconds())
}

// ObserveAuditDBWrite records audit trail write timing.
func (m *MetricsService) ObserveAuditDBWrite(duration time.Duration) {
	if m == nil || m.auditDBDuration == nil {
		return
	}
	m.auditDBDuration.Observe(duration.Seconds())
}

// Snapshot returns aggregated metrics for the admin endpoints.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		GradeUpdatesTotal:        atomic.LoadUint64(&m.gradeUpdateCount),
		EnrollmentsTotal:         atomic.LoadUint64(&m.enrollmentCount),
		EnrollmentsRejected:      atomic.LoadUint64(&m.enrollmentRejected),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
