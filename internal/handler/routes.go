package handler

import "github.com/gin-gonic/gin"

// Handlers bundles every route handler for registration.
type Handlers struct {
	Students    *StudentHandler
	Courses     *CourseHandler
	Enrollments *EnrollmentHandler
	Reports     *ReportHandler
	Admin       *AdminHandler
}

// RegisterRoutes mounts the full API surface under the given group.
func RegisterRoutes(api *gin.RouterGroup, h Handlers) {
	students := api.Group("/students")
	{
		students.GET("", h.Students.List)
		students.POST("", h.Students.Create)
		students.GET("/:id", h.Students.Get)
		students.PUT("/:id", h.Students.Update)
		students.DELETE("/:id", h.Students.Delete)
		students.GET("/:id/enrollments", h.Students.Enrollments)
		students.POST("/:id/thesis", h.Students.Thesis)
		students.POST("/:id/transcript", h.Reports.Transcript)
		students.GET("/:id/audit/flagged", h.Reports.FlaggedChanges)
	}

	courses := api.Group("/courses")
	{
		courses.GET("", h.Courses.List)
		courses.POST("", h.Courses.Create)
		courses.GET("/:id", h.Courses.Get)
		courses.PUT("/:id", h.Courses.Update)
		courses.DELETE("/:id", h.Courses.Delete)
		courses.GET("/:id/roster", h.Courses.Roster)
		courses.GET("/:id/statistics", h.Courses.Statistics)
		courses.POST("/:id/prerequisites", h.Courses.AddPrerequisite)
	}
	api.GET("/departments", h.Courses.Departments)

	enrollments := api.Group("/enrollments")
	{
		enrollments.GET("", h.Enrollments.List)
		enrollments.POST("", h.Enrollments.Create)
		enrollments.GET("/:id", h.Enrollments.Get)
		enrollments.POST("/:id/drop", h.Enrollments.Drop)
		enrollments.POST("/:id/withdraw", h.Enrollments.Withdraw)
		enrollments.POST("/:id/complete", h.Enrollments.Complete)
		enrollments.PUT("/:id/grade", h.Enrollments.Grade)
		enrollments.POST("/:id/attendance", h.Enrollments.Attendance)
		enrollments.PUT("/:id/feedback", h.Enrollments.Feedback)
	}

	reports := api.Group("/reports")
	{
		reports.GET("/top-performers", h.Reports.TopPerformers)
		reports.GET("/probation", h.Reports.Probation)
		reports.GET("/student-statistics", h.Reports.StudentStatistics)
		reports.GET("/audit-trail", h.Reports.AuditTrail)
	}

	exports := api.Group("/exports")
	{
		exports.POST("/students", h.Reports.ExportStudents)
		exports.POST("/courses", h.Reports.ExportCourses)
		exports.POST("/enrollments", h.Reports.ExportEnrollments)
	}

	admin := api.Group("/admin")
	{
		admin.GET("/metrics", h.Admin.Metrics)
		admin.POST("/snapshot/save", h.Admin.Save)
		admin.POST("/snapshot/load", h.Admin.Load)
	}
}
