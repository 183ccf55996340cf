package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/academix/registrar-api/internal/models"
)

// AuditRepository persists grade-change audit records to Postgres.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs the repository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Record inserts one grade-change record. Implements notify.AuditSink.
func (r *AuditRepository) Record(ctx context.Context, record models.GradeChangeRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	const query = `INSERT INTO grade_change_audit
        (id, student_id, course_id, enrollment_id, old_grade, new_grade, delta, flagged, recorded_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := r.db.ExecContext(ctx, query,
		record.ID, record.StudentID, record.CourseID, record.EnrollmentID,
		record.OldGrade, record.NewGrade, record.Delta, record.Flagged, record.RecordedAt,
	); err != nil {
		return fmt.Errorf("insert grade change audit: %w", err)
	}
	return nil
}

// ListRecent returns the most recent records, newest first.
func (r *AuditRepository) ListRecent(ctx context.Context, limit int) ([]models.GradeChangeRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT id, student_id, course_id, enrollment_id, old_grade, new_grade, delta, flagged, recorded_at
        FROM grade_change_audit ORDER BY recorded_at DESC LIMIT %d`, limit)
	var records []models.GradeChangeRecord
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("list grade change audit: %w", err)
	}
	return records, nil
}

// ListFlagged returns flagged records for a student, newest first.
func (r *AuditRepository) ListFlagged(ctx context.Context, studentID string) ([]models.GradeChangeRecord, error) {
	const query = `SELECT id, student_id, course_id, enrollment_id, old_grade, new_grade, delta, flagged, recorded_at
        FROM grade_change_audit WHERE student_id = $1 AND flagged ORDER BY recorded_at DESC`
	var records []models.GradeChangeRecord
	if err := r.db.SelectContext(ctx, &records, query, studentID); err != nil {
		return nil, fmt.Errorf("list flagged grade changes: %w", err)
	}
	return records, nil
}
