package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/studia-dev/classhub-api/internal/models"
)

// StatsRepository aggregates dashboard counters.
type StatsRepository struct {
	db *sqlx.DB
}

// NewStatsRepository constructs the repository.
func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// TeacherDashboard returns counters across the teacher's classrooms.
func (r *StatsRepository) TeacherDashboard(ctx context.Context, teacherID string) (*models.TeacherDashboard, error) {
	const query = `SELECT
        (SELECT COUNT(*) FROM classrooms c WHERE c.teacher_id = $1) AS classroom_count,
        (SELECT COUNT(*) FROM memberships m JOIN classrooms c ON c.id = m.classroom_id WHERE c.teacher_id = $1) AS student_count,
        (SELECT COUNT(*) FROM submissions s JOIN classrooms c ON c.id = s.classroom_id WHERE c.teacher_id = $1 AND s.status = 'SUBMITTED') AS submitted_count,
        (SELECT COUNT(*) FROM submissions s JOIN classrooms c ON c.id = s.classroom_id WHERE c.teacher_id = $1 AND s.grade IS NOT NULL) AS graded_count`
	var dashboard models.TeacherDashboard
	if err := r.db.GetContext(ctx, &dashboard, query, teacherID); err != nil {
		return nil, fmt.Errorf("teacher dashboard: %w", err)
	}
	dashboard.AwaitingGrading = dashboard.SubmittedCount - dashboard.GradedCount
	if dashboard.AwaitingGrading < 0 {
		dashboard.AwaitingGrading = 0
	}
	return &dashboard, nil
}

// StudentDashboard returns counters for the student's memberships and work.
func (r *StatsRepository) StudentDashboard(ctx context.Context, studentID string) (*models.StudentDashboard, error) {
	const query = `SELECT
        (SELECT COUNT(*) FROM memberships m WHERE m.student_id = $1) AS membership_count,
        (SELECT COUNT(*) FROM submissions s WHERE s.created_by = $1 AND s.status = 'DRAFT') AS draft_count,
        (SELECT COUNT(*) FROM submissions s WHERE s.created_by = $1 AND s.status = 'SUBMITTED') AS submitted_count,
        (SELECT COUNT(*) FROM submissions s WHERE s.created_by = $1 AND s.grade IS NOT NULL) AS graded_count`
	var dashboard models.StudentDashboard
	if err := r.db.GetContext(ctx, &dashboard, query, studentID); err != nil {
		return nil, fmt.Errorf("student dashboard: %w", err)
	}
	return &dashboard, nil
}
