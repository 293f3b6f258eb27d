package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/studia-dev/classhub-api/internal/models"
)

// SubmissionRepository handles persistence of project submissions and their
// collaborator sets.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository constructs the repository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

const submissionDetailColumns = `s.id, s.classroom_id, s.title, s.description, s.repository_url, s.deployed_url, s.status, s.grade, s.teacher_notes, s.created_by, s.created_at, s.updated_at, s.submitted_at,
        c.title AS classroom_title, c.teacher_id AS classroom_teacher_id,
        u.full_name AS creator_name, u.email AS creator_email`

// Create persists a new draft submission with its collaborators in one
// transaction. The (classroom_id, created_by) unique constraint rejects a
// second submission by the same student in the same classroom.
func (r *SubmissionRepository) Create(ctx context.Context, submission *models.Submission, collaboratorIDs []string) error {
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if submission.CreatedAt.IsZero() {
		submission.CreatedAt = now
	}
	submission.UpdatedAt = now
	if submission.Status == "" {
		submission.Status = models.SubmissionStatusDraft
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin submission create: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO submissions (id, classroom_id, title, description, repository_url, deployed_url, status, created_by, created_at, updated_at)
        VALUES (:id, :classroom_id, :title, :description, :repository_url, :deployed_url, :status, :created_by, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, submission); err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("create submission: %w", err)
	}

	if err := insertCollaborators(ctx, tx, submission.ID, collaboratorIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit submission create: %w", err)
	}
	return nil
}

// FindByID returns a bare submission row.
func (r *SubmissionRepository) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	const query = `SELECT id, classroom_id, title, description, repository_url, deployed_url, status, grade, teacher_notes, created_by, created_at, updated_at, submitted_at FROM submissions WHERE id = $1`
	var submission models.Submission
	if err := r.db.GetContext(ctx, &submission, query, id); err != nil {
		return nil, err
	}
	return &submission, nil
}

// FindDetailByID returns a submission with classroom context and the
// collaborator list.
func (r *SubmissionRepository) FindDetailByID(ctx context.Context, id string) (*models.SubmissionDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM submissions s
        JOIN classrooms c ON c.id = s.classroom_id
        JOIN users u ON u.id = s.created_by
        WHERE s.id = $1`, submissionDetailColumns)
	var detail models.SubmissionDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	collaborators, err := r.loadCollaborators(ctx, id)
	if err != nil {
		return nil, err
	}
	detail.Collaborators = collaborators
	return &detail, nil
}

func (r *SubmissionRepository) loadCollaborators(ctx context.Context, submissionID string) ([]models.UserInfo, error) {
	const query = `SELECT u.id, u.email, u.full_name, u.role FROM submission_collaborators sc
        JOIN users u ON u.id = sc.user_id
        WHERE sc.submission_id = $1
        ORDER BY u.full_name`
	rows, err := r.db.QueryxContext(ctx, query, submissionID)
	if err != nil {
		return nil, fmt.Errorf("load collaborators: %w", err)
	}
	defer rows.Close()

	collaborators := []models.UserInfo{}
	for rows.Next() {
		var info models.UserInfo
		if err := rows.Scan(&info.ID, &info.Email, &info.FullName, &info.Role); err != nil {
			return nil, fmt.Errorf("scan collaborator: %w", err)
		}
		collaborators = append(collaborators, info)
	}
	return collaborators, rows.Err()
}

// UpdateDraft rewrites the student-editable fields and collaborator set.
// The status predicate makes the write a no-op once SUBMITTED.
func (r *SubmissionRepository) UpdateDraft(ctx context.Context, submission *models.Submission, collaboratorIDs []string) error {
	submission.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin submission update: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `UPDATE submissions SET title = :title, description = :description, repository_url = :repository_url,
        deployed_url = :deployed_url, updated_at = :updated_at
        WHERE id = :id AND status = 'DRAFT'`
	res, err := tx.NamedExecContext(ctx, query, submission)
	if err != nil {
		return fmt.Errorf("update submission: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNoRowsAffected
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM submission_collaborators WHERE submission_id = $1`, submission.ID); err != nil {
		return fmt.Errorf("clear collaborators: %w", err)
	}
	if err := insertCollaborators(ctx, tx, submission.ID, collaboratorIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit submission update: %w", err)
	}
	return nil
}

// Submit performs the one-way DRAFT -> SUBMITTED transition as a
// compare-and-swap. Exactly one of two concurrent calls can win; the loser
// gets ErrNoRowsAffected.
func (r *SubmissionRepository) Submit(ctx context.Context, id string, submittedAt time.Time) error {
	const query = `UPDATE submissions SET status = 'SUBMITTED', submitted_at = $2, updated_at = $2
        WHERE id = $1 AND status = 'DRAFT'`
	res, err := r.db.ExecContext(ctx, query, id, submittedAt)
	if err != nil {
		return fmt.Errorf("submit submission: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

// Grade writes grade and teacher notes, guarded on SUBMITTED status.
func (r *SubmissionRepository) Grade(ctx context.Context, id string, grade int, notes string) error {
	const query = `UPDATE submissions SET grade = $2, teacher_notes = $3, updated_at = $4
        WHERE id = $1 AND status = 'SUBMITTED'`
	res, err := r.db.ExecContext(ctx, query, id, grade, notes, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("grade submission: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

// DeleteDraft removes a submission while it is still a draft.
func (r *SubmissionRepository) DeleteDraft(ctx context.Context, id string) error {
	const query = `DELETE FROM submissions WHERE id = $1 AND status = 'DRAFT'`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete submission: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

// ListForTeacher returns submissions in classrooms the teacher owns.
func (r *SubmissionRepository) ListForTeacher(ctx context.Context, teacherID string, filter models.SubmissionFilter) ([]models.SubmissionDetail, int, error) {
	return r.list(ctx, "c.teacher_id = $1", teacherID, filter)
}

// ListForStudent returns submissions the student created or collaborates on.
func (r *SubmissionRepository) ListForStudent(ctx context.Context, studentID string, filter models.SubmissionFilter) ([]models.SubmissionDetail, int, error) {
	return r.list(ctx, "(s.created_by = $1 OR s.id IN (SELECT submission_id FROM submission_collaborators WHERE user_id = $1))", studentID, filter)
}

func (r *SubmissionRepository) list(ctx context.Context, visibility, subjectID string, filter models.SubmissionFilter) ([]models.SubmissionDetail, int, error) {
	base := `FROM submissions s
JOIN classrooms c ON c.id = s.classroom_id
JOIN users u ON u.id = s.created_by`
	conditions := []string{visibility}
	args := []interface{}{subjectID}

	if filter.ClassroomID != "" {
		conditions = append(conditions, fmt.Sprintf("s.classroom_id = $%d", len(args)+1))
		args = append(args, filter.ClassroomID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("s.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.GradedOnly {
		conditions = append(conditions, "s.grade IS NOT NULL")
	}

	clause := " WHERE " + strings.Join(conditions, " AND ")

	allowedSorts := map[string]string{
		"created_at":   "s.created_at",
		"submitted_at": "s.submitted_at",
		"title":        "s.title",
		"grade":        "s.grade",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "s.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d`,
		submissionDetailColumns, base+clause, orderBy, order, size, offset)

	var submissions []models.SubmissionDetail
	if err := r.db.SelectContext(ctx, &submissions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list submissions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count submissions: %w", err)
	}

	for i := range submissions {
		collaborators, err := r.loadCollaborators(ctx, submissions[i].ID)
		if err != nil {
			return nil, 0, err
		}
		submissions[i].Collaborators = collaborators
	}
	return submissions, total, nil
}

// GradesByClassroom returns the assigned grades of a classroom.
func (r *SubmissionRepository) GradesByClassroom(ctx context.Context, classroomID string) ([]int, error) {
	const query = `SELECT grade FROM submissions WHERE classroom_id = $1 AND grade IS NOT NULL ORDER BY grade`
	var grades []int
	if err := r.db.SelectContext(ctx, &grades, query, classroomID); err != nil {
		return nil, fmt.Errorf("list classroom grades: %w", err)
	}
	return grades, nil
}

func insertCollaborators(ctx context.Context, tx *sqlx.Tx, submissionID string, collaboratorIDs []string) error {
	for _, userID := range collaboratorIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO submission_collaborators (submission_id, user_id) VALUES ($1, $2)`,
			submissionID, userID); err != nil {
			if IsUniqueViolation(err) {
				continue
			}
			return fmt.Errorf("insert collaborator %s: %w", userID, err)
		}
	}
	return nil
}

// HasSubmissionInClassroom reports whether the student created a submission
// in the classroom. Used by the leave-classroom guard and tests.
func (r *SubmissionRepository) HasSubmissionInClassroom(ctx context.Context, classroomID, studentID string) (bool, error) {
	const query = `SELECT 1 FROM submissions WHERE classroom_id = $1 AND created_by = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, classroomID, studentID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check classroom submission: %w", err)
	}
	return true, nil
}
