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

// ClassroomRepository handles persistence of classrooms.
type ClassroomRepository struct {
	db *sqlx.DB
}

// NewClassroomRepository constructs the repository.
func NewClassroomRepository(db *sqlx.DB) *ClassroomRepository {
	return &ClassroomRepository{db: db}
}

const classroomDetailColumns = `c.id, c.title, c.description, c.subject, c.requirements_url, c.join_code, c.teacher_id, c.active, c.created_at, c.updated_at,
        u.full_name AS teacher_name,
        (SELECT COUNT(*) FROM memberships m WHERE m.classroom_id = c.id) AS student_count,
        (SELECT COUNT(*) FROM submissions s WHERE s.classroom_id = c.id AND s.status = 'SUBMITTED') AS submitted_count,
        (SELECT COUNT(*) FROM submissions s WHERE s.classroom_id = c.id AND s.grade IS NOT NULL) AS graded_count`

// Create persists a new classroom. The caller supplies a join code; a
// unique violation on it is returned as-is so the service can regenerate.
func (r *ClassroomRepository) Create(ctx context.Context, classroom *models.Classroom) error {
	if classroom.ID == "" {
		classroom.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if classroom.CreatedAt.IsZero() {
		classroom.CreatedAt = now
	}
	classroom.UpdatedAt = now
	const query = `INSERT INTO classrooms (id, title, description, subject, requirements_url, join_code, teacher_id, active, created_at, updated_at)
        VALUES (:id, :title, :description, :subject, :requirements_url, :join_code, :teacher_id, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, classroom); err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("create classroom: %w", err)
	}
	return nil
}

// FindByID returns a classroom by its ID.
func (r *ClassroomRepository) FindByID(ctx context.Context, id string) (*models.Classroom, error) {
	const query = `SELECT id, title, description, subject, requirements_url, join_code, teacher_id, active, created_at, updated_at FROM classrooms WHERE id = $1`
	var classroom models.Classroom
	if err := r.db.GetContext(ctx, &classroom, query, id); err != nil {
		return nil, err
	}
	return &classroom, nil
}

// FindDetailByID returns a classroom with teacher name and counters.
func (r *ClassroomRepository) FindDetailByID(ctx context.Context, id string) (*models.ClassroomDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM classrooms c JOIN users u ON u.id = c.teacher_id WHERE c.id = $1`, classroomDetailColumns)
	var detail models.ClassroomDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// FindActiveByJoinCode returns the active classroom carrying the code.
func (r *ClassroomRepository) FindActiveByJoinCode(ctx context.Context, code string) (*models.Classroom, error) {
	const query = `SELECT id, title, description, subject, requirements_url, join_code, teacher_id, active, created_at, updated_at FROM classrooms WHERE join_code = $1 AND active = TRUE`
	var classroom models.Classroom
	if err := r.db.GetContext(ctx, &classroom, query, code); err != nil {
		return nil, err
	}
	return &classroom, nil
}

// ListByTeacher returns classrooms owned by the teacher.
func (r *ClassroomRepository) ListByTeacher(ctx context.Context, teacherID string, filter models.ClassroomFilter) ([]models.ClassroomDetail, int, error) {
	return r.list(ctx, "c.teacher_id = $1", teacherID, filter)
}

// ListByMember returns classrooms the student is enrolled in.
func (r *ClassroomRepository) ListByMember(ctx context.Context, studentID string, filter models.ClassroomFilter) ([]models.ClassroomDetail, int, error) {
	return r.list(ctx, "c.id IN (SELECT classroom_id FROM memberships WHERE student_id = $1)", studentID, filter)
}

func (r *ClassroomRepository) list(ctx context.Context, visibility, subjectID string, filter models.ClassroomFilter) ([]models.ClassroomDetail, int, error) {
	base := `FROM classrooms c JOIN users u ON u.id = c.teacher_id`
	conditions := []string{visibility}
	args := []interface{}{subjectID}

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("c.active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(c.title ILIKE $%d OR c.subject ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	clause := " WHERE " + strings.Join(conditions, " AND ")

	allowedSorts := map[string]string{
		"created_at": "c.created_at",
		"title":      "c.title",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "c.created_at"
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
		classroomDetailColumns, base+clause, orderBy, order, size, offset)

	var classrooms []models.ClassroomDetail
	if err := r.db.SelectContext(ctx, &classrooms, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list classrooms: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count classrooms: %w", err)
	}
	return classrooms, total, nil
}

// Update persists mutable classroom fields. The join code is never touched.
func (r *ClassroomRepository) Update(ctx context.Context, classroom *models.Classroom) error {
	classroom.UpdatedAt = time.Now().UTC()
	const query = `UPDATE classrooms SET title = :title, description = :description, subject = :subject,
        requirements_url = :requirements_url, active = :active, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, classroom)
	if err != nil {
		return fmt.Errorf("update classroom: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a classroom and cascades to memberships and submissions.
func (r *ClassroomRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM classrooms WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete classroom: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
