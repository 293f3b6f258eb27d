package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/studia-dev/classhub-api/internal/models"
)

// MembershipRepository handles persistence of classroom memberships.
type MembershipRepository struct {
	db *sqlx.DB
}

// NewMembershipRepository constructs the repository.
func NewMembershipRepository(db *sqlx.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// Create persists a membership. The (classroom_id, student_id) unique
// constraint is the authority on duplicate joins; violations are returned
// as-is so concurrent duplicates surface as conflicts.
func (r *MembershipRepository) Create(ctx context.Context, membership *models.Membership) error {
	if membership.ID == "" {
		membership.ID = uuid.NewString()
	}
	if membership.JoinedAt.IsZero() {
		membership.JoinedAt = time.Now().UTC()
	}
	const query = `INSERT INTO memberships (id, classroom_id, student_id, joined_at)
        VALUES (:id, :classroom_id, :student_id, :joined_at)`
	if _, err := r.db.NamedExecContext(ctx, query, membership); err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("create membership: %w", err)
	}
	return nil
}

// Find returns the membership for a (classroom, student) pair.
func (r *MembershipRepository) Find(ctx context.Context, classroomID, studentID string) (*models.Membership, error) {
	const query = `SELECT id, classroom_id, student_id, joined_at FROM memberships WHERE classroom_id = $1 AND student_id = $2 LIMIT 1`
	var membership models.Membership
	if err := r.db.GetContext(ctx, &membership, query, classroomID, studentID); err != nil {
		return nil, err
	}
	return &membership, nil
}

// Exists checks membership of a student in a classroom.
func (r *MembershipRepository) Exists(ctx context.Context, classroomID, studentID string) (bool, error) {
	const query = `SELECT 1 FROM memberships WHERE classroom_id = $1 AND student_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, classroomID, studentID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check membership: %w", err)
	}
	return true, nil
}

// MemberIDs returns the set of student ids enrolled in the classroom.
func (r *MembershipRepository) MemberIDs(ctx context.Context, classroomID string) (map[string]bool, error) {
	const query = `SELECT student_id FROM memberships WHERE classroom_id = $1`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, classroomID); err != nil {
		return nil, fmt.Errorf("list member ids: %w", err)
	}
	members := make(map[string]bool, len(ids))
	for _, id := range ids {
		members[id] = true
	}
	return members, nil
}

// ListByClassroom returns the roster of a classroom.
func (r *MembershipRepository) ListByClassroom(ctx context.Context, classroomID string) ([]models.MembershipDetail, error) {
	const query = `SELECT m.id, m.classroom_id, m.student_id, m.joined_at,
        u.full_name AS student_name, u.email AS student_email, c.title AS classroom_title
        FROM memberships m
        JOIN users u ON u.id = m.student_id
        JOIN classrooms c ON c.id = m.classroom_id
        WHERE m.classroom_id = $1
        ORDER BY m.joined_at DESC`
	var members []models.MembershipDetail
	if err := r.db.SelectContext(ctx, &members, query, classroomID); err != nil {
		return nil, fmt.Errorf("list classroom members: %w", err)
	}
	return members, nil
}

// Delete removes a membership unless the student created a submission in
// the classroom. The subquery guard runs inside the delete statement so a
// concurrent draft creation cannot slip through between check and write.
func (r *MembershipRepository) Delete(ctx context.Context, classroomID, studentID string) error {
	const query = `DELETE FROM memberships
        WHERE classroom_id = $1 AND student_id = $2
        AND NOT EXISTS (SELECT 1 FROM submissions s WHERE s.classroom_id = $1 AND s.created_by = $2)`
	res, err := r.db.ExecContext(ctx, query, classroomID, studentID)
	if err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNoRowsAffected
	}
	return nil
}
