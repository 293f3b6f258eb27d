package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studia-dev/classhub-api/internal/models"
)

func TestCreateMembership(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMembershipRepository(db)

	mock.ExpectExec("INSERT INTO memberships").WillReturnResult(sqlmock.NewResult(1, 1))

	membership := &models.Membership{ClassroomID: "c1", StudentID: "u1"}
	err := repo.Create(context.Background(), membership)
	require.NoError(t, err)
	assert.NotEmpty(t, membership.ID)
	assert.False(t, membership.JoinedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateMembershipDuplicate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMembershipRepository(db)

	mock.ExpectExec("INSERT INTO memberships").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "memberships_classroom_id_student_id_key"})

	err := repo.Create(context.Background(), &models.Membership{ClassroomID: "c1", StudentID: "u1"})
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMembershipExists(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMembershipRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM memberships WHERE classroom_id = $1 AND student_id = $2 LIMIT 1")).
		WithArgs("c1", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	ok, err := repo.Exists(context.Background(), "c1", "u1")
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectQuery("SELECT 1 FROM memberships").
		WithArgs("c1", "stranger").
		WillReturnError(sql.ErrNoRows)

	ok, err = repo.Exists(context.Background(), "c1", "stranger")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByClassroom(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMembershipRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "classroom_id", "student_id", "joined_at", "student_name", "student_email", "classroom_title"}).
		AddRow("m1", "c1", "u1", now, "Alice Martin", "alice@example.edu", "Web Engineering")
	mock.ExpectQuery("FROM memberships m").
		WithArgs("c1").
		WillReturnRows(rows)

	members, err := repo.ListByClassroom(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "alice@example.edu", members[0].StudentEmail)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMembership(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMembershipRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("AND NOT EXISTS (SELECT 1 FROM submissions s WHERE s.classroom_id = $1 AND s.created_by = $2)")).
		WithArgs("c1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Delete(context.Background(), "c1", "u1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMembershipGuarded(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMembershipRepository(db)

	// Zero rows means either no membership or an existing submission; the
	// guard lives in the statement so there is no check-then-act window.
	mock.ExpectExec("DELETE FROM memberships").
		WithArgs("c1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "c1", "u1")
	assert.ErrorIs(t, err, ErrNoRowsAffected)
	assert.NoError(t, mock.ExpectationsWereMet())
}
