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

	"github.com/schoolgate/pickup-api/internal/models"
)

func TestLinkRepositoryExists(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLinkRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM guardian_children WHERE guardian_id = $1 AND child_id = $2")).
		WithArgs("g1", "c1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	ok, err := repo.Exists(context.Background(), "g1", "c1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLinkRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLinkRepository(db)

	mock.ExpectExec("INSERT INTO guardian_children").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "guardian_children_guardian_id_child_id_key"})

	err := repo.Create(context.Background(), &models.GuardianChildLink{GuardianID: "g1", ChildID: "c1"})
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLinkRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLinkRepository(db)

	mock.ExpectExec("DELETE FROM guardian_children").
		WithArgs("g1", "c1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "g1", "c1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLinkRepositoryGuardiansByChild(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLinkRepository(db)

	rows := sqlmock.NewRows([]string{"id", "open_id", "name", "phone", "avatar_url", "created_at", "updated_at"}).
		AddRow("g1", "openid-1", "Jane", "555", "", time.Now(), time.Now()).
		AddRow("g2", "openid-2", "John", "556", "", time.Now(), time.Now())
	mock.ExpectQuery("SELECT g.id, g.open_id, g.name, g.phone, g.avatar_url, g.created_at, g.updated_at FROM guardian_children l JOIN guardians g").
		WithArgs("c1").
		WillReturnRows(rows)

	guardians, err := repo.GuardiansByChild(context.Background(), "c1")
	require.NoError(t, err)
	assert.Len(t, guardians, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}
