package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolgate/pickup-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestGuardianRepositoryFindByOpenID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGuardianRepository(db)

	rows := sqlmock.NewRows([]string{"id", "open_id", "name", "phone", "avatar_url", "created_at", "updated_at"}).
		AddRow("g1", "openid-1", "Jane", "555", "", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, open_id, name, phone, avatar_url, created_at, updated_at FROM guardians WHERE open_id = $1 LIMIT 1")).
		WithArgs("openid-1").
		WillReturnRows(rows)

	guardian, err := repo.FindByOpenID(context.Background(), "openid-1")
	require.NoError(t, err)
	assert.Equal(t, "g1", guardian.ID)
	assert.Equal(t, "openid-1", guardian.OpenID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGuardianRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGuardianRepository(db)

	mock.ExpectExec("INSERT INTO guardians").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	guardian := &models.Guardian{OpenID: "openid-2"}
	err := repo.Create(context.Background(), guardian)
	require.NoError(t, err)
	assert.NotEmpty(t, guardian.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGuardianRepositoryCreateUniqueViolation(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGuardianRepository(db)

	mock.ExpectExec("INSERT INTO guardians").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "guardians_open_id_key"})

	err := repo.Create(context.Background(), &models.Guardian{OpenID: "openid-dup"})
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
