package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/osms-api/internal/models"
)

func TestIdentityRepositoryFindByEmail(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewIdentityRepository(db)

	mock.ExpectQuery("FROM auth_identities WHERE email = \\$1").
		WithArgs("ada@uu.edu").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "user_metadata", "email_confirmed", "provider", "created_at"}).
			AddRow("i1", "ada@uu.edu", "hash", []byte(`{"role":"student"}`), true, "email", time.Now()))

	identity, err := repo.FindIdentityByEmail(context.Background(), "ada@uu.edu")
	require.NoError(t, err)
	assert.Equal(t, "i1", identity.ID)
	require.NotNil(t, identity.PasswordHash)
	assert.Equal(t, "student", identity.UserMetadata["role"])
}

func TestIdentityRepositoryFindMissing(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewIdentityRepository(db)

	mock.ExpectQuery("FROM auth_identities WHERE id = \\$1").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindIdentityByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestIdentityRepositoryCreateDuplicateEmail(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewIdentityRepository(db)

	mock.ExpectExec("INSERT INTO auth_identities").WillReturnError(&pq.Error{Code: "23505"})

	err := repo.CreateIdentity(context.Background(), &models.AuthIdentity{ID: "i1", Email: "ada@uu.edu", Provider: models.ProviderEmail})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestIdentityRepositoryRevokeRefreshTokenOnlyOnce(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewIdentityRepository(db)

	mock.ExpectExec("UPDATE refresh_tokens SET revoked_at = \\$2 WHERE id = \\$1 AND revoked_at IS NULL").
		WithArgs("rt-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE refresh_tokens SET revoked_at = \\$2 WHERE id = \\$1 AND revoked_at IS NULL").
		WithArgs("rt-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.RevokeRefreshToken(context.Background(), "rt-1"))
	assert.ErrorIs(t, repo.RevokeRefreshToken(context.Background(), "rt-1"), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentityRepositoryRevokeIdentityTokens(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewIdentityRepository(db)

	mock.ExpectExec("UPDATE refresh_tokens SET revoked_at = \\$2 WHERE identity_id = \\$1 AND revoked_at IS NULL").
		WithArgs("i1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.RevokeIdentityTokens(context.Background(), "i1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
