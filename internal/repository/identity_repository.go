package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/osms-api/internal/models"
)

const identityColumns = `id, email, password_hash, user_metadata, email_confirmed, provider, created_at`

// IdentityRepository persists auth identities and refresh tokens.
type IdentityRepository struct {
	db *sqlx.DB
}

// NewIdentityRepository constructs an IdentityRepository.
func NewIdentityRepository(db *sqlx.DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

// CreateIdentity inserts a new identity.
func (r *IdentityRepository) CreateIdentity(ctx context.Context, identity *models.AuthIdentity) error {
	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO auth_identities (` + identityColumns + `)
        VALUES (:id, :email, :password_hash, :user_metadata, :email_confirmed, :provider, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, identity); err != nil {
		return mapWriteError(err, "create identity")
	}
	return nil
}

// FindIdentityByEmail fetches an identity by its normalised email.
func (r *IdentityRepository) FindIdentityByEmail(ctx context.Context, email string) (*models.AuthIdentity, error) {
	const query = `SELECT ` + identityColumns + ` FROM auth_identities WHERE email = $1 LIMIT 1`
	var identity models.AuthIdentity
	if err := r.db.GetContext(ctx, &identity, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find identity by email: %w", err)
	}
	return &identity, nil
}

// FindIdentityByID fetches an identity by ID.
func (r *IdentityRepository) FindIdentityByID(ctx context.Context, id string) (*models.AuthIdentity, error) {
	const query = `SELECT ` + identityColumns + ` FROM auth_identities WHERE id = $1 LIMIT 1`
	var identity models.AuthIdentity
	if err := r.db.GetContext(ctx, &identity, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find identity by id: %w", err)
	}
	return &identity, nil
}

// UpdatePasswordHash stores a new password hash.
func (r *IdentityRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE auth_identities SET password_hash = $2 WHERE id = $1`, id, hash)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	return requireAffected(res)
}

// DeleteIdentity removes an identity.
func (r *IdentityRepository) DeleteIdentity(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM auth_identities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	return requireAffected(res)
}

// CreateRefreshToken persists a refresh token hash.
func (r *IdentityRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	const query = `INSERT INTO refresh_tokens (id, identity_id, token_hash, expires_at, created_at)
        VALUES (:id, :identity_id, :token_hash, :expires_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

// FindRefreshToken fetches a refresh token by hash.
func (r *IdentityRepository) FindRefreshToken(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	const query = `SELECT id, identity_id, token_hash, expires_at, created_at, revoked_at FROM refresh_tokens WHERE token_hash = $1 LIMIT 1`
	var token models.RefreshToken
	if err := r.db.GetContext(ctx, &token, query, tokenHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return &token, nil
}

// RevokeRefreshToken marks one live refresh token as revoked. Only the first
// caller wins; later ones get sql.ErrNoRows.
func (r *IdentityRepository) RevokeRefreshToken(ctx context.Context, id string) error {
	const query = `UPDATE refresh_tokens SET revoked_at = $2 WHERE id = $1 AND revoked_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return requireAffected(res)
}

// RevokeIdentityTokens revokes every live refresh token of an identity.
func (r *IdentityRepository) RevokeIdentityTokens(ctx context.Context, identityID string) error {
	const query = `UPDATE refresh_tokens SET revoked_at = $2 WHERE identity_id = $1 AND revoked_at IS NULL`
	if _, err := r.db.ExecContext(ctx, query, identityID, time.Now().UTC()); err != nil {
		return fmt.Errorf("revoke identity tokens: %w", err)
	}
	return nil
}
