// Package identity issues and verifies sessions for OSMS accounts.
package identity

import (
	"context"
	"errors"

	"github.com/noah-isme/osms-api/internal/models"
)

var (
	ErrInvalidCredentials  = errors.New("invalid login credentials")
	ErrEmailTaken          = errors.New("user already registered")
	ErrIdentityNotFound    = errors.New("identity not found")
	ErrInvalidSession      = errors.New("invalid session")
	ErrSessionExpired      = errors.New("session expired")
	ErrInvalidRecovery     = errors.New("invalid or expired recovery token")
	ErrUnsupportedProvider = errors.New("unsupported oauth provider")
	ErrInvalidOAuthState   = errors.New("invalid oauth state")
	ErrWeakPassword        = errors.New("password should be at least 8 characters")
)

// MinPasswordLength is enforced on every password the provider stores.
const MinPasswordLength = 8

// Provider is the authentication backend used by the access gate and auth entry points.
type Provider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error)
	SignUp(ctx context.Context, email, password string, metadata models.Metadata) (*models.AuthIdentity, error)
	GetUser(ctx context.Context, accessToken string) (*models.AuthIdentity, error)
	RefreshSession(ctx context.Context, refreshToken string) (*models.Session, error)
	SignOut(ctx context.Context, refreshToken string) error

	AdminCreateUser(ctx context.Context, email, password string, metadata models.Metadata) (*models.AuthIdentity, error)
	AdminDeleteUser(ctx context.Context, id string) error

	// ResetPasswordForEmail returns the recovery link for email. Unknown
	// emails yield an empty link and no error.
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) (string, error)
	VerifyRecoveryToken(ctx context.Context, token string) (string, error)
	UpdatePassword(ctx context.Context, identityID, password string) error

	AuthorizeURL(ctx context.Context, provider, next string) (string, error)
	ExchangeCodeForSession(ctx context.Context, provider, state, code string) (*models.Session, string, error)
}

// Store persists identities and refresh tokens.
type Store interface {
	CreateIdentity(ctx context.Context, identity *models.AuthIdentity) error
	FindIdentityByEmail(ctx context.Context, email string) (*models.AuthIdentity, error)
	FindIdentityByID(ctx context.Context, id string) (*models.AuthIdentity, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	DeleteIdentity(ctx context.Context, id string) error

	CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error
	FindRefreshToken(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	// RevokeRefreshToken returns sql.ErrNoRows when the token was already revoked.
	RevokeRefreshToken(ctx context.Context, id string) error
	RevokeIdentityTokens(ctx context.Context, identityID string) error
}
