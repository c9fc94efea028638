package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity providers recorded on auth identities.
const (
	ProviderEmail  = "email"
	ProviderGoogle = "google"
	ProviderGitHub = "github"
)

// AuthIdentity is a credential record owned by the identity provider.
type AuthIdentity struct {
	ID             string    `db:"id" json:"id"`
	Email          string    `db:"email" json:"email"`
	PasswordHash   *string   `db:"password_hash" json:"-"`
	UserMetadata   Metadata  `db:"user_metadata" json:"user_metadata"`
	EmailConfirmed bool      `db:"email_confirmed" json:"email_confirmed"`
	Provider       string    `db:"provider" json:"provider"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// RefreshToken represents a persisted, rotating refresh token.
type RefreshToken struct {
	ID         string     `db:"id" json:"id"`
	IdentityID string     `db:"identity_id" json:"identity_id"`
	TokenHash  string     `db:"token_hash" json:"-"`
	ExpiresAt  time.Time  `db:"expires_at" json:"expires_at"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	RevokedAt  *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
}

// Session is an issued pair of tokens for an identity.
type Session struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresAt    time.Time     `json:"expires_at"`
	Identity     *AuthIdentity `json:"identity"`
}

// AccessClaims is the JWT payload of access tokens.
type AccessClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// SignInRequest holds credentials for password sign in.
type SignInRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	Redirect string `json:"redirect" form:"redirect"`
}

// SignUpRequest is the self-registration payload. Presence and password
// rules are checked by the auth service so it can report them in order.
type SignUpRequest struct {
	Email           string   `json:"email" form:"email" validate:"omitempty,email"`
	Password        string   `json:"password" form:"password"`
	ConfirmPassword string   `json:"confirm_password" form:"confirm_password"`
	FullName        string   `json:"full_name" form:"full_name"`
	Phone           string   `json:"phone" form:"phone"`
	Role            UserRole `json:"role" form:"role" validate:"omitempty,oneof=admin faculty student"`
	Department      string   `json:"department" form:"department"`
	Year            int      `json:"year" form:"year" validate:"min=0,max=8"`
	Semester        int      `json:"semester" form:"semester" validate:"min=0,max=16"`
	Designation     string   `json:"designation" form:"designation"`
}

// ForgotPasswordRequest starts the recovery flow.
type ForgotPasswordRequest struct {
	Email string `json:"email" form:"email" validate:"omitempty,email"`
}

// UpdatePasswordRequest completes the recovery flow or changes a password.
type UpdatePasswordRequest struct {
	Token           string `json:"token" form:"token"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
}

// AuthResult reports the outcome of an auth entry point.
type AuthResult struct {
	Success     bool     `json:"success"`
	Message     string   `json:"message,omitempty"`
	RedirectTo  string   `json:"redirect_to,omitempty"`
	Role        UserRole `json:"role,omitempty"`
	Session     *Session `json:"-"`
	RecoveryURL string   `json:"-"`
}
