package service

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/osms-api/internal/access"
	"github.com/noah-isme/osms-api/internal/identity"
	"github.com/noah-isme/osms-api/internal/models"
	appErrors "github.com/noah-isme/osms-api/pkg/errors"
)

// User facing auth messages.
const (
	msgCredentialsRequired = "Email and password are required"
	msgInvalidCredentials  = "Invalid email or password"
	msgSomethingWrong      = "Something went wrong. Please try again."
	msgRequiredFields      = "Required fields are missing"
	msgPasswordsMismatch   = "Passwords do not match"
	msgPasswordTooShort    = "Password must be at least 8 characters"
	msgEmailTaken          = "An account with this email already exists"
	msgAccountCreated      = "Account created! Please check your email to verify your account."
	msgEmailRequired       = "Email is required"
	msgResetSent           = "Password reset link sent to your email"
	msgPasswordRequired    = "Password is required"
	msgPasswordUpdated     = "Password updated successfully"
	msgCouldNotAuth        = "Could not authenticate"
)

type authProvider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error)
	SignUp(ctx context.Context, email, password string, metadata models.Metadata) (*models.AuthIdentity, error)
	SignOut(ctx context.Context, refreshToken string) error
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) (string, error)
	VerifyRecoveryToken(ctx context.Context, token string) (string, error)
	UpdatePassword(ctx context.Context, identityID, password string) error
	AuthorizeURL(ctx context.Context, provider, next string) (string, error)
	ExchangeCodeForSession(ctx context.Context, provider, state, code string) (*models.Session, string, error)
}

type authProfiles interface {
	Create(ctx context.Context, user *models.User) error
	RoleOf(ctx context.Context, id string) (string, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

type studentRecordCreator interface {
	AttachToUser(ctx context.Context, userID, department string, year, semester int) (*models.Student, error)
}

type facultyRecordCreator interface {
	AttachToUser(ctx context.Context, userID, department, designation string) (*models.Faculty, error)
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	SiteURL   string
	Overrides access.OverrideSet
}

// AuthServiceParams groups constructor dependencies.
type AuthServiceParams struct {
	Provider  authProvider
	Profiles  authProfiles
	Students  studentRecordCreator
	Faculty   facultyRecordCreator
	Activity  *ActivityService
	Validator *validator.Validate
	Logger    *zap.Logger
	Config    AuthConfig
}

// AuthService implements the sign in, registration and recovery entry points.
type AuthService struct {
	provider  authProvider
	profiles  authProfiles
	students  studentRecordCreator
	faculty   facultyRecordCreator
	activity  *ActivityService
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(params AuthServiceParams) *AuthService {
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		provider:  params.Provider,
		profiles:  params.Profiles,
		students:  params.Students,
		faculty:   params.Faculty,
		activity:  params.Activity,
		validator: validate,
		logger:    logger,
		config:    params.Config,
	}
}

// RoleFor resolves the effective role of an identity. Lookup failures are
// logged and resolve to student.
func (s *AuthService) RoleFor(ctx context.Context, identityID, email string) models.UserRole {
	stored, err := s.profiles.RoleOf(ctx, identityID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		s.logger.Warn("role lookup failed", zap.String("identity_id", identityID), zap.Error(err))
	}
	return access.ResolveEffectiveRole(stored, email, s.config.Overrides)
}

// SignIn authenticates with email and password and returns the caller's landing page.
func (s *AuthService) SignIn(ctx context.Context, req models.SignInRequest) (*models.AuthResult, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, msgCredentialsRequired)
	}
	session, err := s.provider.SignInWithPassword(ctx, email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, msgInvalidCredentials)
		}
		return nil, internalError(err, msgSomethingWrong)
	}
	if session.Identity == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, msgSomethingWrong)
	}

	role := s.RoleFor(ctx, session.Identity.ID, session.Identity.Email)
	s.activity.Log(ctx, session.Identity.ID, models.ActivityUserSignedIn, "Signed in", models.Metadata{"provider": models.ProviderEmail})
	return &models.AuthResult{
		Success:    true,
		RedirectTo: access.LandingPath(req.Redirect, role),
		Role:       role,
		Session:    session,
	}, nil
}

// SignUp registers a student or faculty account. Profile and role record
// failures after the identity exists are logged, not returned.
func (s *AuthService) SignUp(ctx context.Context, req models.SignUpRequest) (*models.AuthResult, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)
	if req.Email == "" || req.Password == "" || req.FullName == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, msgRequiredFields)
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid registration details")
	}
	if req.Password != req.ConfirmPassword {
		return nil, appErrors.Clone(appErrors.ErrValidation, msgPasswordsMismatch)
	}
	if len(req.Password) < identity.MinPasswordLength {
		return nil, appErrors.Clone(appErrors.ErrValidation, msgPasswordTooShort)
	}
	role := req.Role
	if role == "" {
		role = models.RoleStudent
	}
	if role == models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "Admin accounts cannot be self registered")
	}

	exists, err := s.profiles.ExistsByEmail(ctx, req.Email)
	if err != nil {
		s.logger.Warn("email lookup failed", zap.Error(err))
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, msgEmailTaken)
	}

	account, err := s.provider.SignUp(ctx, req.Email, req.Password, models.Metadata{
		"full_name": req.FullName,
		"phone":     req.Phone,
		"role":      string(role),
	})
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrEmailTaken):
			return nil, appErrors.Clone(appErrors.ErrConflict, msgEmailTaken)
		case errors.Is(err, identity.ErrWeakPassword):
			return nil, appErrors.Clone(appErrors.ErrValidation, msgPasswordTooShort)
		}
		return nil, internalError(err, "Failed to create account")
	}

	if err := s.profiles.Create(ctx, &models.User{
		ID:       account.ID,
		Email:    account.Email,
		FullName: req.FullName,
		Role:     role,
		Phone:    optionalString(req.Phone),
		IsActive: true,
	}); err != nil {
		s.logger.Error("profile creation failed", zap.String("identity_id", account.ID), zap.Error(err))
	}
	s.attachRoleRecord(ctx, account.ID, role, req)

	return &models.AuthResult{Success: true, Message: msgAccountCreated, Role: role}, nil
}

func (s *AuthService) attachRoleRecord(ctx context.Context, userID string, role models.UserRole, req models.SignUpRequest) {
	var err error
	switch role {
	case models.RoleStudent:
		if s.students != nil {
			_, err = s.students.AttachToUser(ctx, userID, req.Department, req.Year, req.Semester)
		}
	case models.RoleFaculty:
		if s.faculty != nil {
			_, err = s.faculty.AttachToUser(ctx, userID, req.Department, req.Designation)
		}
	}
	if err != nil {
		s.logger.Error("role record creation failed", zap.String("user_id", userID), zap.String("role", string(role)), zap.Error(err))
	}
}

// SignOut revokes the refresh token. Provider failures are logged; the
// caller is always sent to the login page.
func (s *AuthService) SignOut(ctx context.Context, actorID, refreshToken string) *models.AuthResult {
	if refreshToken != "" {
		if err := s.provider.SignOut(ctx, refreshToken); err != nil {
			s.logger.Warn("sign out failed", zap.Error(err))
		}
	}
	if actorID != "" {
		s.activity.Log(ctx, actorID, models.ActivityUserSignedOut, "Signed out", nil)
	}
	return &models.AuthResult{Success: true, RedirectTo: access.LoginPath}
}

// ResetPassword issues a recovery link for email. Unknown emails get the
// same response as known ones.
func (s *AuthService) ResetPassword(ctx context.Context, req models.ForgotPasswordRequest) (*models.AuthResult, error) {
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, msgEmailRequired)
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid email address")
	}
	link, err := s.provider.ResetPasswordForEmail(ctx, req.Email, strings.TrimRight(s.config.SiteURL, "/")+"/auth/reset-password")
	if err != nil {
		return nil, internalError(err, "failed to start password reset")
	}
	return &models.AuthResult{Success: true, Message: msgResetSent, RecoveryURL: link}, nil
}

// UpdatePassword sets a new password for the signed in identity, or for the
// identity named by a recovery token.
func (s *AuthService) UpdatePassword(ctx context.Context, identityID string, req models.UpdatePasswordRequest) (*models.AuthResult, error) {
	if req.Password == "" || req.ConfirmPassword == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, msgPasswordRequired)
	}
	if req.Password != req.ConfirmPassword {
		return nil, appErrors.Clone(appErrors.ErrValidation, msgPasswordsMismatch)
	}
	if len(req.Password) < identity.MinPasswordLength {
		return nil, appErrors.Clone(appErrors.ErrValidation, msgPasswordTooShort)
	}
	if identityID == "" {
		if req.Token == "" {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "Auth session missing")
		}
		var err error
		identityID, err = s.provider.VerifyRecoveryToken(ctx, req.Token)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "Reset link is invalid or has expired")
		}
	}
	if err := s.provider.UpdatePassword(ctx, identityID, req.Password); err != nil {
		if errors.Is(err, identity.ErrWeakPassword) {
			return nil, appErrors.Clone(appErrors.ErrValidation, msgPasswordTooShort)
		}
		return nil, internalError(err, "failed to update password")
	}
	return &models.AuthResult{
		Success:    true,
		Message:    msgPasswordUpdated,
		RedirectTo: access.LoginPath + "?" + url.Values{"message": {msgPasswordUpdated}}.Encode(),
	}, nil
}

// OAuthStart returns the consent URL of an external provider.
func (s *AuthService) OAuthStart(ctx context.Context, provider, next string) (*models.AuthResult, error) {
	consent, err := s.provider.AuthorizeURL(ctx, strings.ToLower(provider), next)
	if err != nil {
		if errors.Is(err, identity.ErrUnsupportedProvider) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "Unsupported sign-in provider")
		}
		return nil, internalError(err, "failed to start sign in")
	}
	return &models.AuthResult{Success: true, RedirectTo: consent}, nil
}

// OAuthCallback finishes an OAuth flow. Failures are logged and the result
// points back to the login page with an error.
func (s *AuthService) OAuthCallback(ctx context.Context, provider, state, code string) *models.AuthResult {
	session, next, err := s.provider.ExchangeCodeForSession(ctx, strings.ToLower(provider), state, code)
	if err != nil || session == nil || session.Identity == nil {
		s.logger.Warn("oauth callback failed", zap.String("provider", provider), zap.Error(err))
		return &models.AuthResult{RedirectTo: access.LoginPath + "?" + url.Values{"error": {msgCouldNotAuth}}.Encode()}
	}

	account := session.Identity
	s.ensureProfile(ctx, account)
	role := s.RoleFor(ctx, account.ID, account.Email)
	s.activity.Log(ctx, account.ID, models.ActivityUserSignedIn, "Signed in", models.Metadata{"provider": account.Provider})
	return &models.AuthResult{
		Success:    true,
		RedirectTo: access.LandingPath(next, role),
		Role:       role,
		Session:    session,
	}
}

// ensureProfile gives first time OAuth identities a student profile.
func (s *AuthService) ensureProfile(ctx context.Context, account *models.AuthIdentity) {
	if _, err := s.profiles.RoleOf(ctx, account.ID); !errors.Is(err, sql.ErrNoRows) {
		return
	}
	fullName, _ := account.UserMetadata["full_name"].(string)
	if fullName == "" {
		fullName = account.Email
	}
	avatar, _ := account.UserMetadata["avatar_url"].(string)
	if err := s.profiles.Create(ctx, &models.User{
		ID:        account.ID,
		Email:     account.Email,
		FullName:  fullName,
		Role:      models.RoleStudent,
		AvatarURL: optionalString(avatar),
		IsActive:  true,
	}); err != nil {
		s.logger.Error("profile creation failed", zap.String("identity_id", account.ID), zap.Error(err))
		return
	}
	s.attachRoleRecord(ctx, account.ID, models.RoleStudent, models.SignUpRequest{})
}
