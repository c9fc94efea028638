package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/osms-api/internal/models"
	"github.com/noah-isme/osms-api/pkg/signer"
)

const recoveryPurpose = "password-recovery"

// refreshReuseGrace covers concurrent requests that carried the same refresh
// cookie; a replay this soon after rotation is refused but does not revoke
// the chain.
const refreshReuseGrace = 10 * time.Second

// LocalConfig tunes LocalProvider.
type LocalConfig struct {
	Secret          string
	Issuer          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	RecoveryTTL     time.Duration
	StateTTL        time.Duration
	SiteURL         string
}

// LocalProvider implements Provider on top of the relational store.
type LocalProvider struct {
	store      Store
	tokens     *tokenIssuer
	recovery   *signer.Signer
	states     StateStore
	connectors map[string]Connector
	logger     *zap.Logger
	cfg        LocalConfig
	now        func() time.Time
	bcryptCost int
}

// NewLocalProvider constructs a LocalProvider.
func NewLocalProvider(store Store, states StateStore, connectors map[string]Connector, logger *zap.Logger, cfg LocalConfig) *LocalProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = time.Hour
	}
	if cfg.RefreshTokenTTL <= 0 {
		cfg.RefreshTokenTTL = 7 * 24 * time.Hour
	}
	if cfg.StateTTL <= 0 {
		cfg.StateTTL = 10 * time.Minute
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "osms"
	}
	if connectors == nil {
		connectors = map[string]Connector{}
	}
	p := &LocalProvider{
		store:      store,
		states:     states,
		connectors: connectors,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
		bcryptCost: bcrypt.DefaultCost,
	}
	p.tokens = &tokenIssuer{secret: []byte(cfg.Secret), issuer: cfg.Issuer, ttl: cfg.AccessTokenTTL, now: p.clock}
	p.recovery = signer.New(cfg.Secret, cfg.RecoveryTTL)
	return p
}

func (p *LocalProvider) clock() time.Time { return p.now() }

// SignInWithPassword verifies credentials and opens a session.
func (p *LocalProvider) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	identity, err := p.store.FindIdentityByEmail(ctx, normaliseEmail(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find identity: %w", err)
	}
	if identity.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*identity.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return p.openSession(ctx, identity)
}

// SignUp registers a password identity.
func (p *LocalProvider) SignUp(ctx context.Context, email, password string, metadata models.Metadata) (*models.AuthIdentity, error) {
	return p.createPasswordIdentity(ctx, email, password, metadata)
}

// AdminCreateUser registers an identity on behalf of an administrator.
func (p *LocalProvider) AdminCreateUser(ctx context.Context, email, password string, metadata models.Metadata) (*models.AuthIdentity, error) {
	return p.createPasswordIdentity(ctx, email, password, metadata)
}

func (p *LocalProvider) createPasswordIdentity(ctx context.Context, email, password string, metadata models.Metadata) (*models.AuthIdentity, error) {
	if len(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}
	email = normaliseEmail(email)
	if _, err := p.store.FindIdentityByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("check identity email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	hashed := string(hash)
	if metadata == nil {
		metadata = models.Metadata{}
	}
	identity := &models.AuthIdentity{
		ID:             uuid.NewString(),
		Email:          email,
		PasswordHash:   &hashed,
		UserMetadata:   metadata,
		EmailConfirmed: true,
		Provider:       models.ProviderEmail,
		CreatedAt:      p.now().UTC(),
	}
	if err := p.store.CreateIdentity(ctx, identity); err != nil {
		return nil, err
	}
	return identity, nil
}

// GetUser resolves the identity behind an access token.
func (p *LocalProvider) GetUser(ctx context.Context, accessToken string) (*models.AuthIdentity, error) {
	if accessToken == "" {
		return nil, ErrInvalidSession
	}
	claims, err := p.tokens.parse(accessToken)
	if err != nil {
		return nil, err
	}
	identity, err := p.store.FindIdentityByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidSession
		}
		return nil, fmt.Errorf("find identity: %w", err)
	}
	return identity, nil
}

// RefreshSession rotates a refresh token into a new session.
func (p *LocalProvider) RefreshSession(ctx context.Context, refreshToken string) (*models.Session, error) {
	if refreshToken == "" {
		return nil, ErrInvalidSession
	}
	stored, err := p.store.FindRefreshToken(ctx, hashToken(refreshToken))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidSession
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	if stored.RevokedAt != nil {
		if p.now().Sub(*stored.RevokedAt) <= refreshReuseGrace {
			return nil, ErrInvalidSession
		}
		// A revoked token being replayed means the chain leaked.
		if err := p.store.RevokeIdentityTokens(ctx, stored.IdentityID); err != nil {
			p.logger.Warn("failed to revoke refresh token chain", zap.String("identity_id", stored.IdentityID), zap.Error(err))
		}
		return nil, ErrInvalidSession
	}
	if p.now().After(stored.ExpiresAt) {
		return nil, ErrSessionExpired
	}

	identity, err := p.store.FindIdentityByID(ctx, stored.IdentityID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidSession
		}
		return nil, fmt.Errorf("find identity: %w", err)
	}
	if err := p.store.RevokeRefreshToken(ctx, stored.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// another request rotated it first
			return nil, ErrInvalidSession
		}
		return nil, fmt.Errorf("revoke refresh token: %w", err)
	}
	return p.openSession(ctx, identity)
}

// SignOut revokes the refresh token of the current session.
func (p *LocalProvider) SignOut(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	stored, err := p.store.FindRefreshToken(ctx, hashToken(refreshToken))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("find refresh token: %w", err)
	}
	if stored.RevokedAt != nil {
		return nil
	}
	if err := p.store.RevokeRefreshToken(ctx, stored.ID); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	return nil
}

// AdminDeleteUser removes an identity and its sessions.
func (p *LocalProvider) AdminDeleteUser(ctx context.Context, id string) error {
	if err := p.store.RevokeIdentityTokens(ctx, id); err != nil {
		return fmt.Errorf("revoke tokens: %w", err)
	}
	if err := p.store.DeleteIdentity(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrIdentityNotFound
		}
		return err
	}
	return nil
}

// ResetPasswordForEmail builds a recovery link for the identity owning email.
func (p *LocalProvider) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) (string, error) {
	identity, err := p.store.FindIdentityByEmail(ctx, normaliseEmail(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("find identity: %w", err)
	}
	token, _, err := p.recovery.Generate(recoveryPurpose, identity.ID)
	if err != nil {
		return "", fmt.Errorf("sign recovery token: %w", err)
	}
	if redirectTo == "" {
		redirectTo = strings.TrimRight(p.cfg.SiteURL, "/") + "/auth/reset-password"
	}
	link, err := url.Parse(redirectTo)
	if err != nil {
		return "", fmt.Errorf("parse redirect: %w", err)
	}
	query := link.Query()
	query.Set("token", token)
	link.RawQuery = query.Encode()
	return link.String(), nil
}

// VerifyRecoveryToken returns the identity a recovery token was issued for.
func (p *LocalProvider) VerifyRecoveryToken(ctx context.Context, token string) (string, error) {
	id, _, err := p.recovery.Parse(recoveryPurpose, token)
	if err != nil {
		return "", ErrInvalidRecovery
	}
	if _, err := p.store.FindIdentityByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrInvalidRecovery
		}
		return "", fmt.Errorf("find identity: %w", err)
	}
	return id, nil
}

// UpdatePassword replaces the password and ends every open session.
func (p *LocalProvider) UpdatePassword(ctx context.Context, identityID, password string) error {
	if len(password) < MinPasswordLength {
		return ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := p.store.UpdatePasswordHash(ctx, identityID, string(hash)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrIdentityNotFound
		}
		return err
	}
	if err := p.store.RevokeIdentityTokens(ctx, identityID); err != nil {
		p.logger.Warn("failed to revoke sessions after password change", zap.String("identity_id", identityID), zap.Error(err))
	}
	return nil
}

// AuthorizeURL starts an OAuth flow and returns the provider consent URL.
func (p *LocalProvider) AuthorizeURL(ctx context.Context, provider, next string) (string, error) {
	connector, ok := p.connectors[provider]
	if !ok {
		return "", ErrUnsupportedProvider
	}
	if p.states == nil {
		return "", errors.New("oauth state store not configured")
	}
	state, err := newOpaqueToken()
	if err != nil {
		return "", err
	}
	if err := p.states.Save(ctx, state, OAuthState{Provider: provider, Next: next}, p.cfg.StateTTL); err != nil {
		return "", fmt.Errorf("save oauth state: %w", err)
	}
	return connector.AuthCodeURL(state), nil
}

// ExchangeCodeForSession finishes an OAuth flow. The returned string is the
// path the flow was started for.
func (p *LocalProvider) ExchangeCodeForSession(ctx context.Context, provider, state, code string) (*models.Session, string, error) {
	if state == "" || code == "" || p.states == nil {
		return nil, "", ErrInvalidOAuthState
	}
	saved, err := p.states.Consume(ctx, state)
	if err != nil {
		return nil, "", err
	}
	if provider != "" && provider != saved.Provider {
		return nil, "", ErrInvalidOAuthState
	}
	connector, ok := p.connectors[saved.Provider]
	if !ok {
		return nil, "", ErrUnsupportedProvider
	}

	profile, err := connector.Exchange(ctx, code)
	if err != nil {
		return nil, "", err
	}

	email := normaliseEmail(profile.Email)
	identity, err := p.store.FindIdentityByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		identity = &models.AuthIdentity{
			ID:    uuid.NewString(),
			Email: email,
			UserMetadata: models.Metadata{
				"full_name":  profile.FullName,
				"avatar_url": profile.AvatarURL,
			},
			EmailConfirmed: true,
			Provider:       saved.Provider,
			CreatedAt:      p.now().UTC(),
		}
		if err := p.store.CreateIdentity(ctx, identity); err != nil {
			return nil, "", err
		}
	} else if err != nil {
		return nil, "", fmt.Errorf("find identity: %w", err)
	}

	session, err := p.openSession(ctx, identity)
	if err != nil {
		return nil, "", err
	}
	return session, saved.Next, nil
}

func (p *LocalProvider) openSession(ctx context.Context, identity *models.AuthIdentity) (*models.Session, error) {
	access, expiresAt, err := p.tokens.issue(identity)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := newOpaqueToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	now := p.now().UTC()
	if err := p.store.CreateRefreshToken(ctx, &models.RefreshToken{
		ID:         uuid.NewString(),
		IdentityID: identity.ID,
		TokenHash:  hashToken(refresh),
		ExpiresAt:  now.Add(p.cfg.RefreshTokenTTL),
		CreatedAt:  now,
	}); err != nil {
		return nil, fmt.Errorf("persist refresh token: %w", err)
	}
	return &models.Session{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
		Identity:     identity,
	}, nil
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
