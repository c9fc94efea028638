package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/osms-api/internal/access"
	"github.com/noah-isme/osms-api/internal/models"
	"github.com/noah-isme/osms-api/internal/service"
	appErrors "github.com/noah-isme/osms-api/pkg/errors"
	"github.com/noah-isme/osms-api/pkg/response"
)

type sessionResolver interface {
	GetUser(ctx context.Context, accessToken string) (*models.AuthIdentity, error)
	RefreshSession(ctx context.Context, refreshToken string) (*models.Session, error)
}

type roleResolver interface {
	RoleFor(ctx context.Context, identityID, email string) models.UserRole
}

// GateConfig configures the access gate.
type GateConfig struct {
	// Configured is false when the backend credentials are missing; every
	// protected zone is then denied.
	Configured bool
	Cookies    SessionCookies
}

// AccessGate resolves the session of every request, refreshing it from the
// refresh cookie when the access token no longer verifies, and redirects
// callers that may not reach the requested zone.
func AccessGate(sessions sessionResolver, roles roleResolver, metrics *service.MetricsService, logger *zap.Logger, cfg GateConfig) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		in := access.Input{Path: path, Configured: cfg.Configured}

		if cfg.Configured {
			if caller := resolveCaller(c, sessions, cfg.Cookies, logger); caller != nil {
				if access.NeedsRole(path) {
					caller.Role = roles.RoleFor(c.Request.Context(), caller.ID, caller.Email)
				}
				in.Authenticated = true
				in.Role = caller.Role
				c.Set(ContextCallerKey, caller)
			}
		}

		decision := access.Decide(in)
		outcome := decision.Reason
		if outcome == "" {
			outcome = "continue"
		}
		metrics.ObserveGateDecision(string(access.Classify(path)), outcome, decision.Outcome == access.Redirect)

		if decision.Outcome == access.Redirect {
			c.Redirect(redirectStatus(c.Request.Method), decision.Location)
			c.Abort()
			return
		}
		c.Next()
	}
}

func resolveCaller(c *gin.Context, sessions sessionResolver, cookies SessionCookies, logger *zap.Logger) *models.Caller {
	ctx := c.Request.Context()
	if token := cookies.AccessToken(c); token != "" {
		account, err := sessions.GetUser(ctx, token)
		if err == nil {
			return &models.Caller{ID: account.ID, Email: account.Email}
		}
		logger.Debug("access token rejected", zap.Error(err))
	}

	refresh := cookies.RefreshToken(c)
	if refresh == "" {
		return nil
	}
	session, err := sessions.RefreshSession(ctx, refresh)
	if err != nil || session == nil || session.Identity == nil {
		logger.Debug("session refresh failed", zap.Error(err))
		cookies.Clear(c)
		return nil
	}
	cookies.WriteSession(c, session)
	return &models.Caller{ID: session.Identity.ID, Email: session.Identity.Email}
}

func redirectStatus(method string) int {
	if method == http.MethodGet || method == http.MethodHead {
		return http.StatusFound
	}
	return http.StatusSeeOther
}

// RequireBackend answers 503 on routes that need the backend while it is
// not configured.
func RequireBackend(configured bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if configured {
			c.Next()
			return
		}
		response.Error(c, appErrors.Clone(appErrors.ErrBackendUnavailable, access.BackendNotConfiguredMessage))
		c.Abort()
	}
}
