package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/osms-api/internal/models"
)

// ContextCallerKey is the gin context key storing the authenticated caller.
const ContextCallerKey = "currentCaller"

// SessionCookies names and scopes the session cookies.
type SessionCookies struct {
	AccessName  string
	RefreshName string
	Secure      bool
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
}

// WriteSession stores a freshly issued session on the response.
func (sc SessionCookies) WriteSession(c *gin.Context, session *models.Session) {
	if session == nil {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sc.AccessName, session.AccessToken, int(sc.AccessTTL.Seconds()), "/", "", sc.Secure, true)
	if session.RefreshToken != "" {
		c.SetCookie(sc.RefreshName, session.RefreshToken, int(sc.RefreshTTL.Seconds()), "/", "", sc.Secure, true)
	}
}

// Clear expires both session cookies.
func (sc SessionCookies) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sc.AccessName, "", -1, "/", "", sc.Secure, true)
	c.SetCookie(sc.RefreshName, "", -1, "/", "", sc.Secure, true)
}

// RefreshToken returns the refresh token cookie, if any.
func (sc SessionCookies) RefreshToken(c *gin.Context) string {
	value, err := c.Cookie(sc.RefreshName)
	if err != nil {
		return ""
	}
	return value
}

// AccessToken returns the access token from the session cookie, falling back
// to a bearer Authorization header.
func (sc SessionCookies) AccessToken(c *gin.Context) string {
	if value, err := c.Cookie(sc.AccessName); err == nil && value != "" {
		return value
	}
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// CallerFromContext returns the caller attached by the access gate.
func CallerFromContext(c *gin.Context) *models.Caller {
	value, exists := c.Get(ContextCallerKey)
	if !exists {
		return nil
	}
	caller, ok := value.(*models.Caller)
	if !ok {
		return nil
	}
	return caller
}
