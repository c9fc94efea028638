package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/osms-api/internal/access"
	"github.com/noah-isme/osms-api/internal/identity"
	"github.com/noah-isme/osms-api/internal/models"
)

type fakeSessions struct {
	users     map[string]*models.AuthIdentity
	refreshed *models.Session
	refreshes int
}

func (f *fakeSessions) GetUser(_ context.Context, token string) (*models.AuthIdentity, error) {
	if user, ok := f.users[token]; ok {
		return user, nil
	}
	return nil, identity.ErrSessionExpired
}

func (f *fakeSessions) RefreshSession(_ context.Context, token string) (*models.Session, error) {
	f.refreshes++
	if f.refreshed == nil || token != "refresh-ok" {
		return nil, identity.ErrInvalidSession
	}
	return f.refreshed, nil
}

type staticRoles map[string]models.UserRole

func (s staticRoles) RoleFor(_ context.Context, id, _ string) models.UserRole {
	if role, ok := s[id]; ok {
		return role
	}
	return models.RoleStudent
}

var testCookies = SessionCookies{
	AccessName:  "osms-access-token",
	RefreshName: "osms-refresh-token",
	AccessTTL:   time.Hour,
	RefreshTTL:  24 * time.Hour,
}

func newGateRouter(sessions *fakeSessions, configured bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AccessGate(sessions, staticRoles{"u-admin": models.RoleAdmin, "u-fac": models.RoleFaculty}, nil, nil, GateConfig{
		Configured: configured,
		Cookies:    testCookies,
	}))
	handler := func(c *gin.Context) {
		caller := CallerFromContext(c)
		if caller == nil {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, caller.ID+":"+string(caller.Role))
	}
	for _, path := range []string{"/", "/auth/login", "/auth/logout", "/admin/dashboard", "/faculty/dashboard", "/student/grades"} {
		r.GET(path, handler)
		r.POST(path, handler)
	}
	return r
}

func serve(r *gin.Engine, method, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func accessCookie(token string) *http.Cookie {
	return &http.Cookie{Name: testCookies.AccessName, Value: token}
}

func TestAccessGateUnconfiguredDeniesProtectedZones(t *testing.T) {
	r := newGateRouter(&fakeSessions{}, false)

	rec := serve(r, http.MethodGet, "/admin/dashboard")
	require.Equal(t, http.StatusFound, rec.Code)
	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, access.LoginPath, location.Path)
	assert.Equal(t, access.BackendNotConfiguredMessage, location.Query().Get("error"))

	rec = serve(r, http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAccessGateUnauthenticatedRedirectsWithReturnPath(t *testing.T) {
	r := newGateRouter(&fakeSessions{}, true)

	rec := serve(r, http.MethodGet, "/student/grades")
	require.Equal(t, http.StatusFound, rec.Code)
	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/student/grades", location.Query().Get("redirect"))

	rec = serve(r, http.MethodPost, "/admin/dashboard")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestAccessGateAdmitsOwnZoneOnly(t *testing.T) {
	sessions := &fakeSessions{users: map[string]*models.AuthIdentity{
		"tok-admin": {ID: "u-admin", Email: "root@uu.edu"},
	}}
	r := newGateRouter(sessions, true)

	rec := serve(r, http.MethodGet, "/admin/dashboard", accessCookie("tok-admin"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u-admin:admin", rec.Body.String())

	rec = serve(r, http.MethodGet, "/faculty/dashboard", accessCookie("tok-admin"))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/admin/dashboard", rec.Header().Get("Location"))
}

func TestAccessGateAuthPagesSendSignedInCallersHome(t *testing.T) {
	sessions := &fakeSessions{users: map[string]*models.AuthIdentity{
		"tok-fac": {ID: "u-fac", Email: "grace@uu.edu"},
	}}
	r := newGateRouter(sessions, true)

	rec := serve(r, http.MethodGet, "/auth/login", accessCookie("tok-fac"))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/faculty/dashboard", rec.Header().Get("Location"))

	rec = serve(r, http.MethodPost, "/auth/logout", accessCookie("tok-fac"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u-fac:", rec.Body.String())
}

func TestAccessGateAcceptsBearerHeader(t *testing.T) {
	sessions := &fakeSessions{users: map[string]*models.AuthIdentity{
		"tok-s": {ID: "u-s", Email: "asha@uu.edu"},
	}}
	r := newGateRouter(sessions, true)

	req := httptest.NewRequest(http.MethodGet, "/student/grades", nil)
	req.Header.Set("Authorization", "Bearer tok-s")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u-s:student", rec.Body.String())
}

func TestAccessGateRotatesExpiredSession(t *testing.T) {
	sessions := &fakeSessions{refreshed: &models.Session{
		AccessToken:  "tok-new",
		RefreshToken: "refresh-new",
		Identity:     &models.AuthIdentity{ID: "u-fac", Email: "grace@uu.edu"},
	}}
	r := newGateRouter(sessions, true)

	rec := serve(r, http.MethodGet, "/faculty/dashboard",
		accessCookie("tok-expired"),
		&http.Cookie{Name: testCookies.RefreshName, Value: "refresh-ok"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, sessions.refreshes)
	written := map[string]string{}
	for _, c := range rec.Result().Cookies() {
		written[c.Name] = c.Value
	}
	assert.Equal(t, "tok-new", written[testCookies.AccessName])
	assert.Equal(t, "refresh-new", written[testCookies.RefreshName])
}

func TestAccessGateClearsCookiesWhenRefreshFails(t *testing.T) {
	sessions := &fakeSessions{}
	r := newGateRouter(sessions, true)

	rec := serve(r, http.MethodGet, "/faculty/dashboard",
		&http.Cookie{Name: testCookies.RefreshName, Value: "refresh-stale"})

	assert.Equal(t, http.StatusFound, rec.Code)
	for _, c := range rec.Result().Cookies() {
		assert.Empty(t, c.Value)
		assert.True(t, c.MaxAge < 0)
	}
}

func TestRequireRoles(t *testing.T) {
	gin.SetMode(gin.TestMode)
	run := func(caller *models.Caller) int {
		rec := httptest.NewRecorder()
		c, r := gin.CreateTestContext(rec)
		r.Use(func(c *gin.Context) {
			if caller != nil {
				c.Set(ContextCallerKey, caller)
			}
		}, RequireRoles(models.RoleFaculty))
		r.GET("/faculty/courses", func(c *gin.Context) { c.Status(http.StatusOK) })
		c.Request = httptest.NewRequest(http.MethodGet, "/faculty/courses", nil)
		r.HandleContext(c)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, run(nil))
	assert.Equal(t, http.StatusForbidden, run(&models.Caller{ID: "u", Role: models.RoleStudent}))
	assert.Equal(t, http.StatusOK, run(&models.Caller{ID: "u", Role: models.RoleFaculty}))
}
