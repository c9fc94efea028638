package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/osms-api/internal/middleware"
	"github.com/noah-isme/osms-api/internal/models"
	appErrors "github.com/noah-isme/osms-api/pkg/errors"
)

type fakeAuthService struct {
	signIn        *models.AuthResult
	signInErr     error
	lastSignIn    models.SignInRequest
	signedOut     []string
	reset         *models.AuthResult
	lastUpdateFor string
	callback      *models.AuthResult
}

func (f *fakeAuthService) SignIn(_ context.Context, req models.SignInRequest) (*models.AuthResult, error) {
	f.lastSignIn = req
	return f.signIn, f.signInErr
}

func (f *fakeAuthService) SignUp(context.Context, models.SignUpRequest) (*models.AuthResult, error) {
	return &models.AuthResult{Success: true, Message: "Account created! Please check your email to verify your account."}, nil
}

func (f *fakeAuthService) SignOut(_ context.Context, actorID, refreshToken string) *models.AuthResult {
	f.signedOut = append(f.signedOut, actorID+"|"+refreshToken)
	return &models.AuthResult{Success: true, RedirectTo: "/auth/login"}
}

func (f *fakeAuthService) ResetPassword(context.Context, models.ForgotPasswordRequest) (*models.AuthResult, error) {
	return f.reset, nil
}

func (f *fakeAuthService) UpdatePassword(_ context.Context, identityID string, _ models.UpdatePasswordRequest) (*models.AuthResult, error) {
	f.lastUpdateFor = identityID
	return &models.AuthResult{Success: true}, nil
}

func (f *fakeAuthService) OAuthStart(_ context.Context, provider, _ string) (*models.AuthResult, error) {
	if provider != "google" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Unsupported sign-in provider")
	}
	return &models.AuthResult{Success: true, RedirectTo: "https://accounts.example.com/consent"}, nil
}

func (f *fakeAuthService) OAuthCallback(context.Context, string, string, string) *models.AuthResult {
	return f.callback
}

var handlerCookies = middleware.SessionCookies{
	AccessName:  "osms-access-token",
	RefreshName: "osms-refresh-token",
	AccessTTL:   time.Hour,
	RefreshTTL:  24 * time.Hour,
}

func newAuthTestContext(method, target, body string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		c.Request.Header.Set("Content-Type", "application/json")
	}
	return c, rec
}

func cookieValues(rec *httptest.ResponseRecorder) map[string]string {
	values := map[string]string{}
	for _, c := range rec.Result().Cookies() {
		values[c.Name] = c.Value
	}
	return values
}

func TestAuthHandlerLoginWritesSessionCookies(t *testing.T) {
	svc := &fakeAuthService{signIn: &models.AuthResult{
		Success:    true,
		RedirectTo: "/faculty/dashboard",
		Role:       models.RoleFaculty,
		Session:    &models.Session{AccessToken: "access-1", RefreshToken: "refresh-1"},
	}}
	h := NewAuthHandler(svc, handlerCookies, false)

	c, rec := newAuthTestContext(http.MethodPost, "/auth/login?redirect=/faculty/grades", `{"email":"grace@uu.edu","password":"password123"}`)
	h.Login(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/faculty/grades", svc.lastSignIn.Redirect)
	cookies := cookieValues(rec)
	assert.Equal(t, "access-1", cookies["osms-access-token"])
	assert.Equal(t, "refresh-1", cookies["osms-refresh-token"])
	assert.NotContains(t, rec.Body.String(), "access-1")

	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "/faculty/dashboard", envelope.Data["redirect_to"])
}

func TestAuthHandlerLoginFailure(t *testing.T) {
	h := NewAuthHandler(&fakeAuthService{signInErr: appErrors.Clone(appErrors.ErrInvalidCredentials, "Invalid email or password")}, handlerCookies, false)

	c, rec := newAuthTestContext(http.MethodPost, "/auth/login", `{"email":"a@uu.edu","password":"x"}`)
	h.Login(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid email or password")
	assert.Empty(t, rec.Result().Cookies())
}

func TestAuthHandlerLogoutClearsCookies(t *testing.T) {
	svc := &fakeAuthService{}
	h := NewAuthHandler(svc, handlerCookies, false)

	c, rec := newAuthTestContext(http.MethodPost, "/auth/logout", "")
	c.Request.AddCookie(&http.Cookie{Name: "osms-refresh-token", Value: "refresh-1"})
	c.Set(middleware.ContextCallerKey, &models.Caller{ID: "u-1"})
	h.Logout(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"u-1|refresh-1"}, svc.signedOut)
	for _, cookie := range rec.Result().Cookies() {
		assert.Empty(t, cookie.Value)
	}
}

func TestAuthHandlerForgotPasswordExposesLinkOnlyWhenEnabled(t *testing.T) {
	svc := &fakeAuthService{reset: &models.AuthResult{Success: true, Message: "Password reset link sent to your email", RecoveryURL: "http://localhost/auth/reset-password?token=t"}}

	c, rec := newAuthTestContext(http.MethodPost, "/auth/forgot-password", `{"email":"a@uu.edu"}`)
	NewAuthHandler(svc, handlerCookies, true).ForgotPassword(c)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "http://localhost/auth/reset-password?token=t", envelope.Meta["recovery_url"])

	c, rec = newAuthTestContext(http.MethodPost, "/auth/forgot-password", `{"email":"a@uu.edu"}`)
	NewAuthHandler(svc, handlerCookies, false).ForgotPassword(c)
	assert.NotContains(t, rec.Body.String(), "token=t")
}

func TestAuthHandlerResetPasswordUsesCaller(t *testing.T) {
	svc := &fakeAuthService{}
	h := NewAuthHandler(svc, handlerCookies, false)

	c, rec := newAuthTestContext(http.MethodPost, "/auth/reset-password", `{"password":"newpassword","confirm_password":"newpassword"}`)
	c.Set(middleware.ContextCallerKey, &models.Caller{ID: "u-7"})
	h.ResetPassword(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u-7", svc.lastUpdateFor)
}

func TestAuthHandlerOAuth(t *testing.T) {
	svc := &fakeAuthService{callback: &models.AuthResult{
		Success:    true,
		RedirectTo: "/student/dashboard",
		Session:    &models.Session{AccessToken: "access-o"},
	}}
	h := NewAuthHandler(svc, handlerCookies, false)

	c, rec := newAuthTestContext(http.MethodGet, "/auth/oauth/google", "")
	c.Params = gin.Params{{Key: "provider", Value: "google"}}
	h.OAuthStart(c)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://accounts.example.com/consent", rec.Header().Get("Location"))

	c, rec = newAuthTestContext(http.MethodGet, "/auth/oauth/myspace", "")
	c.Params = gin.Params{{Key: "provider", Value: "myspace"}}
	h.OAuthStart(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = newAuthTestContext(http.MethodGet, "/auth/callback?code=c&state=s", "")
	h.OAuthCallback(c)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/student/dashboard", rec.Header().Get("Location"))
	assert.Equal(t, "access-o", cookieValues(rec)["osms-access-token"])

	svc.callback = &models.AuthResult{RedirectTo: "/auth/login?error=Could+not+authenticate"}
	c, rec = newAuthTestContext(http.MethodGet, "/auth/callback", "")
	h.OAuthCallback(c)
	assert.Equal(t, "/auth/login?error=Could+not+authenticate", rec.Header().Get("Location"))
	assert.Empty(t, rec.Result().Cookies())
}

type responseEnvelope struct {
	Data map[string]interface{} `json:"data"`
	Meta map[string]interface{} `json:"meta"`
}
