package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/osms-api/internal/middleware"
	"github.com/noah-isme/osms-api/internal/models"
	"github.com/noah-isme/osms-api/pkg/response"
)

type authEntryPoints interface {
	SignIn(ctx context.Context, req models.SignInRequest) (*models.AuthResult, error)
	SignUp(ctx context.Context, req models.SignUpRequest) (*models.AuthResult, error)
	SignOut(ctx context.Context, actorID, refreshToken string) *models.AuthResult
	ResetPassword(ctx context.Context, req models.ForgotPasswordRequest) (*models.AuthResult, error)
	UpdatePassword(ctx context.Context, identityID string, req models.UpdatePasswordRequest) (*models.AuthResult, error)
	OAuthStart(ctx context.Context, provider, next string) (*models.AuthResult, error)
	OAuthCallback(ctx context.Context, provider, state, code string) *models.AuthResult
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service            authEntryPoints
	cookies            middleware.SessionCookies
	exposeRecoveryLink bool
}

// NewAuthHandler creates a new handler. exposeRecoveryLink returns password
// recovery links in the response body; enable it only outside production.
func NewAuthHandler(svc authEntryPoints, cookies middleware.SessionCookies, exposeRecoveryLink bool) *AuthHandler {
	return &AuthHandler{service: svc, cookies: cookies, exposeRecoveryLink: exposeRecoveryLink}
}

// LoginPage godoc
// @Summary Login page state
// @Description Returns the error or message passed to the login page by redirects
// @Tags Authentication
// @Produce json
// @Param error query string false "Error shown above the form"
// @Param message query string false "Notice shown above the form"
// @Param redirect query string false "Page to return to after sign in"
// @Success 200 {object} response.Envelope
// @Router /auth/login [get]
func (h *AuthHandler) LoginPage(c *gin.Context) {
	response.JSON(c, http.StatusOK, gin.H{
		"error":    c.Query("error"),
		"message":  c.Query("message"),
		"redirect": c.Query("redirect"),
	}, nil)
}

// Login godoc
// @Summary Sign in with email and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.SignInRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.SignInRequest
	if err := c.ShouldBind(&req); err != nil {
		invalidPayload(c, err, "invalid login payload")
		return
	}
	if req.Redirect == "" {
		req.Redirect = c.Query("redirect")
	}
	res, err := h.service.SignIn(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.cookies.WriteSession(c, res.Session)
	response.JSON(c, http.StatusOK, res, nil)
}

// Register godoc
// @Summary Create a student or faculty account
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.SignUpRequest true "Registration details"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.SignUpRequest
	if err := c.ShouldBind(&req); err != nil {
		invalidPayload(c, err, "invalid registration payload")
		return
	}
	res, err := h.service.SignUp(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// Logout godoc
// @Summary Sign out
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	res := h.service.SignOut(c.Request.Context(), callerID(c), h.cookies.RefreshToken(c))
	h.cookies.Clear(c)
	response.JSON(c, http.StatusOK, res, nil)
}

// ForgotPassword godoc
// @Summary Send a password reset link
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.ForgotPasswordRequest true "Account email"
// @Success 200 {object} response.Envelope
// @Router /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req models.ForgotPasswordRequest
	if err := c.ShouldBind(&req); err != nil {
		invalidPayload(c, err, "invalid payload")
		return
	}
	res, err := h.service.ResetPassword(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	var meta map[string]interface{}
	if h.exposeRecoveryLink && res.RecoveryURL != "" {
		meta = map[string]interface{}{"recovery_url": res.RecoveryURL}
	}
	response.JSON(c, http.StatusOK, res, nil, meta)
}

// ResetPassword godoc
// @Summary Set a new password
// @Description Uses the signed in session, or the token from a reset link
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.UpdatePasswordRequest true "New password"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req models.UpdatePasswordRequest
	if err := c.ShouldBind(&req); err != nil {
		invalidPayload(c, err, "invalid payload")
		return
	}
	if req.Token == "" {
		req.Token = c.Query("token")
	}
	res, err := h.service.UpdatePassword(c.Request.Context(), callerID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// OAuthStart godoc
// @Summary Start an OAuth sign in
// @Tags Authentication
// @Param provider path string true "google or github"
// @Param redirect query string false "Page to return to after sign in"
// @Success 302
// @Router /auth/oauth/{provider} [get]
func (h *AuthHandler) OAuthStart(c *gin.Context) {
	res, err := h.service.OAuthStart(c.Request.Context(), c.Param("provider"), c.Query("redirect"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Redirect(http.StatusFound, res.RedirectTo)
}

// OAuthCallback godoc
// @Summary Finish an OAuth sign in
// @Tags Authentication
// @Param code query string true "Authorization code"
// @Param state query string true "Flow state"
// @Success 302
// @Router /auth/callback [get]
func (h *AuthHandler) OAuthCallback(c *gin.Context) {
	res := h.service.OAuthCallback(c.Request.Context(), c.Query("provider"), c.Query("state"), c.Query("code"))
	if res.Success {
		h.cookies.WriteSession(c, res.Session)
	}
	c.Redirect(http.StatusFound, res.RedirectTo)
}
