package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizhub-backend/internal/middleware"
	"github.com/stemsi/quizhub-backend/internal/model"
	"github.com/stemsi/quizhub-backend/internal/response"
	"github.com/stemsi/quizhub-backend/internal/service"
	"github.com/stemsi/quizhub-backend/internal/validator"
)

// AuthHandler handles sign-in, registration and sign-out.
type AuthHandler struct {
	accounts AccountService
	csrf     CSRFIssuer
	cookie   middleware.SessionCookie
	log      zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(accounts AccountService, csrf CSRFIssuer, cookie middleware.SessionCookie, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		csrf:     csrf,
		cookie:   cookie,
		log:      log.With().Str("component", "auth_handler").Logger(),
	}
}

// sessionBody is what the client needs to keep talking to the API after
// a session is established.
func (h *AuthHandler) sessionBody(sess *service.Session) gin.H {
	return gin.H{
		"principal":  sess.Principal,
		"csrf_token": h.csrf.CSRFToken(sess.ID),
		"expires_at": sess.ExpiresAt,
	}
}

// Login godoc
// POST /api/v1/auth/login
// Signs in either the configured admin or a student. Any session already
// on the request is dropped first so roles never mix.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	h.dropCurrentSession(c)

	sess, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return
		}
		h.log.Error().Err(err).Str("request_id", response.RequestID(c)).Msg("Login failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	h.cookie.Set(c, sess)
	body := h.sessionBody(sess)
	body["redirect_to"] = middleware.PostLoginRedirect(req.ReturnURL, sess.Principal.Role)
	response.Success(c, http.StatusOK, body)
}

// Register godoc
// POST /api/v1/auth/register
// Creates a student account and signs the student in.
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	h.dropCurrentSession(c)

	student, sess, err := h.accounts.Register(c.Request.Context(), req)
	if err != nil {
		if failField(c, err) {
			return
		}
		if errors.Is(err, service.ErrEmailTaken) {
			response.FailWithFields(c, http.StatusConflict, response.ErrEmailTaken, map[string]string{
				"email": "email is already registered",
			})
			return
		}
		h.log.Error().Err(err).Str("request_id", response.RequestID(c)).Msg("Registration failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	h.cookie.Set(c, sess)
	body := h.sessionBody(sess)
	body["student"] = student
	body["redirect_to"] = middleware.DefaultLanding
	response.Success(c, http.StatusCreated, body)
}

// Logout godoc
// POST /api/v1/auth/logout
// Revokes the current session immediately.
func (h *AuthHandler) Logout(c *gin.Context) {
	sess := middleware.GetSession(c)
	if sess == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrLoginRequired)
		return
	}

	if err := h.accounts.Logout(c.Request.Context(), sess.ID); err != nil {
		h.log.Error().Err(err).Str("request_id", response.RequestID(c)).Msg("Logout failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	h.cookie.Clear(c)
	response.Success(c, http.StatusOK, gin.H{"redirect_to": middleware.DefaultLanding})
}

// Me godoc
// GET /api/v1/auth/me
// Returns the current principal and a CSRF token for later mutations.
func (h *AuthHandler) Me(c *gin.Context) {
	sess := middleware.GetSession(c)
	if sess == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrLoginRequired)
		return
	}
	response.Success(c, http.StatusOK, h.sessionBody(sess))
}

func (h *AuthHandler) dropCurrentSession(c *gin.Context) {
	sess := middleware.GetSession(c)
	if sess == nil {
		return
	}
	if err := h.accounts.Logout(c.Request.Context(), sess.ID); err != nil {
		h.log.Warn().Err(err).Str("session_id", sess.ID).Msg("Could not revoke previous session")
	}
}
