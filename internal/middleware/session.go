package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizhub-backend/internal/model"
	"github.com/stemsi/quizhub-backend/internal/response"
	"github.com/stemsi/quizhub-backend/internal/service"
)

const (
	// ContextKeySession is the Gin context key for the validated session.
	ContextKeySession = "session"
)

// SessionCookie writes and clears the cookie carrying the session token.
type SessionCookie struct {
	Name   string
	Secure bool
}

// Set stores the session token in a persistent HttpOnly cookie expiring
// with the session.
func (sc SessionCookie) Set(c *gin.Context, sess *service.Session) {
	maxAge := int(time.Until(sess.ExpiresAt).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sc.Name, sess.Token, maxAge, "/", "", sc.Secure, true)
}

// Clear expires the session cookie in the browser.
func (sc SessionCookie) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sc.Name, "", -1, "/", "", sc.Secure, true)
}

// LoadSession resolves the session token (cookie, or Bearer header for
// non-browser clients) into a principal on the context. Requests without a
// valid session continue anonymously; the gate decides what they may do.
// A session renewed by the sliding window gets a fresh cookie.
func LoadSession(sessions *service.SessionService, cookie SessionCookie, log zerolog.Logger) gin.HandlerFunc {
	log = log.With().Str("component", "session_middleware").Logger()

	return func(c *gin.Context) {
		token, fromCookie := extractToken(c, cookie.Name)
		if token == "" {
			c.Next()
			return
		}

		sess, err := sessions.Validate(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, service.ErrSessionInvalid) {
				log.Error().Err(err).Str("request_id", response.RequestID(c)).Msg("Session lookup failed")
				response.AbortFail(c, http.StatusInternalServerError, response.ErrInternal)
				return
			}
			if fromCookie {
				cookie.Clear(c)
			}
			c.Next()
			return
		}

		if sess.Renewed && fromCookie {
			cookie.Set(c, sess)
		}
		c.Set(ContextKeySession, sess)
		c.Next()
	}
}

// GetSession returns the validated session, or nil for anonymous requests.
func GetSession(c *gin.Context) *service.Session {
	val, exists := c.Get(ContextKeySession)
	if !exists {
		return nil
	}
	sess, ok := val.(*service.Session)
	if !ok {
		return nil
	}
	return sess
}

// GetPrincipal returns the authenticated principal, or nil.
func GetPrincipal(c *gin.Context) *model.Principal {
	sess := GetSession(c)
	if sess == nil {
		return nil
	}
	return &sess.Principal
}

func extractToken(c *gin.Context, cookieName string) (token string, fromCookie bool) {
	if v, err := c.Cookie(cookieName); err == nil && v != "" {
		return v, true
	}
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1]), false
		}
	}
	return "", false
}
