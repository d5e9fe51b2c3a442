package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/quizhub-backend/internal/model"
	"github.com/stemsi/quizhub-backend/internal/response"
)

// Decision is the outcome of an authorization check.
type Decision int

const (
	Allow Decision = iota
	RedirectToLogin
	Forbidden
)

// Authorize decides whether p may reach an endpoint requiring one of
// roles. An empty role set admits any authenticated principal.
func Authorize(p *model.Principal, roles []model.Role) Decision {
	if p == nil || !p.Role.Valid() {
		return RedirectToLogin
	}
	if len(roles) == 0 || p.HasRole(roles...) {
		return Allow
	}
	return Forbidden
}

// RequireRoles gates a route group on the session's role. Anonymous
// requests are told to sign in; signed-in principals with another role
// are refused.
func RequireRoles(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch Authorize(GetPrincipal(c), roles) {
		case Allow:
			c.Next()
		case Forbidden:
			response.AbortFail(c, http.StatusForbidden, response.ErrForbidden)
		default:
			response.AbortFailWithLocation(c, http.StatusUnauthorized, response.ErrLoginRequired, LoginLocation(returnTarget(c)))
		}
	}
}

// RequireAuthenticated admits any signed-in principal.
func RequireAuthenticated() gin.HandlerFunc {
	return RequireRoles()
}

// returnTarget is where the user should land after signing in: an explicit
// ?return_url= if given, else the current page for GET requests.
func returnTarget(c *gin.Context) string {
	if v := c.Query("return_url"); v != "" {
		return v
	}
	if c.Request.Method == http.MethodGet {
		return c.Request.URL.RequestURI()
	}
	return ""
}
