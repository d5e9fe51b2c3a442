package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/quizhub-backend/internal/response"
	"github.com/stemsi/quizhub-backend/internal/service"
)

// CSRFHeader carries the anti-forgery token on mutating requests.
const CSRFHeader = "X-CSRF-Token"

// RequireCSRF rejects state-changing requests whose X-CSRF-Token does not
// match the token bound to the current session. Must run after LoadSession
// and a gate, so a session is always present.
func RequireCSRF(sessions *service.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		sess := GetSession(c)
		if sess == nil || !sessions.VerifyCSRF(sess.ID, c.GetHeader(CSRFHeader)) {
			response.AbortFail(c, http.StatusForbidden, response.ErrCSRFInvalid)
			return
		}
		c.Next()
	}
}
