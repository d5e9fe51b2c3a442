package middleware

import (
	"net/url"
	"strings"

	"github.com/stemsi/quizhub-backend/internal/model"
)

// Front-end entry points used in redirects.
const (
	LoginPath      = "/account/login"
	AdminLanding   = "/admin"
	DefaultLanding = "/quizzes"
)

// SafeReturnPath accepts only same-origin relative paths such as
// "/quizzes/3?page=2". Absolute URLs, scheme-relative ("//host") and
// backslash tricks ("/\host") are refused.
func SafeReturnPath(raw string) (string, bool) {
	if raw == "" || raw[0] != '/' {
		return "", false
	}
	if len(raw) > 1 && (raw[1] == '/' || raw[1] == '\\') {
		return "", false
	}
	if strings.ContainsAny(raw, "\\\r\n\t\x00") {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() || u.Host != "" || u.Opaque != "" {
		return "", false
	}
	return raw, true
}

// PostLoginRedirect picks where to send a freshly signed-in principal:
// the validated return path if any, else the landing page of its role.
func PostLoginRedirect(returnURL string, role model.Role) string {
	if path, ok := SafeReturnPath(returnURL); ok {
		return path
	}
	if role == model.RoleAdmin {
		return AdminLanding
	}
	return DefaultLanding
}

// LoginLocation is the login entry point, carrying returnURL only when it
// is a safe relative path.
func LoginLocation(returnURL string) string {
	path, ok := SafeReturnPath(returnURL)
	if !ok {
		return LoginPath
	}
	return LoginPath + "?" + url.Values{"return_url": {path}}.Encode()
}
