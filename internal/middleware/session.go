package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/franciscosanchezn/bonos-api/internal/auth"
)

// SessionKey is the gin context key holding the resolved *auth.Session
const SessionKey = "session"

// tokenSource records where the credential of a request came from
type tokenSource int

const (
	sourceNone tokenSource = iota
	sourceHeader
	sourceCookie
)

// extractToken prefers an explicit Bearer header over the session cookie
func extractToken(c *gin.Context) (string, tokenSource) {
	if header := c.GetHeader("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok && token != "" {
			return strings.TrimSpace(token), sourceHeader
		}
		// A malformed header is still a credential the caller meant to send
		return "", sourceHeader
	}
	if cookie, err := c.Cookie(auth.SessionCookieName); err == nil && cookie != "" {
		return cookie, sourceCookie
	}
	return "", sourceNone
}

// CurrentSession returns the session attached by one of the gates, or nil
func CurrentSession(c *gin.Context) *auth.Session {
	v, ok := c.Get(SessionKey)
	if !ok {
		return nil
	}
	session, _ := v.(*auth.Session)
	return session
}

// SetSessionCookie writes the HttpOnly session cookie
func SetSessionCookie(c *gin.Context, token string, maxAge int, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.SessionCookieName, token, maxAge, "/", "", secure, true)
}

// ClearSessionCookie expires the session cookie
func ClearSessionCookie(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.SessionCookieName, "", -1, "/", "", secure, true)
}

// Gate resolves sessions and enforces roles for API and page routes
type Gate struct {
	authn        *auth.Authenticator
	secureCookie bool
}

func NewGate(authn *auth.Authenticator, secureCookie bool) *Gate {
	return &Gate{authn: authn, secureCookie: secureCookie}
}

// SecureCookie reports whether session cookies are marked Secure
func (g *Gate) SecureCookie() bool { return g.secureCookie }

// resolve returns the session of the request or an error from auth
func (g *Gate) resolve(c *gin.Context) (*auth.Session, tokenSource, error) {
	token, source := extractToken(c)
	if source == sourceNone {
		return nil, source, auth.ErrNoSession
	}
	if token == "" {
		return nil, source, auth.ErrInvalidSession
	}
	session, err := g.authn.Resolve(c.Request.Context(), token)
	return session, source, err
}

// OptionalSession attaches the session when one is present and valid and lets
// every request through.
func (g *Gate) OptionalSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, _, err := g.resolve(c)
		if err == nil {
			c.Set(SessionKey, session)
		}
		c.Next()
	}
}

func requestLogger(c *gin.Context) *log.Entry {
	return log.WithFields(log.Fields{
		"request_id": c.GetString(KeyRequestID),
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
	})
}
