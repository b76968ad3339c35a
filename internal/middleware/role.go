package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/franciscosanchezn/bonos-api/internal/auth"
	"github.com/franciscosanchezn/bonos-api/internal/models"
)

// RequireAPI gates JSON endpoints. Missing, invalid and under-privileged
// sessions all get 401 UNAUTHORIZED and the handler never runs. An empty
// role only requires a valid session.
func (g *Gate) RequireAPI(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, _, err := g.resolve(c)
		if err != nil && !errors.Is(err, auth.ErrNoSession) {
			requestLogger(c).WithError(err).Debug("Rejected API session")
		}

		switch auth.Decide(session, requiredRole) {
		case auth.RedirectLogin:
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				models.NewAPIError(models.ErrUnauthorized, "Authentication required"))
			return
		case auth.RedirectHome:
			requestLogger(c).WithFields(map[string]interface{}{
				"user_id":       session.UserID,
				"user_role":     session.Role,
				"required_role": requiredRole,
			}).Warn("Insufficient role for API route")
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				models.NewAPIError(models.ErrUnauthorized, "Insufficient role"))
			return
		}

		c.Set(SessionKey, session)
		c.Next()
	}
}

// RequireScope runs after RequireAPI and stops client tokens that were not
// granted scope. Login sessions pass untouched.
func (g *Gate) RequireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := CurrentSession(c)
		if session == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				models.NewAPIError(models.ErrUnauthorized, "Authentication required"))
			return
		}
		if !session.HasScope(scope) {
			requestLogger(c).WithFields(map[string]interface{}{
				"user_id":        session.UserID,
				"client_id":      session.ClientID,
				"granted_scopes": session.Scopes,
				"required_scope": scope,
			}).Warn("Insufficient scope for API route")
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				models.NewAPIError(models.ErrUnauthorized, "Insufficient scope"))
			return
		}
		c.Next()
	}
}

// RequirePage gates HTML routes. Without a usable session the browser is sent
// to /login, and a corrupt cookie is cleared on the way. A session lacking the
// role is sent to the storefront.
func (g *Gate) RequirePage(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, source, err := g.resolve(c)
		decision := auth.Decide(session, requiredRole)

		switch decision {
		case auth.RedirectLogin:
			if source == sourceCookie && errors.Is(err, auth.ErrInvalidSession) {
				requestLogger(c).WithError(err).Info("Clearing invalid session cookie")
				ClearSessionCookie(c, g.secureCookie)
			}
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		case auth.RedirectHome:
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}

		c.Set(SessionKey, session)
		c.Next()
	}
}
