package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

var sensitiveQueryKeys = map[string]struct{}{
	"password": {}, "token": {}, "secret": {}, "client_secret": {}, "access_token": {},
}

// AccessLog writes one logrus entry per request
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		query := c.Request.URL.Query()
		for k := range query {
			if _, ok := sensitiveQueryKeys[strings.ToLower(k)]; ok {
				query.Set(k, "****")
			}
		}

		status := c.Writer.Status()
		entry := log.WithFields(log.Fields{
			"request_id": c.GetString(KeyRequestID),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"route":      c.FullPath(),
			"query":      query.Encode(),
			"status":     status,
			"latency":    time.Since(start).String(),
			"client_ip":  c.ClientIP(),
			"user_agent": c.Request.UserAgent(),
			"size":       c.Writer.Size(),
		})
		if session := CurrentSession(c); session != nil {
			entry = entry.WithField("user_id", session.UserID)
		}
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			entry.Error("HTTP request")
		case status >= 400:
			entry.Warn("HTTP request")
		default:
			entry.Info("HTTP request")
		}
	}
}
