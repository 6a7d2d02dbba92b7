package auth

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/gradeboard/internal/session"
)

const (
	// SessionCookieName is the name of the dashboard session cookie.
	SessionCookieName = "gradeboard_session"

	sessionIDKey = "dashboard_id"
	contextKey   = "session_id"
)

// RequireSession makes sure every browser request belongs to a dashboard
// session, minting a new one on first visit.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := sessions.Default(c)
		id, _ := s.Get(sessionIDKey).(string)
		if !session.ValidID(id) {
			id = session.NewID()
			s.Set(sessionIDKey, id)
			if err := s.Save(); err != nil {
				log.Error("Failed to save session", "error", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"error":   "Failed to start session",
				})
				return
			}
			log.Debug("Started dashboard session", "session", id)
		}
		c.Set(contextKey, id)
		c.Next()
	}
}

// ForgetSession removes the dashboard session from the cookie.
func ForgetSession(c *gin.Context) error {
	s := sessions.Default(c)
	s.Clear()
	s.Options(sessions.Options{Path: "/", MaxAge: -1})
	return s.Save()
}

// SessionID returns the dashboard session of the request.
func SessionID(c *gin.Context) string {
	return c.GetString(contextKey)
}
