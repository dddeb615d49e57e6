package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// SessionCookieName identifies a guest cart
	SessionCookieName = "session_id"
	// SessionHeaderName lets non-browser clients carry the session
	SessionHeaderName = "X-Session-ID"

	sessionIDKey     = "session_id"
	sessionMaxAgeSec = 30 * 24 * 60 * 60
)

// GuestSession makes sure every request carries a guest session id. An
// existing cookie or X-Session-ID header is reused; otherwise a new id is
// issued as a cookie.
func GuestSession(secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := strings.TrimSpace(c.GetHeader(SessionHeaderName))
		if sessionID == "" {
			sessionID, _ = c.Cookie(SessionCookieName)
		}

		if _, err := uuid.Parse(sessionID); err != nil {
			sessionID = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(SessionCookieName, sessionID, sessionMaxAgeSec, "/", "", secure, true)
		}

		c.Set(sessionIDKey, sessionID)
		c.Header(SessionHeaderName, sessionID)
		c.Next()
	}
}

// GetSessionIDFromContext returns the guest session id, if any
func GetSessionIDFromContext(c *gin.Context) string {
	return c.GetString(sessionIDKey)
}
