package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const ClientCookieName = "correspondence_client"
const CookieMaxAge = 30 * 24 * 60 * 60 // 30 days

// ClientIDKey is the gin context key holding the client's uuid.UUID.
const ClientIDKey = "clientID"

// ClientMiddleware identifies the caller by a long-lived cookie, issuing a
// new id on first contact. The id scopes rate limiting and latest-request
// cancellation; it is not authentication.
func ClientMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(ClientCookieName)
		var clientID uuid.UUID

		if err == http.ErrNoCookie {
			clientID = uuid.New()
			c.SetCookie(ClientCookieName, clientID.String(), CookieMaxAge, "/", "", false, true)
		} else if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to parse client cookie"})
			return
		} else {
			clientID, err = uuid.Parse(cookie)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid client ID"})
				return
			}
		}

		c.Set(ClientIDKey, clientID)
		c.Next()
	}
}

// ClientID returns the id set by ClientMiddleware.
func ClientID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ClientIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
