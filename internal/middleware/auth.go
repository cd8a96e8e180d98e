package middleware

import "github.com/gin-gonic/gin"

// DevelopmentAuthMiddleware is a simple auth middleware for development. It
// fills in a fixed user identity so handlers that log an actor have one
// without a real auth gateway in front.
func DevelopmentAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			userID = c.GetHeader("X-User-ID")
		}
		if userID == "" {
			userID = "00000000-0000-0000-0000-000000000001" // Valid UUID for dev
		}

		c.Set("userId", userID)
		c.Set("user_id", userID)
		c.Next()
	}
}
