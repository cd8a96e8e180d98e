package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// PartnerMiddleware extracts and validates the partner identity.
// SECURITY: No default partner fallback - requests without partner context are rejected
func PartnerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check if partner_id was already set by an auth middleware upstream
		partnerID := c.GetString("partner_id")

		if partnerID == "" {
			partnerID = c.GetHeader("X-Partner-ID")
		}

		// SECURITY: No default fallback - fail closed
		if partnerID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "PARTNER_REQUIRED",
					"message": "Partner ID is required. Include X-Partner-ID header.",
				},
			})
			c.Abort()
			return
		}

		c.Set("partner_id", partnerID)
		c.Next()
	}
}

// GetPartnerID retrieves the partner ID from gin context
func GetPartnerID(c *gin.Context) string {
	return c.GetString("partner_id")
}
