package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func setupPartnerRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(PartnerMiddleware())
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, GetPartnerID(c))
	})
	return router
}

func TestPartnerMiddlewareRejectsMissingHeader(t *testing.T) {
	router := setupPartnerRouter()

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "PARTNER_REQUIRED")
}

func TestPartnerMiddlewareSetsContext(t *testing.T) {
	router := setupPartnerRouter()

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Partner-ID", "partner-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "partner-42", w.Body.String())
}
