package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/threat-view/dashboard-service/internal/auth"
	"github.com/threat-view/dashboard-service/internal/metrics"
	"github.com/threat-view/dashboard-service/internal/upstream"
)

func newAuthService() *auth.Service {
	return auth.NewService(auth.Config{
		JWTSecret:     "test-secret",
		TokenDuration: time.Hour,
		Issuer:        "threatview-test",
	})
}

func protectedRouter(svc *auth.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Auth(svc))
	r.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"userId": c.GetString(ContextKeyUserID),
			"email":  c.GetString(ContextKeyEmail),
		})
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	svc := newAuthService()

	t.Run("valid token passes and exposes identity", func(t *testing.T) {
		token, err := svc.GenerateToken(&upstream.UserProfile{ID: "u-1", Email: "analyst@example.com"})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		protectedRouter(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "u-1")
		assert.Contains(t, w.Body.String(), "analyst@example.com")
	})

	t.Run("missing header is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		w := httptest.NewRecorder()
		protectedRouter(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed header is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Basic abc123")
		w := httptest.NewRecorder()
		protectedRouter(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		w := httptest.NewRecorder()
		protectedRouter(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestLoggingAndMetricsMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	collector := metrics.NewCollector()

	r := gin.New()
	r.Use(Logging(zap.NewNop()), Metrics(collector))
	r.GET("/items/:id", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/items/42", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)

	// The metrics endpoint reports the route template, not the raw path.
	mw := httptest.NewRecorder()
	collector.Handler().ServeHTTP(mw, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, mw.Body.String(), `path="/items/:id"`)
	assert.NotContains(t, mw.Body.String(), `path="/items/42"`)
}
