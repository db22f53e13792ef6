package jwt_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infrajwt "github.com/huzhengnan/website-monitor-sub000/infrastructure/jwt"
)

const testSecret = "test-secret"

func newRouter() *gin.Engine {
	router := gin.New()
	router.Use(infrajwt.Middleware(testSecret))
	router.GET("/protected", func(c *gin.Context) {
		claims, ok := infrajwt.GetClaims(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, claims.Sub)
	})
	return router
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	valid, err := infrajwt.IssueToken(testSecret, "admin", time.Hour)
	require.NoError(t, err)
	expired, err := infrajwt.IssueToken(testSecret, "admin", -time.Hour)
	require.NoError(t, err)
	foreign, err := infrajwt.IssueToken("other-secret", "admin", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "valid token", header: "Bearer " + valid, wantStatus: http.StatusOK},
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + valid, wantStatus: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + expired, wantStatus: http.StatusUnauthorized},
		{name: "wrong secret", header: "Bearer " + foreign, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/protected", http.NoBody)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			newRouter().ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "admin", w.Body.String())
			}
		})
	}
}
