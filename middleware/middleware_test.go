package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/moodstreak/utils"
)

const secret = "middleware-secret"

func authRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AuthRequired(secret))
	r.GET("/me", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, UserID(ctx))
	})
	r.POST("/me", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, UserID(ctx))
	})
	return r
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	r := authRouter()
	tok, err := utils.GenerateToken(secret, "user-42", time.Hour)
	require.NoError(t, err)
	expired, err := utils.GenerateToken(secret, "user-42", -time.Minute)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"missing", "", http.StatusUnauthorized, "40101"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "40102"},
		{"empty bearer", "Bearer   ", http.StatusUnauthorized, "40103"},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, "40105"},
		{"valid", "Bearer " + tok, http.StatusOK, "user-42"},
		{"case insensitive scheme", "bearer " + tok, http.StatusOK, "user-42"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := serve(r, req)
			assert.Equal(t, tc.status, w.Code)
			assert.Contains(t, w.Body.String(), tc.body)
		})
	}
}

func TestAuthRequired_QueryTokenOnlyForGET(t *testing.T) {
	r := authRouter()
	tok, err := utils.GenerateToken(secret, "ws-user", time.Hour)
	require.NoError(t, err)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/me?access_token="+tok, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ws-user", w.Body.String())

	w = serve(r, httptest.NewRequest(http.MethodPost, "/me?access_token="+tok, nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimitMiddleware(2))
	r.GET("/ping", func(ctx *gin.Context) { ctx.Status(http.StatusNoContent) })

	// burst is perMinute/2 = 1
	req := func() int {
		rq := httptest.NewRequest(http.MethodGet, "/ping", nil)
		rq.RemoteAddr = "203.0.113.7:5000"
		return serve(r, rq).Code
	}
	assert.Equal(t, http.StatusNoContent, req())
	assert.Equal(t, http.StatusTooManyRequests, req())

	other := httptest.NewRequest(http.MethodGet, "/ping", nil)
	other.RemoteAddr = "203.0.113.8:5000"
	assert.Equal(t, http.StatusNoContent, serve(r, other).Code)
}

func TestRequestMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestMetrics())
	r.GET("/items/:id", func(ctx *gin.Context) { ctx.Status(http.StatusOK) })

	before := testutil.ToFloat64(utils.HTTPRequests.WithLabelValues(http.MethodGet, "/items/:id", "200"))
	serve(r, httptest.NewRequest(http.MethodGet, "/items/1", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/items/2", nil))
	after := testutil.ToFloat64(utils.HTTPRequests.WithLabelValues(http.MethodGet, "/items/:id", "200"))

	assert.Equal(t, 2.0, after-before)
}
