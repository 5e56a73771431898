package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/amoghku/marketplace-pim/internal/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for key, values := range header {
		req.Header[key] = values
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestResolveLanguage(t *testing.T) {
	tests := map[string]string{
		"":                        "en",
		"en-US,en;q=0.9":          "en",
		"zh-TW,zh;q=0.9,en;q=0.8": "zh_TW",
		"zh-Hant;q=0.9":           "zh_TW",
		"zh_TW":                   "zh_TW",
		"zh-CN":                   "en",
		"fr, zh-TW":               "en",
	}

	for header, want := range tests {
		assert.Equal(t, want, resolveLanguage(header), "Accept-Language %q", header)
	}
}

func TestI18nMiddleware_SetsLanguage(t *testing.T) {
	r := gin.New()
	r.Use(I18nMiddleware())
	r.GET("/lang", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("lang"))
	})

	w := serve(r, http.MethodGet, "/lang", http.Header{"Accept-Language": {"zh-TW"}})

	assert.Equal(t, "zh_TW", w.Body.String())
}

func TestRateLimiter_LimitsWritesOnly(t *testing.T) {
	limiter := NewRateLimiter(rate.Every(time.Hour), 2)
	r := gin.New()
	r.Use(limiter.Middleware())
	r.GET("/items", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/items", func(c *gin.Context) { c.Status(http.StatusCreated) })

	assert.Equal(t, http.StatusCreated, serve(r, http.MethodPost, "/items", nil).Code)
	assert.Equal(t, http.StatusCreated, serve(r, http.MethodPost, "/items", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, http.MethodPost, "/items", nil).Code)

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/items", nil).Code)
	}
}

func TestRateLimiter_EvictsIdleVisitors(t *testing.T) {
	limiter := NewRateLimiter(rate.Every(time.Hour), 1)
	limiter.getVisitor("10.0.0.1")
	limiter.getVisitor("10.0.0.2")

	limiter.evict(time.Now().Add(visitorTTL + time.Second))

	assert.Empty(t, limiter.visitors)
}

func TestNewWriteRateLimiter(t *testing.T) {
	unlimited := NewWriteRateLimiter(config.RateLimitConfig{WritesPerSecond: 0, Burst: 0})
	assert.Equal(t, rate.Inf, unlimited.rate)
	assert.Equal(t, 1, unlimited.burst)

	limited := NewWriteRateLimiter(config.RateLimitConfig{WritesPerSecond: 5, Burst: 20})
	assert.Equal(t, rate.Limit(5), limited.rate)
	assert.Equal(t, 20, limited.burst)
}

func TestRequestLogger(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	r := gin.New()
	r.Use(RequestLogger(logger))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/categories/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.PUT("/api/categories/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/api/collections", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	serve(r, http.MethodGet, "/health", nil)
	assert.Empty(t, hook.AllEntries())

	id := "3f2504e0-4f89-41d3-9a0c-0305e82c3301"
	w := serve(r, http.MethodGet, "/api/categories/"+id, http.Header{RequestIDHeader: {"req-1"}})
	assert.Equal(t, "req-1", w.Header().Get(RequestIDHeader))
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.DebugLevel, entry.Level)
	assert.Equal(t, "categories", entry.Data["resource"])
	assert.Equal(t, id, entry.Data["resource_id"])
	assert.Equal(t, "req-1", entry.Data["request_id"])

	w = serve(r, http.MethodPut, "/api/categories/"+id, nil)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)

	serve(r, http.MethodPost, "/api/collections", nil)
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.NotContains(t, hook.LastEntry().Data, "resource_id")
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://cms.example.com"}))
	r.GET("/api/categories", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, http.MethodGet, "/api/categories", http.Header{"Origin": {"https://cms.example.com"}})
	assert.Equal(t, "https://cms.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	w = serve(r, http.MethodGet, "/api/categories", http.Header{"Origin": {"https://evil.example.com"}})
	assert.Equal(t, http.StatusForbidden, w.Code)

	open := gin.New()
	open.Use(CORS(nil))
	open.GET("/api/categories", func(c *gin.Context) { c.Status(http.StatusOK) })

	w = serve(open, http.MethodGet, "/api/categories", http.Header{"Origin": {"https://anywhere.example.com"}})
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
