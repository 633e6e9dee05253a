package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"floreria/internal/services"
	"floreria/pkg/logger"
	"floreria/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func signToken(t *testing.T, secret, userType string, expiresIn time.Duration) string {
	t.Helper()
	claims := JWTClaims{
		UserID:   "64f1c2a9e4b0a1b2c3d4e5f6",
		UserType: userType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func perform(r http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Code
}

func TestAuthRequired(t *testing.T) {
	r := gin.New()
	r.GET("/admin", AuthRequired(testSecret), AdminRequired(), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("user_id"))
	})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"admin token", "Bearer " + signToken(t, testSecret, UserTypeAdmin, time.Hour), http.StatusOK},
		{"customer token", "Bearer " + signToken(t, testSecret, UserTypeCustomer, time.Hour), http.StatusForbidden},
		{"missing header", "", http.StatusUnauthorized},
		{"not a bearer token", "Basic YWRtaW46YWRtaW4=", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + signToken(t, "other-secret", UserTypeAdmin, time.Hour), http.StatusUnauthorized},
		{"expired", "Bearer " + signToken(t, testSecret, UserTypeAdmin, -time.Minute), http.StatusUnauthorized},
		{"garbage", "Bearer not.a.jwt", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.header != "" {
				headers["Authorization"] = tt.header
			}
			w := perform(r, http.MethodGet, "/admin", headers)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "64f1c2a9e4b0a1b2c3d4e5f6", w.Body.String())
			}
		})
	}
}

func TestAuthRequired_RejectsOtherAlgorithms(t *testing.T) {
	r := gin.New()
	r.GET("/admin", AuthRequired(testSecret), func(c *gin.Context) { c.Status(http.StatusOK) })

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, JWTClaims{UserID: "x", UserType: UserTypeAdmin}).
		SignedString([]byte(testSecret))
	require.NoError(t, err)

	w := perform(r, http.MethodGet, "/admin", map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCORSMiddleware(t *testing.T) {
	handler := func(c *gin.Context) { c.Status(http.StatusOK) }

	t.Run("allow list", func(t *testing.T) {
		r := gin.New()
		r.Use(CORSMiddleware([]string{"https://floreria.cl"}))
		r.GET("/x", handler)

		w := perform(r, http.MethodGet, "/x", map[string]string{"Origin": "https://floreria.cl"})
		assert.Equal(t, "https://floreria.cl", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

		w = perform(r, http.MethodGet, "/x", map[string]string{"Origin": "https://evil.example"})
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("wildcard and preflight", func(t *testing.T) {
		r := gin.New()
		r.Use(CORSMiddleware([]string{"*"}))
		r.GET("/x", handler)

		w := perform(r, http.MethodOptions, "/x", map[string]string{"Origin": "https://any.example"})
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	})
}

func TestRequestIDMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/x", func(c *gin.Context) {
		c.String(http.StatusOK, logger.RequestIDFromContext(c.Request.Context()))
	})

	w := perform(r, http.MethodGet, "/x", map[string]string{RequestIDHeader: "abc-123"})
	assert.Equal(t, "abc-123", w.Body.String())
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))

	w = perform(r, http.MethodGet, "/x", nil)
	generated := w.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())
}

func TestLoggingMiddleware(t *testing.T) {
	log, err := logger.NewLogger(&logger.Config{Level: logger.InfoLevel, Format: "json", AppName: "FloreriaDelivery"})
	require.NoError(t, err)
	var buf bytes.Buffer
	log.SetOutput(&buf)

	r := gin.New()
	r.Use(RequestIDMiddleware(), LoggingMiddleware(log))
	r.GET("/communes/:name", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	perform(r, http.MethodGet, "/communes/Atlantis", map[string]string{RequestIDHeader: "req-9"})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warning", entry["level"])
	assert.Equal(t, "/communes/:name", entry["endpoint"])
	assert.Equal(t, float64(http.StatusNotFound), entry["status_code"])
	assert.Equal(t, "req-9", entry["request_id"])
}

func TestRecoveryMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RecoveryMiddleware(logger.NewNop()))
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := perform(r, http.MethodGet, "/boom", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", errorCode(t, w))
}

type fakeLimiter struct {
	counts map[string]int64
	err    error
}

func (f *fakeLimiter) CheckRateLimit(ctx context.Context, key string, limit int64, window time.Duration) (*services.RateLimitResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.counts[key]++
	count := f.counts[key]
	result := &services.RateLimitResult{Allowed: count <= limit, Count: count}
	if count <= limit {
		result.Remaining = limit - count
	} else {
		result.RetryAfter = 42 * time.Second
	}
	return result, nil
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := &fakeLimiter{counts: map[string]int64{}}
	r := gin.New()
	r.Use(RateLimitMiddleware(limiter, 2, logger.NewNop()))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		w := perform(r, http.MethodGet, "/x", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w := perform(r, http.MethodGet, "/x", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "42", w.Header().Get("Retry-After"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "RATE_LIMITED", errorCode(t, w))

	t.Run("cache failure lets requests through", func(t *testing.T) {
		limiter.err = errors.New("redis down")
		w := perform(r, http.MethodGet, "/x", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("disabled", func(t *testing.T) {
		r := gin.New()
		r.Use(RateLimitMiddleware(nil, 2, logger.NewNop()))
		r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
		for i := 0; i < 5; i++ {
			assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/x", nil).Code)
		}
	})
}

func TestTimeoutMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(TimeoutMiddleware(time.Second))
	r.GET("/x", func(c *gin.Context) {
		_, ok := c.Request.Context().Deadline()
		c.JSON(http.StatusOK, gin.H{"deadline": ok})
	})

	w := perform(r, http.MethodGet, "/x", nil)
	assert.JSONEq(t, `{"deadline":true}`, w.Body.String())
}

func TestMetricsMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(MetricsMiddleware())
	r.GET("/communes/:name", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	perform(r, http.MethodGet, "/communes/Providencia", nil)
	perform(r, http.MethodGet, "/nowhere", nil)

	body := perform(r, http.MethodGet, "/metrics", nil).Body.String()
	assert.Contains(t, body, `floreria_http_requests_total{method="GET",path="/communes/:name",status="200"} 1`)
	assert.Contains(t, body, `path="unmatched",status="404"`)
	assert.NotContains(t, body, "Providencia")
}
