package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thelittlethings/backend/internal/models"
	"github.com/thelittlethings/backend/internal/repositories/memory"
)

const secret = "test-secret"

func sign(t *testing.T, claims *models.JwtCustomClaims, key string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return token
}

func validClaims(jti string) *models.JwtCustomClaims {
	return &models.JwtCustomClaims{
		UserID:   7,
		Username: "alice",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestJWTAuthMiddleware(t *testing.T) {
	tokens := memory.NewTokenRepository(memory.NewStore())
	require.NoError(t, tokens.Revoke(context.Background(), "revoked-jti", time.Now().Add(time.Hour)))

	expired := validClaims("old")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.jwt", http.StatusUnauthorized},
		{"wrong key", "Bearer " + sign(t, validClaims("a"), "other"), http.StatusUnauthorized},
		{"expired", "Bearer " + sign(t, expired, secret), http.StatusUnauthorized},
		{"revoked", "Bearer " + sign(t, validClaims("revoked-jti"), secret), http.StatusUnauthorized},
		{"valid", "Bearer " + sign(t, validClaims("fresh"), secret), http.StatusOK},
		{"lowercase scheme", "bearer " + sign(t, validClaims("fresh"), secret), http.StatusOK},
	}

	e := echo.New()
	handler := JWTAuthMiddleware(secret, tokens)(func(c echo.Context) error {
		claims := c.Get(UserContextKey).(*models.JwtCustomClaims)
		return c.String(http.StatusOK, claims.Username)
	})

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tc.header)
			}
			rec := httptest.NewRecorder()
			err := handler(e.NewContext(req, rec))

			if tc.want == http.StatusOK {
				require.NoError(t, err)
				assert.Equal(t, "alice", rec.Body.String())
				return
			}
			var he *echo.HTTPError
			require.ErrorAs(t, err, &he)
			assert.Equal(t, tc.want, he.Code)
		})
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	e := echo.New()
	h := rl.Middleware()(func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
	call := func(ip string) error {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderXRealIP, ip)
		return h(e.NewContext(req, httptest.NewRecorder()))
	}

	require.NoError(t, call("10.0.0.1"))
	require.NoError(t, call("10.0.0.1"))
	var he *echo.HTTPError
	require.ErrorAs(t, call("10.0.0.1"), &he)
	assert.Equal(t, http.StatusTooManyRequests, he.Code)

	assert.NoError(t, call("10.0.0.2"), "buckets are per client")

	now = now.Add(time.Second)
	assert.NoError(t, call("10.0.0.1"), "bucket refills")

	now = now.Add(10 * time.Minute)
	rl.sweep()
	rl.mu.Lock()
	assert.Empty(t, rl.visitors)
	rl.mu.Unlock()
}

func TestMetricsBasicAuth(t *testing.T) {
	e := echo.New()
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	call := func(mw echo.MiddlewareFunc, user, pass string) error {
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		if user != "" {
			req.SetBasicAuth(user, pass)
		}
		return mw(ok)(e.NewContext(req, httptest.NewRecorder()))
	}

	mw := MetricsBasicAuth("prom", "scrape")
	assert.NoError(t, call(mw, "prom", "scrape"))
	assert.Error(t, call(mw, "prom", "nope"))
	assert.Error(t, call(mw, "", ""))
	assert.Error(t, call(MetricsBasicAuth("", ""), "", ""), "unconfigured metrics are closed")
}
