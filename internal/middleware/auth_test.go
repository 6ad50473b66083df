package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/meditracker-api/internal/model"
	"github.com/jwalitptl/meditracker-api/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubRoles map[int64]model.RoleSet

func (s stubRoles) HasRole(_ context.Context, userID int64, name model.RoleName) (bool, error) {
	return s[userID].Has(name), nil
}

func newAuthEngine(roles stubRoles) (*gin.Engine, *auth.HMACService) {
	jwtService := auth.NewJWTService("secret", "meditracker", time.Hour)
	m := NewAuthMiddleware(jwtService, roles)

	r := gin.New()
	protected := r.Group("/", m.Authenticate())
	protected.GET("/me", func(c *gin.Context) {
		id, _ := UserID(c)
		c.JSON(http.StatusOK, gin.H{"id": id})
	})
	protected.GET("/admin", m.RequireRole(model.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r, jwtService
}

func do(r http.Handler, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func tokenFor(t *testing.T, svc *auth.HMACService, id int64) string {
	t.Helper()
	u := &model.User{Email: "u@example.com"}
	u.ID = id
	token, err := svc.GenerateAccessToken(u)
	require.NoError(t, err)
	return token
}

func TestAuthenticate(t *testing.T) {
	r, svc := newAuthEngine(stubRoles{})

	assert.Equal(t, http.StatusUnauthorized, do(r, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/me", "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/me", "Bearer not-a-token").Code)

	w := do(r, "/me", "Bearer "+tokenFor(t, svc, 5))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id": 5}`, w.Body.String())
}

func TestRequireRoleChecksStore(t *testing.T) {
	roles := stubRoles{
		1: model.NewRoleSet(model.RoleAdmin),
		2: model.NewRoleSet(model.RolePatient),
	}
	r, svc := newAuthEngine(roles)

	assert.Equal(t, http.StatusNoContent, do(r, "/admin", "Bearer "+tokenFor(t, svc, 1)).Code)

	w := do(r, "/admin", "Bearer "+tokenFor(t, svc, 2))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "requires role ADMIN")

	// revoking the role takes effect without a new token
	admin := tokenFor(t, svc, 1)
	roles[1] = model.NewRoleSet()
	assert.Equal(t, http.StatusForbidden, do(r, "/admin", "Bearer "+admin).Code)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextRequestID))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderXRequestID, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(HeaderXRequestID))
	assert.Equal(t, "abc-123", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, w.Header().Get(HeaderXRequestID), 36)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.001, Burst: 2})
	r := gin.New()
	r.Use(rl.RateLimit())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, do(r, "/", "").Code)
	}
	w := do(r, "/", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "rate_limited")
}
