package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/meditracker-api/internal/model"
	"github.com/jwalitptl/meditracker-api/pkg/auth"
	apperrors "github.com/jwalitptl/meditracker-api/pkg/errors"
	"github.com/jwalitptl/meditracker-api/pkg/httputil"
)

const (
	ContextUserID = "user_id"
	ContextEmail  = "user_email"
)

// RoleChecker answers whether a user currently holds a role.
type RoleChecker interface {
	HasRole(ctx context.Context, userID int64, name model.RoleName) (bool, error)
}

type AuthMiddleware struct {
	jwtService auth.JWTService
	roles      RoleChecker
}

func NewAuthMiddleware(jwtService auth.JWTService, roles RoleChecker) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		roles:      roles,
	}
}

// Authenticate verifies the bearer token and sets the caller's user id in context
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httputil.RespondWithError(c, apperrors.Unauthorized(nil))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			httputil.RespondWithError(c, apperrors.Unauthorized(nil))
			return
		}

		claims, err := m.jwtService.ValidateToken(parts[1])
		if err != nil {
			httputil.RespondWithError(c, apperrors.Unauthorized(err))
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextEmail, claims.Email)
		c.Next()
	}
}

// RequireRole checks the store, not the token, so revoked roles take effect immediately.
func (m *AuthMiddleware) RequireRole(role model.RoleName) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			httputil.RespondWithError(c, apperrors.Unauthorized(nil))
			return
		}

		has, err := m.roles.HasRole(c.Request.Context(), userID, role)
		if err != nil {
			httputil.RespondWithError(c, apperrors.NewInternal(err))
			return
		}
		if !has {
			httputil.RespondWithError(c, apperrors.NewForbidden("requires role "+string(role)))
			return
		}

		c.Next()
	}
}

// UserID returns the authenticated caller's id.
func UserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok && id > 0
}
