// Package handler holds the helpers shared by the HTTP handlers in its
// subpackages.
package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/meditracker-api/internal/middleware"
	apperrors "github.com/jwalitptl/meditracker-api/pkg/errors"
	"github.com/jwalitptl/meditracker-api/pkg/httputil"
)

// BindJSON decodes the request body into dst, writing a validation error
// response and returning false on failure.
func BindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		httputil.RespondWithError(c, httputil.BindingError(err))
		return false
	}
	return true
}

// BindQuery is BindJSON for query parameters.
func BindQuery(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		httputil.RespondWithError(c, httputil.BindingError(err))
		return false
	}
	return true
}

// ParamID parses a positive integer path parameter.
func ParamID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		httputil.RespondWithError(c, apperrors.NewValidation(name, "invalid id"))
		return 0, false
	}
	return id, true
}

// CallerID returns the authenticated user's id.
func CallerID(c *gin.Context) (int64, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized(nil))
	}
	return id, ok
}
