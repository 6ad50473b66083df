package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/meditracker-api/internal/handler"
	"github.com/jwalitptl/meditracker-api/internal/model"
	"github.com/jwalitptl/meditracker-api/internal/service/role"
	"github.com/jwalitptl/meditracker-api/internal/service/user"
	"github.com/jwalitptl/meditracker-api/pkg/httputil"
)

type Handler struct {
	users user.UserService
	roles role.RoleService
}

func NewHandler(users user.UserService, roles role.RoleService) *Handler {
	return &Handler{
		users: users,
		roles: roles,
	}
}

// RegisterRoutes expects r to be guarded by the ADMIN role check.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	admin := r.Group("/admin")
	{
		admin.GET("/users", h.ListUsers)
		admin.GET("/roles", h.ListRoles)
		admin.PUT("/users/:id/roles", h.UpdateUserRoles)
	}
}

func (h *Handler) ListUsers(c *gin.Context) {
	var filter model.UserFilter
	if !handler.BindQuery(c, &filter) {
		return
	}

	users, err := h.users.ListUsers(c.Request.Context(), &filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, users)
}

func (h *Handler) ListRoles(c *gin.Context) {
	roles, err := h.roles.ListRoles(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, roles)
}

func (h *Handler) UpdateUserRoles(c *gin.Context) {
	userID, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateRolesRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	change, err := h.roles.UpdateUserRoles(c.Request.Context(), userID, req.Roles)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, change)
}
