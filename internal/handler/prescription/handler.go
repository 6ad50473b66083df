package prescription

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/meditracker-api/internal/handler"
	"github.com/jwalitptl/meditracker-api/internal/model"
	"github.com/jwalitptl/meditracker-api/internal/service/prescription"
	"github.com/jwalitptl/meditracker-api/pkg/httputil"
)

type Handler struct {
	service prescription.PrescriptionService
}

func NewHandler(service prescription.PrescriptionService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	prescriptions := r.Group("/prescriptions")
	{
		prescriptions.GET("", h.ListPrescriptions)
		prescriptions.POST("", h.CreatePrescription)
		prescriptions.GET("/:id", h.GetPrescription)
		prescriptions.PUT("/:id", h.UpdatePrescription)
	}
}

func (h *Handler) CreatePrescription(c *gin.Context) {
	userID, ok := handler.CallerID(c)
	if !ok {
		return
	}

	var req model.CreatePrescriptionRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	view, err := h.service.Create(c.Request.Context(), userID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, view)
}

func (h *Handler) UpdatePrescription(c *gin.Context) {
	userID, ok := handler.CallerID(c)
	if !ok {
		return
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	var req model.UpdatePrescriptionRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	view, err := h.service.Update(c.Request.Context(), userID, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, view)
}

func (h *Handler) ListPrescriptions(c *gin.Context) {
	userID, ok := handler.CallerID(c)
	if !ok {
		return
	}

	views, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, views)
}

func (h *Handler) GetPrescription(c *gin.Context) {
	userID, ok := handler.CallerID(c)
	if !ok {
		return
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	view, err := h.service.Get(c.Request.Context(), userID, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, view)
}
