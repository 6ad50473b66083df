package profile

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/meditracker-api/internal/handler"
	"github.com/jwalitptl/meditracker-api/internal/model"
	"github.com/jwalitptl/meditracker-api/internal/service/profile"
	"github.com/jwalitptl/meditracker-api/pkg/httputil"
)

type Handler struct {
	service profile.ProfileService
}

func NewHandler(service profile.ProfileService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	p := r.Group("/profile")
	{
		p.GET("", h.GetProfile)
		p.PUT("/patient", h.UpdatePatient)
		p.PUT("/doctor", h.UpdateDoctor)
	}
}

func (h *Handler) GetProfile(c *gin.Context) {
	userID, ok := handler.CallerID(c)
	if !ok {
		return
	}

	view, err := h.service.GetProfile(c.Request.Context(), userID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, view)
}

func (h *Handler) UpdatePatient(c *gin.Context) {
	userID, ok := handler.CallerID(c)
	if !ok {
		return
	}

	var req model.UpdatePatientProfileRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	patient, err := h.service.UpdatePatientProfile(c.Request.Context(), userID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, patient)
}

func (h *Handler) UpdateDoctor(c *gin.Context) {
	userID, ok := handler.CallerID(c)
	if !ok {
		return
	}

	var req model.UpdateDoctorProfileRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	doctor, err := h.service.UpdateDoctorProfile(c.Request.Context(), userID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, doctor)
}
