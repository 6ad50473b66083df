package medicine

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/meditracker-api/internal/handler"
	"github.com/jwalitptl/meditracker-api/internal/model"
	"github.com/jwalitptl/meditracker-api/internal/service/medicine"
	"github.com/jwalitptl/meditracker-api/pkg/httputil"
)

type Handler struct {
	service medicine.MedicineService
}

func NewHandler(service medicine.MedicineService) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the catalogue reads on r and the admin writes on admin.
func (h *Handler) RegisterRoutes(r, admin *gin.RouterGroup) {
	r.GET("/medicines", h.ListMedicines)
	r.GET("/medicines/:id", h.GetMedicine)

	admin.POST("/medicines", h.CreateMedicine)
	admin.POST("/medicines/import", h.ImportMedicines)
	admin.DELETE("/medicines/:id", h.DiscontinueMedicine)
}

func (h *Handler) ListMedicines(c *gin.Context) {
	list, err := h.service.ListActive(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, list)
}

func (h *Handler) GetMedicine(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	m, err := h.service.GetActive(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, m)
}

func (h *Handler) CreateMedicine(c *gin.Context) {
	var req model.CreateMedicineRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	m, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, m)
}

func (h *Handler) DiscontinueMedicine(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Discontinue(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ImportMedicines loads an openFDA drugs@FDA export into the catalogue.
func (h *Handler) ImportMedicines(c *gin.Context) {
	var req model.ImportMedicinesRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	result, err := h.service.Import(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, result)
}
