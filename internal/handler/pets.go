package handler

import (
	"net/http"

	"github.com/castaxyz/vetcare-stable/internal/apierror"
	"github.com/castaxyz/vetcare-stable/internal/dto"
	"github.com/castaxyz/vetcare-stable/internal/service"

	"github.com/gin-gonic/gin"
)

type PetsHandler struct {
	svc     service.PetService
	apptSvc service.AppointmentService
}

func NewPetsHandler(svc service.PetService, apptSvc service.AppointmentService) *PetsHandler {
	return &PetsHandler{svc: svc, apptSvc: apptSvc}
}

func (h *PetsHandler) Create(c *gin.Context) {
	var req dto.CreatePetRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *PetsHandler) Get(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("Pet not found"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PetsHandler) List(c *gin.Context) {
	var filter dto.PetFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to list pets"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PetsHandler) Update(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdatePetRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PetsHandler) Deactivate(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Deactivate(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.Status(http.StatusNoContent)
}

// Appointments returns a pet's visit history, newest first.
func (h *PetsHandler) Appointments(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	filter := dto.AppointmentFilter{PetID: id.String(), Page: 1, Limit: 200}
	resp, err := h.apptSvc.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to list appointments"))
		return
	}
	c.JSON(http.StatusOK, resp)
}
