package handler

import (
	"net/http"

	"github.com/castaxyz/vetcare-stable/internal/apierror"
	"github.com/castaxyz/vetcare-stable/internal/dto"
	"github.com/castaxyz/vetcare-stable/internal/service"

	"github.com/gin-gonic/gin"
)

type ClientsHandler struct {
	svc        service.ClientService
	invoiceSvc service.InvoiceService
}

func NewClientsHandler(svc service.ClientService, invoiceSvc service.InvoiceService) *ClientsHandler {
	return &ClientsHandler{svc: svc, invoiceSvc: invoiceSvc}
}

func (h *ClientsHandler) Create(c *gin.Context) {
	var req dto.CreateClientRequest
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

func (h *ClientsHandler) Get(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("Client not found"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ClientsHandler) List(c *gin.Context) {
	var filter dto.ClientFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to list clients"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ClientsHandler) Update(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateClientRequest
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

func (h *ClientsHandler) Deactivate(c *gin.Context) {
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

func (h *ClientsHandler) Invoices(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.invoiceSvc.ListByClient(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to list invoices"))
		return
	}
	c.JSON(http.StatusOK, resp)
}
