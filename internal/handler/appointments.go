package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/castaxyz/vetcare-stable/internal/apierror"
	"github.com/castaxyz/vetcare-stable/internal/dto"
	"github.com/castaxyz/vetcare-stable/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AppointmentsHandler struct{ svc service.AppointmentService }

func NewAppointmentsHandler(svc service.AppointmentService) *AppointmentsHandler {
	return &AppointmentsHandler{svc: svc}
}

func (h *AppointmentsHandler) Schedule(c *gin.Context) {
	var req dto.ScheduleAppointmentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Schedule(c.Request.Context(), callerID(c), req)
	if err != nil {
		writeDomainError(c, err, http.StatusBadRequest)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *AppointmentsHandler) Get(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("Appointment not found"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AppointmentsHandler) List(c *gin.Context) {
	var filter dto.AppointmentFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to list appointments"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AppointmentsHandler) Update(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateAppointmentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		writeDomainError(c, err, http.StatusBadRequest)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Availability returns the free windows of a veterinarian's day.
func (h *AppointmentsHandler) Availability(c *gin.Context) {
	var q dto.AvailabilityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	if err := validate.Struct(&q); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	slots, err := h.svc.FreeSlots(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": q.Date, "slots": slots})
}

// Schedule lifecycle transitions.

func (h *AppointmentsHandler) Confirm(c *gin.Context) {
	h.transition(c, h.svc.Confirm)
}

func (h *AppointmentsHandler) Start(c *gin.Context) {
	h.transition(c, h.svc.Start)
}

func (h *AppointmentsHandler) MarkNoShow(c *gin.Context) {
	h.transition(c, h.svc.MarkNoShow)
}

func (h *AppointmentsHandler) transition(c *gin.Context, fn func(ctx context.Context, id uuid.UUID) (*dto.AppointmentResponse, error)) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	resp, err := fn(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err, http.StatusNotFound)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AppointmentsHandler) Complete(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.CompleteAppointmentRequest
	if c.Request.ContentLength > 0 && !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Complete(c.Request.Context(), id, req.Notes)
	if err != nil {
		writeDomainError(c, err, http.StatusNotFound)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AppointmentsHandler) Cancel(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.CancelAppointmentRequest
	if c.Request.ContentLength > 0 && !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Cancel(c.Request.Context(), id, req.Reason)
	if err != nil {
		writeDomainError(c, err, http.StatusNotFound)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DailySchedule returns the day's appointments, enriched and ordered.
func (h *AppointmentsHandler) DailySchedule(c *gin.Context) {
	dateStr := c.DefaultQuery("date", time.Now().UTC().Format("2006-01-02"))
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid date, expected YYYY-MM-DD"))
		return
	}

	vetID := uuid.Nil
	if raw := c.Query("veterinarian_id"); raw != "" {
		vetID, err = uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("Invalid veterinarian_id"))
			return
		}
	}

	entries, err := h.svc.DailySchedule(c.Request.Context(), date, vetID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to build daily schedule"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": dateStr, "entries": entries})
}
