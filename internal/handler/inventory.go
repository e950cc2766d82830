package handler

import (
	"net/http"
	"strconv"

	"github.com/castaxyz/vetcare-stable/internal/apierror"
	"github.com/castaxyz/vetcare-stable/internal/dto"
	"github.com/castaxyz/vetcare-stable/internal/service"

	"github.com/gin-gonic/gin"
)

type InventoryHandler struct{ svc service.InventoryService }

func NewInventoryHandler(svc service.InventoryService) *InventoryHandler {
	return &InventoryHandler{svc: svc}
}

func (h *InventoryHandler) Receive(c *gin.Context) {
	var req dto.ReceiveStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Receive(c.Request.Context(), callerID(c), req)
	if err != nil {
		writeDomainError(c, err, http.StatusBadRequest)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *InventoryHandler) Consume(c *gin.Context) {
	var req dto.ConsumeStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	touched, err := h.svc.Consume(c.Request.Context(), callerID(c), req)
	if err != nil {
		writeDomainError(c, err, http.StatusBadRequest)
		return
	}

	// The response lists the mutated lots in the order they were drained.
	lots := make([]dto.StockLotResponse, 0, len(touched))
	for i := range touched {
		l := &touched[i]
		lr := dto.StockLotResponse{
			ID:                l.ID.String(),
			ProductID:         l.ProductID.String(),
			CurrentQuantity:   l.CurrentQuantity,
			ReservedQuantity:  l.ReservedQuantity,
			AvailableQuantity: l.Available(),
			BatchNumber:       l.BatchNumber,
			Location:          l.Location,
		}
		if l.ExpirationDate != nil {
			d := l.ExpirationDate.Format("2006-01-02")
			lr.ExpirationDate = &d
		}
		lots = append(lots, lr)
	}
	c.JSON(http.StatusOK, gin.H{"lots": lots})
}

func (h *InventoryHandler) Reserve(c *gin.Context) {
	var req dto.ReservationRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.Reserve(c.Request.Context(), req); err != nil {
		writeDomainError(c, err, http.StatusBadRequest)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *InventoryHandler) Release(c *gin.Context) {
	var req dto.ReservationRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.Release(c.Request.Context(), req); err != nil {
		writeDomainError(c, err, http.StatusBadRequest)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *InventoryHandler) Adjust(c *gin.Context) {
	var req dto.AdjustStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.Adjust(c.Request.Context(), callerID(c), req); err != nil {
		writeDomainError(c, err, http.StatusBadRequest)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *InventoryHandler) ProductStock(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ProductStock(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("Product stock not found"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InventoryHandler) Movements(c *gin.Context) {
	var filter dto.MovementFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.Movements(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to list movements"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InventoryHandler) LowStockAlerts(c *gin.Context) {
	alerts, err := h.svc.LowStockAlerts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to compute low stock alerts"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

func (h *InventoryHandler) ExpirationAlerts(c *gin.Context) {
	days := 30
	if raw := c.Query("within_days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, apierror.New("within_days must be a positive integer"))
			return
		}
		days = parsed
	}
	alerts, err := h.svc.ExpirationAlerts(c.Request.Context(), days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to compute expiration alerts"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"within_days": days, "alerts": alerts})
}
