package handler

import (
	"net/http"
	"time"

	"github.com/castaxyz/vetcare-stable/internal/apierror"
	"github.com/castaxyz/vetcare-stable/internal/dto"
	"github.com/castaxyz/vetcare-stable/internal/model"
	"github.com/castaxyz/vetcare-stable/internal/service"

	"github.com/gin-gonic/gin"
)

type InvoicesHandler struct{ svc service.InvoiceService }

func NewInvoicesHandler(svc service.InvoiceService) *InvoicesHandler {
	return &InvoicesHandler{svc: svc}
}

func (h *InvoicesHandler) Create(c *gin.Context) {
	var req dto.CreateInvoiceRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), callerID(c), req)
	if err != nil {
		writeDomainError(c, err, http.StatusBadRequest)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// AddItem appends a line to an unpaid invoice.
func (h *InvoicesHandler) AddItem(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.InvoiceItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AddItem(c.Request.Context(), id, callerID(c), req)
	if err != nil {
		writeDomainError(c, err, http.StatusBadRequest)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InvoicesHandler) Get(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("Invoice not found"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InvoicesHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateInvoiceStatusRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateStatus(c.Request.Context(), id, model.InvoiceStatus(req.Status))
	if err != nil {
		writeDomainError(c, err, http.StatusBadRequest)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DownloadPDF generates (or regenerates) the invoice PDF and serves it.
func (h *InvoicesHandler) DownloadPDF(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	path, err := h.svc.GeneratePDF(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		return
	}
	c.FileAttachment(path, "invoice.pdf")
}

func (h *InvoicesHandler) Overdue(c *gin.Context) {
	resp, err := h.svc.Overdue(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to list overdue invoices"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RevenueReport summarizes billing between ?from and ?to (inclusive dates).
func (h *InvoicesHandler) RevenueReport(c *gin.Context) {
	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		c.JSON(http.StatusBadRequest, apierror.New("from and to query params are required (YYYY-MM-DD)"))
		return
	}
	from, err := time.Parse("2006-01-02", fromStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid from date"))
		return
	}
	to, err := time.Parse("2006-01-02", toStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid to date"))
		return
	}
	// The range upper bound is exclusive in the query; pad to cover the full
	// final day.
	report, err := h.svc.RevenueReport(c.Request.Context(), from, to.AddDate(0, 0, 1))
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to build revenue report"))
		return
	}
	report.EndDate = toStr
	c.JSON(http.StatusOK, report)
}
