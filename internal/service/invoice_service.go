package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/castaxyz/vetcare-stable/internal/config"
	"github.com/castaxyz/vetcare-stable/internal/dto"
	"github.com/castaxyz/vetcare-stable/internal/infra"
	"github.com/castaxyz/vetcare-stable/internal/model"
	"github.com/castaxyz/vetcare-stable/internal/repository"
	"github.com/castaxyz/vetcare-stable/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type InvoiceService interface {
	// Create builds the invoice and, in the same transaction, consumes stock
	// for every line that references a stocked product. An insufficient lot
	// walk rolls the whole invoice back.
	Create(ctx context.Context, userID uuid.UUID, req dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error)

	// AddItem appends a line to a draft or pending invoice, consuming stock
	// for stocked products the same way Create does.
	AddItem(ctx context.Context, id uuid.UUID, userID uuid.UUID, req dto.InvoiceItemRequest) (*dto.InvoiceResponse, error)

	Get(ctx context.Context, id uuid.UUID) (*dto.InvoiceResponse, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]dto.InvoiceResponse, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.InvoiceStatus) (*dto.InvoiceResponse, error)

	// GeneratePDF renders the invoice to disk and, when the client has an
	// email, enqueues delivery.
	GeneratePDF(ctx context.Context, id uuid.UUID) (string, error)

	RevenueReport(ctx context.Context, from, to time.Time) (*dto.RevenueReport, error)
	Overdue(ctx context.Context) ([]dto.InvoiceResponse, error)
}

// invoiceStatusTransitions: paid and cancelled are terminal; overdue can
// still be paid or cancelled.
var invoiceStatusTransitions = map[model.InvoiceStatus][]model.InvoiceStatus{
	model.InvoiceDraft:   {model.InvoicePending, model.InvoiceCancelled},
	model.InvoicePending: {model.InvoicePaid, model.InvoiceOverdue, model.InvoiceCancelled},
	model.InvoiceOverdue: {model.InvoicePaid, model.InvoiceCancelled},
}

func invoiceTransitionAllowed(from, to model.InvoiceStatus) bool {
	for _, next := range invoiceStatusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type invoiceService struct {
	repo            repository.InvoiceRepository
	clientRepo      repository.ClientRepository
	productRepo     repository.ProductRepository
	appointmentRepo repository.AppointmentRepository
	inventory       InventoryService
	dispatcher      *worker.Dispatcher
	cfg             *config.Config
}

func NewInvoiceService(
	repo repository.InvoiceRepository,
	clientRepo repository.ClientRepository,
	productRepo repository.ProductRepository,
	appointmentRepo repository.AppointmentRepository,
	inventory InventoryService,
	dispatcher *worker.Dispatcher,
	cfg *config.Config,
) InvoiceService {
	return &invoiceService{
		repo:            repo,
		clientRepo:      clientRepo,
		productRepo:     productRepo,
		appointmentRepo: appointmentRepo,
		inventory:       inventory,
		dispatcher:      dispatcher,
		cfg:             cfg,
	}
}

func (s *invoiceService) Create(ctx context.Context, userID uuid.UUID, req dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return nil, fmt.Errorf("invalid client_id: %w", err)
	}
	client, err := s.clientRepo.FindByID(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("client %s not found", req.ClientID)
	}
	if len(req.Items) == 0 {
		return nil, errors.New("an invoice needs at least one item")
	}

	var appointmentID *uuid.UUID
	if req.AppointmentID != nil {
		parsed, err := uuid.Parse(*req.AppointmentID)
		if err != nil {
			return nil, fmt.Errorf("invalid appointment_id: %w", err)
		}
		appt, err := s.appointmentRepo.FindByID(ctx, parsed)
		if err != nil {
			return nil, fmt.Errorf("appointment %s not found", *req.AppointmentID)
		}
		// The billed visit must belong to the billed client's own pet.
		if appt.Pet == nil || appt.Pet.ClientID != clientID {
			return nil, errors.New("appointment belongs to a different client")
		}
		appointmentID = &parsed
	}

	now := time.Now().UTC()
	dueDate := now.AddDate(0, 0, 30)
	if req.DueDate != nil {
		parsed, err := time.Parse("2006-01-02", *req.DueDate)
		if err != nil {
			return nil, fmt.Errorf("invalid due_date: %w", err)
		}
		dueDate = parsed.UTC()
	}

	// Resolve product lines outside the transaction. Stocked product lines
	// inherit the product's price when the request carries none.
	resolved := make([]resolvedItem, 0, len(req.Items))
	for _, item := range req.Items {
		ri, err := s.resolveItem(ctx, item)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, ri)
	}

	var invoice model.Invoice
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		number, err := s.repo.NextInvoiceNumber(tx, now)
		if err != nil {
			return err
		}

		invoice = model.Invoice{
			ClientID:      clientID,
			AppointmentID: appointmentID,
			InvoiceNumber: number,
			IssueDate:     now,
			DueDate:       dueDate,
			Status:        model.InvoicePending,
			TaxPercentage: req.TaxPercentage,
			Notes:         req.Notes,
		}
		for _, ri := range resolved {
			invoice.Items = append(invoice.Items, model.InvoiceItem{
				ProductID:          ri.productID,
				Description:        ri.description,
				Quantity:           ri.quantity,
				UnitPrice:          ri.unitPrice,
				DiscountPercentage: ri.discount,
			})
		}
		if err := s.repo.CreateTx(tx, &invoice); err != nil {
			return err
		}

		refType := "invoice"
		for _, ri := range resolved {
			if !ri.consumes {
				continue
			}
			pid := ri.productID.String()
			inv := invoice.ID.String()
			consumeReq := dto.ConsumeStockRequest{
				ProductID:     pid,
				Quantity:      ri.quantity,
				ReferenceID:   &inv,
				ReferenceType: &refType,
			}
			if _, err := s.inventory.ConsumeTx(ctx, tx, userID, consumeReq); err != nil {
				return fmt.Errorf("billing %s: %w", ri.description, err)
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	invoice.Client = client
	return invoiceToResponse(&invoice), nil
}

type resolvedItem struct {
	productID   *uuid.UUID
	description string
	quantity    int
	unitPrice   decimal.Decimal
	discount    decimal.Decimal
	consumes    bool
}

func (s *invoiceService) resolveItem(ctx context.Context, item dto.InvoiceItemRequest) (resolvedItem, error) {
	ri := resolvedItem{
		description: item.Description,
		quantity:    item.Quantity,
		unitPrice:   item.UnitPrice,
		discount:    item.DiscountPercentage,
	}
	if item.ProductID == nil {
		return ri, nil
	}
	pid, err := uuid.Parse(*item.ProductID)
	if err != nil {
		return ri, fmt.Errorf("invalid product_id: %w", err)
	}
	product, err := s.productRepo.FindByID(ctx, pid)
	if err != nil {
		return ri, fmt.Errorf("product %s not found", *item.ProductID)
	}
	if !product.Active {
		return ri, fmt.Errorf("product %s is inactive and cannot be billed", product.Name)
	}
	ri.productID = &pid
	ri.consumes = product.Type != model.ProductService
	if ri.unitPrice.IsZero() {
		ri.unitPrice = product.UnitPrice
	}
	if ri.description == "" {
		ri.description = product.Name
	}
	return ri, nil
}

func (s *invoiceService) AddItem(ctx context.Context, id uuid.UUID, userID uuid.UUID, req dto.InvoiceItemRequest) (*dto.InvoiceResponse, error) {
	invoice, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("invoice not found")
	}
	if invoice.Status != model.InvoiceDraft && invoice.Status != model.InvoicePending {
		return nil, fmt.Errorf("cannot add items to a %s invoice", invoice.Status)
	}

	ri, err := s.resolveItem(ctx, req)
	if err != nil {
		return nil, err
	}

	item := model.InvoiceItem{
		InvoiceID:          invoice.ID,
		ProductID:          ri.productID,
		Description:        ri.description,
		Quantity:           ri.quantity,
		UnitPrice:          ri.unitPrice,
		DiscountPercentage: ri.discount,
	}
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.AddItemTx(tx, &item); err != nil {
			return err
		}
		if !ri.consumes {
			return nil
		}
		refType := "invoice"
		pid := ri.productID.String()
		inv := invoice.ID.String()
		consumeReq := dto.ConsumeStockRequest{
			ProductID:     pid,
			Quantity:      ri.quantity,
			ReferenceID:   &inv,
			ReferenceType: &refType,
		}
		if _, err := s.inventory.ConsumeTx(ctx, tx, userID, consumeReq); err != nil {
			return fmt.Errorf("billing %s: %w", ri.description, err)
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	invoice.Items = append(invoice.Items, item)
	return invoiceToResponse(invoice), nil
}

func (s *invoiceService) Get(ctx context.Context, id uuid.UUID) (*dto.InvoiceResponse, error) {
	invoice, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("invoice not found")
	}
	return invoiceToResponse(invoice), nil
}

func (s *invoiceService) ListByClient(ctx context.Context, clientID uuid.UUID) ([]dto.InvoiceResponse, error) {
	invoices, err := s.repo.FindByClientID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		resp = append(resp, *invoiceToResponse(&invoices[i]))
	}
	return resp, nil
}

func (s *invoiceService) UpdateStatus(ctx context.Context, id uuid.UUID, status model.InvoiceStatus) (*dto.InvoiceResponse, error) {
	invoice, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("invoice not found")
	}
	if !invoiceTransitionAllowed(invoice.Status, status) {
		return nil, fmt.Errorf("cannot move invoice from %s to %s", invoice.Status, status)
	}
	invoice.Status = status
	if err := s.repo.Update(ctx, invoice); err != nil {
		return nil, err
	}
	return invoiceToResponse(invoice), nil
}

func (s *invoiceService) GeneratePDF(ctx context.Context, id uuid.UUID) (string, error) {
	invoice, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return "", errors.New("invoice not found")
	}

	path, err := infra.GenerateInvoicePDF(invoice, s.cfg.ClinicName, s.cfg.PDFStoragePath)
	if err != nil {
		return "", err
	}

	if s.dispatcher != nil && invoice.Client != nil && invoice.Client.Email != nil {
		_ = s.dispatcher.EnqueueInvoiceEmail(ctx, worker.InvoiceEmailPayload{
			InvoiceNumber: invoice.InvoiceNumber,
			ClientEmail:   *invoice.Client.Email,
			ClientName:    invoice.Client.FullName(),
			PDFPath:       path,
			ClinicName:    s.cfg.ClinicName,
		})
	}
	return path, nil
}

func (s *invoiceService) RevenueReport(ctx context.Context, from, to time.Time) (*dto.RevenueReport, error) {
	invoices, err := s.repo.FindByDateRange(ctx, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}

	report := &dto.RevenueReport{
		StartDate:      from.UTC().Format("2006-01-02"),
		EndDate:        to.UTC().Format("2006-01-02"),
		TotalRevenue:   decimal.Zero,
		PendingAmount:  decimal.Zero,
		CollectionRate: decimal.Zero,
	}

	billable := 0
	for i := range invoices {
		inv := &invoices[i]
		if inv.Status == model.InvoiceCancelled || inv.Status == model.InvoiceDraft {
			continue
		}
		report.TotalInvoices++
		billable++
		switch inv.Status {
		case model.InvoicePaid:
			report.PaidInvoices++
			report.TotalRevenue = report.TotalRevenue.Add(inv.TotalAmount())
		default: // pending or overdue
			report.PendingCount++
			report.PendingAmount = report.PendingAmount.Add(inv.TotalAmount())
		}
	}
	if billable > 0 {
		report.CollectionRate = decimal.NewFromInt(int64(report.PaidInvoices)).
			Div(decimal.NewFromInt(int64(billable))).
			Mul(decimal.NewFromInt(100)).
			Round(2)
	}
	return report, nil
}

func (s *invoiceService) Overdue(ctx context.Context) ([]dto.InvoiceResponse, error) {
	invoices, err := s.repo.FindOverdue(ctx, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	resp := make([]dto.InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		resp = append(resp, *invoiceToResponse(&invoices[i]))
	}
	return resp, nil
}

func invoiceToResponse(inv *model.Invoice) *dto.InvoiceResponse {
	resp := &dto.InvoiceResponse{
		ID:            inv.ID.String(),
		ClientID:      inv.ClientID.String(),
		InvoiceNumber: inv.InvoiceNumber,
		IssueDate:     inv.IssueDate.UTC().Format("2006-01-02"),
		DueDate:       inv.DueDate.UTC().Format("2006-01-02"),
		Status:        string(inv.Status),
		TaxPercentage: inv.TaxPercentage,
		Subtotal:      inv.Subtotal(),
		TaxAmount:     inv.TaxAmount(),
		TotalAmount:   inv.TotalAmount(),
		Notes:         inv.Notes,
		Items:         make([]dto.InvoiceItemResponse, 0, len(inv.Items)),
	}
	if inv.Client != nil {
		resp.ClientName = inv.Client.FullName()
	}
	if inv.AppointmentID != nil {
		id := inv.AppointmentID.String()
		resp.AppointmentID = &id
	}
	for i := range inv.Items {
		item := &inv.Items[i]
		ir := dto.InvoiceItemResponse{
			ID:                 item.ID.String(),
			Description:        item.Description,
			Quantity:           item.Quantity,
			UnitPrice:          item.UnitPrice,
			DiscountPercentage: item.DiscountPercentage,
			Total:              item.Total(),
		}
		if item.ProductID != nil {
			pid := item.ProductID.String()
			ir.ProductID = &pid
		}
		resp.Items = append(resp.Items, ir)
	}
	return resp
}
