package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/castaxyz/vetcare-stable/internal/config"
	"github.com/castaxyz/vetcare-stable/internal/dto"
	"github.com/castaxyz/vetcare-stable/internal/model"
	"github.com/castaxyz/vetcare-stable/internal/repository"
	"github.com/castaxyz/vetcare-stable/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── In-memory InvoiceRepository stub ─────────────────────────────────────────

type stubInvoiceRepo struct {
	invoices map[uuid.UUID]*model.Invoice
	counter  int
}

func newStubInvoiceRepo() *stubInvoiceRepo {
	return &stubInvoiceRepo{invoices: make(map[uuid.UUID]*model.Invoice)}
}

func (r *stubInvoiceRepo) CreateTx(_ *gorm.DB, inv *model.Invoice) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	for i := range inv.Items {
		if inv.Items[i].ID == uuid.Nil {
			inv.Items[i].ID = uuid.New()
		}
		inv.Items[i].InvoiceID = inv.ID
	}
	copied := *inv
	r.invoices[inv.ID] = &copied
	return nil
}

func (r *stubInvoiceRepo) AddItemTx(_ *gorm.DB, item *model.InvoiceItem) error {
	inv, ok := r.invoices[item.InvoiceID]
	if !ok {
		return errors.New("record not found")
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	inv.Items = append(inv.Items, *item)
	return nil
}

func (r *stubInvoiceRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	copied := *inv
	return &copied, nil
}

func (r *stubInvoiceRepo) FindByNumber(_ context.Context, number string) (*model.Invoice, error) {
	for _, inv := range r.invoices {
		if inv.InvoiceNumber == number {
			copied := *inv
			return &copied, nil
		}
	}
	return nil, errors.New("record not found")
}

func (r *stubInvoiceRepo) FindByClientID(_ context.Context, clientID uuid.UUID) ([]model.Invoice, error) {
	var result []model.Invoice
	for _, inv := range r.invoices {
		if inv.ClientID == clientID {
			result = append(result, *inv)
		}
	}
	return result, nil
}

func (r *stubInvoiceRepo) FindByDateRange(_ context.Context, from, to time.Time) ([]model.Invoice, error) {
	var result []model.Invoice
	for _, inv := range r.invoices {
		if !inv.IssueDate.Before(from) && inv.IssueDate.Before(to) {
			result = append(result, *inv)
		}
	}
	return result, nil
}

func (r *stubInvoiceRepo) FindOverdue(_ context.Context, now time.Time) ([]model.Invoice, error) {
	var result []model.Invoice
	for _, inv := range r.invoices {
		if inv.Status == model.InvoicePending && inv.DueDate.Before(now) {
			result = append(result, *inv)
		}
	}
	return result, nil
}

func (r *stubInvoiceRepo) Update(_ context.Context, inv *model.Invoice) error {
	if _, ok := r.invoices[inv.ID]; !ok {
		return errors.New("record not found")
	}
	copied := *inv
	r.invoices[inv.ID] = &copied
	return nil
}

func (r *stubInvoiceRepo) NextInvoiceNumber(_ *gorm.DB, now time.Time) (string, error) {
	r.counter++
	return fmt.Sprintf("INV-%d-%06d", now.Year(), r.counter), nil
}

func (r *stubInvoiceRepo) DB() *gorm.DB { return nil }

var _ repository.InvoiceRepository = (*stubInvoiceRepo)(nil)

// ── Fixtures ──────────────────────────────────────────────────────────────────

type invoiceFixture struct {
	svc          service.InvoiceService
	repo         *stubInvoiceRepo
	stock        *stubStockRepo
	products     *stubProductRepo
	clients      *stubClientRepo
	appointments *stubAppointmentRepo
	client       *model.Client
}

func newInvoiceFixture(t *testing.T) *invoiceFixture {
	t.Helper()
	f := &invoiceFixture{
		repo:         newStubInvoiceRepo(),
		stock:        newStubStockRepo(),
		clients:      newStubClientRepo(),
		appointments: newStubAppointmentRepo(),
	}
	f.products = newStubProductRepo(f.stock)
	inventory := service.NewInventoryService(f.stock, f.products)
	cfg := &config.Config{ClinicName: "Test Clinic", PDFStoragePath: t.TempDir()}
	f.svc = service.NewInvoiceService(f.repo, f.clients, f.products, f.appointments, inventory, nil, cfg)

	f.client = &model.Client{ID: uuid.New(), FirstName: "Ana", LastName: "Castro", Phone: "555-0101", Active: true}
	f.clients.clients[f.client.ID] = f.client
	return f
}

// ── Creation ──────────────────────────────────────────────────────────────────

func TestCreateInvoiceConsumesStock(t *testing.T) {
	f := newInvoiceFixture(t)
	p := seedProduct(f.products, "FLEA-TAB", "Flea tablets", model.ProductMedication, false)
	lot := seedLot(f.stock, p.ID, 10, nil)
	pid := p.ID.String()

	resp, err := f.svc.Create(context.Background(), uuid.New(), dto.CreateInvoiceRequest{
		ClientID: f.client.ID.String(),
		Items: []dto.InvoiceItemRequest{
			{ProductID: &pid, Description: "Flea tablets", Quantity: 3},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, 7, f.stock.lots[lot.ID].CurrentQuantity, "stocked product lines draw down inventory")

	require.Len(t, f.stock.movements, 1)
	m := f.stock.movements[0]
	assert.Equal(t, model.MovementSale, m.Type)
	assert.Equal(t, -3, m.Quantity)
	require.NotNil(t, m.ReferenceType)
	assert.Equal(t, "invoice", *m.ReferenceType)
	require.NotNil(t, m.ReferenceID)
	assert.Equal(t, resp.ID, m.ReferenceID.String())
}

func TestCreateInvoiceInsufficientStockFails(t *testing.T) {
	f := newInvoiceFixture(t)
	p := seedProduct(f.products, "ANTIB-50", "Antibiotic 50mg", model.ProductMedication, false)
	seedLot(f.stock, p.ID, 2, nil)
	pid := p.ID.String()

	_, err := f.svc.Create(context.Background(), uuid.New(), dto.CreateInvoiceRequest{
		ClientID: f.client.ID.String(),
		Items: []dto.InvoiceItemRequest{
			{ProductID: &pid, Description: "Antibiotic 50mg", Quantity: 5},
		},
	})

	var insufficient *service.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Empty(t, f.stock.movements, "failed billing leaves no ledger entry")
}

func TestCreateInvoiceServiceLineSkipsStock(t *testing.T) {
	f := newInvoiceFixture(t)
	consult := seedProduct(f.products, "CONSULT-GEN", "General consultation", model.ProductService, false)
	consult.UnitPrice = decimal.NewFromInt(40)
	pid := consult.ID.String()

	resp, err := f.svc.Create(context.Background(), uuid.New(), dto.CreateInvoiceRequest{
		ClientID: f.client.ID.String(),
		Items: []dto.InvoiceItemRequest{
			{ProductID: &pid, Description: "General consultation", Quantity: 1},
		},
	})
	require.NoError(t, err)

	assert.Empty(t, f.stock.movements, "service lines never touch inventory")
	assert.True(t, resp.TotalAmount.Equal(decimal.NewFromInt(40)), "line inherits the product price")
}

func TestCreateInvoiceInheritsProductPriceAndName(t *testing.T) {
	f := newInvoiceFixture(t)
	p := seedProduct(f.products, "SHAMPOO-M", "Medicated shampoo", model.ProductSupply, false)
	p.UnitPrice = decimal.NewFromFloat(18.50)
	seedLot(f.stock, p.ID, 5, nil)
	pid := p.ID.String()

	resp, err := f.svc.Create(context.Background(), uuid.New(), dto.CreateInvoiceRequest{
		ClientID: f.client.ID.String(),
		Items: []dto.InvoiceItemRequest{
			{ProductID: &pid, Description: "Medicated shampoo", Quantity: 2},
		},
	})
	require.NoError(t, err)

	require.Len(t, resp.Items, 1)
	assert.True(t, resp.Items[0].UnitPrice.Equal(decimal.NewFromFloat(18.50)))
	assert.True(t, resp.Subtotal.Equal(decimal.NewFromInt(37)))
}

func TestCreateInvoiceTotalsWithTaxAndDiscount(t *testing.T) {
	f := newInvoiceFixture(t)

	// free-form line: 4 × 25.00 with 10% off = 90.00; 21% tax → 108.90
	resp, err := f.svc.Create(context.Background(), uuid.New(), dto.CreateInvoiceRequest{
		ClientID:      f.client.ID.String(),
		TaxPercentage: decimal.NewFromInt(21),
		Items: []dto.InvoiceItemRequest{
			{
				Description:        "Post-surgery care kit",
				Quantity:           4,
				UnitPrice:          decimal.NewFromInt(25),
				DiscountPercentage: decimal.NewFromInt(10),
			},
		},
	})
	require.NoError(t, err)

	assert.True(t, resp.Subtotal.Equal(decimal.NewFromInt(90)), "subtotal %s", resp.Subtotal)
	assert.True(t, resp.TaxAmount.Equal(decimal.NewFromFloat(18.9)), "tax %s", resp.TaxAmount)
	assert.True(t, resp.TotalAmount.Equal(decimal.NewFromFloat(108.9)), "total %s", resp.TotalAmount)
}

func TestCreateInvoiceNumbersAreSequentialPerYear(t *testing.T) {
	f := newInvoiceFixture(t)
	year := time.Now().UTC().Year()

	for i := 1; i <= 3; i++ {
		resp, err := f.svc.Create(context.Background(), uuid.New(), dto.CreateInvoiceRequest{
			ClientID: f.client.ID.String(),
			Items: []dto.InvoiceItemRequest{
				{Description: "Nail trim", Quantity: 1, UnitPrice: decimal.NewFromInt(15)},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("INV-%d-%06d", year, i), resp.InvoiceNumber)
	}
}

func TestCreateInvoiceRejectsEmptyItems(t *testing.T) {
	f := newInvoiceFixture(t)

	_, err := f.svc.Create(context.Background(), uuid.New(), dto.CreateInvoiceRequest{
		ClientID: f.client.ID.String(),
	})
	assert.ErrorContains(t, err, "at least one item")
}

func TestCreateInvoiceRejectsInactiveProduct(t *testing.T) {
	f := newInvoiceFixture(t)
	p := seedProduct(f.products, "OLD-FOOD", "Discontinued food", model.ProductFood, false)
	p.Active = false
	pid := p.ID.String()

	_, err := f.svc.Create(context.Background(), uuid.New(), dto.CreateInvoiceRequest{
		ClientID: f.client.ID.String(),
		Items: []dto.InvoiceItemRequest{
			{ProductID: &pid, Description: "Discontinued food", Quantity: 1},
		},
	})
	assert.ErrorContains(t, err, "inactive")
}

func TestCreateInvoiceLinkedAppointmentMustMatchClient(t *testing.T) {
	f := newInvoiceFixture(t)

	stranger := &model.Client{ID: uuid.New(), FirstName: "Benito", LastName: "Ortiz", Phone: "555-0202", Active: true}
	f.clients.clients[stranger.ID] = stranger

	appt := &model.Appointment{
		ID:     uuid.New(),
		PetID:  uuid.New(),
		Status: model.StatusCompleted,
		Pet:    &model.Pet{ID: uuid.New(), Name: "Luna", Species: model.SpeciesCat, ClientID: stranger.ID},
	}
	f.appointments.appointments[appt.ID] = appt
	aid := appt.ID.String()

	_, err := f.svc.Create(context.Background(), uuid.New(), dto.CreateInvoiceRequest{
		ClientID:      f.client.ID.String(),
		AppointmentID: &aid,
		Items: []dto.InvoiceItemRequest{
			{Description: "Checkup", Quantity: 1, UnitPrice: decimal.NewFromInt(40)},
		},
	})
	assert.ErrorContains(t, err, "different client")
}

func TestCreateInvoiceLinkedAppointmentAccepted(t *testing.T) {
	f := newInvoiceFixture(t)

	appt := &model.Appointment{
		ID:     uuid.New(),
		PetID:  uuid.New(),
		Status: model.StatusCompleted,
		Pet:    &model.Pet{ID: uuid.New(), Name: "Rocky", Species: model.SpeciesDog, ClientID: f.client.ID},
	}
	f.appointments.appointments[appt.ID] = appt
	aid := appt.ID.String()

	resp, err := f.svc.Create(context.Background(), uuid.New(), dto.CreateInvoiceRequest{
		ClientID:      f.client.ID.String(),
		AppointmentID: &aid,
		Items: []dto.InvoiceItemRequest{
			{Description: "Checkup", Quantity: 1, UnitPrice: decimal.NewFromInt(40)},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, resp.AppointmentID)
	assert.Equal(t, aid, *resp.AppointmentID)
}

// ── Adding items ──────────────────────────────────────────────────────────────

func TestAddItemToPendingInvoiceConsumesStock(t *testing.T) {
	f := newInvoiceFixture(t)
	p := seedProduct(f.products, "VACC-RAB", "Rabies vaccine", model.ProductMedication, false)
	p.UnitPrice = decimal.NewFromInt(30)
	lot := seedLot(f.stock, p.ID, 6, nil)
	pid := p.ID.String()

	created, err := f.svc.Create(context.Background(), uuid.New(), dto.CreateInvoiceRequest{
		ClientID: f.client.ID.String(),
		Items: []dto.InvoiceItemRequest{
			{Description: "Vaccination visit", Quantity: 1, UnitPrice: decimal.NewFromInt(20)},
		},
	})
	require.NoError(t, err)

	id := uuid.MustParse(created.ID)
	resp, err := f.svc.AddItem(context.Background(), id, uuid.New(), dto.InvoiceItemRequest{
		ProductID: &pid, Description: "Rabies vaccine", Quantity: 2,
	})
	require.NoError(t, err)

	require.Len(t, resp.Items, 2)
	assert.True(t, resp.TotalAmount.Equal(decimal.NewFromInt(80)), "total %s", resp.TotalAmount)
	assert.Equal(t, 4, f.stock.lots[lot.ID].CurrentQuantity)

	require.Len(t, f.stock.movements, 1)
	assert.Equal(t, -2, f.stock.movements[0].Quantity)
}

func TestAddItemToPaidInvoiceRejected(t *testing.T) {
	f := newInvoiceFixture(t)
	inv := &model.Invoice{
		ID:            uuid.New(),
		ClientID:      f.client.ID,
		InvoiceNumber: "INV-2026-000009",
		IssueDate:     time.Now().UTC(),
		DueDate:       time.Now().UTC().AddDate(0, 0, 30),
		Status:        model.InvoicePaid,
	}
	f.repo.invoices[inv.ID] = inv

	_, err := f.svc.AddItem(context.Background(), inv.ID, uuid.New(), dto.InvoiceItemRequest{
		Description: "Late add-on", Quantity: 1, UnitPrice: decimal.NewFromInt(10),
	})
	assert.ErrorContains(t, err, "cannot add items to a paid invoice")
}

// ── Status transitions ────────────────────────────────────────────────────────

func TestInvoiceStatusTransitions(t *testing.T) {
	cases := []struct {
		from model.InvoiceStatus
		to   model.InvoiceStatus
		ok   bool
	}{
		{model.InvoiceDraft, model.InvoicePending, true},
		{model.InvoiceDraft, model.InvoiceCancelled, true},
		{model.InvoiceDraft, model.InvoicePaid, false},
		{model.InvoicePending, model.InvoicePaid, true},
		{model.InvoicePending, model.InvoiceOverdue, true},
		{model.InvoicePending, model.InvoiceCancelled, true},
		{model.InvoiceOverdue, model.InvoicePaid, true},
		{model.InvoicePaid, model.InvoiceCancelled, false},
		{model.InvoiceCancelled, model.InvoicePending, false},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s to %s", tc.from, tc.to), func(t *testing.T) {
			f := newInvoiceFixture(t)
			inv := &model.Invoice{
				ID:            uuid.New(),
				ClientID:      f.client.ID,
				InvoiceNumber: "INV-2026-000001",
				IssueDate:     time.Now().UTC(),
				DueDate:       time.Now().UTC().AddDate(0, 0, 30),
				Status:        tc.from,
			}
			f.repo.invoices[inv.ID] = inv

			resp, err := f.svc.UpdateStatus(context.Background(), inv.ID, tc.to)
			if tc.ok {
				require.NoError(t, err)
				assert.Equal(t, string(tc.to), resp.Status)
			} else {
				assert.ErrorContains(t, err, "cannot move invoice")
			}
		})
	}
}

// ── Reports ───────────────────────────────────────────────────────────────────

func seedInvoice(repo *stubInvoiceRepo, clientID uuid.UUID, status model.InvoiceStatus, amount int64, issued time.Time) {
	inv := &model.Invoice{
		ID:            uuid.New(),
		ClientID:      clientID,
		InvoiceNumber: fmt.Sprintf("INV-%d-%06d", issued.Year(), len(repo.invoices)+1),
		IssueDate:     issued,
		DueDate:       issued.AddDate(0, 0, 30),
		Status:        status,
		Items: []model.InvoiceItem{
			{ID: uuid.New(), Description: "line", Quantity: 1, UnitPrice: decimal.NewFromInt(amount)},
		},
	}
	repo.invoices[inv.ID] = inv
}

func TestRevenueReport(t *testing.T) {
	f := newInvoiceFixture(t)
	mid := time.Date(2026, time.May, 15, 12, 0, 0, 0, time.UTC)

	seedInvoice(f.repo, f.client.ID, model.InvoicePaid, 100, mid)
	seedInvoice(f.repo, f.client.ID, model.InvoicePaid, 50, mid)
	seedInvoice(f.repo, f.client.ID, model.InvoicePending, 80, mid)
	seedInvoice(f.repo, f.client.ID, model.InvoiceOverdue, 20, mid)
	seedInvoice(f.repo, f.client.ID, model.InvoiceCancelled, 999, mid)
	seedInvoice(f.repo, f.client.ID, model.InvoiceDraft, 999, mid)
	// outside the range
	seedInvoice(f.repo, f.client.ID, model.InvoicePaid, 999, mid.AddDate(0, 2, 0))

	from := time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	report, err := f.svc.RevenueReport(context.Background(), from, to)
	require.NoError(t, err)

	assert.Equal(t, 4, report.TotalInvoices, "cancelled and draft invoices are skipped")
	assert.Equal(t, 2, report.PaidInvoices)
	assert.Equal(t, 2, report.PendingCount)
	assert.True(t, report.TotalRevenue.Equal(decimal.NewFromInt(150)), "revenue %s", report.TotalRevenue)
	assert.True(t, report.PendingAmount.Equal(decimal.NewFromInt(100)), "pending %s", report.PendingAmount)
	assert.True(t, report.CollectionRate.Equal(decimal.NewFromInt(50)), "rate %s", report.CollectionRate)
}

func TestOverdueInvoices(t *testing.T) {
	f := newInvoiceFixture(t)
	past := time.Now().UTC().AddDate(0, -2, 0)
	recent := time.Now().UTC().AddDate(0, 0, -5)

	seedInvoice(f.repo, f.client.ID, model.InvoicePending, 60, past)   // due date long gone
	seedInvoice(f.repo, f.client.ID, model.InvoicePending, 40, recent) // still within terms
	seedInvoice(f.repo, f.client.ID, model.InvoicePaid, 75, past)

	overdue, err := f.svc.Overdue(context.Background())
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.True(t, overdue[0].TotalAmount.Equal(decimal.NewFromInt(60)))
}
