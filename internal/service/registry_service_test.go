package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/castaxyz/vetcare-stable/internal/dto"
	"github.com/castaxyz/vetcare-stable/internal/model"
	"github.com/castaxyz/vetcare-stable/internal/repository"
	"github.com/castaxyz/vetcare-stable/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCategoryRepo struct {
	categories map[uuid.UUID]*model.Category
}

func newStubCategoryRepo() *stubCategoryRepo {
	return &stubCategoryRepo{categories: make(map[uuid.UUID]*model.Category)}
}

func (r *stubCategoryRepo) Create(_ context.Context, c *model.Category) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.categories[c.ID] = c
	return nil
}

func (r *stubCategoryRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Category, error) {
	c, ok := r.categories[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return c, nil
}

func (r *stubCategoryRepo) List(_ context.Context) ([]model.Category, error) {
	var result []model.Category
	for _, c := range r.categories {
		result = append(result, *c)
	}
	return result, nil
}

func (r *stubCategoryRepo) Update(_ context.Context, c *model.Category) error {
	r.categories[c.ID] = c
	return nil
}

var _ repository.CategoryRepository = (*stubCategoryRepo)(nil)

// ── Clients ───────────────────────────────────────────────────────────────────

func TestCreateClientRejectsDuplicateEmail(t *testing.T) {
	repo := newStubClientRepo()
	svc := service.NewClientService(repo)

	email := "ana@example.com"
	_, err := svc.Create(context.Background(), dto.CreateClientRequest{
		FirstName: "Ana", LastName: "Castro", Email: &email, Phone: "555-0101",
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), dto.CreateClientRequest{
		FirstName: "Another", LastName: "Person", Email: &email, Phone: "555-0102",
	})
	assert.ErrorContains(t, err, "already exists")
}

func TestDeactivateClientSoftDeletes(t *testing.T) {
	repo := newStubClientRepo()
	svc := service.NewClientService(repo)

	resp, err := svc.Create(context.Background(), dto.CreateClientRequest{
		FirstName: "Ana", LastName: "Castro", Phone: "555-0101",
	})
	require.NoError(t, err)

	id := uuid.MustParse(resp.ID)
	require.NoError(t, svc.Deactivate(context.Background(), id))
	assert.False(t, repo.clients[id].Active)

	// Record survives: history stays queryable after deactivation.
	got, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, got.Active)
}

// ── Pets ──────────────────────────────────────────────────────────────────────

func petFixture(t *testing.T) (service.PetService, *stubPetRepo, *model.Client) {
	t.Helper()
	pets := newStubPetRepo()
	clients := newStubClientRepo()
	client := &model.Client{ID: uuid.New(), FirstName: "Ana", LastName: "Castro", Phone: "555-0101", Active: true}
	clients.clients[client.ID] = client
	return service.NewPetService(pets, clients), pets, client
}

func TestCreatePetForInactiveClient(t *testing.T) {
	svc, _, client := petFixture(t)
	client.Active = false

	_, err := svc.Create(context.Background(), dto.CreatePetRequest{
		Name: "Rocky", Species: "dog", ClientID: client.ID.String(),
	})
	assert.ErrorContains(t, err, "inactive client")
}

func TestCreatePetRejectsDuplicateMicrochip(t *testing.T) {
	svc, _, client := petFixture(t)
	chip := "9812345678901234"

	_, err := svc.Create(context.Background(), dto.CreatePetRequest{
		Name: "Rocky", Species: "dog", ClientID: client.ID.String(), MicrochipNumber: &chip,
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), dto.CreatePetRequest{
		Name: "Luna", Species: "cat", ClientID: client.ID.String(), MicrochipNumber: &chip,
	})
	assert.ErrorContains(t, err, "microchip number already exists")
}

func TestCreatePetComputesAgeAndDefaultsGender(t *testing.T) {
	svc, _, client := petFixture(t)
	birth := time.Now().UTC().AddDate(-3, -1, 0).Format("2006-01-02")

	resp, err := svc.Create(context.Background(), dto.CreatePetRequest{
		Name: "Rocky", Species: "dog", ClientID: client.ID.String(), BirthDate: &birth,
	})
	require.NoError(t, err)

	require.NotNil(t, resp.AgeYears)
	assert.Equal(t, 3, *resp.AgeYears)
	assert.Equal(t, "unknown", resp.Gender)
	assert.Equal(t, "Ana Castro", resp.OwnerName)
}

func TestTransferPetToAnotherOwner(t *testing.T) {
	svc, pets, client := petFixture(t)

	resp, err := svc.Create(context.Background(), dto.CreatePetRequest{
		Name: "Rocky", Species: "dog", ClientID: client.ID.String(),
	})
	require.NoError(t, err)
	petID := uuid.MustParse(resp.ID)

	_, err = svc.Update(context.Background(), petID, dto.UpdatePetRequest{
		ClientID: strPtr(uuid.NewString()),
	})
	assert.ErrorContains(t, err, "not found", "transfers require an existing client")

	assert.Equal(t, client.ID, pets.pets[petID].ClientID, "failed transfer leaves ownership unchanged")
}

// ── Products / categories ─────────────────────────────────────────────────────

func productFixture(t *testing.T) (service.ProductService, *stubProductRepo, *stubCategoryRepo) {
	t.Helper()
	products := newStubProductRepo(nil)
	categories := newStubCategoryRepo()
	return service.NewProductService(products, categories), products, categories
}

func TestCreateProductRejectsDuplicateSKU(t *testing.T) {
	svc, _, _ := productFixture(t)

	req := dto.CreateProductRequest{
		SKU: "AMOX-500", Name: "Amoxicillin 500mg", Type: "medication",
		UnitPrice: decimal.NewFromInt(12), CostPrice: decimal.NewFromInt(6),
	}
	_, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	req.Name = "Different name, same SKU"
	_, err = svc.Create(context.Background(), req)
	assert.ErrorContains(t, err, "already exists")
}

func TestCreateServiceProductCannotTrackExpiration(t *testing.T) {
	svc, _, _ := productFixture(t)

	_, err := svc.Create(context.Background(), dto.CreateProductRequest{
		SKU: "CONSULT-GEN", Name: "General consultation", Type: "service",
		UnitPrice: decimal.NewFromInt(40), CostPrice: decimal.Zero,
		ExpirationTracking: true,
	})
	assert.ErrorContains(t, err, "services cannot track expiration")
}

func TestCreateProductValidatesCategory(t *testing.T) {
	svc, _, categories := productFixture(t)

	missing := uuid.NewString()
	_, err := svc.Create(context.Background(), dto.CreateProductRequest{
		SKU: "FOOD-CAT", Name: "Cat food 5kg", Type: "food", CategoryID: &missing,
		UnitPrice: decimal.NewFromInt(30), CostPrice: decimal.NewFromInt(18),
	})
	assert.ErrorContains(t, err, "not found")

	cat := &model.Category{ID: uuid.New(), Name: "Food", Active: true}
	categories.categories[cat.ID] = cat
	catID := cat.ID.String()

	resp, err := svc.Create(context.Background(), dto.CreateProductRequest{
		SKU: "FOOD-CAT", Name: "Cat food 5kg", Type: "food", CategoryID: &catID,
		UnitPrice: decimal.NewFromInt(30), CostPrice: decimal.NewFromInt(18),
	})
	require.NoError(t, err)
	require.NotNil(t, resp.CategoryID)
	assert.Equal(t, catID, *resp.CategoryID)
}

func TestDeactivateProduct(t *testing.T) {
	svc, products, _ := productFixture(t)

	resp, err := svc.Create(context.Background(), dto.CreateProductRequest{
		SKU: "OLD-1", Name: "Phased out", Type: "supply",
		UnitPrice: decimal.NewFromInt(5), CostPrice: decimal.NewFromInt(2),
	})
	require.NoError(t, err)

	id := uuid.MustParse(resp.ID)
	require.NoError(t, svc.Deactivate(context.Background(), id))
	assert.False(t, products.products[id].Active)
}

func TestCategoryLifecycle(t *testing.T) {
	categories := newStubCategoryRepo()
	svc := service.NewCategoryService(categories)

	resp, err := svc.Create(context.Background(), dto.CreateCategoryRequest{Name: "Medication"})
	require.NoError(t, err)
	assert.True(t, resp.Active)

	newName := "Medications"
	updated, err := svc.Update(context.Background(), uuid.MustParse(resp.ID), dto.UpdateCategoryRequest{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, "Medications", updated.Name)

	require.NoError(t, svc.Deactivate(context.Background(), uuid.MustParse(resp.ID)))
	assert.False(t, categories.categories[uuid.MustParse(resp.ID)].Active)
}
