package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/castaxyz/vetcare-stable/internal/dto"
	"github.com/castaxyz/vetcare-stable/internal/model"
	"github.com/castaxyz/vetcare-stable/internal/repository"

	"github.com/google/uuid"
)

type ProductService interface {
	Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error)
	List(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type productService struct {
	repo         repository.ProductRepository
	categoryRepo repository.CategoryRepository
}

func NewProductService(repo repository.ProductRepository, categoryRepo repository.CategoryRepository) ProductService {
	return &productService{repo: repo, categoryRepo: categoryRepo}
}

func (s *productService) Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if _, err := s.repo.FindBySKU(ctx, req.SKU); err == nil {
		return nil, fmt.Errorf("a product with SKU %s already exists", req.SKU)
	}

	var categoryID *uuid.UUID
	if req.CategoryID != nil {
		parsed, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			return nil, fmt.Errorf("invalid category_id: %w", err)
		}
		if _, err := s.categoryRepo.FindByID(ctx, parsed); err != nil {
			return nil, fmt.Errorf("category %s not found", *req.CategoryID)
		}
		categoryID = &parsed
	}

	productType := model.ProductType(req.Type)
	if productType == model.ProductService && req.ExpirationTracking {
		return nil, errors.New("services cannot track expiration")
	}

	product := &model.Product{
		SKU:                req.SKU,
		Name:               req.Name,
		Description:        req.Description,
		CategoryID:         categoryID,
		Type:               productType,
		UnitPrice:          req.UnitPrice,
		CostPrice:          req.CostPrice,
		MinimumStock:       req.MinimumStock,
		ReorderPoint:       req.ReorderPoint,
		ExpirationTracking: req.ExpirationTracking,
		Active:             true,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	return productToResponse(product), nil
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("product not found")
	}
	return productToResponse(product), nil
}

func (s *productService) List(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		items = append(items, *productToResponse(&products[i]))
	}
	return &dto.ProductListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func (s *productService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("product not found")
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = req.Description
	}
	if req.CategoryID != nil {
		parsed, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			return nil, fmt.Errorf("invalid category_id: %w", err)
		}
		if _, err := s.categoryRepo.FindByID(ctx, parsed); err != nil {
			return nil, fmt.Errorf("category %s not found", *req.CategoryID)
		}
		product.CategoryID = &parsed
		product.Category = nil
	}
	if req.UnitPrice != nil {
		product.UnitPrice = *req.UnitPrice
	}
	if req.CostPrice != nil {
		product.CostPrice = *req.CostPrice
	}
	if req.MinimumStock != nil {
		product.MinimumStock = *req.MinimumStock
	}
	if req.ReorderPoint != nil {
		product.ReorderPoint = *req.ReorderPoint
	}
	if req.ExpirationTracking != nil {
		product.ExpirationTracking = *req.ExpirationTracking
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	return productToResponse(product), nil
}

func (s *productService) Deactivate(ctx context.Context, id uuid.UUID) error {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return errors.New("product not found")
	}
	product.Active = false
	return s.repo.Update(ctx, product)
}

func productToResponse(p *model.Product) *dto.ProductResponse {
	resp := &dto.ProductResponse{
		ID:                 p.ID.String(),
		SKU:                p.SKU,
		Name:               p.Name,
		Description:        p.Description,
		Type:               string(p.Type),
		UnitPrice:          p.UnitPrice,
		CostPrice:          p.CostPrice,
		MinimumStock:       p.MinimumStock,
		ReorderPoint:       p.ReorderPoint,
		ExpirationTracking: p.ExpirationTracking,
		Active:             p.Active,
	}
	if p.CategoryID != nil {
		id := p.CategoryID.String()
		resp.CategoryID = &id
	}
	return resp
}
