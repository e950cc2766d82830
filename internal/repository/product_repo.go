package repository

import (
	"context"

	"github.com/castaxyz/vetcare-stable/internal/dto"
	"github.com/castaxyz/vetcare-stable/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindBySKU(ctx context.Context, sku string) (*model.Product, error)
	List(ctx context.Context, filter dto.ProductFilter) ([]model.Product, int64, error)
	Update(ctx context.Context, p *model.Product) error

	// FindBelowMinimum returns active products whose summed lot quantity is at
	// or below their minimum stock threshold.
	FindBelowMinimum(ctx context.Context) ([]ProductWithTotal, error)

	DB() *gorm.DB
}

type ProductWithTotal struct {
	model.Product
	TotalStock int
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) DB() *gorm.DB { return r.db }

func (r *productRepo) Create(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	if err := r.db.WithContext(ctx).Preload("Category").First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) FindBySKU(ctx context.Context, sku string) (*model.Product, error) {
	var p model.Product
	if err := r.db.WithContext(ctx).First(&p, "sku = ?", sku).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) List(ctx context.Context, filter dto.ProductFilter) ([]model.Product, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Product{}).Preload("Category")
	if filter.SKU != "" {
		q = q.Where("sku = ?", filter.SKU)
	}
	if filter.Name != "" {
		q = q.Where("name ILIKE ?", "%"+filter.Name+"%")
	}
	if filter.CategoryID != "" {
		q = q.Where("category_id = ?", filter.CategoryID)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.Active != "" {
		q = q.Where("active = ?", filter.Active == "true")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	var products []model.Product
	err := q.Order("name ASC").Offset(offset).Limit(filter.Limit).Find(&products).Error
	return products, total, err
}

func (r *productRepo) Update(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *productRepo) FindBelowMinimum(ctx context.Context) ([]ProductWithTotal, error) {
	var rows []ProductWithTotal
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Select("products.*, COALESCE(SUM(stock_lots.current_quantity), 0) AS total_stock").
		Joins("LEFT JOIN stock_lots ON stock_lots.product_id = products.id").
		Where("products.active = true AND products.minimum_stock > 0").
		Group("products.id").
		Having("COALESCE(SUM(stock_lots.current_quantity), 0) <= products.minimum_stock").
		Find(&rows).Error
	return rows, err
}
