package repository

import (
	"context"
	"time"

	"github.com/castaxyz/vetcare-stable/internal/dto"
	"github.com/castaxyz/vetcare-stable/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockRepository covers lots and the movement ledger. Movements are
// append-only: there is deliberately no update or delete for them.
type StockRepository interface {
	FindLotsByProduct(ctx context.Context, productID uuid.UUID) ([]model.StockLot, error)

	// FindLotsByProductTx loads a product's lots inside a transaction with
	// SELECT ... FOR UPDATE row locks, so concurrent allocators serialize on
	// the same product.
	FindLotsByProductTx(tx *gorm.DB, productID uuid.UUID) ([]model.StockLot, error)

	CreateLotTx(tx *gorm.DB, lot *model.StockLot) error
	UpdateLotTx(tx *gorm.DB, lot *model.StockLot) error

	CreateMovementTx(tx *gorm.DB, m *model.StockMovement) error
	ListMovements(ctx context.Context, filter dto.MovementFilter) ([]model.StockMovement, int64, error)

	// FindNearExpiration returns lots with stock remaining that expire on or
	// before the horizon, earliest first.
	FindNearExpiration(ctx context.Context, horizon time.Time) ([]model.StockLot, error)

	// TotalByProduct sums current_quantity across every lot of each given
	// product.
	TotalByProduct(ctx context.Context, productID uuid.UUID) (int, error)

	DB() *gorm.DB
}

type stockRepo struct{ db *gorm.DB }

func NewStockRepository(db *gorm.DB) StockRepository { return &stockRepo{db: db} }

func (r *stockRepo) DB() *gorm.DB { return r.db }

func (r *stockRepo) FindLotsByProduct(ctx context.Context, productID uuid.UUID) ([]model.StockLot, error) {
	var lots []model.StockLot
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("expiration_date ASC NULLS LAST, created_at ASC").
		Find(&lots).Error
	return lots, err
}

func (r *stockRepo) FindLotsByProductTx(tx *gorm.DB, productID uuid.UUID) ([]model.StockLot, error) {
	var lots []model.StockLot
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ?", productID).
		Order("expiration_date ASC NULLS LAST, created_at ASC").
		Find(&lots).Error
	return lots, err
}

func (r *stockRepo) CreateLotTx(tx *gorm.DB, lot *model.StockLot) error {
	return tx.Create(lot).Error
}

func (r *stockRepo) UpdateLotTx(tx *gorm.DB, lot *model.StockLot) error {
	return tx.Save(lot).Error
}

func (r *stockRepo) CreateMovementTx(tx *gorm.DB, m *model.StockMovement) error {
	return tx.Create(m).Error
}

func (r *stockRepo) ListMovements(ctx context.Context, filter dto.MovementFilter) ([]model.StockMovement, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.StockMovement{}).Preload("Product")
	if filter.ProductID != "" {
		q = q.Where("product_id = ?", filter.ProductID)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	var movements []model.StockMovement
	err := q.Order("created_at DESC").Offset(offset).Limit(filter.Limit).Find(&movements).Error
	return movements, total, err
}

func (r *stockRepo) FindNearExpiration(ctx context.Context, horizon time.Time) ([]model.StockLot, error) {
	var lots []model.StockLot
	err := r.db.WithContext(ctx).Preload("Product").
		Where("expiration_date IS NOT NULL AND expiration_date <= ?", horizon).
		Where("current_quantity > 0").
		Order("expiration_date ASC").
		Find(&lots).Error
	return lots, err
}

func (r *stockRepo) TotalByProduct(ctx context.Context, productID uuid.UUID) (int, error) {
	var total *int
	err := r.db.WithContext(ctx).Model(&model.StockLot{}).
		Where("product_id = ?", productID).
		Select("SUM(current_quantity)").Scan(&total).Error
	if err != nil || total == nil {
		return 0, err
	}
	return *total, nil
}
