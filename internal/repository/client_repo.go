package repository

import (
	"context"

	"github.com/castaxyz/vetcare-stable/internal/dto"
	"github.com/castaxyz/vetcare-stable/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClientRepository defines the data access contract for clients.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via stubs.
type ClientRepository interface {
	Create(ctx context.Context, c *model.Client) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Client, error)
	FindByEmail(ctx context.Context, email string) (*model.Client, error)
	List(ctx context.Context, filter dto.ClientFilter) ([]model.Client, int64, error)
	Update(ctx context.Context, c *model.Client) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type clientRepo struct{ db *gorm.DB }

func NewClientRepository(db *gorm.DB) ClientRepository { return &clientRepo{db: db} }

func (r *clientRepo) Create(ctx context.Context, c *model.Client) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *clientRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Client, error) {
	var c model.Client
	err := r.db.WithContext(ctx).Preload("Pets").First(&c, id).Error
	return &c, err
}

func (r *clientRepo) FindByEmail(ctx context.Context, email string) (*model.Client, error) {
	var c model.Client
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&c).Error
	return &c, err
}

func (r *clientRepo) List(ctx context.Context, filter dto.ClientFilter) ([]model.Client, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Client{})

	switch filter.Active {
	case "false":
		q = q.Where("active = false")
	case "all":
		// no filter
	default:
		q = q.Where("active = true")
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("first_name ILIKE ? OR last_name ILIKE ? OR phone ILIKE ?", like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	var clients []model.Client
	err := q.Preload("Pets").Order("last_name ASC, first_name ASC").
		Limit(filter.Limit).Offset(offset).Find(&clients).Error
	return clients, total, err
}

func (r *clientRepo) Update(ctx context.Context, c *model.Client) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *clientRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Client{}).Where("id = ?", id).Update("active", false).Error
}
