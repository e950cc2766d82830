package repository

import (
	"context"

	"github.com/castaxyz/vetcare-stable/internal/dto"
	"github.com/castaxyz/vetcare-stable/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PetRepository interface {
	Create(ctx context.Context, p *model.Pet) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Pet, error)
	FindByMicrochip(ctx context.Context, microchip string) (*model.Pet, error)
	FindByClientID(ctx context.Context, clientID uuid.UUID) ([]model.Pet, error)
	List(ctx context.Context, filter dto.PetFilter) ([]model.Pet, int64, error)
	Update(ctx context.Context, p *model.Pet) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type petRepo struct{ db *gorm.DB }

func NewPetRepository(db *gorm.DB) PetRepository { return &petRepo{db: db} }

func (r *petRepo) Create(ctx context.Context, p *model.Pet) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *petRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Pet, error) {
	var p model.Pet
	err := r.db.WithContext(ctx).Preload("Client").First(&p, id).Error
	return &p, err
}

func (r *petRepo) FindByMicrochip(ctx context.Context, microchip string) (*model.Pet, error) {
	var p model.Pet
	err := r.db.WithContext(ctx).Preload("Client").
		Where("microchip_number = ?", microchip).First(&p).Error
	return &p, err
}

func (r *petRepo) FindByClientID(ctx context.Context, clientID uuid.UUID) ([]model.Pet, error) {
	var pets []model.Pet
	err := r.db.WithContext(ctx).
		Where("client_id = ? AND active = true", clientID).
		Order("name ASC").Find(&pets).Error
	return pets, err
}

func (r *petRepo) List(ctx context.Context, filter dto.PetFilter) ([]model.Pet, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Pet{})

	switch filter.Active {
	case "false":
		q = q.Where("active = false")
	case "all":
	default:
		q = q.Where("active = true")
	}
	if filter.ClientID != "" {
		q = q.Where("client_id = ?", filter.ClientID)
	}
	if filter.Species != "" {
		q = q.Where("species = ?", filter.Species)
	}
	if filter.Name != "" {
		q = q.Where("name ILIKE ?", "%"+filter.Name+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	var pets []model.Pet
	err := q.Preload("Client").Order("name ASC").Limit(filter.Limit).Offset(offset).Find(&pets).Error
	return pets, total, err
}

func (r *petRepo) Update(ctx context.Context, p *model.Pet) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *petRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Pet{}).Where("id = ?", id).Update("active", false).Error
}
