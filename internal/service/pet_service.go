package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/castaxyz/vetcare-stable/internal/dto"
	"github.com/castaxyz/vetcare-stable/internal/model"
	"github.com/castaxyz/vetcare-stable/internal/repository"

	"github.com/google/uuid"
)

type PetService interface {
	Create(ctx context.Context, req dto.CreatePetRequest) (*dto.PetResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.PetResponse, error)
	List(ctx context.Context, filter dto.PetFilter) (*dto.PetListResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdatePetRequest) (*dto.PetResponse, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type petService struct {
	repo       repository.PetRepository
	clientRepo repository.ClientRepository
}

func NewPetService(repo repository.PetRepository, clientRepo repository.ClientRepository) PetService {
	return &petService{repo: repo, clientRepo: clientRepo}
}

func parseBirthDate(raw *string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *raw)
	if err != nil {
		return nil, fmt.Errorf("invalid birth_date: %w", err)
	}
	t = t.UTC()
	return &t, nil
}

func (s *petService) Create(ctx context.Context, req dto.CreatePetRequest) (*dto.PetResponse, error) {
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return nil, fmt.Errorf("invalid client_id: %w", err)
	}
	client, err := s.clientRepo.FindByID(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("client %s not found", req.ClientID)
	}
	if !client.Active {
		return nil, errors.New("cannot register a pet for an inactive client")
	}

	if req.MicrochipNumber != nil && *req.MicrochipNumber != "" {
		if _, err := s.repo.FindByMicrochip(ctx, *req.MicrochipNumber); err == nil {
			return nil, errors.New("a pet with this microchip number already exists")
		}
	}

	birthDate, err := parseBirthDate(req.BirthDate)
	if err != nil {
		return nil, err
	}

	gender := model.GenderUnknown
	if req.Gender != "" {
		gender = model.PetGender(req.Gender)
	}

	pet := &model.Pet{
		Name:            req.Name,
		Species:         model.PetSpecies(req.Species),
		Breed:           req.Breed,
		BirthDate:       birthDate,
		Gender:          gender,
		Color:           req.Color,
		WeightKg:        req.WeightKg,
		MicrochipNumber: req.MicrochipNumber,
		ClientID:        clientID,
		Active:          true,
	}
	if err := s.repo.Create(ctx, pet); err != nil {
		return nil, err
	}
	pet.Client = client
	return petToResponse(pet), nil
}

func (s *petService) Get(ctx context.Context, id uuid.UUID) (*dto.PetResponse, error) {
	pet, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("pet not found")
	}
	return petToResponse(pet), nil
}

func (s *petService) List(ctx context.Context, filter dto.PetFilter) (*dto.PetListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	pets, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.PetResponse, 0, len(pets))
	for i := range pets {
		items = append(items, *petToResponse(&pets[i]))
	}
	return &dto.PetListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func (s *petService) Update(ctx context.Context, id uuid.UUID, req dto.UpdatePetRequest) (*dto.PetResponse, error) {
	pet, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("pet not found")
	}

	if req.Name != nil {
		pet.Name = *req.Name
	}
	if req.Breed != nil {
		pet.Breed = req.Breed
	}
	if req.BirthDate != nil {
		birthDate, err := parseBirthDate(req.BirthDate)
		if err != nil {
			return nil, err
		}
		pet.BirthDate = birthDate
	}
	if req.Gender != nil {
		pet.Gender = model.PetGender(*req.Gender)
	}
	if req.Color != nil {
		pet.Color = req.Color
	}
	if req.WeightKg != nil {
		pet.WeightKg = req.WeightKg
	}
	if req.MicrochipNumber != nil {
		pet.MicrochipNumber = req.MicrochipNumber
	}
	if req.ClientID != nil {
		newOwner, err := uuid.Parse(*req.ClientID)
		if err != nil {
			return nil, fmt.Errorf("invalid client_id: %w", err)
		}
		if _, err := s.clientRepo.FindByID(ctx, newOwner); err != nil {
			return nil, fmt.Errorf("client %s not found", *req.ClientID)
		}
		pet.ClientID = newOwner
		pet.Client = nil
	}

	if err := s.repo.Update(ctx, pet); err != nil {
		return nil, err
	}
	return petToResponse(pet), nil
}

func (s *petService) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.repo.SoftDelete(ctx, id)
}

func petToResponse(p *model.Pet) *dto.PetResponse {
	resp := &dto.PetResponse{
		ID:              p.ID.String(),
		Name:            p.Name,
		Species:         string(p.Species),
		Breed:           p.Breed,
		AgeYears:        p.AgeYears(time.Now().UTC()),
		Gender:          string(p.Gender),
		Color:           p.Color,
		WeightKg:        p.WeightKg,
		MicrochipNumber: p.MicrochipNumber,
		ClientID:        p.ClientID.String(),
		Active:          p.Active,
	}
	if p.BirthDate != nil {
		d := p.BirthDate.Format("2006-01-02")
		resp.BirthDate = &d
	}
	if p.Client != nil {
		resp.OwnerName = p.Client.FullName()
	}
	return resp
}
