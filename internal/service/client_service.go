package service

import (
	"context"
	"errors"

	"github.com/castaxyz/vetcare-stable/internal/dto"
	"github.com/castaxyz/vetcare-stable/internal/model"
	"github.com/castaxyz/vetcare-stable/internal/repository"

	"github.com/google/uuid"
)

type ClientService interface {
	Create(ctx context.Context, req dto.CreateClientRequest) (*dto.ClientResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.ClientResponse, error)
	List(ctx context.Context, filter dto.ClientFilter) (*dto.ClientListResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateClientRequest) (*dto.ClientResponse, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type clientService struct {
	repo repository.ClientRepository
}

func NewClientService(repo repository.ClientRepository) ClientService {
	return &clientService{repo: repo}
}

func (s *clientService) Create(ctx context.Context, req dto.CreateClientRequest) (*dto.ClientResponse, error) {
	if req.Email != nil {
		if _, err := s.repo.FindByEmail(ctx, *req.Email); err == nil {
			return nil, errors.New("a client with this email already exists")
		}
	}
	client := &model.Client{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
		Active:    true,
	}
	if err := s.repo.Create(ctx, client); err != nil {
		return nil, err
	}
	return clientToResponse(client), nil
}

func (s *clientService) Get(ctx context.Context, id uuid.UUID) (*dto.ClientResponse, error) {
	client, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("client not found")
	}
	return clientToResponse(client), nil
}

func (s *clientService) List(ctx context.Context, filter dto.ClientFilter) (*dto.ClientListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	clients, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ClientResponse, 0, len(clients))
	for i := range clients {
		items = append(items, *clientToResponse(&clients[i]))
	}
	return &dto.ClientListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func (s *clientService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateClientRequest) (*dto.ClientResponse, error) {
	client, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("client not found")
	}
	if req.FirstName != nil {
		client.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		client.LastName = *req.LastName
	}
	if req.Email != nil {
		client.Email = req.Email
	}
	if req.Phone != nil {
		client.Phone = *req.Phone
	}
	if req.Address != nil {
		client.Address = req.Address
	}
	if err := s.repo.Update(ctx, client); err != nil {
		return nil, err
	}
	return clientToResponse(client), nil
}

func (s *clientService) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.repo.SoftDelete(ctx, id)
}

func clientToResponse(c *model.Client) *dto.ClientResponse {
	return &dto.ClientResponse{
		ID:        c.ID.String(),
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Phone:     c.Phone,
		Address:   c.Address,
		Active:    c.Active,
		PetCount:  len(c.Pets),
	}
}
