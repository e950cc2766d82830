package dto

type CreateClientRequest struct {
	FirstName string  `json:"first_name" validate:"required,min=2,max=80"`
	LastName  string  `json:"last_name"  validate:"required,min=2,max=80"`
	Email     *string `json:"email"      validate:"omitempty,email"`
	Phone     string  `json:"phone"      validate:"required,min=6,max=30"`
	Address   *string `json:"address"`
}

type UpdateClientRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,min=2,max=80"`
	LastName  *string `json:"last_name"  validate:"omitempty,min=2,max=80"`
	Email     *string `json:"email"      validate:"omitempty,email"`
	Phone     *string `json:"phone"      validate:"omitempty,min=6,max=30"`
	Address   *string `json:"address"`
}

type ClientFilter struct {
	Search string `form:"search"`
	Active string `form:"active"` // "false" = inactive, "all" = everything, default active
	Page   int    `form:"page,default=1"  validate:"min=1"`
	Limit  int    `form:"limit,default=20" validate:"min=1,max=100"`
}

type ClientResponse struct {
	ID        string  `json:"id"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     *string `json:"email"`
	Phone     string  `json:"phone"`
	Address   *string `json:"address"`
	Active    bool    `json:"active"`
	PetCount  int     `json:"pet_count"`
}

type ClientListResponse struct {
	Data  []ClientResponse `json:"data"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}
