package dto

type CreatePetRequest struct {
	Name            string   `json:"name"             validate:"required,min=1,max=80"`
	Species         string   `json:"species"          validate:"required,oneof=dog cat bird rabbit hamster other"`
	Breed           *string  `json:"breed"`
	BirthDate       *string  `json:"birth_date"       validate:"omitempty,datetime=2006-01-02"`
	Gender          string   `json:"gender"           validate:"omitempty,oneof=male female unknown"`
	Color           *string  `json:"color"`
	WeightKg        *float64 `json:"weight_kg"        validate:"omitempty,gt=0"`
	MicrochipNumber *string  `json:"microchip_number"`
	ClientID        string   `json:"client_id"        validate:"required,uuid"`
}

type UpdatePetRequest struct {
	Name            *string  `json:"name"             validate:"omitempty,min=1,max=80"`
	Breed           *string  `json:"breed"`
	BirthDate       *string  `json:"birth_date"       validate:"omitempty,datetime=2006-01-02"`
	Gender          *string  `json:"gender"           validate:"omitempty,oneof=male female unknown"`
	Color           *string  `json:"color"`
	WeightKg        *float64 `json:"weight_kg"        validate:"omitempty,gt=0"`
	MicrochipNumber *string  `json:"microchip_number"`
	// ClientID moves the pet to another owner.
	ClientID *string `json:"client_id" validate:"omitempty,uuid"`
}

type PetFilter struct {
	ClientID string `form:"client_id" validate:"omitempty,uuid"`
	Species  string `form:"species"`
	Name     string `form:"name"`
	Active   string `form:"active"`
	Page     int    `form:"page,default=1"  validate:"min=1"`
	Limit    int    `form:"limit,default=20" validate:"min=1,max=100"`
}

type PetResponse struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Species         string   `json:"species"`
	Breed           *string  `json:"breed"`
	BirthDate       *string  `json:"birth_date"`
	AgeYears        *int     `json:"age_years"`
	Gender          string   `json:"gender"`
	Color           *string  `json:"color"`
	WeightKg        *float64 `json:"weight_kg"`
	MicrochipNumber *string  `json:"microchip_number"`
	ClientID        string   `json:"client_id"`
	OwnerName       string   `json:"owner_name,omitempty"`
	Active          bool     `json:"active"`
}

type PetListResponse struct {
	Data  []PetResponse `json:"data"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}
