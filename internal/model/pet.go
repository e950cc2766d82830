package model

import (
	"time"

	"github.com/google/uuid"
)

// PetSpecies is the closed set of species the clinic registers.
type PetSpecies string

const (
	SpeciesDog     PetSpecies = "dog"
	SpeciesCat     PetSpecies = "cat"
	SpeciesBird    PetSpecies = "bird"
	SpeciesRabbit  PetSpecies = "rabbit"
	SpeciesHamster PetSpecies = "hamster"
	SpeciesOther   PetSpecies = "other"
)

// PetGender — "unknown" covers rescues and exotics without records.
type PetGender string

const (
	GenderMale    PetGender = "male"
	GenderFemale  PetGender = "female"
	GenderUnknown PetGender = "unknown"
)

// Pet is a patient. Every pet belongs to exactly one client.
type Pet struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name            string     `gorm:"index;not null"`
	Species         PetSpecies `gorm:"type:varchar(20);not null"`
	Breed           *string
	BirthDate       *time.Time `gorm:"type:date"`
	Gender          PetGender  `gorm:"type:varchar(10);not null;default:'unknown'"`
	Color           *string
	WeightKg        *float64
	MicrochipNumber *string   `gorm:"uniqueIndex"`
	ClientID        uuid.UUID `gorm:"type:uuid;not null;index"`
	Active          bool      `gorm:"not null;default:true"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Client *Client `gorm:"foreignKey:ClientID"`
}

// AgeYears returns the pet's age in whole years, or nil when the birth date
// is unknown.
func (p *Pet) AgeYears(now time.Time) *int {
	if p.BirthDate == nil {
		return nil
	}
	b := *p.BirthDate
	years := now.Year() - b.Year()
	if now.Month() < b.Month() || (now.Month() == b.Month() && now.Day() < b.Day()) {
		years--
	}
	return &years
}
