package model

import (
	"time"

	"github.com/google/uuid"
)

// Client is a pet owner registered with the clinic.
type Client struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	FirstName string    `gorm:"not null"`
	LastName  string    `gorm:"not null"`
	Email     *string   `gorm:"uniqueIndex"`
	Phone     string    `gorm:"not null"`
	Address   *string
	Active    bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Pets []Pet `gorm:"foreignKey:ClientID"`
}

// FullName returns "First Last" for display and search results.
func (c *Client) FullName() string {
	return c.FirstName + " " + c.LastName
}
