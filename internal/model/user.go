package model

import (
	"time"

	"github.com/google/uuid"
)

// User stores system users with role-based access.
// Role: "admin" | "veterinarian" | "receptionist"
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Username     string    `gorm:"uniqueIndex;not null"`
	Name         string    `gorm:"not null"`
	Email        *string
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"type:varchar(20);not null"`
	Active       bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const (
	RoleAdmin        = "admin"
	RoleVeterinarian = "veterinarian"
	RoleReceptionist = "receptionist"
)

// CanPractice reports whether this user may appear as the practitioner on an
// appointment. Admins routinely double as vets in small clinics.
func (u *User) CanPractice() bool {
	return u.Role == RoleVeterinarian || u.Role == RoleAdmin
}
