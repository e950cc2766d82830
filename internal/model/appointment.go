package model

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus is the closed state set of an appointment's lifecycle:
//
//	scheduled → confirmed → in_progress → completed
//
// cancelled is reachable from scheduled, confirmed and in_progress; no_show is
// reached from scheduled or confirmed once the booked window has passed
// unattended. completed, cancelled and no_show are terminal.
type AppointmentStatus string

const (
	StatusScheduled  AppointmentStatus = "scheduled"
	StatusConfirmed  AppointmentStatus = "confirmed"
	StatusInProgress AppointmentStatus = "in_progress"
	StatusCompleted  AppointmentStatus = "completed"
	StatusCancelled  AppointmentStatus = "cancelled"
	StatusNoShow     AppointmentStatus = "no_show"
)

// Blocking reports whether an appointment in this status occupies its time
// window for availability purposes. Cancelled, completed and no-show
// appointments free their slot.
func (s AppointmentStatus) Blocking() bool {
	return s == StatusScheduled || s == StatusConfirmed || s == StatusInProgress
}

// Modifiable reports whether an appointment's fields may still change.
func (s AppointmentStatus) Modifiable() bool {
	return s == StatusScheduled || s == StatusConfirmed || s == StatusInProgress
}

// AppointmentType drives the default duration when the caller omits one.
type AppointmentType string

const (
	TypeConsultation AppointmentType = "consultation"
	TypeVaccination  AppointmentType = "vaccination"
	TypeSurgery      AppointmentType = "surgery"
	TypeEmergency    AppointmentType = "emergency"
	TypeFollowUp     AppointmentType = "follow_up"
	TypeGrooming     AppointmentType = "grooming"
)

var defaultDurations = map[AppointmentType]int{
	TypeConsultation: 30,
	TypeVaccination:  15,
	TypeSurgery:      120,
	TypeEmergency:    60,
	TypeFollowUp:     20,
	TypeGrooming:     60,
}

// DefaultDuration returns the default length in minutes for an appointment
// type; unrecognized types fall back to 30.
func (t AppointmentType) DefaultDuration() int {
	if d, ok := defaultDurations[t]; ok {
		return d
	}
	return 30
}

// Valid reports whether t is one of the known appointment types.
func (t AppointmentType) Valid() bool {
	_, ok := defaultDurations[t]
	return ok
}

// Appointment is a booked visit for a pet, optionally assigned to a
// veterinarian. All timestamps are stored in UTC.
type Appointment struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PetID           uuid.UUID  `gorm:"type:uuid;not null;index"`
	VeterinarianID  *uuid.UUID `gorm:"type:uuid;index"`
	StartsAt        time.Time  `gorm:"not null;index"`
	DurationMinutes int        `gorm:"not null"`
	Type            AppointmentType   `gorm:"type:varchar(20);not null"`
	Status          AppointmentStatus `gorm:"type:varchar(20);not null;default:'scheduled';index"`
	Reason          *string
	Notes           *string
	CreatedBy       *uuid.UUID `gorm:"type:uuid"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Pet          *Pet  `gorm:"foreignKey:PetID"`
	Veterinarian *User `gorm:"foreignKey:VeterinarianID"`
}

// EndsAt is derived: start + duration. The interval [StartsAt, EndsAt) is
// half-open — appointments touching at a boundary do not conflict.
func (a *Appointment) EndsAt() time.Time {
	return a.StartsAt.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// Overlaps applies the half-open interval test against [start, end).
func (a *Appointment) Overlaps(start, end time.Time) bool {
	return start.Before(a.EndsAt()) && end.After(a.StartsAt)
}
