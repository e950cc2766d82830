package dto

// ─── Requests ────────────────────────────────────────────────────────────────

type ScheduleAppointmentRequest struct {
	PetID          string  `json:"pet_id"          validate:"required,uuid"`
	VeterinarianID *string `json:"veterinarian_id" validate:"omitempty,uuid"`
	// StartsAt accepts "2006-01-02T15:04" or RFC3339; interpreted as UTC.
	StartsAt        string  `json:"starts_at"        validate:"required"`
	DurationMinutes *int    `json:"duration_minutes" validate:"omitempty,gt=0,lte=480"`
	Type            string  `json:"type"             validate:"required"`
	Reason          *string `json:"reason"`
	Notes           *string `json:"notes"`
}

type UpdateAppointmentRequest struct {
	VeterinarianID  *string `json:"veterinarian_id"  validate:"omitempty,uuid"`
	StartsAt        *string `json:"starts_at"`
	DurationMinutes *int    `json:"duration_minutes" validate:"omitempty,gt=0,lte=480"`
	Type            *string `json:"type"`
	Reason          *string `json:"reason"`
	Notes           *string `json:"notes"`
}

type CancelAppointmentRequest struct {
	Reason *string `json:"reason"`
}

type CompleteAppointmentRequest struct {
	Notes *string `json:"notes"`
}

// ─── Filters ─────────────────────────────────────────────────────────────────

type AppointmentFilter struct {
	Date           string `form:"date"            validate:"omitempty,datetime=2006-01-02"`
	VeterinarianID string `form:"veterinarian_id" validate:"omitempty,uuid"`
	PetID          string `form:"pet_id"          validate:"omitempty,uuid"`
	Status         string `form:"status"`
	Page           int    `form:"page,default=1"  validate:"min=1"`
	Limit          int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type AvailabilityQuery struct {
	Date            string `form:"date"             validate:"required,datetime=2006-01-02"`
	VeterinarianID  string `form:"veterinarian_id"  validate:"required,uuid"`
	DurationMinutes int    `form:"duration_minutes,default=30" validate:"min=1,max=480"`
}

// ─── Responses ───────────────────────────────────────────────────────────────

type AppointmentResponse struct {
	ID              string  `json:"id"`
	PetID           string  `json:"pet_id"`
	PetName         string  `json:"pet_name,omitempty"`
	VeterinarianID  *string `json:"veterinarian_id"`
	Veterinarian    string  `json:"veterinarian,omitempty"`
	StartsAt        string  `json:"starts_at"`
	EndsAt          string  `json:"ends_at"`
	DurationMinutes int     `json:"duration_minutes"`
	Type            string  `json:"type"`
	Status          string  `json:"status"`
	Reason          *string `json:"reason"`
	Notes           *string `json:"notes"`
}

type AppointmentListResponse struct {
	Data  []AppointmentResponse `json:"data"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}

// TimeSlotResponse is one free window in a veterinarian's day.
type TimeSlotResponse struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Display   string `json:"display"` // "09:00 - 09:30"
}

// DailyScheduleEntry enriches an appointment with pet and vet names, ordered
// by start time.
type DailyScheduleEntry struct {
	Appointment AppointmentResponse `json:"appointment"`
	TimeSlot    string              `json:"time_slot"`
	Upcoming    bool                `json:"upcoming"`
}
