package repository

import (
	"context"
	"time"

	"github.com/castaxyz/vetcare-stable/internal/dto"
	"github.com/castaxyz/vetcare-stable/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// blockingStatuses are the appointment states that occupy a time window.
// Cancelled, completed and no-show appointments do not block availability.
var blockingStatuses = []model.AppointmentStatus{
	model.StatusScheduled,
	model.StatusConfirmed,
	model.StatusInProgress,
}

type AppointmentRepository interface {
	CreateTx(tx *gorm.DB, a *model.Appointment) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	FindByPetID(ctx context.Context, petID uuid.UUID) ([]model.Appointment, error)
	List(ctx context.Context, filter dto.AppointmentFilter) ([]model.Appointment, int64, error)
	Update(ctx context.Context, a *model.Appointment) error

	// FindBlockingByVetAndDate returns the scheduled/confirmed/in_progress
	// appointments of a veterinarian whose start falls on the given UTC date,
	// ordered by start time. excludeID (uuid.Nil = none) drops the
	// appointment being rescheduled from the comparison set.
	FindBlockingByVetAndDate(ctx context.Context, vetID uuid.UUID, date time.Time, excludeID uuid.UUID) ([]model.Appointment, error)

	// FindUnattended returns scheduled/confirmed appointments whose derived
	// end (starts_at + duration) lies before the cutoff — candidates for the
	// no-show sweep.
	FindUnattended(ctx context.Context, cutoff time.Time) ([]model.Appointment, error)

	// DB exposes the underlying *gorm.DB so the service can open the
	// check-then-insert transaction.
	DB() *gorm.DB
}

type appointmentRepo struct{ db *gorm.DB }

func NewAppointmentRepository(db *gorm.DB) AppointmentRepository { return &appointmentRepo{db: db} }

func (r *appointmentRepo) DB() *gorm.DB { return r.db }

func (r *appointmentRepo) CreateTx(tx *gorm.DB, a *model.Appointment) error {
	return tx.Create(a).Error
}

func (r *appointmentRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	var a model.Appointment
	err := r.db.WithContext(ctx).Preload("Pet").Preload("Veterinarian").First(&a, id).Error
	return &a, err
}

func (r *appointmentRepo) FindByPetID(ctx context.Context, petID uuid.UUID) ([]model.Appointment, error) {
	var appts []model.Appointment
	err := r.db.WithContext(ctx).
		Where("pet_id = ?", petID).
		Order("starts_at DESC").Find(&appts).Error
	return appts, err
}

func (r *appointmentRepo) List(ctx context.Context, filter dto.AppointmentFilter) ([]model.Appointment, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Appointment{})

	if filter.Date != "" {
		q = q.Where("DATE(starts_at) = ?", filter.Date)
	}
	if filter.VeterinarianID != "" {
		q = q.Where("veterinarian_id = ?", filter.VeterinarianID)
	}
	if filter.PetID != "" {
		q = q.Where("pet_id = ?", filter.PetID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	var appts []model.Appointment
	err := q.Preload("Pet").Preload("Veterinarian").
		Order("starts_at ASC").
		Limit(filter.Limit).Offset(offset).Find(&appts).Error
	return appts, total, err
}

func (r *appointmentRepo) Update(ctx context.Context, a *model.Appointment) error {
	return r.db.WithContext(ctx).Save(a).Error
}

// FindBlockingByVetAndDate scopes the comparison set to appointments that
// START on the candidate's calendar day. An appointment from the previous
// evening whose duration spills past midnight is not seen by the overlap
// check; the clinic day (open to close) never crosses midnight, so such a
// booking cannot be produced through scheduling.
func (r *appointmentRepo) FindBlockingByVetAndDate(ctx context.Context, vetID uuid.UUID, date time.Time, excludeID uuid.UUID) ([]model.Appointment, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	q := r.db.WithContext(ctx).
		Where("veterinarian_id = ?", vetID).
		Where("status IN ?", blockingStatuses).
		Where("starts_at >= ? AND starts_at < ?", dayStart, dayEnd)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}

	var appts []model.Appointment
	err := q.Order("starts_at ASC").Find(&appts).Error
	return appts, err
}

func (r *appointmentRepo) FindUnattended(ctx context.Context, cutoff time.Time) ([]model.Appointment, error) {
	var appts []model.Appointment
	err := r.db.WithContext(ctx).
		Where("status IN ?", []model.AppointmentStatus{model.StatusScheduled, model.StatusConfirmed}).
		Where("starts_at + (duration_minutes || ' minutes')::interval < ?", cutoff).
		Find(&appts).Error
	return appts, err
}
