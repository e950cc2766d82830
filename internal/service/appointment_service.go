package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/castaxyz/vetcare-stable/internal/config"
	"github.com/castaxyz/vetcare-stable/internal/dto"
	"github.com/castaxyz/vetcare-stable/internal/infra"
	"github.com/castaxyz/vetcare-stable/internal/model"
	"github.com/castaxyz/vetcare-stable/internal/repository"
	"github.com/castaxyz/vetcare-stable/internal/worker"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AppointmentService interface {
	Schedule(ctx context.Context, createdBy uuid.UUID, req dto.ScheduleAppointmentRequest) (*dto.AppointmentResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.AppointmentResponse, error)
	List(ctx context.Context, filter dto.AppointmentFilter) (*dto.AppointmentListResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateAppointmentRequest) (*dto.AppointmentResponse, error)

	// FreeSlots computes the free windows of a veterinarian's day for a given
	// duration.
	FreeSlots(ctx context.Context, q dto.AvailabilityQuery) ([]dto.TimeSlotResponse, error)

	// IsAvailable applies the half-open overlap test against the
	// veterinarian's active appointments. excludeID (uuid.Nil = none) is set
	// when rescheduling so the appointment doesn't collide with itself.
	IsAvailable(ctx context.Context, vetID uuid.UUID, start time.Time, durationMinutes int, excludeID uuid.UUID) (bool, error)

	Confirm(ctx context.Context, id uuid.UUID) (*dto.AppointmentResponse, error)
	Start(ctx context.Context, id uuid.UUID) (*dto.AppointmentResponse, error)
	Complete(ctx context.Context, id uuid.UUID, notes *string) (*dto.AppointmentResponse, error)
	Cancel(ctx context.Context, id uuid.UUID, reason *string) (*dto.AppointmentResponse, error)
	MarkNoShow(ctx context.Context, id uuid.UUID) (*dto.AppointmentResponse, error)

	DailySchedule(ctx context.Context, date time.Time, vetID uuid.UUID) ([]dto.DailyScheduleEntry, error)
}

// allowedTransitions is the closed appointment state machine. Statuses absent
// from the map are terminal.
var allowedTransitions = map[model.AppointmentStatus][]model.AppointmentStatus{
	model.StatusScheduled:  {model.StatusConfirmed, model.StatusCancelled, model.StatusNoShow},
	model.StatusConfirmed:  {model.StatusInProgress, model.StatusCancelled, model.StatusNoShow},
	model.StatusInProgress: {model.StatusCompleted, model.StatusCancelled},
}

func transitionAllowed(from, to model.AppointmentStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// transitionSources lists the statuses from which `to` is reachable, in the
// machine's declaration order.
func transitionSources(to model.AppointmentStatus) []model.AppointmentStatus {
	order := []model.AppointmentStatus{model.StatusScheduled, model.StatusConfirmed, model.StatusInProgress}
	var sources []model.AppointmentStatus
	for _, from := range order {
		if transitionAllowed(from, to) {
			sources = append(sources, from)
		}
	}
	return sources
}

type appointmentService struct {
	repo       repository.AppointmentRepository
	petRepo    repository.PetRepository
	userRepo   repository.UserRepository
	clientRepo repository.ClientRepository
	locker     infra.CalendarLocker
	dispatcher *worker.Dispatcher
	cfg        *config.Config
}

func NewAppointmentService(
	repo repository.AppointmentRepository,
	petRepo repository.PetRepository,
	userRepo repository.UserRepository,
	clientRepo repository.ClientRepository,
	locker infra.CalendarLocker,
	dispatcher *worker.Dispatcher,
	cfg *config.Config,
) AppointmentService {
	return &appointmentService{
		repo:       repo,
		petRepo:    petRepo,
		userRepo:   userRepo,
		clientRepo: clientRepo,
		locker:     locker,
		dispatcher: dispatcher,
		cfg:        cfg,
	}
}

// parseStartsAt accepts RFC 3339 or the shorter "2006-01-02T15:04" and
// normalizes to UTC.
func parseStartsAt(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02T15:04", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("starts_at must be RFC 3339 or 2006-01-02T15:04: %w", err)
	}
	return t.UTC(), nil
}

// ── Schedule ──────────────────────────────────────────────────────────────────
// Check-then-insert under a per-(veterinarian, day) Redis lock so two
// concurrent requests for the same window cannot both pass the overlap check.

func (s *appointmentService) Schedule(ctx context.Context, createdBy uuid.UUID, req dto.ScheduleAppointmentRequest) (*dto.AppointmentResponse, error) {
	petID, err := uuid.Parse(req.PetID)
	if err != nil {
		return nil, fmt.Errorf("invalid pet_id: %w", err)
	}
	if _, err := s.petRepo.FindByID(ctx, petID); err != nil {
		return nil, fmt.Errorf("pet %s not found", req.PetID)
	}

	apptType := model.AppointmentType(req.Type)
	if !apptType.Valid() {
		return nil, fmt.Errorf("unknown appointment type %q", req.Type)
	}

	startsAt, err := parseStartsAt(req.StartsAt)
	if err != nil {
		return nil, err
	}
	if startsAt.Before(time.Now().UTC()) {
		return nil, errors.New("appointments cannot be scheduled in the past")
	}

	duration := apptType.DefaultDuration()
	if req.DurationMinutes != nil {
		duration = *req.DurationMinutes
	}

	var vetID *uuid.UUID
	if req.VeterinarianID != nil {
		parsed, err := uuid.Parse(*req.VeterinarianID)
		if err != nil {
			return nil, fmt.Errorf("invalid veterinarian_id: %w", err)
		}
		vet, err := s.userRepo.FindByID(ctx, parsed)
		if err != nil {
			return nil, fmt.Errorf("veterinarian %s not found", *req.VeterinarianID)
		}
		if !vet.CanPractice() {
			return nil, fmt.Errorf("user %s cannot take appointments", vet.Username)
		}
		vetID = &parsed
	}

	appt := &model.Appointment{
		PetID:           petID,
		VeterinarianID:  vetID,
		StartsAt:        startsAt,
		DurationMinutes: duration,
		Type:            apptType,
		Status:          model.StatusScheduled,
		Reason:          req.Reason,
		Notes:           req.Notes,
	}
	if createdBy != uuid.Nil {
		appt.CreatedBy = &createdBy
	}

	insert := func(lockCtx context.Context) error {
		if vetID != nil {
			free, err := s.IsAvailable(lockCtx, *vetID, startsAt, duration, uuid.Nil)
			if err != nil {
				return err
			}
			if !free {
				return ErrNotAvailable
			}
		}
		return runTx(lockCtx, s.repo.DB(), func(tx *gorm.DB) error {
			return s.repo.CreateTx(tx, appt)
		})
	}

	// Appointments without an assigned veterinarian never conflict, so they
	// skip the lock.
	if vetID != nil {
		err = s.locker.WithCalendarLock(ctx, *vetID, startsAt, insert)
	} else {
		err = insert(ctx)
	}
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, appt.ID)
}

// ── Availability ──────────────────────────────────────────────────────────────

func (s *appointmentService) IsAvailable(ctx context.Context, vetID uuid.UUID, start time.Time, durationMinutes int, excludeID uuid.UUID) (bool, error) {
	start = start.UTC()
	end := start.Add(time.Duration(durationMinutes) * time.Minute)

	blocking, err := s.repo.FindBlockingByVetAndDate(ctx, vetID, start, excludeID)
	if err != nil {
		return false, err
	}
	for i := range blocking {
		if blocking[i].Overlaps(start, end) {
			return false, nil
		}
	}
	return true, nil
}

// FreeSlots walks the clinic day in fixed steps and keeps every candidate
// window [t, t+duration) that fits before closing and overlaps no active
// appointment. Candidates are generated from opening time even when some are
// taken; only the overlap test filters them.
func (s *appointmentService) FreeSlots(ctx context.Context, q dto.AvailabilityQuery) ([]dto.TimeSlotResponse, error) {
	vetID, err := uuid.Parse(q.VeterinarianID)
	if err != nil {
		return nil, fmt.Errorf("invalid veterinarian_id: %w", err)
	}
	date, err := time.Parse("2006-01-02", q.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid date: %w", err)
	}
	duration := time.Duration(q.DurationMinutes) * time.Minute

	blocking, err := s.repo.FindBlockingByVetAndDate(ctx, vetID, date, uuid.Nil)
	if err != nil {
		return nil, err
	}

	open := time.Date(date.Year(), date.Month(), date.Day(), s.cfg.ClinicOpenHour, 0, 0, 0, time.UTC)
	close := time.Date(date.Year(), date.Month(), date.Day(), s.cfg.ClinicCloseHour, 0, 0, 0, time.UTC)
	step := time.Duration(s.cfg.SlotStepMinutes) * time.Minute

	slots := make([]dto.TimeSlotResponse, 0)
	for t := open; !t.Add(duration).After(close); t = t.Add(step) {
		tEnd := t.Add(duration)
		conflict := false
		for i := range blocking {
			if blocking[i].Overlaps(t, tEnd) {
				conflict = true
				break
			}
		}
		if conflict {
			continue
		}
		slots = append(slots, dto.TimeSlotResponse{
			StartTime: t.Format(time.RFC3339),
			EndTime:   tEnd.Format(time.RFC3339),
			Display:   fmt.Sprintf("%s - %s", t.Format("15:04"), tEnd.Format("15:04")),
		})
	}
	return slots, nil
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *appointmentService) Get(ctx context.Context, id uuid.UUID) (*dto.AppointmentResponse, error) {
	appt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("appointment not found")
	}
	return appointmentToResponse(appt), nil
}

func (s *appointmentService) List(ctx context.Context, filter dto.AppointmentFilter) (*dto.AppointmentListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	appts, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.AppointmentResponse, 0, len(appts))
	for i := range appts {
		items = append(items, *appointmentToResponse(&appts[i]))
	}
	return &dto.AppointmentListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

// ── Update / reschedule ───────────────────────────────────────────────────────
// Changing the window or the veterinarian re-runs the availability check with
// the appointment itself excluded from the comparison set.

func (s *appointmentService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateAppointmentRequest) (*dto.AppointmentResponse, error) {
	appt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("appointment not found")
	}
	if !appt.Status.Modifiable() {
		return nil, fmt.Errorf("appointment in status %s cannot be modified", appt.Status)
	}

	if req.Type != nil {
		t := model.AppointmentType(*req.Type)
		if !t.Valid() {
			return nil, fmt.Errorf("unknown appointment type %q", *req.Type)
		}
		appt.Type = t
	}
	if req.StartsAt != nil {
		startsAt, err := parseStartsAt(*req.StartsAt)
		if err != nil {
			return nil, err
		}
		if startsAt.Before(time.Now().UTC()) {
			return nil, errors.New("appointments cannot be rescheduled to the past")
		}
		appt.StartsAt = startsAt
	}
	if req.DurationMinutes != nil {
		appt.DurationMinutes = *req.DurationMinutes
	}
	if req.VeterinarianID != nil {
		parsed, err := uuid.Parse(*req.VeterinarianID)
		if err != nil {
			return nil, fmt.Errorf("invalid veterinarian_id: %w", err)
		}
		vet, err := s.userRepo.FindByID(ctx, parsed)
		if err != nil {
			return nil, fmt.Errorf("veterinarian %s not found", *req.VeterinarianID)
		}
		if !vet.CanPractice() {
			return nil, fmt.Errorf("user %s cannot take appointments", vet.Username)
		}
		appt.VeterinarianID = &parsed
	}
	if req.Reason != nil {
		appt.Reason = req.Reason
	}
	if req.Notes != nil {
		appt.Notes = req.Notes
	}

	save := func(lockCtx context.Context) error {
		if appt.VeterinarianID != nil {
			free, err := s.IsAvailable(lockCtx, *appt.VeterinarianID, appt.StartsAt, appt.DurationMinutes, appt.ID)
			if err != nil {
				return err
			}
			if !free {
				return ErrNotAvailable
			}
		}
		return s.repo.Update(lockCtx, appt)
	}

	if appt.VeterinarianID != nil {
		err = s.locker.WithCalendarLock(ctx, *appt.VeterinarianID, appt.StartsAt, save)
	} else {
		err = save(ctx)
	}
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, appt.ID)
}

// ── Status transitions ────────────────────────────────────────────────────────

func (s *appointmentService) transition(ctx context.Context, id uuid.UUID, to model.AppointmentStatus, mutate func(*model.Appointment)) (*dto.AppointmentResponse, error) {
	appt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("appointment not found")
	}
	if !transitionAllowed(appt.Status, to) {
		return nil, &InvalidTransitionError{From: appt.Status, To: to, AllowedFrom: transitionSources(to)}
	}
	appt.Status = to
	if mutate != nil {
		mutate(appt)
	}
	if err := s.repo.Update(ctx, appt); err != nil {
		return nil, err
	}
	return appointmentToResponse(appt), nil
}

func (s *appointmentService) Confirm(ctx context.Context, id uuid.UUID) (*dto.AppointmentResponse, error) {
	resp, err := s.transition(ctx, id, model.StatusConfirmed, nil)
	if err != nil {
		return nil, err
	}
	s.enqueueReminder(ctx, id)
	return resp, nil
}

// enqueueReminder is best-effort: a confirmed appointment stands even when
// Redis or the client's email is unavailable.
func (s *appointmentService) enqueueReminder(ctx context.Context, id uuid.UUID) {
	if s.dispatcher == nil {
		return
	}
	appt, err := s.repo.FindByID(ctx, id)
	if err != nil || appt.Pet == nil {
		return
	}
	client, err := s.clientRepo.FindByID(ctx, appt.Pet.ClientID)
	if err != nil || client.Email == nil {
		return
	}
	_ = s.dispatcher.EnqueueReminder(ctx, worker.ReminderPayload{
		AppointmentID: appt.ID.String(),
		ClientEmail:   *client.Email,
		ClientName:    client.FullName(),
		PetName:       appt.Pet.Name,
		StartsAt:      appt.StartsAt.Format(time.RFC3339),
		ClinicName:    s.cfg.ClinicName,
	})
}

func (s *appointmentService) Start(ctx context.Context, id uuid.UUID) (*dto.AppointmentResponse, error) {
	return s.transition(ctx, id, model.StatusInProgress, nil)
}

func (s *appointmentService) Complete(ctx context.Context, id uuid.UUID, notes *string) (*dto.AppointmentResponse, error) {
	return s.transition(ctx, id, model.StatusCompleted, func(a *model.Appointment) {
		if notes != nil {
			a.Notes = notes
		}
	})
}

func (s *appointmentService) Cancel(ctx context.Context, id uuid.UUID, reason *string) (*dto.AppointmentResponse, error) {
	return s.transition(ctx, id, model.StatusCancelled, func(a *model.Appointment) {
		if reason != nil {
			a.Reason = reason
		}
	})
}

func (s *appointmentService) MarkNoShow(ctx context.Context, id uuid.UUID) (*dto.AppointmentResponse, error) {
	return s.transition(ctx, id, model.StatusNoShow, nil)
}

// ── Daily schedule ────────────────────────────────────────────────────────────

func (s *appointmentService) DailySchedule(ctx context.Context, date time.Time, vetID uuid.UUID) ([]dto.DailyScheduleEntry, error) {
	filter := dto.AppointmentFilter{
		Date:  date.UTC().Format("2006-01-02"),
		Page:  1,
		Limit: 200,
	}
	if vetID != uuid.Nil {
		filter.VeterinarianID = vetID.String()
	}
	appts, _, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	entries := make([]dto.DailyScheduleEntry, 0, len(appts))
	for i := range appts {
		a := &appts[i]
		entries = append(entries, dto.DailyScheduleEntry{
			Appointment: *appointmentToResponse(a),
			TimeSlot:    fmt.Sprintf("%s - %s", a.StartsAt.Format("15:04"), a.EndsAt().Format("15:04")),
			Upcoming:    a.StartsAt.After(now) && a.Status.Blocking(),
		})
	}
	return entries, nil
}

func appointmentToResponse(a *model.Appointment) *dto.AppointmentResponse {
	resp := &dto.AppointmentResponse{
		ID:              a.ID.String(),
		PetID:           a.PetID.String(),
		StartsAt:        a.StartsAt.UTC().Format(time.RFC3339),
		EndsAt:          a.EndsAt().UTC().Format(time.RFC3339),
		DurationMinutes: a.DurationMinutes,
		Type:            string(a.Type),
		Status:          string(a.Status),
		Reason:          a.Reason,
		Notes:           a.Notes,
	}
	if a.Pet != nil {
		resp.PetName = a.Pet.Name
	}
	if a.VeterinarianID != nil {
		id := a.VeterinarianID.String()
		resp.VeterinarianID = &id
	}
	if a.Veterinarian != nil {
		resp.Veterinarian = a.Veterinarian.Name
	}
	return resp
}
