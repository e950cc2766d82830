package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/castaxyz/vetcare-stable/internal/config"
	"github.com/castaxyz/vetcare-stable/internal/dto"
	"github.com/castaxyz/vetcare-stable/internal/infra"
	"github.com/castaxyz/vetcare-stable/internal/model"
	"github.com/castaxyz/vetcare-stable/internal/repository"
	"github.com/castaxyz/vetcare-stable/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── In-memory AppointmentRepository stub ─────────────────────────────────────

type stubAppointmentRepo struct {
	appointments map[uuid.UUID]*model.Appointment
}

func newStubAppointmentRepo() *stubAppointmentRepo {
	return &stubAppointmentRepo{appointments: make(map[uuid.UUID]*model.Appointment)}
}

func (r *stubAppointmentRepo) CreateTx(_ *gorm.DB, a *model.Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	copied := *a
	r.appointments[a.ID] = &copied
	return nil
}

func (r *stubAppointmentRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	a, ok := r.appointments[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	copied := *a
	return &copied, nil
}

func (r *stubAppointmentRepo) FindByPetID(_ context.Context, petID uuid.UUID) ([]model.Appointment, error) {
	var result []model.Appointment
	for _, a := range r.appointments {
		if a.PetID == petID {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (r *stubAppointmentRepo) List(_ context.Context, filter dto.AppointmentFilter) ([]model.Appointment, int64, error) {
	var result []model.Appointment
	for _, a := range r.appointments {
		if filter.Date != "" && a.StartsAt.UTC().Format("2006-01-02") != filter.Date {
			continue
		}
		if filter.VeterinarianID != "" && (a.VeterinarianID == nil || a.VeterinarianID.String() != filter.VeterinarianID) {
			continue
		}
		if filter.PetID != "" && a.PetID.String() != filter.PetID {
			continue
		}
		if filter.Status != "" && string(a.Status) != filter.Status {
			continue
		}
		result = append(result, *a)
	}
	return result, int64(len(result)), nil
}

func (r *stubAppointmentRepo) Update(_ context.Context, a *model.Appointment) error {
	if _, ok := r.appointments[a.ID]; !ok {
		return errors.New("record not found")
	}
	copied := *a
	r.appointments[a.ID] = &copied
	return nil
}

func (r *stubAppointmentRepo) FindBlockingByVetAndDate(_ context.Context, vetID uuid.UUID, date time.Time, excludeID uuid.UUID) ([]model.Appointment, error) {
	day := date.UTC().Format("2006-01-02")
	var result []model.Appointment
	for _, a := range r.appointments {
		if a.VeterinarianID == nil || *a.VeterinarianID != vetID {
			continue
		}
		if !a.Status.Blocking() {
			continue
		}
		if a.StartsAt.UTC().Format("2006-01-02") != day {
			continue
		}
		if excludeID != uuid.Nil && a.ID == excludeID {
			continue
		}
		result = append(result, *a)
	}
	return result, nil
}

func (r *stubAppointmentRepo) FindUnattended(_ context.Context, cutoff time.Time) ([]model.Appointment, error) {
	var result []model.Appointment
	for _, a := range r.appointments {
		if a.Status != model.StatusScheduled && a.Status != model.StatusConfirmed {
			continue
		}
		if a.EndsAt().Before(cutoff) {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (r *stubAppointmentRepo) DB() *gorm.DB { return nil }

var _ repository.AppointmentRepository = (*stubAppointmentRepo)(nil)

// ── Pet / User / Client stubs ────────────────────────────────────────────────

type stubPetRepo struct {
	pets map[uuid.UUID]*model.Pet
}

func newStubPetRepo() *stubPetRepo { return &stubPetRepo{pets: make(map[uuid.UUID]*model.Pet)} }

func (r *stubPetRepo) Create(_ context.Context, p *model.Pet) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.pets[p.ID] = p
	return nil
}

func (r *stubPetRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Pet, error) {
	p, ok := r.pets[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return p, nil
}

func (r *stubPetRepo) FindByMicrochip(_ context.Context, chip string) (*model.Pet, error) {
	for _, p := range r.pets {
		if p.MicrochipNumber != nil && *p.MicrochipNumber == chip {
			return p, nil
		}
	}
	return nil, errors.New("record not found")
}

func (r *stubPetRepo) FindByClientID(_ context.Context, clientID uuid.UUID) ([]model.Pet, error) {
	var result []model.Pet
	for _, p := range r.pets {
		if p.ClientID == clientID {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (r *stubPetRepo) List(_ context.Context, _ dto.PetFilter) ([]model.Pet, int64, error) {
	var result []model.Pet
	for _, p := range r.pets {
		result = append(result, *p)
	}
	return result, int64(len(result)), nil
}

func (r *stubPetRepo) Update(_ context.Context, p *model.Pet) error {
	r.pets[p.ID] = p
	return nil
}

func (r *stubPetRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	p, ok := r.pets[id]
	if !ok {
		return errors.New("record not found")
	}
	p.Active = false
	return nil
}

var _ repository.PetRepository = (*stubPetRepo)(nil)

type stubUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newStubUserRepo() *stubUserRepo { return &stubUserRepo{users: make(map[uuid.UUID]*model.User)} }

func (r *stubUserRepo) Create(_ context.Context, u *model.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.users[u.ID] = u
	return nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, errors.New("record not found")
}

func (r *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return u, nil
}

func (r *stubUserRepo) List(_ context.Context) ([]model.User, error) {
	var result []model.User
	for _, u := range r.users {
		if u.Active {
			result = append(result, *u)
		}
	}
	return result, nil
}

func (r *stubUserRepo) ListAll(_ context.Context) ([]model.User, error) {
	var result []model.User
	for _, u := range r.users {
		result = append(result, *u)
	}
	return result, nil
}

func (r *stubUserRepo) ListByRole(_ context.Context, role string) ([]model.User, error) {
	var result []model.User
	for _, u := range r.users {
		if u.Role == role && u.Active {
			result = append(result, *u)
		}
	}
	return result, nil
}

func (r *stubUserRepo) Update(_ context.Context, u *model.User) error {
	r.users[u.ID] = u
	return nil
}

func (r *stubUserRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	u, ok := r.users[id]
	if !ok {
		return errors.New("record not found")
	}
	u.Active = false
	return nil
}

func (r *stubUserRepo) Reactivate(_ context.Context, id uuid.UUID) error {
	u, ok := r.users[id]
	if !ok {
		return errors.New("record not found")
	}
	u.Active = true
	return nil
}

var _ repository.UserRepository = (*stubUserRepo)(nil)

type stubClientRepo struct {
	clients map[uuid.UUID]*model.Client
}

func newStubClientRepo() *stubClientRepo {
	return &stubClientRepo{clients: make(map[uuid.UUID]*model.Client)}
}

func (r *stubClientRepo) Create(_ context.Context, c *model.Client) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.clients[c.ID] = c
	return nil
}

func (r *stubClientRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Client, error) {
	c, ok := r.clients[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return c, nil
}

func (r *stubClientRepo) FindByEmail(_ context.Context, email string) (*model.Client, error) {
	for _, c := range r.clients {
		if c.Email != nil && *c.Email == email {
			return c, nil
		}
	}
	return nil, errors.New("record not found")
}

func (r *stubClientRepo) List(_ context.Context, _ dto.ClientFilter) ([]model.Client, int64, error) {
	var result []model.Client
	for _, c := range r.clients {
		result = append(result, *c)
	}
	return result, int64(len(result)), nil
}

func (r *stubClientRepo) Update(_ context.Context, c *model.Client) error {
	r.clients[c.ID] = c
	return nil
}

func (r *stubClientRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	c, ok := r.clients[id]
	if !ok {
		return errors.New("record not found")
	}
	c.Active = false
	return nil
}

var _ repository.ClientRepository = (*stubClientRepo)(nil)

// ── Fixtures ──────────────────────────────────────────────────────────────────

type apptFixture struct {
	svc     service.AppointmentService
	repo    *stubAppointmentRepo
	pets    *stubPetRepo
	users   *stubUserRepo
	clients *stubClientRepo
	pet     *model.Pet
	vet     *model.User
}

func newApptFixture(t *testing.T) *apptFixture {
	t.Helper()
	cfg := &config.Config{
		ClinicOpenHour:  8,
		ClinicCloseHour: 18,
		SlotStepMinutes: 30,
		ClinicName:      "Test Clinic",
	}
	f := &apptFixture{
		repo:    newStubAppointmentRepo(),
		pets:    newStubPetRepo(),
		users:   newStubUserRepo(),
		clients: newStubClientRepo(),
	}
	f.svc = service.NewAppointmentService(f.repo, f.pets, f.users, f.clients, infra.NoopLocker{}, nil, cfg)

	client := &model.Client{ID: uuid.New(), FirstName: "Ana", LastName: "Castro", Phone: "555-0101", Active: true}
	f.clients.clients[client.ID] = client

	f.pet = &model.Pet{ID: uuid.New(), Name: "Rocky", Species: model.SpeciesDog, ClientID: client.ID, Active: true}
	f.pets.pets[f.pet.ID] = f.pet

	f.vet = &model.User{ID: uuid.New(), Username: "dr.smith", Name: "Dr. Smith", Role: model.RoleVeterinarian, Active: true}
	f.users.users[f.vet.ID] = f.vet

	return f
}

func (f *apptFixture) seedAppointment(start time.Time, minutes int, status model.AppointmentStatus) *model.Appointment {
	a := &model.Appointment{
		ID:              uuid.New(),
		PetID:           f.pet.ID,
		VeterinarianID:  &f.vet.ID,
		StartsAt:        start.UTC(),
		DurationMinutes: minutes,
		Type:            model.TypeConsultation,
		Status:          status,
	}
	f.repo.appointments[a.ID] = a
	return a
}

// tomorrowAt avoids the cannot-schedule-in-the-past check.
func tomorrowAt(hour, minute int) time.Time {
	d := time.Now().UTC().AddDate(0, 0, 1)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, time.UTC)
}

// ── Overlap semantics ─────────────────────────────────────────────────────────

func TestOverlapHalfOpenIntervals(t *testing.T) {
	base := time.Date(2026, time.March, 10, 10, 0, 0, 0, time.UTC)
	a := &model.Appointment{StartsAt: base, DurationMinutes: 30} // [10:00, 10:30)

	cases := []struct {
		name  string
		start time.Time
		end   time.Time
		want  bool
	}{
		{"identical window", base, base.Add(30 * time.Minute), true},
		{"straddles start", base.Add(-15 * time.Minute), base.Add(15 * time.Minute), true},
		{"straddles end", base.Add(15 * time.Minute), base.Add(45 * time.Minute), true},
		{"contained", base.Add(10 * time.Minute), base.Add(20 * time.Minute), true},
		{"containing", base.Add(-30 * time.Minute), base.Add(60 * time.Minute), true},
		{"touches end boundary", base.Add(30 * time.Minute), base.Add(60 * time.Minute), false},
		{"touches start boundary", base.Add(-30 * time.Minute), base, false},
		{"disjoint before", base.Add(-2 * time.Hour), base.Add(-time.Hour), false},
		{"disjoint after", base.Add(2 * time.Hour), base.Add(3 * time.Hour), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, a.Overlaps(tc.start, tc.end))
		})
	}

	// Symmetric: swapping which interval is the booked one never changes the
	// verdict.
	for _, tc := range cases {
		b := &model.Appointment{StartsAt: tc.start, DurationMinutes: int(tc.end.Sub(tc.start) / time.Minute)}
		assert.Equal(t, a.Overlaps(tc.start, tc.end), b.Overlaps(a.StartsAt, a.EndsAt()), tc.name)
	}
}

func TestIsAvailableAroundExistingBooking(t *testing.T) {
	f := newApptFixture(t)
	booked := tomorrowAt(10, 0)
	f.seedAppointment(booked, 30, model.StatusScheduled) // [10:00, 10:30)

	ctx := context.Background()

	free, err := f.svc.IsAvailable(ctx, f.vet.ID, booked.Add(15*time.Minute), 30, uuid.Nil) // 10:15–10:45
	require.NoError(t, err)
	assert.False(t, free, "overlapping window conflicts")

	free, err = f.svc.IsAvailable(ctx, f.vet.ID, booked.Add(30*time.Minute), 30, uuid.Nil) // 10:30–11:00
	require.NoError(t, err)
	assert.True(t, free, "window starting at the booked end does not conflict")

	free, err = f.svc.IsAvailable(ctx, f.vet.ID, booked.Add(-30*time.Minute), 30, uuid.Nil) // 09:30–10:00
	require.NoError(t, err)
	assert.True(t, free, "window ending at the booked start does not conflict")
}

func TestCancelledAppointmentFreesItsSlot(t *testing.T) {
	f := newApptFixture(t)
	booked := tomorrowAt(11, 0)
	f.seedAppointment(booked, 30, model.StatusCancelled)

	free, err := f.svc.IsAvailable(context.Background(), f.vet.ID, booked, 30, uuid.Nil)
	require.NoError(t, err)
	assert.True(t, free)
}

// ── Free slots ────────────────────────────────────────────────────────────────

func TestFreeSlotsEmptyDay(t *testing.T) {
	f := newApptFixture(t)

	slots, err := f.svc.FreeSlots(context.Background(), dto.AvailabilityQuery{
		Date:            "2026-03-10",
		VeterinarianID:  f.vet.ID.String(),
		DurationMinutes: 30,
	})
	require.NoError(t, err)

	// 8:00–18:00 in 30-minute steps → 20 candidate windows, all free.
	require.Len(t, slots, 20)
	assert.Equal(t, "08:00 - 08:30", slots[0].Display)
	assert.Equal(t, "17:30 - 18:00", slots[len(slots)-1].Display)
}

func TestFreeSlotsExcludeBookedWindows(t *testing.T) {
	f := newApptFixture(t)
	day := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	f.seedAppointment(day.Add(10*time.Hour), 60, model.StatusConfirmed) // 10:00–11:00

	slots, err := f.svc.FreeSlots(context.Background(), dto.AvailabilityQuery{
		Date:            "2026-03-10",
		VeterinarianID:  f.vet.ID.String(),
		DurationMinutes: 30,
	})
	require.NoError(t, err)

	assert.Len(t, slots, 18, "the 10:00 and 10:30 candidates are taken")
	for _, s := range slots {
		assert.NotEqual(t, "10:00 - 10:30", s.Display)
		assert.NotEqual(t, "10:30 - 11:00", s.Display)
	}
}

func TestFreeSlotsLongDurationFitsBeforeClose(t *testing.T) {
	f := newApptFixture(t)

	slots, err := f.svc.FreeSlots(context.Background(), dto.AvailabilityQuery{
		Date:            "2026-03-10",
		VeterinarianID:  f.vet.ID.String(),
		DurationMinutes: 120,
	})
	require.NoError(t, err)

	// Last 2-hour window that still ends by 18:00 starts at 16:00.
	assert.Equal(t, "16:00 - 18:00", slots[len(slots)-1].Display)
}

// ── Scheduling ────────────────────────────────────────────────────────────────

func TestScheduleRejectsDoubleBooking(t *testing.T) {
	f := newApptFixture(t)
	start := tomorrowAt(14, 0)
	f.seedAppointment(start, 30, model.StatusScheduled)

	vetID := f.vet.ID.String()
	_, err := f.svc.Schedule(context.Background(), uuid.Nil, dto.ScheduleAppointmentRequest{
		PetID:          f.pet.ID.String(),
		VeterinarianID: &vetID,
		StartsAt:       start.Add(15 * time.Minute).Format(time.RFC3339),
		Type:           "consultation",
	})
	assert.ErrorIs(t, err, service.ErrNotAvailable)
}

func TestScheduleDefaultsDurationByType(t *testing.T) {
	f := newApptFixture(t)
	vetID := f.vet.ID.String()

	resp, err := f.svc.Schedule(context.Background(), uuid.Nil, dto.ScheduleAppointmentRequest{
		PetID:          f.pet.ID.String(),
		VeterinarianID: &vetID,
		StartsAt:       tomorrowAt(9, 0).Format(time.RFC3339),
		Type:           "surgery",
	})
	require.NoError(t, err)
	assert.Equal(t, 120, resp.DurationMinutes)
	assert.Equal(t, "scheduled", resp.Status)
}

func TestScheduleRejectsPastStart(t *testing.T) {
	f := newApptFixture(t)

	_, err := f.svc.Schedule(context.Background(), uuid.Nil, dto.ScheduleAppointmentRequest{
		PetID:    f.pet.ID.String(),
		StartsAt: time.Now().UTC().Add(-time.Hour).Format(time.RFC3339),
		Type:     "consultation",
	})
	assert.ErrorContains(t, err, "in the past")
}

func TestScheduleWithoutVeterinarianNeverConflicts(t *testing.T) {
	f := newApptFixture(t)
	start := tomorrowAt(10, 0)
	f.seedAppointment(start, 30, model.StatusScheduled)

	// No vet assigned → no calendar to conflict with.
	resp, err := f.svc.Schedule(context.Background(), uuid.Nil, dto.ScheduleAppointmentRequest{
		PetID:    f.pet.ID.String(),
		StartsAt: start.Format(time.RFC3339),
		Type:     "grooming",
	})
	require.NoError(t, err)
	assert.Nil(t, resp.VeterinarianID)
}

func TestScheduleRejectsReceptionistAsVet(t *testing.T) {
	f := newApptFixture(t)
	reception := &model.User{ID: uuid.New(), Username: "front.desk", Name: "Front Desk", Role: model.RoleReceptionist, Active: true}
	f.users.users[reception.ID] = reception
	recID := reception.ID.String()

	_, err := f.svc.Schedule(context.Background(), uuid.Nil, dto.ScheduleAppointmentRequest{
		PetID:          f.pet.ID.String(),
		VeterinarianID: &recID,
		StartsAt:       tomorrowAt(9, 0).Format(time.RFC3339),
		Type:           "consultation",
	})
	assert.ErrorContains(t, err, "cannot take appointments")
}

// ── Reschedule ────────────────────────────────────────────────────────────────

func TestRescheduleExcludesItselfFromConflictCheck(t *testing.T) {
	f := newApptFixture(t)
	start := tomorrowAt(10, 0)
	appt := f.seedAppointment(start, 30, model.StatusScheduled)

	// Shifting by 15 minutes overlaps the appointment's own old window —
	// which must not count as a conflict.
	newStart := start.Add(15 * time.Minute).Format(time.RFC3339)
	resp, err := f.svc.Update(context.Background(), appt.ID, dto.UpdateAppointmentRequest{
		StartsAt: &newStart,
	})
	require.NoError(t, err)
	assert.Equal(t, newStart, resp.StartsAt)
}

func TestRescheduleConflictsWithOtherBooking(t *testing.T) {
	f := newApptFixture(t)
	first := f.seedAppointment(tomorrowAt(10, 0), 30, model.StatusScheduled)
	f.seedAppointment(tomorrowAt(11, 0), 30, model.StatusScheduled)

	newStart := tomorrowAt(11, 15).Format(time.RFC3339)
	_, err := f.svc.Update(context.Background(), first.ID, dto.UpdateAppointmentRequest{
		StartsAt: &newStart,
	})
	assert.ErrorIs(t, err, service.ErrNotAvailable)
}

func TestRescheduleToPastRejected(t *testing.T) {
	f := newApptFixture(t)
	originalStart := tomorrowAt(10, 0)
	appt := f.seedAppointment(originalStart, 30, model.StatusScheduled)

	past := time.Now().UTC().AddDate(0, 0, -7).Format(time.RFC3339)
	_, err := f.svc.Update(context.Background(), appt.ID, dto.UpdateAppointmentRequest{
		StartsAt: &past,
	})
	require.Error(t, err)
	assert.ErrorContains(t, err, "past")
	assert.True(t, f.repo.appointments[appt.ID].StartsAt.Equal(originalStart),
		"failed reschedule leaves the booking where it was")
}

func TestUpdateRejectsTerminalStatus(t *testing.T) {
	f := newApptFixture(t)
	appt := f.seedAppointment(tomorrowAt(10, 0), 30, model.StatusCompleted)

	notes := "late update"
	_, err := f.svc.Update(context.Background(), appt.ID, dto.UpdateAppointmentRequest{Notes: &notes})
	assert.ErrorContains(t, err, "cannot be modified")
}

// ── Status transitions ────────────────────────────────────────────────────────

func TestAppointmentLifecycleHappyPath(t *testing.T) {
	f := newApptFixture(t)
	appt := f.seedAppointment(tomorrowAt(10, 0), 30, model.StatusScheduled)
	ctx := context.Background()

	resp, err := f.svc.Confirm(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, "confirmed", resp.Status)

	resp, err = f.svc.Start(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, "in_progress", resp.Status)

	notes := "healthy, next check in 6 months"
	resp, err = f.svc.Complete(ctx, appt.ID, &notes)
	require.NoError(t, err)
	assert.Equal(t, "completed", resp.Status)
	require.NotNil(t, resp.Notes)
	assert.Equal(t, notes, *resp.Notes)
}

func TestInvalidTransitions(t *testing.T) {
	cases := []struct {
		name string
		from model.AppointmentStatus
		run  func(svc service.AppointmentService, id uuid.UUID) error
	}{
		{"complete from scheduled", model.StatusScheduled, func(svc service.AppointmentService, id uuid.UUID) error {
			_, err := svc.Complete(context.Background(), id, nil)
			return err
		}},
		{"start from scheduled", model.StatusScheduled, func(svc service.AppointmentService, id uuid.UUID) error {
			_, err := svc.Start(context.Background(), id)
			return err
		}},
		{"confirm completed", model.StatusCompleted, func(svc service.AppointmentService, id uuid.UUID) error {
			_, err := svc.Confirm(context.Background(), id)
			return err
		}},
		{"cancel cancelled", model.StatusCancelled, func(svc service.AppointmentService, id uuid.UUID) error {
			_, err := svc.Cancel(context.Background(), id, nil)
			return err
		}},
		{"no-show in progress", model.StatusInProgress, func(svc service.AppointmentService, id uuid.UUID) error {
			_, err := svc.MarkNoShow(context.Background(), id)
			return err
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newApptFixture(t)
			appt := f.seedAppointment(tomorrowAt(9, 0), 30, tc.from)

			err := tc.run(f.svc, appt.ID)
			var invalid *service.InvalidTransitionError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tc.from, invalid.From)
			assert.NotEmpty(t, invalid.AllowedFrom, "the error names where the target is reachable from")
			assert.NotContains(t, invalid.AllowedFrom, tc.from)
		})
	}
}

func TestInvalidTransitionErrorNamesRequiredSources(t *testing.T) {
	f := newApptFixture(t)
	appt := f.seedAppointment(tomorrowAt(9, 0), 30, model.StatusScheduled)

	_, err := f.svc.Complete(context.Background(), appt.ID, nil)
	var invalid *service.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, []model.AppointmentStatus{model.StatusInProgress}, invalid.AllowedFrom)
	assert.ErrorContains(t, err, "requires in_progress")
}

func TestCancelInProgress(t *testing.T) {
	f := newApptFixture(t)
	appt := f.seedAppointment(tomorrowAt(10, 0), 30, model.StatusInProgress)

	reason := "owner emergency"
	resp, err := f.svc.Cancel(context.Background(), appt.ID, &reason)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", resp.Status)
}

// ── Daily schedule ────────────────────────────────────────────────────────────

func TestDailyScheduleFiltersByVetAndDate(t *testing.T) {
	f := newApptFixture(t)
	day := tomorrowAt(0, 0)
	f.seedAppointment(day.Add(9*time.Hour), 30, model.StatusConfirmed)
	f.seedAppointment(day.Add(11*time.Hour), 30, model.StatusScheduled)
	f.seedAppointment(day.AddDate(0, 0, 1).Add(9*time.Hour), 30, model.StatusScheduled) // next day

	entries, err := f.svc.DailySchedule(context.Background(), day, f.vet.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	for _, e := range entries {
		assert.True(t, e.Upcoming)
		assert.NotEmpty(t, e.TimeSlot)
	}
}
