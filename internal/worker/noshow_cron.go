package worker

// noshow_cron.go
// Background goroutine that periodically sweeps appointments still in
// scheduled or confirmed whose booked window ended more than the grace
// period ago, and marks them no_show. Marking frees the slot for
// availability queries.

import (
	"context"
	"time"

	"github.com/castaxyz/vetcare-stable/internal/model"
	"github.com/castaxyz/vetcare-stable/internal/repository"

	"github.com/rs/zerolog/log"
)

const noShowTickInterval = 1 * time.Minute

// NoShowCronConfig holds the sweep's dependencies.
type NoShowCronConfig struct {
	AppointmentRepo repository.AppointmentRepository
	GracePeriod     time.Duration
}

// StartNoShowCron launches a goroutine that ticks every minute and marks
// unattended appointments. It respects the context for graceful shutdown.
func StartNoShowCron(ctx context.Context, cfg NoShowCronConfig) {
	go func() {
		ticker := time.NewTicker(noShowTickInterval)
		defer ticker.Stop()

		log.Info().Msg("noshow_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("noshow_cron: shutting down")
				return
			case <-ticker.C:
				sweepUnattended(ctx, cfg)
			}
		}
	}()
}

func sweepUnattended(ctx context.Context, cfg NoShowCronConfig) {
	cutoff := time.Now().UTC().Add(-cfg.GracePeriod)

	appointments, err := cfg.AppointmentRepo.FindUnattended(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("noshow_cron: failed to query unattended appointments")
		return
	}
	if len(appointments) == 0 {
		return
	}

	log.Info().Int("count", len(appointments)).Msg("noshow_cron: marking unattended appointments")

	for i := range appointments {
		appt := &appointments[i]
		appt.Status = model.StatusNoShow
		if err := cfg.AppointmentRepo.Update(ctx, appt); err != nil {
			log.Error().Err(err).
				Str("appointment_id", appt.ID.String()).
				Msg("noshow_cron: failed to mark no_show")
			continue
		}
		log.Info().
			Str("appointment_id", appt.ID.String()).
			Time("starts_at", appt.StartsAt).
			Msg("noshow_cron: appointment marked no_show")
	}
}
